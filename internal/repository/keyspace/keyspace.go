// Package keyspace derives every Redis key plzgeo uses from one namespace.
package keyspace

import "strings"

// Keyspace maps logical objects to Redis keys under a namespace.
type Keyspace struct {
	ns string
}

// New returns a keyspace for the namespace. A trailing ':' is added if missing.
func New(namespace string) Keyspace {
	if namespace != "" && !strings.HasSuffix(namespace, ":") {
		namespace += ":"
	}
	return Keyspace{ns: namespace}
}

// Namespace returns the normalised namespace, including the trailing ':'.
func (k Keyspace) Namespace() string { return k.ns }

// DocPrefix is the key prefix shared by all location documents.
func (k Keyspace) DocPrefix() string { return k.ns + "zip:" }

// Doc returns the document key for a zip code.
func (k Keyspace) Doc(code string) string { return k.DocPrefix() + code }

// Index is the FT index over location documents.
func (k Keyspace) Index() string { return k.ns + "idx" }

// Geo is the GEO set used by the lazy strategy.
func (k Keyspace) Geo() string { return k.ns + "geo" }

// GeoCoords is the hash of exact member coordinates beside the GEO set.
func (k Keyspace) GeoCoords() string { return k.ns + "geo:coords" }

// Manifest is the hash holding the build manifest.
func (k Keyspace) Manifest() string { return k.ns + "manifest" }
