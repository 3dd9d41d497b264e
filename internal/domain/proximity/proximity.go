// Package proximity defines the index strategy and the build manifest.
package proximity

import (
	"fmt"
	"time"
)

// Strategy selects how neighbour relationships are produced.
type Strategy string

const (
	// Eager precomputes every within-radius neighbour list at build time.
	Eager Strategy = "eager"
	// Lazy stores coordinates only and answers radius queries from a spatial index.
	Lazy Strategy = "lazy"
)

// IsValid checks if the strategy is one of the supported values.
func (s Strategy) IsValid() bool {
	return s == Eager || s == Lazy
}

// ParseStrategy converts a config string into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(s)
	if !st.IsValid() {
		return "", fmt.Errorf("unknown index strategy %q (want %q or %q)", s, Eager, Lazy)
	}
	return st, nil
}

// Manifest is the completion marker of a successful build. It is written last.
type Manifest struct {
	Strategy  Strategy
	MaxDistKm float64
	Count     int
	BuiltAt   time.Time
}

// Satisfies reports whether an index described by m can serve the given
// strategy and maximum radius without a rebuild.
func (m Manifest) Satisfies(strategy Strategy, maxDistKm float64) bool {
	if m.Strategy != strategy || m.Count <= 0 {
		return false
	}
	if strategy == Eager && m.MaxDistKm < maxDistKm {
		return false
	}
	return true
}
