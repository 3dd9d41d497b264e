package db

import "testing"

func mustBuild(t *testing.T, b *IndexBuilder) *IndexDefinition {
	t.Helper()
	idx, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return idx
}

func TestIndexBuilder_DefaultsToHash(t *testing.T) {
	idx := mustBuild(t, NewIndex("test-idx").
		Prefix("doc:").
		TagAs("category", "cat"))

	if idx.Name != "test-idx" {
		t.Errorf("name = %q, want test-idx", idx.Name)
	}
	if idx.StorageType != StorageHash {
		t.Errorf("storage = %q, want HASH", idx.StorageType)
	}
	if len(idx.Prefixes) != 1 || idx.Prefixes[0] != "doc:" {
		t.Errorf("prefixes = %v", idx.Prefixes)
	}
}

func TestIndexBuilder_JSONWithAliases(t *testing.T) {
	idx := mustBuild(t, NewIndex("plz:idx").
		OnJSON().
		Prefix("plz:zip:").
		TextAs("$.zip_code", "zip_code").
		TextAs("$.name", "name").
		TagAs("$.country_code", "country_code"))

	if idx.StorageType != StorageJSON {
		t.Errorf("storage = %q, want JSON", idx.StorageType)
	}
	if len(idx.Fields) != 3 {
		t.Fatalf("fields count = %d, want 3", len(idx.Fields))
	}
	if f := idx.Fields[0]; f.Name != "$.zip_code" || f.Alias != "zip_code" || f.Type != IndexFieldText {
		t.Errorf("field[0] = %+v", f)
	}
	if f := idx.Fields[2]; f.Name != "$.country_code" || f.Alias != "country_code" || f.Type != IndexFieldTag {
		t.Errorf("field[2] = %+v", f)
	}
}

func TestIndexBuilder_JSONRequiresAlias(t *testing.T) {
	_, err := NewIndex("idx").OnJSON().TextAs("$.name", "").Build()
	if err == nil {
		t.Fatal("expected error for JSON field without alias")
	}
}

func TestIndexBuilder_DuplicateAlias(t *testing.T) {
	_, err := NewIndex("idx").OnJSON().
		TextAs("$.a", "name").
		TextAs("$.b", "name").
		Build()
	if err == nil {
		t.Fatal("expected duplicate field error")
	}
}

func TestIndexBuilder_NoFields(t *testing.T) {
	if _, err := NewIndex("idx").Build(); err == nil {
		t.Fatal("expected error for empty schema")
	}
}

func TestIndexBuilder_InvalidName(t *testing.T) {
	if _, err := NewIndex("bad name!").TextAs("x", "x").Build(); err == nil {
		t.Fatal("expected error for invalid index name")
	}
	if _, err := NewIndex("").TextAs("x", "x").Build(); err == nil {
		t.Fatal("expected error for empty index name")
	}
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"plz_geosearch:idx", true},
		{"a-b_c:1", true},
		{"", false},
		{"has space", false},
		{"dot.ted", false},
	}
	for _, tt := range tests {
		if got := IsValidIdentifier(tt.s); got != tt.want {
			t.Errorf("IsValidIdentifier(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}
