package rules_test

import (
	"os"
	"path/filepath"
	"testing"

	"go-social-dashboard/internal/rules"
)

func TestRules_GetPreset(t *testing.T) {
	r := &rules.Rules{Presets: map[string]rules.Preset{
		"Default": {Listing: &rules.Listing{Item: ".i"}},
		"forum":   {Listing: &rules.Listing{Item: ".c"}},
	}}
	p, ok := r.GetPreset("")
	if !ok || p.Listing == nil || p.Listing.Item != ".i" {
		t.Fatalf("default fallback failed: %+v", p)
	}
	p, ok = r.GetPreset("FORUM")
	if !ok || p.Listing.Item != ".c" {
		t.Fatalf("case-insensitive lookup failed: %+v", p)
	}
	p, ok = r.GetPreset("missing")
	if !ok || p.Listing.Item != ".i" {
		t.Fatalf("unknown name should fall back to default: %+v", p)
	}
	var empty *rules.Rules
	if _, ok := empty.GetPreset("x"); ok {
		t.Fatalf("nil rules should report not found")
	}
}

func TestRules_Load(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "rules.yaml")
	yml := "default:\n  listing:\n    item: .post\n    content: .text||.\n    date: time@datetime\n"
	if err := os.WriteFile(f, []byte(yml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := rules.Load(f)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p, ok := r.GetPreset("default")
	if !ok || p.Listing.Content != ".text||." || p.Listing.Date != "time@datetime" {
		t.Fatalf("preset: %+v", p.Listing)
	}

	if err := os.WriteFile(f, []byte("broken:\n  listing:\n    content: .x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := rules.Load(f); err == nil {
		t.Fatalf("expect error for preset without item")
	}
	if _, err := rules.Load(filepath.Join(dir, "none.yaml")); err == nil {
		t.Fatalf("expect error for missing file")
	}
}
