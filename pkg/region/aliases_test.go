package region

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAliases_Defaults(t *testing.T) {
	table, err := LoadAliases("")
	if err != nil {
		t.Fatalf("LoadAliases: %v", err)
	}
	if table["GENF"] != "GENÈVE" {
		t.Errorf("GENF = %q, want GENÈVE", table["GENF"])
	}
	if table["FREIBURG"] != "FRIBOURG" {
		t.Errorf("FREIBURG = %q, want FRIBOURG", table["FREIBURG"])
	}
}

func TestLoadAliases_Merge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	os.WriteFile(path, []byte(`id: cantons-ch
source: test
aliases:
  Tessin: Ticino
  Waadt: Vaud
  Neuenburg: Neuchâtel
`), 0o644)

	table, err := LoadAliases(path)
	if err != nil {
		t.Fatalf("LoadAliases: %v", err)
	}
	if table["TESSIN"] != "TICINO" {
		t.Errorf("TESSIN = %q, want TICINO", table["TESSIN"])
	}
	if table["NEUENBURG"] != "NEUCHÂTEL" {
		t.Errorf("NEUENBURG = %q, want NEUCHÂTEL", table["NEUENBURG"])
	}
	if table["GENF"] != "GENÈVE" {
		t.Error("defaults should survive a merge")
	}
}

func TestLoadAliases_Replace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	os.WriteFile(path, []byte("id: only\nreplace: true\naliases:\n  Waadt: Vaud\n"), 0o644)

	table, err := LoadAliases(path)
	if err != nil {
		t.Fatalf("LoadAliases: %v", err)
	}
	if len(table) != 1 || table["WAADT"] != "VAUD" {
		t.Errorf("table = %v, want only WAADT", table)
	}
	if got := table.Variants(); len(got) != 1 || got[0] != "WAADT" {
		t.Errorf("Variants = %v", got)
	}
}

func TestLoadAliases_MissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	os.WriteFile(path, []byte("aliases:\n  Waadt: Vaud\n"), 0o644)
	if _, err := LoadAliases(path); err == nil {
		t.Error("expected error for manifest without id")
	}
}

func TestLoadAliases_MissingFile(t *testing.T) {
	if _, err := LoadAliases(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
