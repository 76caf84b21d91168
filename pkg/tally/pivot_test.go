package tally

import (
	"math"
	"testing"
)

func TestPivot_Derived(t *testing.T) {
	rows := []CollapsedMetric{
		{RegionKey: "ZUG", Category: "Ja", Value: Some(30)},
		{RegionKey: "BERN", Category: "Ja", Value: Some(60)},
		{RegionKey: "BERN", Category: "Nein", Value: Some(40)},
		{RegionKey: "ZUG", Category: "Nein", Value: Some(10)},
		{RegionKey: "URI", Category: "Nein", Value: Some(5)},
		{RegionKey: "JURA", Category: "Ja", Value: Some(0)},
		{RegionKey: "JURA", Category: "Nein", Value: Some(0)},
		{RegionKey: "GLARUS", Category: "Ja", Value: Absent},
		{RegionKey: "GLARUS", Category: "Nein", Value: Absent},
	}
	got, err := Pivot(rows, DefaultConfig())
	if err != nil {
		t.Fatalf("Pivot: %v", err)
	}

	want := []RegionMetrics{
		{RegionKey: "BERN", Yes: Some(60), No: Some(40), Total: Some(100), YesPct: Some(60)},
		{RegionKey: "GLARUS"},
		{RegionKey: "JURA", Yes: Some(0), No: Some(0), Total: Some(0)},
		{RegionKey: "URI", No: Some(5), Total: Some(5)},
		{RegionKey: "ZUG", Yes: Some(30), No: Some(10), Total: Some(40), YesPct: Some(75)},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d", len(got), len(want))
	}
	for i, w := range want {
		g := got[i]
		if g.RegionKey != w.RegionKey || g.Yes != w.Yes || g.No != w.No || g.Total != w.Total || g.YesPct != w.YesPct {
			t.Errorf("row %d = %+v, want %+v", i, g, w)
		}
	}
}

func TestPivot_MissingColumnSkipsDerived(t *testing.T) {
	rows := []CollapsedMetric{
		{RegionKey: "ZUG", Category: "Ja", Value: Some(30)},
		{RegionKey: "ZUG", Category: "Stimmberechtigte", Value: Some(90)},
	}
	got, err := Pivot(rows, DefaultConfig())
	if err != nil {
		t.Fatalf("Pivot: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("rows = %+v", got)
	}
	if got[0].Yes != Some(30) || got[0].Total.Valid || got[0].YesPct.Valid {
		t.Errorf("row = %+v", got[0])
	}
	if got[0].Categories["Stimmberechtigte"] != Some(90) {
		t.Errorf("categories = %+v", got[0].Categories)
	}
}

func TestPivot_Totals(t *testing.T) {
	var rows []CollapsedMetric
	keys := []string{"A", "B", "C", "D", "E", "F"}
	for i, k := range keys {
		yes := float64(i * 37 % 101)
		no := float64(i * 53 % 97)
		rows = append(rows,
			CollapsedMetric{RegionKey: k, Category: "JA", Value: Some(yes)},
			CollapsedMetric{RegionKey: k, Category: "NEIN", Value: Some(no)},
		)
	}
	got, err := Pivot(rows, DefaultConfig())
	if err != nil {
		t.Fatalf("Pivot: %v", err)
	}
	for i, r := range got {
		if i > 0 && got[i-1].RegionKey >= r.RegionKey {
			t.Errorf("rows not sorted at %d", i)
		}
		if r.Yes.Valid && r.No.Valid && r.Total.Float != r.Yes.Float+r.No.Float {
			t.Errorf("%s: total %v != %v + %v", r.RegionKey, r.Total.Float, r.Yes.Float, r.No.Float)
		}
		if r.Total.Float > 0 {
			if !r.YesPct.Valid || r.YesPct.Float < 0 || r.YesPct.Float > 100 || math.IsNaN(r.YesPct.Float) {
				t.Errorf("%s: yes_pct = %+v", r.RegionKey, r.YesPct)
			}
		}
	}
}

func TestPivot_BadPattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.YesPattern = "("
	if _, err := Pivot(nil, cfg); err == nil {
		t.Error("expected pattern error")
	}
}
