package tally

import (
	"encoding/json"
	"testing"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input string
		want  Value
	}{
		{"1'234,5", Some(1234.5)},
		{"1 234,5", Some(1234.5)},
		{"1\u00a0234,5", Some(1234.5)},
		{"1\u202f234,5", Some(1234.5)},
		{"100", Some(100)},
		{"56.7", Some(56.7)},
		{" 42 ", Some(42)},
		{"-3,25", Some(-3.25)},
		{"n/a", Absent},
		{"...", Absent},
		{"-", Absent},
		{"", Absent},
		{"NaN", Absent},
		{"Inf", Absent},
		{"0x1p3", Absent},
		{"1_000", Absent},
		{"1e400", Absent},
		{"1,5e3", Some(1500)},
		{".5", Some(0.5)},
	}
	for _, tt := range tests {
		got := ParseNumber(tt.input)
		if got != tt.want {
			t.Errorf("ParseNumber(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Value `json:"a"`
		B Value `json:"b"`
	}{Some(60), Absent})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"a":60,"b":null}` {
		t.Errorf("json = %s", data)
	}

	var back struct {
		A Value `json:"a"`
		B Value `json:"b"`
	}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.A != Some(60) || back.B.Valid {
		t.Errorf("round trip = %+v", back)
	}
}

func TestValueOr(t *testing.T) {
	if Absent.Or(7) != 7 {
		t.Error("Absent.Or(7) != 7")
	}
	if Some(3).Or(7) != 3 {
		t.Error("Some(3).Or(7) != 3")
	}
}
