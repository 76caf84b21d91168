package tally

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Value is a number that may be absent. Absent values are "no data", never zero.
type Value struct {
	Float float64
	Valid bool
}

// Some returns a present value.
func Some(f float64) Value { return Value{Float: f, Valid: true} }

// Absent is the missing value.
var Absent = Value{}

// Or returns the number, or def when absent.
func (v Value) Or(def float64) float64 {
	if !v.Valid {
		return def
	}
	return v.Float
}

// String formats the value the way the collapser compares duplicates.
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float, 'g', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Absent
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// numberNoise lists the digit-group separators found in the exports.
var numberNoise = strings.NewReplacer("\u202f", "", "\u00a0", "", "'", "", "\u2019", "", " ", "")

// plainNumber is decimal notation with an optional exponent; Go-only forms
// such as hex floats or digit underscores are not numbers in the exports.
var plainNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber reads a locale-formatted number such as "1'234,5" or
// "1 234,5" (any space variant). Anything unparsable is absent.
func ParseNumber(s string) Value {
	s = numberNoise.Replace(strings.TrimSpace(s))
	if s == "" {
		return Absent
	}
	s = strings.ReplaceAll(s, ",", ".")
	if !plainNumber.MatchString(s) {
		return Absent
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Absent
	}
	return Some(f)
}
