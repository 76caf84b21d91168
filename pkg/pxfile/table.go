// Package pxfile reads PC-Axis statistical tables.
package pxfile

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hazyhaar/votemap/pkg/tally"
)

var (
	ErrNoCleanEncoding = errors.New("pxfile: no candidate encoding decodes the table cleanly")
	ErrNoData          = errors.New("pxfile: DATA keyword missing")
	ErrShape           = errors.New("pxfile: cell count does not match the variable values")
	ErrNoVariable      = errors.New("pxfile: variable not found")
)

// Variable is one dimension of the table, in STUB then HEADING order.
type Variable struct {
	Name   string
	Values []string
}

// Table is a parsed PC-Axis cube. Cells are stored row-major with the last
// variable varying fastest.
type Table struct {
	Title     string
	Charset   string
	Language  string
	Encoding  string
	Variables []Variable
	Cells     []string
}

// Columns maps the table variables onto observation fields.
type Columns struct {
	Area     string `yaml:"area"`
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
}

// DefaultColumns names the variables of the federal vote statistics export.
func DefaultColumns() Columns {
	return Columns{
		Area:     "Kanton (-) / Bezirk (>>) / Gemeinde (......)",
		Title:    "Datum und Vorlage",
		Category: "Ergebnis",
	}
}

// Variable returns the index of the named variable.
func (t *Table) Variable(name string) (int, error) {
	for i, v := range t.Variables {
		if v.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrNoVariable, name)
}

// Titles returns the values of the title variable in file order.
func (t *Table) Titles(cols Columns) ([]string, error) {
	i, err := t.Variable(cols.Title)
	if err != nil {
		return nil, err
	}
	return slices.Clone(t.Variables[i].Values), nil
}

// Observations returns the cells of one title in file order. Variables
// other than area, title and category are ignored except for ordering.
func (t *Table) Observations(cols Columns, title string) ([]tally.RawObservation, error) {
	av, err := t.Variable(cols.Area)
	if err != nil {
		return nil, err
	}
	tv, err := t.Variable(cols.Title)
	if err != nil {
		return nil, err
	}
	cv, err := t.Variable(cols.Category)
	if err != nil {
		return nil, err
	}
	ti := slices.Index(t.Variables[tv].Values, title)
	if ti < 0 {
		return nil, nil
	}

	n := len(t.Variables)
	strides := make([]int, n)
	total := 1
	for k := n - 1; k >= 0; k-- {
		strides[k] = total
		total *= len(t.Variables[k].Values)
	}
	if total == 0 {
		return nil, nil
	}
	if total != len(t.Cells) {
		return nil, fmt.Errorf("%w: %d cells, %d expected", ErrShape, len(t.Cells), total)
	}

	out := make([]tally.RawObservation, 0, total/len(t.Variables[tv].Values))
	idx := make([]int, n)
	idx[tv] = ti
	for {
		off := 0
		for k, i := range idx {
			off += i * strides[k]
		}
		out = append(out, tally.RawObservation{
			AreaLabel: t.Variables[av].Values[idx[av]],
			Title:     title,
			Category:  t.Variables[cv].Values[idx[cv]],
			Value:     t.Cells[off],
		})

		k := n - 1
		for ; k >= 0; k-- {
			if k == tv {
				continue
			}
			idx[k]++
			if idx[k] < len(t.Variables[k].Values) {
				break
			}
			idx[k] = 0
		}
		if k < 0 {
			return out, nil
		}
	}
}
