package tally

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNoTitles     = errors.New("tally: no referendum titles found")
	ErrNoTitleMatch = errors.New("tally: no titles match filter")
	ErrNoRegionRows = errors.New("tally: no region-level rows after normalization")
	ErrTitleIndex   = errors.New("tally: title index out of range")
)

// Titles returns the distinct non-empty titles in sorted order.
func Titles(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if strings.TrimSpace(t) == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// SelectTitle picks the first title containing filter case-insensitively,
// or titles[index] when filter is empty.
func SelectTitle(titles []string, filter string, index int) (string, error) {
	if len(titles) == 0 {
		return "", ErrNoTitles
	}
	if filter != "" {
		for _, t := range titles {
			if strings.Contains(strings.ToLower(t), strings.ToLower(filter)) {
				return t, nil
			}
		}
		return "", fmt.Errorf("%w: %q", ErrNoTitleMatch, filter)
	}
	if index < 0 || index >= len(titles) {
		return "", fmt.Errorf("%w: %d of %d", ErrTitleIndex, index, len(titles))
	}
	return titles[index], nil
}

// Search returns the titles containing q case-insensitively, in order.
// An empty query returns all titles.
func Search(titles []string, q string) []string {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return append([]string(nil), titles...)
	}
	var out []string
	for _, t := range titles {
		if strings.Contains(strings.ToLower(t), q) {
			out = append(out, t)
		}
	}
	return out
}
