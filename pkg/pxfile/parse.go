package pxfile

import (
	"fmt"
	"strings"
)

// keyword is one `NAME[lang]("sub")=value;` statement.
type keyword struct {
	name  string
	lang  string
	sub   string
	value string
}

// scanKeywords calls fn for each statement of src until fn returns false.
func scanKeywords(src string, fn func(keyword) bool) error {
	i := 0
	for {
		for i < len(src) && isSpace(src[i]) {
			i++
		}
		if i >= len(src) {
			return nil
		}
		eq := indexUnquoted(src, i, '=')
		if eq < 0 {
			return fmt.Errorf("pxfile: statement without '=' at offset %d", i)
		}
		semi := indexUnquoted(src, eq+1, ';')
		if semi < 0 {
			semi = len(src)
		}
		kw := parseKey(strings.TrimSpace(src[i:eq]))
		kw.value = src[eq+1 : semi]
		if !fn(kw) {
			return nil
		}
		i = semi + 1
	}
}

// indexUnquoted returns the index of the first b at or after from that is
// outside a double-quoted string.
func indexUnquoted(s string, from int, b byte) int {
	quoted := false
	for i := from; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			quoted = !quoted
		case c == b && !quoted:
			return i
		}
	}
	return -1
}

func parseKey(s string) keyword {
	var kw keyword
	if open := strings.IndexByte(s, '('); open >= 0 {
		if end := strings.LastIndexByte(s, ')'); end > open {
			kw.sub = strings.Trim(strings.TrimSpace(s[open+1:end]), `"`)
		}
		s = s[:open]
	}
	if open := strings.IndexByte(s, '['); open >= 0 {
		if end := strings.IndexByte(s[open:], ']'); end > 0 {
			kw.lang = s[open+1 : open+end]
		}
		s = s[:open]
	}
	kw.name = strings.ToUpper(strings.TrimSpace(s))
	return kw
}

// parseStrings splits a value list. Adjacent quoted strings not separated
// by a comma are concatenated, which is how long values wrap across lines.
func parseStrings(v string) []string {
	var (
		out    []string
		cur    strings.Builder
		inItem bool
	)
	flush := func() {
		if inItem {
			out = append(out, cur.String())
		}
		cur.Reset()
		inItem = false
	}
	for i := 0; i < len(v); {
		c := v[i]
		switch {
		case isSpace(c):
			i++
		case c == ',':
			flush()
			i++
		case c == '"':
			end := strings.IndexByte(v[i+1:], '"')
			if end < 0 {
				end = len(v) - i - 1
			}
			cur.WriteString(v[i+1 : i+1+end])
			inItem = true
			i += end + 2
		default:
			j := i
			for j < len(v) && v[j] != ',' && !isSpace(v[j]) {
				j++
			}
			cur.WriteString(v[i:j])
			inItem = true
			i = j
		}
	}
	flush()
	return out
}

// parseCells splits the DATA value into cell tokens. Tokens are substrings
// of v; quoted tokens lose their quotes.
func parseCells(v string) []string {
	out := make([]string, 0, len(v)/4)
	for i := 0; i < len(v); {
		c := v[i]
		switch {
		case isSpace(c) || c == ',':
			i++
		case c == '"':
			end := strings.IndexByte(v[i+1:], '"')
			if end < 0 {
				end = len(v) - i - 1
			}
			out = append(out, v[i+1:i+1+end])
			i += end + 2
		default:
			j := i
			for j < len(v) && v[j] != ',' && !isSpace(v[j]) {
				j++
			}
			out = append(out, v[i:j])
			i = j
		}
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// parse builds a Table from decoded text. With headerOnly it stops before
// DATA and leaves Cells empty.
func parse(src string, headerOnly bool) (*Table, error) {
	t := &Table{}
	var stub, heading []string
	values := make(map[string][]string)
	sawData := false

	err := scanKeywords(src, func(kw keyword) bool {
		if kw.lang != "" {
			return true
		}
		switch kw.name {
		case "CHARSET":
			t.Charset = firstString(kw.value)
		case "LANGUAGE":
			t.Language = firstString(kw.value)
		case "TITLE":
			t.Title = firstString(kw.value)
		case "STUB":
			stub = parseStrings(kw.value)
		case "HEADING":
			heading = parseStrings(kw.value)
		case "VALUES":
			values[kw.sub] = parseStrings(kw.value)
		case "DATA":
			sawData = true
			if !headerOnly {
				t.Cells = parseCells(kw.value)
			}
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	for _, name := range append(stub, heading...) {
		t.Variables = append(t.Variables, Variable{Name: name, Values: values[name]})
	}
	if headerOnly {
		return t, nil
	}
	if !sawData {
		return nil, ErrNoData
	}
	total := 1
	for _, v := range t.Variables {
		total *= len(v.Values)
	}
	if len(t.Variables) == 0 || total != len(t.Cells) {
		return nil, fmt.Errorf("%w: %d cells, %d expected", ErrShape, len(t.Cells), total)
	}
	return t, nil
}

func firstString(v string) string {
	if s := parseStrings(v); len(s) > 0 {
		return s[0]
	}
	return ""
}
