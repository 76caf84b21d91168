package pxfile

import (
	"bytes"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncodings is the order in which encodings are tried.
var DefaultEncodings = []string{"utf-8", "windows-1252", "iso-8859-15", "iso-8859-2"}

// misdecoded holds characters that only show up in titles decoded with the
// wrong charset.
const misdecoded = "\ufffd\u00c3\u00c2"

var charsetDecl = regexp.MustCompile(`CHARSET\s*=\s*"([^"]*)"`)

// Decode converts data to text with the first candidate encoding whose
// title values carry no mis-decoding indicator. A CHARSET="ANSI" header
// moves windows-1252 to the front.
func Decode(data []byte, encodings []string, titleVar string) (text, encoding string, err error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}
	encodings = candidateOrder(data, encodings)

	var lastErr error

	for _, name := range encodings {
		enc, err := htmlindex.Get(name)
		if err != nil {
			return "", "", fmt.Errorf("unsupported encoding %q: %w", name, err)
		}
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		text := string(out)
		hdr, err := parse(text, true)
		if err != nil {
			lastErr = err
			continue
		}
		if clean(hdr, titleVar) {
			return text, name, nil
		}
	}
	if lastErr != nil {
		return "", "", fmt.Errorf("%w (tried %s): %w", ErrNoCleanEncoding, strings.Join(encodings, ", "), lastErr)
	}
	return "", "", fmt.Errorf("%w (tried %s)", ErrNoCleanEncoding, strings.Join(encodings, ", "))
}

func candidateOrder(data []byte, encodings []string) []string {
	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	m := charsetDecl.FindSubmatch(head)
	if m == nil || !strings.EqualFold(string(m[1]), "ANSI") {
		return encodings
	}
	out := []string{"windows-1252"}
	for _, e := range encodings {
		if !strings.EqualFold(e, "windows-1252") {
			out = append(out, e)
		}
	}
	return out
}

// clean reports whether the title variable, or every variable when it is
// missing, decoded without indicator characters.
func clean(t *Table, titleVar string) bool {
	check := []string{t.Title}
	if i := slices.IndexFunc(t.Variables, func(v Variable) bool { return v.Name == titleVar }); i >= 0 {
		check = t.Variables[i].Values
	} else {
		for _, v := range t.Variables {
			check = append(check, v.Name)
			check = append(check, v.Values...)
		}
	}
	for _, s := range check {
		if strings.ContainsAny(s, misdecoded) {
			return false
		}
	}
	return true
}
