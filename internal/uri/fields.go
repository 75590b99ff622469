package uri

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// Delimiter separates display fields.
const Delimiter = " - "

var quotedRe = regexp.MustCompile(`^"([^"\\]*(?:\\.[^"\\]*)*)"`)

// FormatFields joins fields with the delimiter. Fields that contain the
// delimiter or start with a double quote are written as JSON strings.
// Trailing empty fields are dropped.
func FormatFields(fields []string) string {
	end := len(fields)
	for end > 0 && fields[end-1] == "" {
		end--
	}
	out := make([]string, 0, end)
	for _, f := range fields[:end] {
		if strings.Contains(f, Delimiter) || strings.HasPrefix(f, `"`) {
			f = quote(f)
		}
		out = append(out, f)
	}
	return strings.Join(out, Delimiter)
}

// ParseFields splits a display suffix back into fields.
//
// A quoted field is only taken as quoted when the closing quote is followed
// by the delimiter or the end of input; otherwise it is read literally.
// A truncated trailing " -" left behind by manual edits is tolerated.
func ParseFields(s string) []string {
	s = strings.TrimRight(s, " ")
	s = strings.TrimSuffix(s, " -")
	if s == "" {
		return nil
	}
	var fields []string
	for {
		if m := quotedRe.FindStringIndex(s); m != nil {
			rest := s[m[1]:]
			if rest == "" || strings.HasPrefix(rest, Delimiter) {
				if v, ok := unquote(s[:m[1]]); ok {
					fields = append(fields, v)
					if rest == "" {
						return fields
					}
					s = rest[len(Delimiter):]
					continue
				}
			}
		}
		i := strings.Index(s, Delimiter)
		if i < 0 {
			return append(fields, s)
		}
		fields = append(fields, s[:i])
		s = s[i+len(Delimiter):]
	}
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// encoding a string never fails
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func unquote(s string) (string, bool) {
	var v string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return "", false
	}
	return v, true
}
