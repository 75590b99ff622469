package library

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var (
	// "(Live)", "[Remastered 2009]", "（伴奏）" and similar decorations
	bracketRe = regexp.MustCompile(`[(\[（【][^)\]）】]*[)\]）】]`)
	// "- Remastered", "- Live at ..." suffixes
	dashSuffixRe = regexp.MustCompile(`\s+-\s+.*$`)
	featRe       = regexp.MustCompile(`(?i)\s+(feat\.?|ft\.?|featuring)\s+.*$`)
	artistSepRe  = regexp.MustCompile(`\s*(,|&|/|、|;|\band\b|\bx\b)\s*`)
)

var folder = cases.Fold()

// fold applies NFKC, folds full-width forms and case, and keeps only
// letters and digits.
func fold(s string) string {
	s = norm.NFKC.String(s)
	s = width.Fold.String(s)
	s = folder.String(s)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeTitle strips decorations that differ between providers for the
// same recording.
func normalizeTitle(title string) string {
	t := bracketRe.ReplaceAllString(title, " ")
	t = featRe.ReplaceAllString(t, "")
	if stripped := dashSuffixRe.ReplaceAllString(t, ""); strings.TrimSpace(stripped) != "" {
		t = stripped
	}
	return fold(t)
}

// romanize replaces Han characters with their pinyin so that artist names
// written in simplified and traditional forms, or already romanised,
// compare equal more often.
func romanize(s string) string {
	hasHan := false
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			hasHan = true
			break
		}
	}
	if !hasHan {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			if py := pinyin.LazyConvert(string(r), nil); len(py) > 0 {
				b.WriteString(py[0])
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// artistKeys splits an artists string and normalises every name.
func artistKeys(artists string) []string {
	var keys []string
	for _, name := range artistSepRe.Split(artists, -1) {
		if k := fold(romanize(name)); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// primaryArtist returns the first artist of an artists string.
func primaryArtist(artists string) string {
	parts := artistSepRe.Split(artists, 2)
	return strings.TrimSpace(parts[0])
}
