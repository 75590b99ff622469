package lyric

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// stampRe matches [mm:ss.cs], [h:mm:ss.cs] and [s.cs]. Tags such as
// [ar:Someone] do not match and are ignored.
var stampRe = regexp.MustCompile(`\[(\d+(?::\d+){0,2}(?:\.\d+)?)\]`)

// Line is one timed sentence and its optional translation.
type Line struct {
	At     time.Duration
	Origin string
	Trans  string
}

// Lyric is a parsed timed lyric, sorted by time.
type Lyric struct {
	lines []Line
}

// Parse parses LRC text. A line may carry several stamps; each of them
// maps to the text after the last one. When two lines share a stamp the
// later wins.
//
// Example:
//
//	l := lyric.Parse("[00:00.00]Hello\n[00:02.00][00:10.00]World")
//	l.Len() // 3
func Parse(content string) *Lyric {
	return ParseWithTranslation(content, "")
}

// ParseWithTranslation parses content and attaches the sentences of trans
// whose stamps match exactly.
func ParseWithTranslation(content, trans string) *Lyric {
	origin := parseMap(content)
	tr := parseMap(trans)

	l := &Lyric{lines: make([]Line, 0, len(origin))}
	for at, text := range origin {
		l.lines = append(l.lines, Line{At: at, Origin: text, Trans: tr[at]})
	}
	sort.Slice(l.lines, func(i, j int) bool { return l.lines[i].At < l.lines[j].At })
	return l
}

func parseMap(content string) map[time.Duration]string {
	out := map[time.Duration]string{}
	for _, raw := range strings.Split(content, "\n") {
		raw = strings.TrimRight(raw, "\r")
		locs := stampRe.FindAllStringSubmatchIndex(raw, -1)
		if len(locs) == 0 {
			continue
		}
		text := strings.TrimSpace(raw[locs[len(locs)-1][1]:])
		for _, loc := range locs {
			if at, ok := parseStamp(raw[loc[2]:loc[3]]); ok {
				out[at] = text
			}
		}
	}
	return out
}

// parseStamp converts "mm:ss.cs", "h:mm:ss.cs" or "s.cs" to a duration.
func parseStamp(s string) (time.Duration, bool) {
	whole, frac, _ := strings.Cut(s, ".")
	var sec int64
	for _, part := range strings.Split(whole, ":") {
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0, false
		}
		sec = sec*60 + v
	}
	d := time.Duration(sec) * time.Second
	if frac != "" {
		f, err := strconv.ParseFloat("0."+frac, 64)
		if err != nil {
			return 0, false
		}
		d += time.Duration(f * float64(time.Second)).Round(time.Millisecond)
	}
	return d, true
}

// Len returns the number of timed lines.
func (l *Lyric) Len() int {
	if l == nil {
		return 0
	}
	return len(l.lines)
}

// Lines returns a copy of the lines in time order.
func (l *Lyric) Lines() []Line {
	if l == nil {
		return nil
	}
	return append([]Line(nil), l.lines...)
}

// Line returns the i-th line.
func (l *Lyric) Line(i int) Line { return l.lines[i] }

// HasTranslation reports whether any line carries a translation.
func (l *Lyric) HasTranslation() bool {
	for _, ln := range l.Lines() {
		if ln.Trans != "" {
			return true
		}
	}
	return false
}

// Find returns the index of the last line starting at or before pos, or
// -1 when pos is before the first line.
func (l *Lyric) Find(pos time.Duration) int {
	if l == nil {
		return -1
	}
	i := sort.Search(len(l.lines), func(i int) bool { return l.lines[i].At > pos })
	return i - 1
}
