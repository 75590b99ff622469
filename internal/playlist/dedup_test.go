package playlist

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/fuo/internal/model"
)

func bs(id string) model.BriefSong { return model.BriefSong{Source: "x", Identifier: id} }

func keys(l *DedupList[model.BriefSong]) []string {
	var out []string
	for _, s := range l.Items() {
		out = append(out, s.Identifier)
	}
	return out
}

func TestDedupList(t *testing.T) {
	l := NewDedupList(bs("a"), bs("b"), bs("a"), bs("c"))
	assert.Equal(t, []string{"a", "b", "c"}, keys(l))

	assert.False(t, l.Append(bs("b")))
	assert.True(t, l.Insert(-5, bs("z")))
	assert.True(t, l.Insert(100, bs("y")))
	assert.Equal(t, []string{"z", "a", "b", "c", "y"}, keys(l))
	assert.Equal(t, 2, l.Index(bs("b")))
	assert.Equal(t, -1, l.Index(bs("nope")))

	assert.True(t, l.Replace(bs("b"), bs("q")))
	assert.Equal(t, []string{"z", "a", "q", "c", "y"}, keys(l))
	assert.False(t, l.Contains(bs("b")))

	assert.True(t, l.Replace(bs("q"), bs("a")), "replacing with a present item drops the old one")
	assert.Equal(t, []string{"z", "a", "c", "y"}, keys(l))
	assert.False(t, l.Replace(bs("nope"), bs("w")))

	l.Clear()
	assert.Zero(t, l.Len())
	assert.True(t, l.Append(bs("a")))
}

// Any sequence of operations leaves the list free of duplicates and its
// set in sync with its items.
func TestDedupListNoDuplicates(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 7))
	var l DedupList[model.BriefSong]
	for i := 0; i < 5000; i++ {
		s := bs(strconv.Itoa(r.IntN(20)))
		switch r.IntN(4) {
		case 0:
			l.Append(s)
		case 1:
			l.Insert(r.IntN(25)-2, s)
		case 2:
			l.Remove(s)
		case 3:
			l.Replace(s, bs(strconv.Itoa(r.IntN(20))))
		}

		seen := map[model.Key]bool{}
		for _, it := range l.items {
			require.False(t, seen[it.Key()], "duplicate %s at step %d", it.Identifier, i)
			seen[it.Key()] = true
		}
		require.Len(t, l.set, len(l.items))
	}
}
