package model

import (
	"fmt"
	"slices"
	"strings"
)

// Quality is a named media quality level. Audio and video qualities
// are separate ladders; see AudioQualities and VideoQualities.
type Quality string

const (
	AudioSHQ Quality = "shq"
	AudioHQ  Quality = "hq"
	AudioSQ  Quality = "sq"
	AudioLQ  Quality = "lq"

	VideoFHD Quality = "fhd"
	VideoHD  Quality = "hd"
	VideoSD  Quality = "sd"
	VideoLD  Quality = "ld"
)

// AudioQualities is the audio ladder, best first.
var AudioQualities = []Quality{AudioSHQ, AudioHQ, AudioSQ, AudioLQ}

// VideoQualities is the video ladder, best first.
var VideoQualities = []Quality{VideoFHD, VideoHD, VideoSD, VideoLD}

// ParsePolicy splits a policy string like "hq<>" into its target quality
// and direction. Direction is one of "<>" (closest), "<" (prefer lower)
// and ">" (prefer higher).
func ParsePolicy(ladder []Quality, policy string) (Quality, string, error) {
	for _, dir := range []string{"<>", "<", ">"} {
		target, ok := strings.CutSuffix(policy, dir)
		if !ok {
			continue
		}
		q := Quality(target)
		if !slices.Contains(ladder, q) {
			return "", "", fmt.Errorf("unknown quality %q in policy %q", target, policy)
		}
		return q, dir, nil
	}
	return "", "", fmt.Errorf("invalid quality policy %q", policy)
}

// SelectQuality picks one of the available qualities according to policy.
//
// The target itself wins when available. Otherwise:
//   - "<" walks towards lower qualities, then higher ones
//   - ">" walks towards higher qualities, then lower ones
//   - "<>" alternates outwards, trying the lower neighbour first
//
// It returns false when available is empty or the policy is invalid.
//
// Example:
//
//	q, _ := model.SelectQuality(model.AudioQualities, []model.Quality{"sq", "lq"}, "hq>")
//	fmt.Println(q) // sq
func SelectQuality(ladder, available []Quality, policy string) (Quality, bool) {
	if len(available) == 0 {
		return "", false
	}
	target, dir, err := ParsePolicy(ladder, policy)
	if err != nil {
		return "", false
	}
	idx := slices.Index(ladder, target)

	// ladder is best first, so "lower quality" means a larger index
	var order []int
	switch dir {
	case "<":
		for i := idx; i < len(ladder); i++ {
			order = append(order, i)
		}
		for i := idx - 1; i >= 0; i-- {
			order = append(order, i)
		}
	case ">":
		for i := idx; i >= 0; i-- {
			order = append(order, i)
		}
		for i := idx + 1; i < len(ladder); i++ {
			order = append(order, i)
		}
	default:
		order = append(order, idx)
		for d := 1; d < len(ladder); d++ {
			if idx+d < len(ladder) {
				order = append(order, idx+d)
			}
			if idx-d >= 0 {
				order = append(order, idx-d)
			}
		}
	}
	for _, i := range order {
		if slices.Contains(available, ladder[i]) {
			return ladder[i], true
		}
	}
	return "", false
}

// MediaType distinguishes audio from video media.
type MediaType string

const (
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
)

// Media is something a player can open.
//
// URL may be a remote http(s) URL or a file:// URL for local files.
// For video media with a separate audio track, AudioURL is set.
type Media struct {
	URL         string
	Type        MediaType
	Format      string
	Bitrate     int
	Quality     Quality
	HTTPHeaders map[string]string
	AudioURL    string
}

// IsVideo returns true for video media.
func (m *Media) IsVideo() bool {
	return m.Type == MediaVideo
}

func (m *Media) String() string {
	if m == nil {
		return "<nil media>"
	}
	return fmt.Sprintf("%s(%s, %s)", m.Type, m.Quality, m.URL)
}
