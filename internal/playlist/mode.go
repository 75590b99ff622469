package playlist

import (
	"fmt"
)

// PlaybackMode decides which song comes next.
type PlaybackMode int

const (
	// Sequential plays in order and stops after the last song.
	Sequential PlaybackMode = iota
	// OneLoop repeats the current song.
	OneLoop
	// Loop plays in order and wraps around.
	Loop
	// Random picks uniformly among the playable songs.
	Random
)

var playbackModeNames = [...]string{"sequential", "one_loop", "loop", "random"}

func (m PlaybackMode) String() string {
	if int(m) < len(playbackModeNames) {
		return playbackModeNames[m]
	}
	return fmt.Sprintf("PlaybackMode(%d)", int(m))
}

// ParsePlaybackMode parses the String form of a PlaybackMode.
func ParsePlaybackMode(s string) (PlaybackMode, error) {
	for i, name := range playbackModeNames {
		if name == s {
			return PlaybackMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown playback mode %q", s)
}

// Mode is the feed mode of the playlist.
type Mode int

const (
	Normal Mode = iota
	// FM refills the tail from a feed when it runs out of songs.
	FM
)

func (m Mode) String() string {
	if m == FM {
		return "fm"
	}
	return "normal"
}

// Stage is the step of the play pipeline currently running.
type Stage int

const (
	StageIdle Stage = iota
	StagePrepareMedia
	StageFindStandbyByMV
	StageFindStandby
	StagePrepareMetadata
	StageLoadMedia
)

var stageNames = [...]string{"idle", "prepare_media", "find_standby_by_mv", "find_standby", "prepare_metadata", "load_media"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}
