package player

import (
	"fmt"
	"math"
)

// PlaybackState is the locally mirrored snapshot of the bound widget's
// transport status.
type PlaybackState struct {
	Ready    bool    `json:"is_ready"`
	Playing  bool    `json:"is_playing"`
	Position float64 `json:"position_seconds"`
	Duration float64 `json:"duration_seconds"`
	Volume   int     `json:"volume_percent"`
	Muted    bool    `json:"is_muted"`
}

// resetState returns the state used right after binding or releasing.
// Volume is the desired volume and survives rebinding; a zero volume reads
// as muted, the same as after SetVolume(0).
func resetState(volume int) PlaybackState {
	return PlaybackState{Volume: volume, Muted: volume == 0}
}

// FormatTime renders seconds as m:ss for transport labels.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func clampVolume(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
