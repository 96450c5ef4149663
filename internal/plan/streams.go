package plan

import (
	"fmt"

	"github.com/boilthesea/cleanvid/internal/errkind"
	"github.com/boilthesea/cleanvid/internal/media"
)

// Selection identifies the audio stream whose profane spans get muted
// and the streams that must be copied through unchanged.
type Selection struct {
	Target media.AudioStream
	// TargetOrdinal is the target's 0-based position among the audio
	// streams, as used in -map 0:a:<n> addressing.
	TargetOrdinal int
	// PassthroughOrdinals are the 0-based positions of every other
	// audio stream.
	PassthroughOrdinals []int
}

// ResolveAudioStream picks the target audio stream. A negative
// requested index means the caller did not ask for a specific stream;
// that is only permitted when exactly one audio stream exists. The
// resolver never guesses among multiple streams.
func ResolveAudioStream(streams []media.AudioStream, requested int) (Selection, error) {
	if len(streams) == 0 {
		return Selection{}, errkind.Wrap(errkind.ErrMissingInput, "plan", "resolve-stream", "no audio streams found", nil)
	}
	targetOrdinal := -1
	if requested < 0 {
		if len(streams) > 1 {
			return Selection{}, errkind.Wrap(errkind.ErrAmbiguousStream, "plan", "resolve-stream",
				fmt.Sprintf("%d audio streams, an explicit stream index is required", len(streams)), nil)
		}
		targetOrdinal = 0
	} else {
		for i, s := range streams {
			if s.Index == requested {
				targetOrdinal = i
				break
			}
		}
		if targetOrdinal < 0 {
			return Selection{}, errkind.Wrap(errkind.ErrInvalidStreamIndex, "plan", "resolve-stream",
				fmt.Sprintf("audio stream index %d does not exist", requested), nil)
		}
	}
	sel := Selection{
		Target:        streams[targetOrdinal],
		TargetOrdinal: targetOrdinal,
	}
	for i := range streams {
		if i != targetOrdinal {
			sel.PassthroughOrdinals = append(sel.PassthroughOrdinals, i)
		}
	}
	return sel, nil
}
