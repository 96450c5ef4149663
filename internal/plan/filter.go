package plan

import (
	"fmt"
	"time"

	"github.com/boilthesea/cleanvid/internal/scrub"
)

// DownmixFilter folds surround layouts to stereo with center and LFE
// weighting before any fades are applied.
const DownmixFilter = "pan=stereo|FL=0.8*FC + 0.6*FL + 0.6*BL + 0.5*LFE|FR=0.8*FC + 0.6*FR + 0.6*BR + 0.5*LFE"

// crossfade is the fixed fade duration around each mute boundary. It
// is long enough to avoid clicks and short enough to be inaudible.
const crossfade = "10ms"

// SynthesizeFilters renders the mute timeline as an ordered afade
// chain. Each interval contributes a fade-out across its own span and
// a fade-in across the gap up to the next interval's start, with the
// sentinel bounding the final fade-in. When downmix is set the stereo
// downmix expression precedes all fades.
func SynthesizeFilters(mutes []scrub.Interval, sentinel time.Duration, downmix bool) []string {
	var steps []string
	if downmix {
		steps = append(steps, DownmixFilter)
	}
	for i, iv := range mutes {
		next := sentinel
		if i+1 < len(mutes) {
			next = mutes[i+1].Start
		}
		steps = append(steps,
			fmt.Sprintf("afade=enable='between(t,%.3f,%.3f)':t=out:st=%.3f:d=%s",
				iv.StartSeconds(), iv.EndSeconds(), iv.StartSeconds(), crossfade),
			fmt.Sprintf("afade=enable='between(t,%.3f,%.3f)':t=in:st=%.3f:d=%s",
				iv.EndSeconds(), next.Seconds(), iv.EndSeconds(), crossfade),
		)
	}
	return steps
}
