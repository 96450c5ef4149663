package scrub

import (
	"strconv"
	"time"

	"github.com/boilthesea/cleanvid/internal/subtitle"
	"github.com/boilthesea/cleanvid/internal/words"
)

// Options controls the scrubbing pass.
type Options struct {
	// Pad widens each scrubbed cue's mute interval on both sides and
	// controls propagation to neighboring clean cues.
	Pad time.Duration
	// RetainAll keeps cues that contain no profanity and fall outside
	// any padded span, unmodified, in the output cue list.
	RetainAll bool
}

// Edit records one cue whose text was rewritten.
type Edit struct {
	Index int
	Old   string
	New   string
	Start time.Duration
	End   time.Duration
}

// Interval is a span of audio to silence.
type Interval struct {
	Start time.Duration
	End   time.Duration
}

func (iv Interval) StartSeconds() float64 {
	return iv.Start.Seconds()
}

func (iv Interval) EndSeconds() float64 {
	return iv.End.Seconds()
}

// EDLRow is one editor decision list entry, in seconds.
type EDLRow struct {
	Start float64
	End   float64
}

// PlexMarker is one Plex auto-skip marker, in milliseconds.
type PlexMarker struct {
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Mode  string `json:"mode"`
}

// Chapter marks the start of one mute span for chapter metadata.
type Chapter struct {
	StartMS int64
	EndMS   int64
	Title   string
}

// Timeline is the complete result of one scrubbing pass. The cue list,
// mute intervals, EDL rows, Plex markers and chapters are all produced
// by the same traversal so they cannot disagree with each other.
type Timeline struct {
	// Cues are the kept cues with rewritten text, in original order.
	Cues []subtitle.Cue
	// Edits has one entry per cue whose text actually changed.
	Edits []Edit
	// Mutes are the spans to silence, in time order, not pre-merged.
	Mutes []Interval
	// Sentinel is the end-of-media marker used by the filter
	// synthesizer to bound the final fade-in. It sits past the last
	// real cue and is not part of Mutes.
	Sentinel time.Duration

	EDLRows     []EDLRow
	PlexMarkers []PlexMarker
	Chapters    []Chapter
}

const plexMarkerMode = "volume"

// Run walks the cue sequence once, rewriting profanity via dict and
// deciding per cue whether it survives into the cleaned output. A cue
// is kept when its own text changed, or when the pad is positive and
// either the next cue is profane and starts within the pad of this
// cue's end, or the previous profane cue ends within the pad of this
// cue's start. Lookahead is a single cue; lookbehind chains only while
// each intervening cue was itself profane.
func Run(cues []subtitle.Cue, dict *words.Dictionary, opts Options) *Timeline {
	var lastEnd time.Duration
	if len(cues) > 0 {
		lastEnd = cues[len(cues)-1].End
	}
	// Synthetic terminal cue so the last real cue has a lookahead
	// neighbor. It is peeked at but never emitted.
	sentinelCue := subtitle.Cue{
		Index: len(cues) + 1,
		Start: lastEnd + time.Second,
		End:   lastEnd + 2*time.Second,
	}

	tl := &Timeline{Sentinel: sentinelCue.End}
	pad := opts.Pad

	var prevEnd time.Duration
	prevScrubbed := false

	for i, cue := range cues {
		peek := sentinelCue
		if i+1 < len(cues) {
			peek = cues[i+1]
		}
		rewritten := dict.Replace(cue.Text)
		scrubbed := rewritten != cue.Text
		peekScrubbed := dict.Replace(peek.Text) != peek.Text

		keep := scrubbed ||
			(pad > 0 &&
				((peekScrubbed && peek.Start-cue.End <= pad) ||
					(prevScrubbed && cue.Start-prevEnd <= pad)))
		if !keep {
			if opts.RetainAll {
				tl.Cues = append(tl.Cues, cue)
			}
			prevScrubbed = false
			continue
		}

		kept := cue
		kept.Text = rewritten
		tl.Cues = append(tl.Cues, kept)

		var iv Interval
		if scrubbed {
			tl.Edits = append(tl.Edits, Edit{
				Index: cue.Index,
				Old:   cue.Text,
				New:   rewritten,
				Start: cue.Start,
				End:   cue.End,
			})
			iv = Interval{Start: cue.Start - pad, End: cue.End + pad}
			if iv.Start < 0 {
				iv.Start = 0
			}
			prevScrubbed = true
			prevEnd = cue.End
		} else {
			// Propagated cue: mute its exact span, no pad, and do
			// not let further propagation chain through it.
			iv = Interval{Start: cue.Start, End: cue.End}
			prevScrubbed = false
		}
		tl.appendInterval(iv)
	}
	return tl
}

func (tl *Timeline) appendInterval(iv Interval) {
	tl.Mutes = append(tl.Mutes, iv)
	tl.EDLRows = append(tl.EDLRows, EDLRow{Start: iv.StartSeconds(), End: iv.EndSeconds()})
	tl.PlexMarkers = append(tl.PlexMarkers, PlexMarker{
		Start: iv.Start.Milliseconds(),
		End:   iv.End.Milliseconds(),
		Mode:  plexMarkerMode,
	})
	tl.Chapters = append(tl.Chapters, Chapter{
		StartMS: iv.Start.Milliseconds(),
		EndMS:   iv.End.Milliseconds(),
		Title:   chapterTitle(len(tl.Chapters) + 1),
	})
}

func chapterTitle(n int) string {
	return "Mute " + strconv.Itoa(n)
}
