package subtitle

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// sniffSampleCues bounds the amount of text fed to language detection.
const sniffSampleCues = 40

// SniffLanguage guesses the ISO 639-3 language of the cue text, or "" when
// detection is unreliable. Used only to warn about a likely language
// mismatch; never to make decisions.
func SniffLanguage(cues []Cue) string {
	if len(cues) == 0 {
		return ""
	}
	sample := cues
	if len(sample) > sniffSampleCues {
		sample = sample[:sniffSampleCues]
	}
	var builder strings.Builder
	for _, cue := range sample {
		builder.WriteString(cue.Text)
		builder.WriteByte(' ')
	}
	info := whatlanggo.Detect(builder.String())
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6393()
}
