package job

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/boilthesea/cleanvid/internal/errkind"
	"github.com/boilthesea/cleanvid/internal/language"
)

// Options is the full configuration surface of one cleaning job.
// Construct it, then call Normalize before handing it to a Runner.
type Options struct {
	InputVideo  string
	OutputVideo string
	// InputSubs is the subtitle file to scrub. When empty the job
	// extracts a matching subtitle stream from the input container.
	InputSubs  string
	OutputSubs string
	SwearsFile string
	// Language is the subtitle language tag, optionally suffixed with
	// a forced absolute stream index as in "eng:3".
	Language string
	// Pad is the mute padding in seconds.
	Pad float64
	// AudioStreamIndex selects the target audio stream by absolute
	// index. Negative means unset.
	AudioStreamIndex int

	EmbedSubs      bool
	HardCode       bool
	FullSubs       bool
	SubsOnly       bool
	EDL            bool
	JSONDump       bool
	Downmix        bool
	ReEncodeVideo  bool
	ReEncodeAudio  bool
	ChapterMarkers bool
	WindowsSafe    bool

	// VideoParams and AudioParams are ffmpeg parameter strings. A
	// "base64:" prefix marks a base64-encoded blob, the escape hatch
	// for parameters that are awkward to pass literally.
	VideoParams string
	AudioParams string

	PlexJSON      string
	PlexContentID string

	// Threads applies to both input and encoding when the specific
	// values are unset.
	Threads       int
	ThreadsInput  int
	ThreadsEncode int
}

const paramsBase64Prefix = "base64:"

// Normalize decodes escaped parameters, derives default paths, and
// applies option implications. EDL and Plex output modes imply
// subs-only operation.
func (o *Options) Normalize() error {
	if strings.TrimSpace(o.InputVideo) == "" {
		return errkind.Wrap(errkind.ErrMissingInput, "job", "normalize", "input video is required", nil)
	}
	if o.Pad < 0 {
		return fmt.Errorf("pad must not be negative, got %g", o.Pad)
	}
	if o.PlexJSON != "" && o.PlexContentID == "" {
		return fmt.Errorf("a Plex content identifier is required when writing a PlexAutoSkip file")
	}

	var err error
	if o.VideoParams, err = decodeParams(o.VideoParams); err != nil {
		return fmt.Errorf("video params: %w", err)
	}
	if o.AudioParams, err = decodeParams(o.AudioParams); err != nil {
		return fmt.Errorf("audio params: %w", err)
	}

	stem := strings.TrimSuffix(o.InputVideo, filepath.Ext(o.InputVideo))
	if o.OutputVideo == "" {
		o.OutputVideo = stem + "_clean" + filepath.Ext(o.InputVideo)
	}
	if o.PlexContentID != "" && o.PlexJSON == "" {
		o.PlexJSON = stem + "_PlexAutoSkip_clean.json"
	}
	o.SubsOnly = o.SubsOnly || o.EDL || (o.PlexJSON != "" && o.PlexContentID != "")

	if o.ThreadsInput == 0 {
		o.ThreadsInput = o.Threads
	}
	if o.ThreadsEncode == 0 {
		o.ThreadsEncode = o.Threads
	}
	return nil
}

func decodeParams(params string) (string, error) {
	if !strings.HasPrefix(params, paramsBase64Prefix) {
		return params, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(params[len(paramsBase64Prefix):])
	if err != nil {
		return "", fmt.Errorf("decode base64 blob: %w", err)
	}
	return string(decoded), nil
}

// cleanSubsPath derives the cleaned subtitle path from the subtitle
// source. Subtitles extracted from the container derive from the video
// stem instead, so the cleaned file lands next to the video.
func (o *Options) cleanSubsPath(subsPath string, extracted bool) string {
	if o.OutputSubs != "" {
		return o.OutputSubs
	}
	if extracted {
		stem := strings.TrimSuffix(o.InputVideo, filepath.Ext(o.InputVideo))
		base, _, _ := language.SplitForced(o.Language)
		return stem + "." + base + "_clean.srt"
	}
	return strings.TrimSuffix(subsPath, filepath.Ext(subsPath)) + "_clean" + filepath.Ext(subsPath)
}
