package media

import "encoding/json"

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	Filename   string
	NbStreams  int
	FormatName string
	Duration   float64
	Size       int64
	BitRate    int64
	Tags       map[string]string
}

// AudioStream holds the parsed properties of a single audio stream.
type AudioStream struct {
	Index         int
	Codec         string
	Channels      int
	ChannelLayout string
	SampleRate    int
	Language      string
	IsDefault     bool
}

// SubtitleStream holds the parsed properties of a single subtitle stream.
type SubtitleStream struct {
	Index    int
	Codec    string
	Language string
	IsBitmap bool
}

// VideoStream holds the parsed properties of a single video stream.
type VideoStream struct {
	Index         int
	Codec         string
	Width         int
	Height        int
	IsAttachedPic bool
}

// Result is the fully parsed output of a single ffprobe call. Raw
// retains the unmodified JSON document for report embedding.
type Result struct {
	Raw             json.RawMessage
	Format          FormatInfo
	PrimaryVideo    *VideoStream
	AudioStreams    []AudioStream
	SubtitleStreams []SubtitleStream
}

// SubtitleLanguages maps each subtitle stream's absolute index to its
// language tag. Streams with no tag map to the empty string.
func (r *Result) SubtitleLanguages() map[int]string {
	langs := make(map[int]string, len(r.SubtitleStreams))
	for _, s := range r.SubtitleStreams {
		langs[s.Index] = s.Language
	}
	return langs
}

// HasMoreThanStereo reports whether any audio stream carries more than
// two channels.
func (r *Result) HasMoreThanStereo() bool {
	for _, s := range r.AudioStreams {
		if s.Channels > 2 {
			return true
		}
	}
	return false
}
