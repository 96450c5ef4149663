package media

import (
	"context"
	"encoding/json"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/boilthesea/cleanvid/internal/errkind"
	"github.com/boilthesea/cleanvid/internal/logging"
)

type outputRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Prober wraps ffprobe. All metadata for a file comes from one JSON call.
type Prober struct {
	binary string
	logger *slog.Logger
	run    outputRunner
}

// NewProber constructs a prober around the given ffprobe binary.
func NewProber(binary string, logger *slog.Logger) *Prober {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	return &Prober{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "probe"),
		run:    defaultOutputRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (p *Prober) WithCommandRunner(r outputRunner) {
	if p != nil && r != nil {
		p.run = r
	}
}

// Inspect probes path and returns the parsed stream and format data.
// Probing is synchronous and idempotent.
func (p *Prober) Inspect(ctx context.Context, path string) (*Result, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	}
	p.logger.Debug("probing media",
		logging.String("path", path),
		logging.String("binary", p.binary),
	)
	out, err := p.run(ctx, p.binary, args...)
	if err != nil {
		return nil, errkind.Wrap(errkind.ErrExternalTool, "probe", "inspect", "ffprobe failed for "+path, err)
	}
	result, err := ParseJSON(out)
	if err != nil {
		return nil, errkind.Wrap(errkind.ErrExternalTool, "probe", "inspect", "unreadable ffprobe output for "+path, err)
	}
	return result, nil
}

func defaultOutputRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, &toolError{err: err, stderr: strings.TrimSpace(string(exitErr.Stderr))}
		}
		return nil, err
	}
	return out, nil
}

type toolError struct {
	err    error
	stderr string
}

func (e *toolError) Error() string { return e.err.Error() + ": " + e.stderr }
func (e *toolError) Unwrap() error { return e.err }

// ParseJSON converts raw ffprobe JSON output into a Result. Exported
// for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*Result, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	result := &Result{
		Raw:    json.RawMessage(data),
		Format: convertFormat(&raw.Format),
	}
	for i := range raw.Streams {
		s := &raw.Streams[i]
		switch s.CodecType {
		case "video":
			vs := convertVideo(s)
			if !vs.IsAttachedPic && result.PrimaryVideo == nil {
				result.PrimaryVideo = &vs
			}
		case "audio":
			result.AudioStreams = append(result.AudioStreams, convertAudio(s))
		case "subtitle":
			result.SubtitleStreams = append(result.SubtitleStreams, convertSubtitle(s))
		}
	}
	return result, nil
}

// ffprobe JSON wire types. Numbers arrive as strings.

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Filename   string            `json:"filename"`
	NbStreams  int               `json:"nb_streams"`
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	BitRate    string            `json:"bit_rate"`
	Tags       map[string]string `json:"tags"`
}

type ffprobeStream struct {
	Index         int               `json:"index"`
	CodecName     string            `json:"codec_name"`
	CodecType     string            `json:"codec_type"`
	Width         int               `json:"width"`
	Height        int               `json:"height"`
	Channels      int               `json:"channels"`
	ChannelLayout string            `json:"channel_layout"`
	SampleRate    string            `json:"sample_rate"`
	Disposition   map[string]int    `json:"disposition"`
	Tags          map[string]string `json:"tags"`
}

func convertFormat(f *ffprobeFormat) FormatInfo {
	return FormatInfo{
		Filename:   f.Filename,
		NbStreams:  f.NbStreams,
		FormatName: f.FormatName,
		Duration:   parseFloat(f.Duration),
		Size:       parseInt64(f.Size),
		BitRate:    parseInt64(f.BitRate),
		Tags:       f.Tags,
	}
}

func convertVideo(s *ffprobeStream) VideoStream {
	return VideoStream{
		Index:         s.Index,
		Codec:         s.CodecName,
		Width:         s.Width,
		Height:        s.Height,
		IsAttachedPic: s.Disposition["attached_pic"] == 1,
	}
}

func convertAudio(s *ffprobeStream) AudioStream {
	return AudioStream{
		Index:         s.Index,
		Codec:         s.CodecName,
		Channels:      s.Channels,
		ChannelLayout: s.ChannelLayout,
		SampleRate:    parseInt(s.SampleRate),
		Language:      s.Tags["language"],
		IsDefault:     s.Disposition["default"] == 1,
	}
}

var bitmapSubCodecs = map[string]bool{
	"hdmv_pgs_subtitle": true,
	"dvd_subtitle":      true,
	"dvb_subtitle":      true,
	"xsub":              true,
}

func convertSubtitle(s *ffprobeStream) SubtitleStream {
	return SubtitleStream{
		Index:    s.Index,
		Codec:    s.CodecName,
		Language: s.Tags["language"],
		IsBitmap: bitmapSubCodecs[s.CodecName],
	}
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
