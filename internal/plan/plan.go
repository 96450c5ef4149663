package plan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/boilthesea/cleanvid/internal/fileutil"
	"github.com/boilthesea/cleanvid/internal/language"
	"github.com/boilthesea/cleanvid/internal/logging"
	"github.com/boilthesea/cleanvid/internal/media"
	"github.com/boilthesea/cleanvid/internal/scrub"
)

// Strategy names the execution shape of a plan.
type Strategy int

const (
	// StrategyNoOpPassthrough means no external tool runs at all; the
	// original file already is the result.
	StrategyNoOpPassthrough Strategy = iota
	// StrategySinglePass performs decode, filter, map and encode in
	// one invocation.
	StrategySinglePass
	// StrategyMultiStep extracts the target audio, filters it in
	// isolation, then muxes everything back. Keeps each command line
	// short enough for platforms that truncate long ones.
	StrategyMultiStep
)

func (s Strategy) String() string {
	switch s {
	case StrategyNoOpPassthrough:
		return "noop-passthrough"
	case StrategySinglePass:
		return "single-pass"
	case StrategyMultiStep:
		return "multi-step"
	default:
		return "unknown"
	}
}

// Invocation is one external tool call, fully argument-separated so it
// can be inspected and tested without executing anything.
type Invocation struct {
	Purpose string
	Binary  string
	Args    []string
}

// Request carries everything the planner needs to decide how a job's
// video gets produced.
type Request struct {
	InputVideo   string
	OutputVideo  string
	CleanSubs    string
	ChaptersFile string
	WorkDir      string
	FFmpegBinary string

	Timeline  *scrub.Timeline
	Probe     *media.Result
	Selection Selection

	VideoParams []string
	AudioParams []string
	Language    string

	SubsOnly      bool
	EmbedSubs     bool
	HardCode      bool
	ReEncodeVideo bool
	ReEncodeAudio bool
	Downmix       bool
	WindowsSafe   bool

	ThreadsInput  int
	ThreadsEncode int
}

// Plan is the ordered set of external invocations for one job. The
// plan owns its temp artifacts: the caller must delete every entry in
// TempArtifacts exactly once, whether the run succeeds or fails.
type Plan struct {
	Strategy        Strategy
	NeedsProcessing bool
	Invocations     []Invocation
	TempArtifacts   []string
	Warnings        []string
}

// SubtitleConverter converts a cleaned SRT file into a styled ASS file
// for burning. Injectable so plans can be built without ffmpeg.
type SubtitleConverter func(ctx context.Context, binary, srtPath, assPath string) error

// Planner builds multiplex plans.
type Planner struct {
	logger  *slog.Logger
	convert SubtitleConverter
}

// NewPlanner constructs a planner.
func NewPlanner(logger *slog.Logger) *Planner {
	return &Planner{
		logger:  logging.NewComponentLogger(logger, "plan"),
		convert: defaultSubtitleConverter,
	}
}

// WithSubtitleConverter allows injecting a custom converter for tests.
func (p *Planner) WithSubtitleConverter(c SubtitleConverter) {
	if p != nil && c != nil {
		p.convert = c
	}
}

const defaultFilterCodec = "aac"

// NeedsProcessing reports whether the request will run any external
// invocation at all. Callers use it to skip work that only a processing
// plan needs, such as audio stream resolution.
func NeedsProcessing(req Request) bool {
	return req.ReEncodeVideo || req.ReEncodeAudio || req.HardCode || req.EmbedSubs ||
		(!req.SubsOnly && len(req.Timeline.Mutes) > 0)
}

// Build decides between the three strategies and emits the ordered
// invocation list. Processing is needed when re-encoding, hardcoding
// or embedding was requested, or when mute intervals exist outside
// subs-only mode; otherwise the plan is a no-op passthrough.
func (p *Planner) Build(ctx context.Context, req Request) (*Plan, error) {
	if req.FFmpegBinary == "" {
		req.FFmpegBinary = "ffmpeg"
	}
	if !NeedsProcessing(req) {
		p.logger.Info("no processing required, passing original through",
			logging.String("input", req.InputVideo),
		)
		return &Plan{Strategy: StrategyNoOpPassthrough}, nil
	}

	downmix := req.Downmix && req.Probe.HasMoreThanStereo()
	var filters []string
	if !req.SubsOnly {
		filters = SynthesizeFilters(req.Timeline.Mutes, req.Timeline.Sentinel, downmix)
	}

	plan := &Plan{NeedsProcessing: true}
	var err error
	if req.WindowsSafe && len(filters) > 0 {
		plan.Strategy = StrategyMultiStep
		err = p.buildMultiStep(ctx, plan, req, filters)
	} else {
		// Covers the normal single-pass case and the windows-safe
		// fallback when the filter graph came out empty.
		plan.Strategy = StrategySinglePass
		err = p.buildSinglePass(ctx, plan, req, filters)
	}
	if err != nil {
		return nil, err
	}
	p.logger.Info("plan built",
		logging.String("strategy", plan.Strategy.String()),
		logging.Int("invocations", len(plan.Invocations)),
		logging.Int("mute_intervals", len(req.Timeline.Mutes)),
	)
	return plan, nil
}

func (p *Planner) buildSinglePass(ctx context.Context, plan *Plan, req Request, filters []string) error {
	burn := p.burnFilter(ctx, plan, req)

	args := ffmpegBase(req.ThreadsInput)
	args = append(args, "-i", req.InputVideo)
	inputIdx := 1
	subsInput := -1
	if embedActive(req) {
		args = append(args, "-i", req.CleanSubs)
		subsInput = inputIdx
		inputIdx++
	}
	chaptersInput := -1
	if req.ChaptersFile != "" {
		args = append(args, "-i", req.ChaptersFile)
		chaptersInput = inputIdx
	}

	ordinal := req.Selection.TargetOrdinal
	if len(filters) > 0 {
		label := fmt.Sprintf("a%d", ordinal)
		args = append(args, "-filter_complex",
			fmt.Sprintf("[0:a:%d]%s[%s]", ordinal, strings.Join(filters, ","), label))
		args = append(args, "-map", "0:v", "-map", "["+label+"]")
	} else {
		args = append(args, "-map", "0:v", "-map", fmt.Sprintf("0:a:%d", ordinal))
	}
	for _, other := range req.Selection.PassthroughOrdinals {
		args = append(args, "-map", fmt.Sprintf("0:a:%d", other))
	}
	if chaptersInput >= 0 {
		args = append(args, "-map_metadata", strconv.Itoa(chaptersInput))
	}
	args = append(args, embedArgs(req, subsInput)...)
	args = append(args, videoArgs(req, burn)...)
	args = append(args, rewriteAudioParams(req.AudioParams, ordinal)...)
	args = finishEncode(args, req.ThreadsEncode, req.OutputVideo)

	plan.Invocations = append(plan.Invocations, Invocation{
		Purpose: "encode",
		Binary:  req.FFmpegBinary,
		Args:    args,
	})
	return nil
}

func (p *Planner) buildMultiStep(ctx context.Context, plan *Plan, req Request, filters []string) error {
	ordinal := req.Selection.TargetOrdinal

	rawAudio := filepath.Join(req.WorkDir, "extracted-audio.wav")
	plan.TempArtifacts = append(plan.TempArtifacts, rawAudio)
	extractArgs := ffmpegBase(req.ThreadsInput)
	extractArgs = append(extractArgs,
		"-i", req.InputVideo,
		"-map", fmt.Sprintf("0:a:%d", ordinal),
		"-c:a", "pcm_s16le",
		rawAudio,
	)
	plan.Invocations = append(plan.Invocations, Invocation{
		Purpose: "extract-audio",
		Binary:  req.FFmpegBinary,
		Args:    extractArgs,
	})

	// The filter graph goes through a script file so its length never
	// counts against the command line.
	scriptPath := filepath.Join(req.WorkDir, "filter-script.txt")
	if err := os.WriteFile(scriptPath, []byte(strings.Join(filters, ",")), 0o644); err != nil {
		return fmt.Errorf("write filter script: %w", err)
	}
	plan.TempArtifacts = append(plan.TempArtifacts, scriptPath)

	codec, codecParams := splitFilterCodec(req.AudioParams)
	filteredAudio := filepath.Join(req.WorkDir, "filtered-audio"+filteredSuffix(codec))
	plan.TempArtifacts = append(plan.TempArtifacts, filteredAudio)
	filterArgs := ffmpegBase(0)
	filterArgs = append(filterArgs,
		"-i", rawAudio,
		"-filter_script", scriptPath,
		"-c:a", codec,
	)
	filterArgs = append(filterArgs, codecParams...)
	filterArgs = finishEncode(filterArgs, req.ThreadsEncode, filteredAudio)
	plan.Invocations = append(plan.Invocations, Invocation{
		Purpose: "filter-audio",
		Binary:  req.FFmpegBinary,
		Args:    filterArgs,
	})

	burn := p.burnFilter(ctx, plan, req)

	muxArgs := ffmpegBase(0)
	muxArgs = append(muxArgs, "-i", req.InputVideo, "-i", filteredAudio)
	inputIdx := 2
	subsInput := -1
	if embedActive(req) {
		muxArgs = append(muxArgs, "-i", req.CleanSubs)
		subsInput = inputIdx
		inputIdx++
	}
	chaptersInput := -1
	if req.ChaptersFile != "" {
		muxArgs = append(muxArgs, "-i", req.ChaptersFile)
		chaptersInput = inputIdx
	}
	muxArgs = append(muxArgs, "-map", "0:v", "-map", "1:a")
	for _, other := range req.Selection.PassthroughOrdinals {
		muxArgs = append(muxArgs, "-map", fmt.Sprintf("0:a:%d", other))
	}
	muxArgs = append(muxArgs, "-map", "0:d?", "-map", "0:t?")
	if subsInput >= 0 {
		muxArgs = append(muxArgs, "-map", fmt.Sprintf("%d:s", subsInput))
	}
	if chaptersInput >= 0 {
		muxArgs = append(muxArgs, "-map_metadata", strconv.Itoa(chaptersInput))
	}
	muxArgs = append(muxArgs, videoArgs(req, burn)...)
	muxArgs = append(muxArgs, "-c:a", "copy", "-c:d", "copy", "-c:t", "copy")
	if subsInput >= 0 {
		muxArgs = append(muxArgs,
			"-c:s", embedSubsCodec(req.OutputVideo),
			"-disposition:s:0", "default",
			"-metadata:s:s:0", "language="+language.ToISO3(req.Language),
		)
	} else {
		muxArgs = append(muxArgs, "-sn")
	}
	muxArgs = finishEncode(muxArgs, req.ThreadsEncode, req.OutputVideo)
	plan.Invocations = append(plan.Invocations, Invocation{
		Purpose: "mux",
		Binary:  req.FFmpegBinary,
		Args:    muxArgs,
	})
	return nil
}

// burnFilter prepares the ASS burn filter for hardcoding. Every
// failure path degrades to re-encoding without burned-in subtitles and
// records a warning; hardcoding problems never fail the job.
func (p *Planner) burnFilter(ctx context.Context, plan *Plan, req Request) string {
	if !req.HardCode {
		return ""
	}
	if !fileutil.IsFile(req.CleanSubs) {
		p.warn(plan, "hardcode requested but cleaned subtitle file is missing, burning skipped")
		return ""
	}
	assPath := filepath.Join(req.WorkDir, "burn.ass")
	if err := p.convert(ctx, req.FFmpegBinary, req.CleanSubs, assPath); err != nil {
		p.warn(plan, "subtitle conversion for burning failed, burning skipped: "+err.Error())
		return ""
	}
	if !fileutil.IsFile(assPath) {
		p.warn(plan, "subtitle conversion produced no output, burning skipped")
		return ""
	}
	plan.TempArtifacts = append(plan.TempArtifacts, assPath)
	return "ass='" + escapeFilterPath(assPath) + "'"
}

func (p *Planner) warn(plan *Plan, message string) {
	plan.Warnings = append(plan.Warnings, message)
	p.logger.Warn(message)
}

func defaultSubtitleConverter(ctx context.Context, binary, srtPath, assPath string) error {
	cmd := exec.CommandContext(ctx, binary,
		"-hide_banner", "-nostats", "-loglevel", "error", "-y",
		"-i", srtPath, assPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func ffmpegBase(threadsInput int) []string {
	args := []string{"-hide_banner", "-nostats", "-loglevel", "error", "-y"}
	if threadsInput > 0 {
		args = append(args, "-threads", strconv.Itoa(threadsInput))
	}
	return args
}

func finishEncode(args []string, threadsEncode int, output string) []string {
	if threadsEncode > 0 {
		args = append(args, "-threads", strconv.Itoa(threadsEncode))
	}
	return append(args, output)
}

func embedActive(req Request) bool {
	return req.EmbedSubs && fileutil.IsFile(req.CleanSubs)
}

func embedArgs(req Request, subsInput int) []string {
	if subsInput < 0 {
		return []string{"-sn"}
	}
	return []string{
		"-map", fmt.Sprintf("%d:s", subsInput),
		"-c:s", embedSubsCodec(req.OutputVideo),
		"-disposition:s:0", "default",
		"-metadata:s:s:0", "language=" + language.ToISO3(req.Language),
	}
}

// embedSubsCodec picks the subtitle codec by output container: MP4
// needs mov_text, everything else takes SRT as-is.
func embedSubsCodec(outputVideo string) string {
	if strings.EqualFold(filepath.Ext(outputVideo), ".mp4") {
		return "mov_text"
	}
	return "srt"
}

func videoArgs(req Request, burn string) []string {
	switch {
	case burn != "":
		args := append([]string{}, req.VideoParams...)
		return append(args, "-vf", burn)
	case req.ReEncodeVideo || req.HardCode:
		// HardCode without a burn filter is the degraded fallback:
		// re-encode, no burned subtitles.
		return append([]string{}, req.VideoParams...)
	default:
		return []string{"-c:v", "copy"}
	}
}

var audioCodecToken = regexp.MustCompile(`^-(?:c|codec):a(?::\d+)?$`)

// rewriteAudioParams pins the audio codec directive to the target
// stream's output ordinal, adding the default codec when the params
// carried none.
func rewriteAudioParams(params []string, ordinal int) []string {
	specifier := fmt.Sprintf("-c:a:%d", ordinal)
	out := make([]string, 0, len(params)+2)
	found := false
	for _, tok := range params {
		if audioCodecToken.MatchString(tok) {
			out = append(out, specifier)
			found = true
			continue
		}
		out = append(out, tok)
	}
	if !found {
		out = append(out, specifier, defaultFilterCodec)
	}
	return out
}

// splitFilterCodec extracts the codec for the isolated filter stage.
// A copy directive is coerced to the default codec because filtering
// cannot operate on an undecoded stream.
func splitFilterCodec(params []string) (string, []string) {
	for i, tok := range params {
		if audioCodecToken.MatchString(tok) && i+1 < len(params) {
			codec := params[i+1]
			rest := append(append([]string{}, params[:i]...), params[i+2:]...)
			if strings.EqualFold(codec, "copy") {
				return defaultFilterCodec, rest
			}
			return codec, rest
		}
	}
	return defaultFilterCodec, nil
}

func filteredSuffix(codec string) string {
	switch codec {
	case "aac":
		return ".m4a"
	case "ac3":
		return ".ac3"
	case "opus":
		return ".opus"
	default:
		return "." + codec
	}
}

func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.ReplaceAll(path, ":", `\:`)
}
