package job

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/boilthesea/cleanvid/internal/config"
	"github.com/boilthesea/cleanvid/internal/errkind"
	"github.com/boilthesea/cleanvid/internal/export"
	"github.com/boilthesea/cleanvid/internal/ffmpeg"
	"github.com/boilthesea/cleanvid/internal/fileutil"
	"github.com/boilthesea/cleanvid/internal/history"
	"github.com/boilthesea/cleanvid/internal/language"
	"github.com/boilthesea/cleanvid/internal/logging"
	"github.com/boilthesea/cleanvid/internal/media"
	"github.com/boilthesea/cleanvid/internal/plan"
	"github.com/boilthesea/cleanvid/internal/scrub"
	"github.com/boilthesea/cleanvid/internal/subtitle"
	"github.com/boilthesea/cleanvid/internal/words"
)

// Result reports what one job produced.
type Result struct {
	OutputVideo  string
	CleanSubs    string
	EDLFile      string
	ReportFile   string
	PlexFile     string
	ChaptersFile string
	Strategy     plan.Strategy
	MuteCount    int
	EditCount    int
	Warnings     []string
	// Unaltered is set when the plan was a passthrough and the
	// original video file stands as the result.
	Unaltered bool
}

// Runner executes cleaning jobs. Each job owns its temp workspace; a
// Runner is safe for concurrent jobs as long as their outputs differ.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	prober   *media.Prober
	planner  *plan.Planner
	executor *ffmpeg.Executor
	store    *history.Store
}

// NewRunner constructs a job runner from the loaded configuration.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "job"),
		prober:   media.NewProber(cfg.FFprobeBinary(), logger),
		planner:  plan.NewPlanner(logger),
		executor: ffmpeg.NewExecutor(logger),
	}
}

// WithProber replaces the prober, for tests.
func (r *Runner) WithProber(p *media.Prober) {
	if r != nil && p != nil {
		r.prober = p
	}
}

// WithPlanner replaces the planner, for tests.
func (r *Runner) WithPlanner(p *plan.Planner) {
	if r != nil && p != nil {
		r.planner = p
	}
}

// WithExecutor replaces the executor, for tests.
func (r *Runner) WithExecutor(e *ffmpeg.Executor) {
	if r != nil && e != nil {
		r.executor = e
	}
}

// WithHistory attaches a history store. Without one, jobs are not
// recorded.
func (r *Runner) WithHistory(s *history.Store) {
	if r != nil {
		r.store = s
	}
}

// Run executes one cleaning job end to end: scrub the subtitles,
// derive the mute timeline, write the requested sidecars, plan and run
// the external invocations, and clean up. On failure all produced
// outputs are removed so no partially-correct file set survives.
func (r *Runner) Run(ctx context.Context, opts Options) (result *Result, err error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}
	if !fileutil.IsFile(opts.InputVideo) {
		return nil, errkind.Wrap(errkind.ErrMissingInput, "job", "run", "input video not found: "+opts.InputVideo, nil)
	}
	if !fileutil.IsFile(opts.SwearsFile) {
		return nil, errkind.Wrap(errkind.ErrMissingInput, "job", "run", "profanity file not found: "+opts.SwearsFile, nil)
	}

	// One job per output path at a time.
	lock := flock.New(opts.OutputVideo + ".lock")
	locked, lockErr := lock.TryLock()
	if lockErr != nil {
		return nil, fmt.Errorf("acquire output lock: %w", lockErr)
	}
	if !locked {
		return nil, fmt.Errorf("another job is already producing %s", opts.OutputVideo)
	}
	defer func() {
		_ = lock.Unlock()
		_ = fileutil.RemoveIfExists(lock.Path())
	}()

	workDir := filepath.Join(r.tempRoot(), "cleanvid-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	result = &Result{}
	start := time.Now().UTC()
	defer func() { r.record(ctx, opts, result, start, err) }()
	// A failed job that was supposed to produce a video must not leave
	// sidecars behind, no matter which stage failed.
	defer func() {
		if err != nil && !opts.SubsOnly && result.OutputVideo == "" {
			r.discardOutputs(opts, result)
		}
	}()

	r.logger.Info("job started",
		logging.String("input", opts.InputVideo),
		logging.String("output", opts.OutputVideo),
		logging.Float64("pad_seconds", opts.Pad),
	)

	probe, err := r.prober.Inspect(ctx, opts.InputVideo)
	if err != nil {
		return result, err
	}

	sourceSubs := opts.InputSubs
	extracted := false
	var workSubs string
	if sourceSubs == "" {
		workSubs, err = r.extractSubtitles(ctx, opts, probe, workDir)
		if err != nil {
			return result, err
		}
		extracted = true
		sourceSubs = workSubs
	} else {
		if !fileutil.IsFile(sourceSubs) {
			return result, errkind.Wrap(errkind.ErrMissingInput, "job", "run", "subtitle file not found: "+sourceSubs, nil)
		}
		// Parse a workspace copy so the caller's file is never rewritten.
		workSubs = filepath.Join(workDir, "input-subs"+filepath.Ext(sourceSubs))
		if err := fileutil.CopyFile(sourceSubs, workSubs); err != nil {
			return result, fmt.Errorf("stage subtitle file: %w", err)
		}
	}
	if !fileutil.IsFile(workSubs) {
		return result, errkind.Wrap(errkind.ErrMissingInput, "job", "run", "subtitle file not found: "+workSubs, nil)
	}
	if err := subtitle.NormalizeFile(workSubs); err != nil {
		return result, fmt.Errorf("normalize subtitle file: %w", err)
	}

	result.CleanSubs = opts.cleanSubsPath(sourceSubs, extracted)
	cleanStem := strings.TrimSuffix(result.CleanSubs, filepath.Ext(result.CleanSubs))
	if opts.EDL {
		result.EDLFile = cleanStem + ".edl"
	}
	if opts.JSONDump {
		result.ReportFile = cleanStem + ".json"
	}
	if opts.PlexJSON != "" {
		result.PlexFile = opts.PlexJSON
	}
	if opts.ChapterMarkers {
		result.ChaptersFile = cleanStem + "_chapters.txt"
	}
	// Stale outputs from an earlier run must never be mistaken for
	// this job's results.
	if err := r.removeOutputs(opts, result); err != nil {
		return result, err
	}

	cues, err := subtitle.ReadFile(workSubs)
	if err != nil {
		return result, err
	}
	langBase, _, ok := language.SplitForced(opts.Language)
	if !ok {
		return result, fmt.Errorf("malformed language tag %q", opts.Language)
	}
	if detected := subtitle.SniffLanguage(cues); detected != "" && langBase != "" && !language.Matches(detected, langBase) {
		warning := fmt.Sprintf("subtitle text looks like %s, expected %s", language.DisplayName(detected), language.DisplayName(langBase))
		result.Warnings = append(result.Warnings, warning)
		r.logger.Warn(warning, logging.String("subs", sourceSubs))
	}

	dict, err := words.Load(opts.SwearsFile)
	if err != nil {
		return result, err
	}
	timeline := scrub.Run(cues, dict, scrub.Options{
		Pad:       time.Duration(opts.Pad * float64(time.Second)),
		RetainAll: opts.FullSubs,
	})
	result.MuteCount = len(timeline.Mutes)
	result.EditCount = len(timeline.Edits)
	r.logger.Info("subtitles scrubbed",
		logging.Int("cues_in", len(cues)),
		logging.Int("cues_kept", len(timeline.Cues)),
		logging.Int("edits", len(timeline.Edits)),
		logging.Int("mute_intervals", len(timeline.Mutes)),
	)

	subtitle.Renumber(timeline.Cues)
	if err := subtitle.WriteFile(result.CleanSubs, timeline.Cues); err != nil {
		return result, err
	}
	if opts.EDL {
		if err := export.WriteEDLFile(result.EDLFile, timeline.EDLRows); err != nil {
			return result, err
		}
	}
	if opts.JSONDump {
		report := export.BuildReport(time.Now(), timeline.Edits,
			opts.InputVideo, opts.OutputVideo, probe.Raw, sourceSubs, result.CleanSubs)
		if err := export.WriteReportFile(result.ReportFile, report); err != nil {
			return result, err
		}
	}
	if opts.PlexJSON != "" {
		if err := export.WritePlexAutoSkipFile(opts.PlexJSON, opts.PlexContentID, timeline.PlexMarkers); err != nil {
			return result, err
		}
	}
	chaptersFile := ""
	if opts.ChapterMarkers && len(timeline.Chapters) > 0 {
		chaptersFile = result.ChaptersFile
		if err := export.WriteChaptersFile(chaptersFile, timeline.Chapters); err != nil {
			return result, err
		}
	}

	req := plan.Request{
		InputVideo:    opts.InputVideo,
		OutputVideo:   opts.OutputVideo,
		CleanSubs:     result.CleanSubs,
		ChaptersFile:  chaptersFile,
		WorkDir:       workDir,
		FFmpegBinary:  r.ffmpegBinary(),
		Timeline:      timeline,
		Probe:         probe,
		VideoParams:   strings.Fields(opts.VideoParams),
		AudioParams:   strings.Fields(opts.AudioParams),
		Language:      langBase,
		SubsOnly:      opts.SubsOnly,
		EmbedSubs:     opts.EmbedSubs,
		HardCode:      opts.HardCode,
		ReEncodeVideo: opts.ReEncodeVideo,
		ReEncodeAudio: opts.ReEncodeAudio,
		Downmix:       opts.Downmix,
		WindowsSafe:   opts.WindowsSafe,
		ThreadsInput:  opts.ThreadsInput,
		ThreadsEncode: opts.ThreadsEncode,
	}
	// Only a plan that will actually touch audio needs a resolved target
	// stream; a subs-only or passthrough job must not fail on an
	// ambiguous multi-audio file.
	if plan.NeedsProcessing(req) {
		req.Selection, err = plan.ResolveAudioStream(probe.AudioStreams, opts.AudioStreamIndex)
		if err != nil {
			return result, err
		}
	}

	built, err := r.planner.Build(ctx, req)
	if err != nil {
		return result, err
	}
	result.Strategy = built.Strategy
	result.Warnings = append(result.Warnings, built.Warnings...)
	// The plan owns its intermediates: delete each exactly once no
	// matter which stage failed.
	defer func() {
		for _, artifact := range built.TempArtifacts {
			if removeErr := fileutil.RemoveIfExists(artifact); removeErr != nil {
				r.logger.Warn("could not remove temp artifact",
					logging.String("path", artifact),
					logging.Error(removeErr),
				)
			}
		}
	}()

	if built.Strategy == plan.StrategyNoOpPassthrough {
		result.Unaltered = true
		r.logger.Info("job finished", logging.String("strategy", built.Strategy.String()))
		return result, nil
	}

	if err := r.executor.ExecuteAll(ctx, built.Invocations); err != nil {
		return result, err
	}
	if !fileutil.IsFile(opts.OutputVideo) {
		return result, errkind.Wrap(errkind.ErrExternalTool, "job", "run",
			"no output file was produced at "+opts.OutputVideo, nil)
	}
	result.OutputVideo = opts.OutputVideo
	r.logger.Info("job finished",
		logging.String("strategy", built.Strategy.String()),
		logging.String("output", result.OutputVideo),
	)
	return result, nil
}

func (r *Runner) tempRoot() string {
	if r.cfg != nil && r.cfg.Paths.TempDir != "" {
		return r.cfg.Paths.TempDir
	}
	return os.TempDir()
}

func (r *Runner) ffmpegBinary() string {
	if r.cfg != nil {
		return r.cfg.FFmpegBinary()
	}
	return "ffmpeg"
}

// removeOutputs deletes pre-existing files at the job's output paths.
func (r *Runner) removeOutputs(opts Options, result *Result) error {
	paths := []string{opts.OutputVideo, result.CleanSubs, result.EDLFile, result.ReportFile, result.PlexFile, result.ChaptersFile}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := fileutil.RemoveIfExists(path); err != nil {
			return fmt.Errorf("remove stale output %s: %w", path, err)
		}
	}
	return nil
}

// discardOutputs removes whatever the failed job already produced.
func (r *Runner) discardOutputs(opts Options, result *Result) {
	for _, path := range []string{opts.OutputVideo, result.CleanSubs, result.EDLFile, result.ReportFile, result.PlexFile, result.ChaptersFile} {
		if path == "" {
			continue
		}
		if err := fileutil.RemoveIfExists(path); err != nil {
			r.logger.Warn("could not remove output after failure",
				logging.String("path", path),
				logging.Error(err),
			)
		}
	}
}

// extractSubtitles pulls a matching text subtitle stream out of the
// container. A forced index in the language tag overrides language
// matching; bitmap streams are never candidates.
func (r *Runner) extractSubtitles(ctx context.Context, opts Options, probe *media.Result, workDir string) (string, error) {
	langBase, forced, ok := language.SplitForced(opts.Language)
	if !ok {
		return "", fmt.Errorf("malformed language tag %q", opts.Language)
	}
	streamIndex := -1
	if forced >= 0 {
		streamIndex = forced
	} else {
		for _, s := range probe.SubtitleStreams {
			if s.IsBitmap {
				continue
			}
			if language.Matches(s.Language, langBase) {
				streamIndex = s.Index
				break
			}
		}
	}
	if streamIndex < 0 {
		return "", errkind.Wrap(errkind.ErrMissingInput, "job", "extract-subtitles",
			fmt.Sprintf("no subtitle file given and no %s subtitle stream in %s", langBase, opts.InputVideo), nil)
	}

	outPath := filepath.Join(workDir, "extracted."+langBase+".srt")
	inv := plan.Invocation{
		Purpose: "extract-subtitles",
		Binary:  r.ffmpegBinary(),
		Args: []string{
			"-hide_banner", "-nostats", "-loglevel", "error", "-y",
			"-i", opts.InputVideo,
			"-map", fmt.Sprintf("0:%d", streamIndex),
			outPath,
		},
	}
	if err := r.executor.Execute(ctx, inv); err != nil {
		return "", err
	}
	r.logger.Info("subtitles extracted from container",
		logging.Int("stream_index", streamIndex),
		logging.String("language", langBase),
	)
	return outPath, nil
}

func (r *Runner) record(ctx context.Context, opts Options, result *Result, start time.Time, runErr error) {
	if r.store == nil {
		return
	}
	rec := history.Record{
		InputVideo:  opts.InputVideo,
		OutputVideo: opts.OutputVideo,
		Status:      history.StatusCompleted,
		CreatedAt:   start,
	}
	if result != nil {
		rec.CleanSubs = result.CleanSubs
		rec.Strategy = result.Strategy.String()
		rec.MuteCount = result.MuteCount
		rec.EditCount = result.EditCount
		rec.Warnings = result.Warnings
	}
	if runErr != nil {
		rec.Status = history.StatusFailed
		rec.Error = runErr.Error()
	}
	// The ledger write still happens when the job's context was
	// canceled mid-flight.
	if _, err := r.store.Add(context.WithoutCancel(ctx), rec); err != nil {
		r.logger.Warn("could not record job in history", logging.Error(err))
	}
}
