package job

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/boilthesea/cleanvid/internal/config"
	"github.com/boilthesea/cleanvid/internal/errkind"
	"github.com/boilthesea/cleanvid/internal/ffmpeg"
	"github.com/boilthesea/cleanvid/internal/history"
	"github.com/boilthesea/cleanvid/internal/logging"
	"github.com/boilthesea/cleanvid/internal/media"
	"github.com/boilthesea/cleanvid/internal/plan"
)

const testProbeJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1280, "height": 720},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "channels": 2, "channel_layout": "stereo", "sample_rate": "44100", "tags": {"language": "eng"}}
  ],
  "format": {"filename": "movie.mkv", "nb_streams": 2, "format_name": "matroska,webm", "duration": "120.000000"}
}`

const testSRT = `1
00:00:01,000 --> 00:00:02,000
you idiot

2
00:00:10,000 --> 00:00:11,000
hello there my friend
`

const testProbeMultiAudioJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1280, "height": 720},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "channels": 2, "channel_layout": "stereo", "sample_rate": "44100", "tags": {"language": "eng"}},
    {"index": 2, "codec_name": "ac3", "codec_type": "audio", "channels": 6, "channel_layout": "5.1", "sample_rate": "48000", "tags": {"language": "eng", "title": "Commentary"}}
  ],
  "format": {"filename": "movie.mkv", "nb_streams": 3, "format_name": "matroska,webm", "duration": "120.000000"}
}`

type fixture struct {
	runner *Runner
	opts   Options
	ran    *[]plan.Invocation
}

// newFixture wires a runner whose external tools are faked: ffprobe
// returns a fixed streams document and ffmpeg invocations just create
// their output file.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "movie.mkv")
	subs := filepath.Join(dir, "movie.srt")
	swears := filepath.Join(dir, "swears.txt")
	for path, content := range map[string]string{
		input:  "not really a video",
		subs:   testSRT,
		swears: "idiot|jerk\n",
	} {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.Paths.TempDir = t.TempDir()

	runner := NewRunner(&cfg, logging.NewNop())

	prober := media.NewProber("ffprobe", logging.NewNop())
	prober.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(testProbeJSON), nil
	})
	runner.WithProber(prober)

	ran := &[]plan.Invocation{}
	executor := ffmpeg.NewExecutor(logging.NewNop())
	executor.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		*ran = append(*ran, plan.Invocation{Binary: name, Args: args})
		// Produce the output file named by the final argument.
		return os.WriteFile(args[len(args)-1], []byte("produced"), 0o644)
	})
	runner.WithExecutor(executor)

	return &fixture{
		runner: runner,
		opts: Options{
			InputVideo:       input,
			InputSubs:        subs,
			SwearsFile:       swears,
			Language:         "eng",
			AudioStreamIndex: -1,
			VideoParams:      "-c:v libx264 -preset slow -crf 22",
			AudioParams:      "-c:a aac -ab 224k -ar 44100",
		},
		ran: ran,
	}
}

func TestRunProducesCleanVideo(t *testing.T) {
	fx := newFixture(t)
	result, err := fx.runner.Run(context.Background(), fx.opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Strategy != plan.StrategySinglePass {
		t.Errorf("strategy = %v", result.Strategy)
	}
	if result.MuteCount != 1 || result.EditCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", result.MuteCount, result.EditCount)
	}
	if !strings.HasSuffix(result.OutputVideo, "movie_clean.mkv") {
		t.Errorf("output = %q", result.OutputVideo)
	}
	if _, err := os.Stat(result.OutputVideo); err != nil {
		t.Errorf("output video missing: %v", err)
	}
	data, err := os.ReadFile(result.CleanSubs)
	if err != nil {
		t.Fatalf("clean subs missing: %v", err)
	}
	if !strings.Contains(string(data), "you jerk") {
		t.Errorf("clean subs = %q", data)
	}
	if strings.Contains(string(data), "hello there") {
		t.Errorf("unscrubbed cue retained without full-subs: %q", data)
	}
	if len(*fx.ran) != 1 {
		t.Errorf("invocations = %d, want 1", len(*fx.ran))
	}
}

func TestRunSubsOnlyWithEDL(t *testing.T) {
	fx := newFixture(t)
	fx.opts.EDL = true
	result, err := fx.runner.Run(context.Background(), fx.opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Unaltered || result.Strategy != plan.StrategyNoOpPassthrough {
		t.Errorf("result = %+v, want passthrough", result)
	}
	if len(*fx.ran) != 0 {
		t.Errorf("invocations = %d, want 0", len(*fx.ran))
	}
	data, err := os.ReadFile(result.EDLFile)
	if err != nil {
		t.Fatalf("EDL missing: %v", err)
	}
	if string(data) != "1.000\t2.000\t1\n" {
		t.Errorf("EDL = %q", data)
	}
}

func TestRunJSONReport(t *testing.T) {
	fx := newFixture(t)
	fx.opts.SubsOnly = true
	fx.opts.JSONDump = true
	result, err := fx.runner.Run(context.Background(), fx.opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(result.ReportFile)
	if err != nil {
		t.Fatalf("report missing: %v", err)
	}
	for _, want := range []string{`"you idiot"`, `"you jerk"`, `"ffprobe"`, `"now"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("report lacks %s: %s", want, data)
		}
	}
}

func TestRunPlexMarkers(t *testing.T) {
	fx := newFixture(t)
	fx.opts.PlexContentID = "library://item/42"
	result, err := fx.runner.Run(context.Background(), fx.opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(result.PlexFile)
	if err != nil {
		t.Fatalf("plex file missing: %v", err)
	}
	if !strings.Contains(string(data), `"library://item/42"`) {
		t.Errorf("plex file = %s", data)
	}
	// Plex mode implies subs-only: no video work.
	if !result.Unaltered {
		t.Error("plex mode ran video processing")
	}
}

func TestRunFailureRemovesOutputs(t *testing.T) {
	fx := newFixture(t)
	executor := ffmpeg.NewExecutor(logging.NewNop())
	executor.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("exit status 1: boom")
	})
	fx.runner.WithExecutor(executor)

	result, err := fx.runner.Run(context.Background(), fx.opts)
	if !errors.Is(err, errkind.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
	if result.CleanSubs == "" {
		t.Fatal("clean subs path not derived")
	}
	if _, statErr := os.Stat(result.CleanSubs); !os.IsNotExist(statErr) {
		t.Error("clean subs survived a failed job")
	}
}

// useMultiAudioProbe swaps in a prober whose document carries two audio
// streams, so stream resolution cannot pick one implicitly.
func useMultiAudioProbe(fx *fixture) {
	prober := media.NewProber("ffprobe", logging.NewNop())
	prober.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(testProbeMultiAudioJSON), nil
	})
	fx.runner.WithProber(prober)
}

func TestRunSubsOnlyMultiAudioNeedsNoStreamIndex(t *testing.T) {
	fx := newFixture(t)
	useMultiAudioProbe(fx)
	fx.opts.EDL = true

	result, err := fx.runner.Run(context.Background(), fx.opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Unaltered || result.Strategy != plan.StrategyNoOpPassthrough {
		t.Errorf("result = %+v, want passthrough", result)
	}
	if _, err := os.Stat(result.EDLFile); err != nil {
		t.Errorf("EDL missing: %v", err)
	}
	if len(*fx.ran) != 0 {
		t.Errorf("invocations = %d, want 0", len(*fx.ran))
	}
}

func TestRunAmbiguousStreamDiscardsSidecars(t *testing.T) {
	fx := newFixture(t)
	useMultiAudioProbe(fx)
	fx.opts.JSONDump = true

	result, err := fx.runner.Run(context.Background(), fx.opts)
	if !errors.Is(err, errkind.ErrAmbiguousStream) {
		t.Fatalf("err = %v, want ErrAmbiguousStream", err)
	}
	for name, path := range map[string]string{
		"clean subs": result.CleanSubs,
		"report":     result.ReportFile,
	} {
		if path == "" {
			t.Fatalf("%s path not derived", name)
		}
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			t.Errorf("%s survived a failed job", name)
		}
	}
	if len(*fx.ran) != 0 {
		t.Errorf("invocations = %d, want 0", len(*fx.ran))
	}
}

func TestRunLeavesInputSubsUntouched(t *testing.T) {
	fx := newFixture(t)
	// A caller's file with Windows line endings and a BOM must come back
	// byte for byte, while the job parses a normalized workspace copy.
	raw := "\uFEFF" + strings.ReplaceAll(testSRT, "\n", "\r\n")
	if err := os.WriteFile(fx.opts.InputSubs, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := fx.runner.Run(context.Background(), fx.opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	after, err := os.ReadFile(fx.opts.InputSubs)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != raw {
		t.Errorf("input subtitle file was rewritten: %q", after)
	}
	clean, err := os.ReadFile(result.CleanSubs)
	if err != nil {
		t.Fatalf("clean subs missing: %v", err)
	}
	if strings.Contains(string(clean), "\r\n") {
		t.Errorf("clean subs carry CRLF endings: %q", clean)
	}
}

func TestRunRenumbersKeptCues(t *testing.T) {
	fx := newFixture(t)
	// Only the second cue matches, so the surviving cue must be
	// renumbered from 2 to 1.
	if err := os.WriteFile(fx.opts.SwearsFile, []byte("friend|buddy\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := fx.runner.Run(context.Background(), fx.opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	clean, err := os.ReadFile(result.CleanSubs)
	if err != nil {
		t.Fatalf("clean subs missing: %v", err)
	}
	if !strings.HasPrefix(string(clean), "1\n00:00:10,000 --> 00:00:11,000\nhello there my buddy\n") {
		t.Errorf("clean subs = %q", clean)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	fx := newFixture(t)
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer store.Close()
	fx.runner.WithHistory(store)

	if _, err := fx.runner.Run(context.Background(), fx.opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	records, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Status != history.StatusCompleted || records[0].MuteCount != 1 {
		t.Errorf("record = %+v", records[0])
	}
}

func TestRunExtractsSubtitlesWhenNoneGiven(t *testing.T) {
	fx := newFixture(t)
	fx.opts.InputSubs = ""
	// Probe result carries an eng subtitle stream at index 2.
	prober := media.NewProber("ffprobe", logging.NewNop())
	prober.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		withSubs := strings.Replace(testProbeJSON,
			`{"index": 1, "codec_name": "aac"`,
			`{"index": 2, "codec_name": "subrip", "codec_type": "subtitle", "tags": {"language": "eng"}},
             {"index": 1, "codec_name": "aac"`, 1)
		return []byte(withSubs), nil
	})
	fx.runner.WithProber(prober)

	executor := ffmpeg.NewExecutor(logging.NewNop())
	var extractArgs []string
	executor.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		out := args[len(args)-1]
		if strings.HasSuffix(out, ".srt") {
			extractArgs = args
			return os.WriteFile(out, []byte(testSRT), 0o644)
		}
		return os.WriteFile(out, []byte("produced"), 0o644)
	})
	fx.runner.WithExecutor(executor)

	result, err := fx.runner.Run(context.Background(), fx.opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if extractArgs == nil {
		t.Fatal("no extraction invocation ran")
	}
	if !strings.Contains(strings.Join(extractArgs, " "), "-map 0:2") {
		t.Errorf("extraction args = %v", extractArgs)
	}
	if !strings.HasSuffix(result.CleanSubs, "movie.eng_clean.srt") {
		t.Errorf("clean subs = %q", result.CleanSubs)
	}
}

func TestRunMissingInputs(t *testing.T) {
	fx := newFixture(t)
	fx.opts.InputVideo = filepath.Join(t.TempDir(), "absent.mkv")
	if _, err := fx.runner.Run(context.Background(), fx.opts); !errors.Is(err, errkind.ErrMissingInput) {
		t.Errorf("missing video err = %v", err)
	}

	fx = newFixture(t)
	fx.opts.SwearsFile = filepath.Join(t.TempDir(), "absent.txt")
	if _, err := fx.runner.Run(context.Background(), fx.opts); !errors.Is(err, errkind.ErrMissingInput) {
		t.Errorf("missing swears err = %v", err)
	}
}

func TestRunNoSubtitleStreamToExtract(t *testing.T) {
	fx := newFixture(t)
	fx.opts.InputSubs = ""
	if _, err := fx.runner.Run(context.Background(), fx.opts); !errors.Is(err, errkind.ErrMissingInput) {
		t.Errorf("err = %v, want ErrMissingInput (probe has no subtitle streams)", err)
	}
}
