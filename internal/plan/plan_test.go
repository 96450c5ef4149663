package plan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/boilthesea/cleanvid/internal/logging"
	"github.com/boilthesea/cleanvid/internal/media"
	"github.com/boilthesea/cleanvid/internal/scrub"
)

func stereoProbe() *media.Result {
	return &media.Result{
		AudioStreams: []media.AudioStream{{Index: 1, Codec: "aac", Channels: 2}},
	}
}

func mutedTimeline() *scrub.Timeline {
	return &scrub.Timeline{
		Mutes:    []scrub.Interval{{Start: 1 * time.Second, End: 2 * time.Second}},
		Sentinel: 13 * time.Second,
	}
}

func baseRequest(t *testing.T) Request {
	t.Helper()
	return Request{
		InputVideo:  "in.mkv",
		OutputVideo: "out.mkv",
		CleanSubs:   filepath.Join(t.TempDir(), "absent_clean.srt"),
		WorkDir:     t.TempDir(),
		Timeline:    mutedTimeline(),
		Probe:       stereoProbe(),
		Selection:   Selection{Target: media.AudioStream{Index: 1}, TargetOrdinal: 0},
		VideoParams: []string{"-c:v", "libx264", "-preset", "slow", "-crf", "22"},
		AudioParams: []string{"-c:a", "aac", "-ab", "224k", "-ar", "44100"},
		Language:    "eng",
	}
}

func TestBuildNoOpPassthrough(t *testing.T) {
	req := baseRequest(t)
	req.Timeline = &scrub.Timeline{Sentinel: 2 * time.Second}
	plan, err := NewPlanner(logging.NewNop()).Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if plan.Strategy != StrategyNoOpPassthrough || plan.NeedsProcessing {
		t.Errorf("plan = %+v, want noop", plan)
	}
	if len(plan.Invocations) != 0 {
		t.Errorf("invocations = %d, want 0", len(plan.Invocations))
	}
}

func TestBuildSubsOnlySkipsProcessing(t *testing.T) {
	req := baseRequest(t)
	req.SubsOnly = true
	plan, err := NewPlanner(logging.NewNop()).Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if plan.Strategy != StrategyNoOpPassthrough {
		t.Errorf("strategy = %v, want noop: mutes alone do not force processing in subs-only mode", plan.Strategy)
	}
}

func TestBuildSinglePass(t *testing.T) {
	req := baseRequest(t)
	plan, err := NewPlanner(logging.NewNop()).Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if plan.Strategy != StrategySinglePass {
		t.Fatalf("strategy = %v, want single-pass", plan.Strategy)
	}
	if len(plan.Invocations) != 1 {
		t.Fatalf("invocations = %d, want 1", len(plan.Invocations))
	}
	inv := plan.Invocations[0]
	if inv.Binary != "ffmpeg" || inv.Purpose != "encode" {
		t.Errorf("invocation = %q %q", inv.Purpose, inv.Binary)
	}
	joined := strings.Join(inv.Args, " ")
	if !strings.Contains(joined, "-filter_complex [0:a:0]afade=") {
		t.Errorf("args missing filter_complex: %s", joined)
	}
	if !strings.Contains(joined, "-map 0:v -map [a0]") {
		t.Errorf("args missing maps: %s", joined)
	}
	// No embedding requested: subtitles are stripped.
	if !slices.Contains(inv.Args, "-sn") {
		t.Errorf("args missing -sn: %s", joined)
	}
	// Audio codec directive is pinned to the target output ordinal.
	if !slices.Contains(inv.Args, "-c:a:0") {
		t.Errorf("args missing -c:a:0: %s", joined)
	}
	if inv.Args[len(inv.Args)-1] != "out.mkv" {
		t.Errorf("last arg = %q, want output path", inv.Args[len(inv.Args)-1])
	}
}

func TestBuildSinglePassNoFilterMapsTargetDirectly(t *testing.T) {
	req := baseRequest(t)
	req.Timeline = &scrub.Timeline{Sentinel: 2 * time.Second}
	req.ReEncodeVideo = true
	plan, err := NewPlanner(logging.NewNop()).Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	joined := strings.Join(plan.Invocations[0].Args, " ")
	if strings.Contains(joined, "-filter_complex") {
		t.Errorf("unexpected filter_complex: %s", joined)
	}
	if !strings.Contains(joined, "-map 0:v -map 0:a:0") {
		t.Errorf("args missing direct audio map: %s", joined)
	}
	if !strings.Contains(joined, "-c:v libx264") {
		t.Errorf("args missing video re-encode params: %s", joined)
	}
}

func TestBuildSinglePassEmbedSubs(t *testing.T) {
	req := baseRequest(t)
	req.OutputVideo = "out.mp4"
	req.CleanSubs = filepath.Join(t.TempDir(), "clean.srt")
	if err := os.WriteFile(req.CleanSubs, []byte("1\n00:00:01,000 --> 00:00:02,000\nhi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	req.EmbedSubs = true
	plan, err := NewPlanner(logging.NewNop()).Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	joined := strings.Join(plan.Invocations[0].Args, " ")
	if !strings.Contains(joined, "-i "+req.CleanSubs) {
		t.Errorf("subs not added as input: %s", joined)
	}
	if !strings.Contains(joined, "-map 1:s -c:s mov_text") {
		t.Errorf("mp4 output must embed as mov_text: %s", joined)
	}
	if !strings.Contains(joined, "-metadata:s:s:0 language=eng") {
		t.Errorf("missing language metadata: %s", joined)
	}
	if strings.Contains(joined, "-sn") {
		t.Errorf("-sn present alongside embedding: %s", joined)
	}
}

func TestBuildEmbedNormalizesLanguageTag(t *testing.T) {
	req := baseRequest(t)
	req.CleanSubs = filepath.Join(t.TempDir(), "clean.srt")
	if err := os.WriteFile(req.CleanSubs, []byte("1\n00:00:01,000 --> 00:00:02,000\nhi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	req.EmbedSubs = true
	req.Language = "en"
	plan, err := NewPlanner(logging.NewNop()).Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	joined := strings.Join(plan.Invocations[0].Args, " ")
	if !strings.Contains(joined, "-metadata:s:s:0 language=eng") {
		t.Errorf("container metadata wants a 3-letter code: %s", joined)
	}
}

func TestNeedsProcessing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		want   bool
	}{
		{"mutes alone", func(*Request) {}, true},
		{"subs-only with mutes", func(r *Request) { r.SubsOnly = true }, false},
		{"subs-only but embedding", func(r *Request) { r.SubsOnly = true; r.EmbedSubs = true }, true},
		{"subs-only but re-encoding", func(r *Request) { r.SubsOnly = true; r.ReEncodeVideo = true }, true},
		{"no mutes", func(r *Request) { r.Timeline = &scrub.Timeline{Sentinel: 2 * time.Second} }, false},
		{"no mutes but hardcoding", func(r *Request) {
			r.Timeline = &scrub.Timeline{Sentinel: 2 * time.Second}
			r.HardCode = true
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest(t)
			tt.mutate(&req)
			if got := NeedsProcessing(req); got != tt.want {
				t.Errorf("NeedsProcessing = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildMultiStep(t *testing.T) {
	req := baseRequest(t)
	req.WindowsSafe = true
	plan, err := NewPlanner(logging.NewNop()).Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if plan.Strategy != StrategyMultiStep {
		t.Fatalf("strategy = %v, want multi-step", plan.Strategy)
	}
	if len(plan.Invocations) != 3 {
		t.Fatalf("invocations = %d, want 3", len(plan.Invocations))
	}
	purposes := []string{plan.Invocations[0].Purpose, plan.Invocations[1].Purpose, plan.Invocations[2].Purpose}
	if purposes[0] != "extract-audio" || purposes[1] != "filter-audio" || purposes[2] != "mux" {
		t.Errorf("purposes = %v", purposes)
	}

	extract := strings.Join(plan.Invocations[0].Args, " ")
	if !strings.Contains(extract, "-map 0:a:0 -c:a pcm_s16le") {
		t.Errorf("extract args = %s", extract)
	}

	filter := strings.Join(plan.Invocations[1].Args, " ")
	if !strings.Contains(filter, "-filter_script") {
		t.Errorf("filter stage must use a script file: %s", filter)
	}
	if !strings.Contains(filter, "-c:a aac") {
		t.Errorf("filter args = %s", filter)
	}
	// The filter graph went to disk, not onto the command line.
	script := filepath.Join(req.WorkDir, "filter-script.txt")
	content, err := os.ReadFile(script)
	if err != nil {
		t.Fatalf("filter script not written: %v", err)
	}
	if !strings.Contains(string(content), "afade=enable=") {
		t.Errorf("script content = %s", content)
	}

	mux := strings.Join(plan.Invocations[2].Args, " ")
	if !strings.Contains(mux, "-map 0:v -map 1:a") {
		t.Errorf("mux maps = %s", mux)
	}
	if !strings.Contains(mux, "-map 0:d? -map 0:t?") {
		t.Errorf("mux must carry data and attachment streams: %s", mux)
	}
	if !strings.Contains(mux, "-c:v copy -c:a copy -c:d copy -c:t copy") {
		t.Errorf("mux codecs = %s", mux)
	}

	// Plan owns the intermediates.
	if len(plan.TempArtifacts) != 3 {
		t.Errorf("temp artifacts = %v, want wav, script and filtered audio", plan.TempArtifacts)
	}
}

func TestBuildMultiStepCoercesCopyCodec(t *testing.T) {
	req := baseRequest(t)
	req.WindowsSafe = true
	req.AudioParams = []string{"-c:a", "copy"}
	plan, err := NewPlanner(logging.NewNop()).Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	filter := strings.Join(plan.Invocations[1].Args, " ")
	if !strings.Contains(filter, "-c:a aac") {
		t.Errorf("copy codec not coerced: %s", filter)
	}
	if plan.Invocations[1].Args[len(plan.Invocations[1].Args)-1] != filepath.Join(req.WorkDir, "filtered-audio.m4a") {
		t.Errorf("filtered output = %q, want .m4a for aac", plan.Invocations[1].Args[len(plan.Invocations[1].Args)-1])
	}
}

func TestBuildWindowsSafeEmptyFilterFallsBackToSinglePass(t *testing.T) {
	req := baseRequest(t)
	req.WindowsSafe = true
	req.SubsOnly = true
	req.ReEncodeVideo = true
	plan, err := NewPlanner(logging.NewNop()).Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if plan.Strategy != StrategySinglePass {
		t.Errorf("strategy = %v, want single-pass when the filter graph is empty", plan.Strategy)
	}
	if len(plan.Invocations) != 1 {
		t.Errorf("invocations = %d, want 1", len(plan.Invocations))
	}
}

func TestBuildHardcodeMissingSubsDegrades(t *testing.T) {
	req := baseRequest(t)
	req.HardCode = true
	plan, err := NewPlanner(logging.NewNop()).Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build must not fail for a missing subtitle file: %v", err)
	}
	if len(plan.Warnings) == 0 {
		t.Error("expected a warning about skipped burning")
	}
	joined := strings.Join(plan.Invocations[0].Args, " ")
	if strings.Contains(joined, "-vf") {
		t.Errorf("burn filter present despite missing subs: %s", joined)
	}
	if !strings.Contains(joined, "-c:v libx264") {
		t.Errorf("fallback must still re-encode video: %s", joined)
	}
}

func TestBuildHardcodeConverterFailureDegrades(t *testing.T) {
	req := baseRequest(t)
	req.HardCode = true
	req.CleanSubs = filepath.Join(t.TempDir(), "clean.srt")
	if err := os.WriteFile(req.CleanSubs, []byte("1\n00:00:01,000 --> 00:00:02,000\nhi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	planner := NewPlanner(logging.NewNop())
	planner.WithSubtitleConverter(func(ctx context.Context, binary, srtPath, assPath string) error {
		return errors.New("conversion blew up")
	})
	plan, err := planner.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(plan.Warnings) == 0 {
		t.Error("expected a warning for failed conversion")
	}
	if strings.Contains(strings.Join(plan.Invocations[0].Args, " "), "ass=") {
		t.Error("burn filter present despite failed conversion")
	}
}

func TestBuildHardcodeBurnsConvertedSubs(t *testing.T) {
	req := baseRequest(t)
	req.HardCode = true
	req.CleanSubs = filepath.Join(t.TempDir(), "clean.srt")
	if err := os.WriteFile(req.CleanSubs, []byte("1\n00:00:01,000 --> 00:00:02,000\nhi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	planner := NewPlanner(logging.NewNop())
	planner.WithSubtitleConverter(func(ctx context.Context, binary, srtPath, assPath string) error {
		return os.WriteFile(assPath, []byte("[Script Info]\n"), 0o644)
	})
	plan, err := planner.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(plan.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", plan.Warnings)
	}
	joined := strings.Join(plan.Invocations[0].Args, " ")
	if !strings.Contains(joined, "-vf ass='") {
		t.Errorf("burn filter missing: %s", joined)
	}
	if !slices.Contains(plan.TempArtifacts, filepath.Join(req.WorkDir, "burn.ass")) {
		t.Errorf("ass file not tracked for cleanup: %v", plan.TempArtifacts)
	}
}

func TestBuildDownmixRequiresSurroundSource(t *testing.T) {
	req := baseRequest(t)
	req.Downmix = true
	plan, err := NewPlanner(logging.NewNop()).Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	joined := strings.Join(plan.Invocations[0].Args, " ")
	if strings.Contains(joined, "pan=stereo") {
		t.Errorf("downmix applied to a stereo source: %s", joined)
	}

	req.Probe = &media.Result{AudioStreams: []media.AudioStream{{Index: 1, Channels: 6, ChannelLayout: "5.1"}}}
	plan, err = NewPlanner(logging.NewNop()).Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	joined = strings.Join(plan.Invocations[0].Args, " ")
	if !strings.Contains(joined, "[0:a:0]pan=stereo") {
		t.Errorf("downmix must lead the filter chain: %s", joined)
	}
}

func TestBuildChaptersInput(t *testing.T) {
	req := baseRequest(t)
	req.ChaptersFile = filepath.Join(t.TempDir(), "chapters.txt")
	plan, err := NewPlanner(logging.NewNop()).Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	joined := strings.Join(plan.Invocations[0].Args, " ")
	if !strings.Contains(joined, "-i "+req.ChaptersFile) {
		t.Errorf("chapters file not an input: %s", joined)
	}
	if !strings.Contains(joined, "-map_metadata 1") {
		t.Errorf("chapter metadata not mapped: %s", joined)
	}
}
