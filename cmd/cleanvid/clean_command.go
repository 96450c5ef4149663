package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/boilthesea/cleanvid/internal/history"
	"github.com/boilthesea/cleanvid/internal/job"
	"github.com/boilthesea/cleanvid/internal/logging"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var (
		subsFlag         string
		outputFlag       string
		outputSubsFlag   string
		swearsFlag       string
		langFlag         string
		padFlag          float64
		audioStreamFlag  int
		videoParamsFlag  string
		audioParamsFlag  string
		embedSubsFlag    bool
		burnFlag         bool
		fullSubsFlag     bool
		subsOnlyFlag     bool
		edlFlag          bool
		jsonFlag         bool
		chaptersFlag     bool
		downmixFlag      bool
		reEncodeVideo    bool
		reEncodeAudio    bool
		winFlag          bool
		plexJSONFlag     string
		plexIDFlag       string
		threadsFlag      int
		threadsInputFlag int
		threadsEncode    int
		jobsFlag         int
	)

	cmd := &cobra.Command{
		Use:   "clean <video>...",
		Short: "Clean one or more videos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				if outputFlag != "" || subsFlag != "" || outputSubsFlag != "" || plexJSONFlag != "" {
					return fmt.Errorf("explicit output and subtitle paths only apply to a single input; %d inputs given", len(args))
				}
			}
			if jobsFlag < 1 {
				jobsFlag = 1
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			runner := job.NewRunner(cfg, logger)
			if cfg.History.Enabled {
				store, err := history.Open(cfg.Paths.HistoryDB)
				if err != nil {
					logger.Warn("job history unavailable", logging.Error(err))
				} else {
					defer store.Close()
					runner.WithHistory(store)
				}
			}

			swears := swearsFlag
			if swears == "" {
				swears = cfg.Defaults.SwearsFile
			}
			lang := langFlag
			if lang == "" {
				lang = cfg.Defaults.Language
			}
			pad := padFlag
			if !cmd.Flags().Changed("pad") {
				pad = cfg.Defaults.PadSeconds
			}
			videoParams := videoParamsFlag
			if videoParams == "" {
				videoParams = cfg.Defaults.VideoParams
			}
			audioParams := audioParamsFlag
			if audioParams == "" {
				audioParams = cfg.Defaults.AudioParams
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			results := make([]*job.Result, len(args))
			group, groupCtx := errgroup.WithContext(signalCtx)
			group.SetLimit(jobsFlag)
			for i, input := range args {
				group.Go(func() error {
					opts := job.Options{
						InputVideo:       input,
						OutputVideo:      outputFlag,
						InputSubs:        subsFlag,
						OutputSubs:       outputSubsFlag,
						SwearsFile:       swears,
						Language:         lang,
						Pad:              pad,
						AudioStreamIndex: audioStreamFlag,
						EmbedSubs:        embedSubsFlag,
						HardCode:         burnFlag,
						FullSubs:         fullSubsFlag,
						SubsOnly:         subsOnlyFlag,
						EDL:              edlFlag,
						JSONDump:         jsonFlag,
						Downmix:          downmixFlag,
						ReEncodeVideo:    reEncodeVideo,
						ReEncodeAudio:    reEncodeAudio,
						ChapterMarkers:   chaptersFlag,
						WindowsSafe:      winFlag,
						VideoParams:      videoParams,
						AudioParams:      audioParams,
						PlexJSON:         plexJSONFlag,
						PlexContentID:    plexIDFlag,
						Threads:          threadsFlag,
						ThreadsInput:     threadsInputFlag,
						ThreadsEncode:    threadsEncode,
					}
					result, err := runner.Run(groupCtx, opts)
					if err != nil {
						return fmt.Errorf("%s: %w", input, err)
					}
					results[i] = result
					return nil
				})
			}
			if err := group.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, result := range results {
				if result == nil {
					continue
				}
				fmt.Fprintln(out, summarizeResult(args[i], result))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&subsFlag, "subs", "s", "", "Subtitle file to scrub (default: extract from the container)")
	flags.StringVarP(&outputFlag, "output", "o", "", "Output video path (default: <input>_clean.<ext>)")
	flags.StringVar(&outputSubsFlag, "output-subs", "", "Cleaned subtitle path")
	flags.StringVarP(&swearsFlag, "swears", "w", "", "Profanity list file")
	flags.StringVarP(&langFlag, "lang", "l", "", "Subtitle language tag, optionally lang:streamindex")
	flags.Float64VarP(&padFlag, "pad", "p", 0, "Seconds of padding around each mute span")
	flags.IntVar(&audioStreamFlag, "audio-stream-index", -1, "Absolute index of the audio stream to clean")
	flags.StringVarP(&videoParamsFlag, "video-params", "v", "", "ffmpeg video encode parameters (base64: prefix accepted)")
	flags.StringVarP(&audioParamsFlag, "audio-params", "a", "", "ffmpeg audio encode parameters (base64: prefix accepted)")
	flags.BoolVar(&embedSubsFlag, "embed-subs", false, "Embed the cleaned subtitles in the output video")
	flags.BoolVarP(&burnFlag, "burn", "b", false, "Hard-code the cleaned subtitles into the video")
	flags.BoolVarP(&fullSubsFlag, "full-subs", "f", false, "Keep every subtitle cue, not just scrubbed ones")
	flags.BoolVar(&subsOnlyFlag, "subs-only", false, "Only scrub subtitles; do not produce a video")
	flags.BoolVar(&edlFlag, "edl", false, "Write an EDL file of the mute spans (implies --subs-only)")
	flags.BoolVarP(&jsonFlag, "json", "j", false, "Write a JSON report of the edits")
	flags.BoolVar(&chaptersFlag, "chapters", false, "Write a chapter-metadata sidecar marking each mute span")
	flags.BoolVarP(&downmixFlag, "downmix", "d", false, "Downmix the target audio to stereo")
	flags.BoolVar(&reEncodeVideo, "re-encode-video", false, "Re-encode video even when a copy would do")
	flags.BoolVar(&reEncodeAudio, "re-encode-audio", false, "Re-encode untouched audio streams")
	flags.BoolVar(&winFlag, "win", false, "Windows-safe mode: split filtering into short-command steps")
	flags.StringVar(&plexJSONFlag, "plex-auto-skip-json", "", "PlexAutoSkip marker file path (implies --subs-only)")
	flags.StringVar(&plexIDFlag, "plex-auto-skip-id", "", "Plex content identifier for the marker file")
	flags.IntVar(&threadsFlag, "threads", 0, "ffmpeg thread count for both input and encoding")
	flags.IntVar(&threadsInputFlag, "threads-input", 0, "ffmpeg thread count for input decoding")
	flags.IntVar(&threadsEncode, "threads-encoding", 0, "ffmpeg thread count for encoding")
	flags.IntVar(&jobsFlag, "jobs", 1, "Number of inputs to clean in parallel")

	return cmd
}

func summarizeResult(input string, result *job.Result) string {
	var sb strings.Builder
	if result.Unaltered {
		fmt.Fprintf(&sb, "%s: subtitles scrubbed", input)
	} else {
		fmt.Fprintf(&sb, "%s -> %s", input, result.OutputVideo)
	}
	fmt.Fprintf(&sb, " (%d edits, %d mute spans", result.EditCount, result.MuteCount)
	if result.CleanSubs != "" {
		fmt.Fprintf(&sb, ", subs %s", result.CleanSubs)
	}
	sb.WriteString(")")
	for _, warning := range result.Warnings {
		fmt.Fprintf(&sb, "\n  warning: %s", warning)
	}
	return sb.String()
}
