package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/boilthesea/cleanvid/internal/media"
)

func newStreamsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "streams <video>",
		Short: "List the audio and subtitle streams of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			prober := media.NewProber(cfg.FFprobeBinary(), logger)
			probe, err := prober.Inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, probe)
			}

			out := cmd.OutOrStdout()
			if len(probe.AudioStreams) > 0 {
				rows := make([][]string, 0, len(probe.AudioStreams))
				for _, s := range probe.AudioStreams {
					rows = append(rows, []string{
						strconv.Itoa(s.Index),
						s.Codec,
						strconv.Itoa(s.Channels),
						s.ChannelLayout,
						strconv.Itoa(s.SampleRate),
						s.Language,
						yesNo(s.IsDefault),
					})
				}
				fmt.Fprintln(out, "Audio streams:")
				fmt.Fprintln(out, renderTable(
					[]string{"Index", "Codec", "Channels", "Layout", "Rate", "Lang", "Default"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
				))
			} else {
				fmt.Fprintln(out, "No audio streams")
			}

			if len(probe.SubtitleStreams) > 0 {
				rows := make([][]string, 0, len(probe.SubtitleStreams))
				for _, s := range probe.SubtitleStreams {
					kind := "text"
					if s.IsBitmap {
						kind = "bitmap"
					}
					rows = append(rows, []string{strconv.Itoa(s.Index), s.Codec, s.Language, kind})
				}
				fmt.Fprintln(out, "Subtitle streams:")
				fmt.Fprintln(out, renderTable(
					[]string{"Index", "Codec", "Lang", "Kind"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
			} else {
				fmt.Fprintln(out, "No subtitle streams")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the probe result as JSON")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
