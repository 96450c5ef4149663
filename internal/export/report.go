package export

import (
	"encoding/json"
	"os"
	"time"

	"github.com/boilthesea/cleanvid/internal/scrub"
	"github.com/boilthesea/cleanvid/internal/subtitle"
)

// Report is the JSON edit report written alongside the cleaned output.
type Report struct {
	Now       string          `json:"now"`
	Edits     []ReportEdit    `json:"edits"`
	Media     ReportMedia     `json:"media"`
	Subtitles ReportSubtitles `json:"subtitles"`
}

// ReportEdit is one rewritten cue, with SRT-style timestamps.
type ReportEdit struct {
	Index int    `json:"index"`
	Old   string `json:"old"`
	New   string `json:"new"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type ReportMedia struct {
	Input   string          `json:"input"`
	Output  string          `json:"output"`
	FFprobe json.RawMessage `json:"ffprobe"`
}

type ReportSubtitles struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// BuildReport assembles the report from the scrub edits and job paths.
// probeRaw is the unmodified ffprobe JSON document for the input file.
func BuildReport(now time.Time, edits []scrub.Edit, inputVideo, outputVideo string, probeRaw json.RawMessage, inputSubs, outputSubs string) Report {
	report := Report{
		Now:   now.Format(time.RFC3339Nano),
		Edits: make([]ReportEdit, 0, len(edits)),
		Media: ReportMedia{
			Input:   inputVideo,
			Output:  outputVideo,
			FFprobe: probeRaw,
		},
		Subtitles: ReportSubtitles{
			Input:  inputSubs,
			Output: outputSubs,
		},
	}
	for _, edit := range edits {
		report.Edits = append(report.Edits, ReportEdit{
			Index: edit.Index,
			Old:   edit.Old,
			New:   edit.New,
			Start: subtitle.FormatTimestamp(edit.Start),
			End:   subtitle.FormatTimestamp(edit.End),
		})
	}
	return report
}

// WriteReportFile writes the report as indented JSON.
func WriteReportFile(path string, report Report) error {
	data, err := json.MarshalIndent(report, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
