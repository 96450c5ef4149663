package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/boilthesea/cleanvid/internal/scrub"
)

// RenderChapters formats chapter markers as an ffmetadata document
// suitable for -map_metadata ingestion.
func RenderChapters(chapters []scrub.Chapter) string {
	var b strings.Builder
	b.WriteString(";FFMETADATA1\n")
	for _, ch := range chapters {
		b.WriteString("\n[CHAPTER]\nTIMEBASE=1/1000\n")
		fmt.Fprintf(&b, "START=%d\nEND=%d\ntitle=%s\n", ch.StartMS, ch.EndMS, ch.Title)
	}
	return b.String()
}

// WriteChaptersFile writes the ffmetadata chapter sidecar. Nothing is
// written when there are no chapters.
func WriteChaptersFile(path string, chapters []scrub.Chapter) error {
	if len(chapters) == 0 {
		return nil
	}
	return os.WriteFile(path, []byte(RenderChapters(chapters)), 0o644)
}
