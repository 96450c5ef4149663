package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/boilthesea/cleanvid/internal/scrub"
)

// edlMuteAction is the EDL action code for "mute audio".
const edlMuteAction = 1

// RenderEDL formats one tab-separated row per mute interval.
func RenderEDL(rows []scrub.EDLRow) string {
	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "%.3f\t%.3f\t%d\n", row.Start, row.End, edlMuteAction)
	}
	return b.String()
}

// WriteEDLFile writes the EDL to path. Nothing is written when there
// are no rows.
func WriteEDLFile(path string, rows []scrub.EDLRow) error {
	if len(rows) == 0 {
		return nil
	}
	return os.WriteFile(path, []byte(RenderEDL(rows)), 0o644)
}
