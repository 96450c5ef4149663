package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Write renders cues as SRT. Cue indices are written as stored; callers that
// drop cues and want a gapless sequence should Renumber first.
func Write(w io.Writer, cues []Cue) error {
	buffered := bufio.NewWriter(w)
	for _, cue := range cues {
		if _, err := fmt.Fprintf(buffered, "%d\n%s --> %s\n%s\n\n",
			cue.Index, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), cue.Text); err != nil {
			return err
		}
	}
	return buffered.Flush()
}

// WriteFile writes cues to path, replacing any existing file.
func WriteFile(path string, cues []Cue) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create subtitle file: %w", err)
	}
	defer file.Close()

	if err := Write(file, cues); err != nil {
		return fmt.Errorf("write subtitle file: %w", err)
	}
	return file.Close()
}

// Renumber assigns sequential 1-based indices in place.
func Renumber(cues []Cue) {
	for i := range cues {
		cues[i].Index = i + 1
	}
}
