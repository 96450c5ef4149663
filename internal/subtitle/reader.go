package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/boilthesea/cleanvid/internal/errkind"
)

// Parse reads SRT cues from r. Input must already be UTF-8 with Unix line
// endings (see NormalizeBytes). Cues whose start exceeds their end are a
// format error; out-of-order cue blocks are tolerated as long as each cue is
// internally consistent, matching what players accept.
func Parse(r io.Reader) ([]Cue, error) {
	var cues []Cue
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	current := Cue{}
	state := "index"
	var textLines []string

	flush := func() {
		if len(textLines) > 0 {
			current.Text = strings.Join(textLines, "\n")
			cues = append(cues, current)
		}
		current = Cue{}
		textLines = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch state {
		case "index":
			if line == "" {
				continue
			}
			index, err := strconv.Atoi(line)
			if err != nil {
				// Tolerate stray non-numeric lines between cues.
				continue
			}
			current.Index = index
			state = "time"

		case "time":
			if line == "" {
				continue
			}
			startText, endText, found := strings.Cut(line, "-->")
			if !found {
				return nil, errkind.Wrap(errkind.ErrFormat, "subtitle", "parse",
					fmt.Sprintf("cue %d: expected timing line, got %q", current.Index, line), nil)
			}
			start, err := ParseTimestamp(startText)
			if err != nil {
				return nil, errkind.Wrap(errkind.ErrFormat, "subtitle", "parse",
					fmt.Sprintf("cue %d", current.Index), err)
			}
			end, err := ParseTimestamp(endText)
			if err != nil {
				return nil, errkind.Wrap(errkind.ErrFormat, "subtitle", "parse",
					fmt.Sprintf("cue %d", current.Index), err)
			}
			if start > end {
				return nil, errkind.Wrap(errkind.ErrFormat, "subtitle", "parse",
					fmt.Sprintf("cue %d: start %s after end %s", current.Index, FormatTimestamp(start), FormatTimestamp(end)), nil)
			}
			current.Start = start
			current.End = end
			state = "text"

		case "text":
			if line == "" {
				flush()
				state = "index"
			} else {
				textLines = append(textLines, line)
			}
		}
	}
	if state == "text" {
		flush()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}
	return cues, nil
}

// ReadFile normalizes and parses an SRT file.
func ReadFile(path string) ([]Cue, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errkind.Wrap(errkind.ErrMissingInput, "subtitle", "read", path, err)
	}
	normalized, err := NormalizeBytes(raw)
	if err != nil {
		return nil, errkind.Wrap(errkind.ErrFormat, "subtitle", "read", path, err)
	}
	return Parse(strings.NewReader(string(normalized)))
}
