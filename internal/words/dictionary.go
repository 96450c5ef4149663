// Package words loads the profanity list and performs case-insensitive
// whole-word replacement over subtitle text.
package words

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/boilthesea/cleanvid/internal/errkind"
)

// DefaultMask replaces terms that carry no explicit replacement.
const DefaultMask = "*****"

// Dictionary maps lowercase terms to their replacements and owns the
// compiled whole-word matcher. Construct one per job; instances are
// read-only after Load.
type Dictionary struct {
	replacements map[string]string
	pattern      *regexp.Regexp
}

// Load parses a line-oriented profanity file. Each line is either "term" or
// "term|replacement"; blank lines are skipped and later duplicates win.
func Load(path string) (*Dictionary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errkind.Wrap(errkind.ErrMissingInput, "words", "load", path, err)
	}
	defer file.Close()

	replacements := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		term, replacement, found := strings.Cut(line, "|")
		if !found {
			replacement = DefaultMask
		}
		replacements[strings.ToLower(term)] = replacement
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read swears file: %w", err)
	}

	return New(replacements)
}

// New builds a dictionary from an in-memory term table. Keys are lowered;
// an empty table produces a dictionary whose Replace is the identity.
func New(replacements map[string]string) (*Dictionary, error) {
	normalized := make(map[string]string, len(replacements))
	for term, replacement := range replacements {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		normalized[term] = replacement
	}

	d := &Dictionary{replacements: normalized}
	if len(normalized) == 0 {
		return d, nil
	}

	terms := make([]string, 0, len(normalized))
	for term := range normalized {
		terms = append(terms, regexp.QuoteMeta(term))
	}
	// Longer alternatives first so "asshole" is not half-matched as "ass".
	sort.Slice(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) })

	pattern, err := regexp.Compile(`(?i)\b(` + strings.Join(terms, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("compile swears pattern: %w", err)
	}
	d.pattern = pattern
	return d, nil
}

// Len reports the number of distinct terms.
func (d *Dictionary) Len() int {
	return len(d.replacements)
}

// Replace rewrites every whole-word occurrence of a dictionary term,
// preserving all surrounding text. The input is returned unchanged when no
// term matches.
func (d *Dictionary) Replace(text string) string {
	if d == nil || d.pattern == nil {
		return text
	}
	return d.pattern.ReplaceAllStringFunc(text, func(match string) string {
		if replacement, ok := d.replacements[strings.ToLower(match)]; ok {
			return replacement
		}
		return match
	})
}
