// Package subtitle reads and writes SRT cue lists, normalizing arbitrary
// source encodings and line endings to UTF-8/Unix before parsing.
package subtitle
