// Package plan resolves the target audio stream, renders the mute
// timeline into an afade filter chain, and turns both into an ordered
// list of external ffmpeg invocations. Plans come in three shapes:
// passthrough when nothing needs doing, a single combined encode, or a
// three-stage extract/filter/mux pipeline for platforms with short
// command-line limits.
package plan
