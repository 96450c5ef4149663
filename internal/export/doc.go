// Package export holds the pure file formatters: EDL rows, the JSON
// edit report, PlexAutoSkip markers and ffmetadata chapters. All of
// them render data computed during the scrub pass.
package export
