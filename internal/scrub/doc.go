// Package scrub walks subtitle cues, rewrites profanity, and derives
// the padded mute timeline together with its EDL, Plex marker and
// chapter projections in a single pass.
package scrub
