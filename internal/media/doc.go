// Package media probes container files with ffprobe and exposes the
// parsed stream layout to the resolver and planner.
package media
