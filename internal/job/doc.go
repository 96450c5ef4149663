// Package job orchestrates one cleaning run: subtitle acquisition and
// scrubbing, sidecar exports, multiplex planning, external execution,
// and cleanup.
package job
