// Package ffmpeg executes planned tool invocations and maps non-zero
// exits onto the external tool error marker.
package ffmpeg
