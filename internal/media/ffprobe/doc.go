// Package ffprobe wraps ffprobe invocations for media inspection.
package ffprobe
