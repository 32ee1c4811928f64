// Package ffmpeg wraps the ffmpeg binary behind the narrow capability set
// the pipeline depends on: audio extraction, silence generation, ordered
// concatenation, sidechain-ducked mixing, tempo adjustment, and container
// remuxing. The rest of the codebase never constructs ffmpeg arguments
// directly.
package ffmpeg
