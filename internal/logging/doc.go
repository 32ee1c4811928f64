// Package logging builds the slog loggers used across the pipeline and
// centralizes the structured field vocabulary (job, stage, segment).
package logging
