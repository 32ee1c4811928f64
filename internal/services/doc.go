// Package services provides shared infrastructure for the external engine
// wrappers: a sentinel error taxonomy for stage failure classification and
// context keys carrying job/stage identifiers for structured logging.
package services
