// Package language normalizes user-supplied language codes and maps them to
// the code forms each external engine expects. All language conversions for
// transcription, translation, and synthesis are consolidated here.
package language
