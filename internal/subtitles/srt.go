// Package subtitles renders dubbed transcripts as SRT files.
package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"dubber/internal/segment"
)

// WriteSRT emits one numbered cue per segment in slice order. Cues keep their
// original windows even when the dubbed audio was time-stretched, so subtitles
// stay aligned with the source timeline. Segments without translated text
// still produce a cue; players render them as a timed blank, which preserves
// stable numbering for downstream edits.
func WriteSRT(w io.Writer, segments []segment.Segment) error {
	bw := bufio.NewWriter(w)
	for i, seg := range segments {
		text := strings.TrimSpace(seg.TranslatedText)
		_, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			i+1, FormatTimestamp(seg.Start), FormatTimestamp(seg.End), text)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteSRTFile writes the cues to path, creating or truncating it.
func WriteSRTFile(path string, segments []segment.Segment) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	if err := WriteSRT(file, segments); err != nil {
		file.Close()
		return fmt.Errorf("write srt: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// FormatTimestamp renders seconds as an SRT timestamp (HH:MM:SS,mmm).
// Negative inputs clamp to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds*1000+0.5) * time.Millisecond
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	secs := int(d / time.Second)
	millis := int(d/time.Millisecond) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
