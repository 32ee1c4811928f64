package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Cue is one parsed subtitle block.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// ParseSRT reads SRT cues back from r. Blank-text cues are preserved.
// Multi-line cue text is joined with newlines.
func ParseSRT(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	var cues []Cue

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		index, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("parse srt: cue index: %q", line)
		}

		if !scanner.Scan() {
			return nil, fmt.Errorf("parse srt: cue %d: missing timing line", index)
		}
		start, end, err := parseTiming(strings.TrimSpace(scanner.Text()))
		if err != nil {
			return nil, fmt.Errorf("parse srt: cue %d: %w", index, err)
		}

		var text []string
		for scanner.Scan() {
			body := strings.TrimRight(scanner.Text(), "\r")
			if strings.TrimSpace(body) == "" {
				break
			}
			text = append(text, body)
		}

		cues = append(cues, Cue{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(text, "\n"),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse srt: %w", err)
	}
	return cues, nil
}

func parseTiming(line string) (float64, float64, error) {
	parts := strings.Split(line, " --> ")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad timing line %q", line)
	}
	start, err := ParseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseTimestamp(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// ParseTimestamp converts an SRT timestamp (HH:MM:SS,mmm) to seconds.
func ParseTimestamp(value string) (float64, error) {
	var hours, minutes, secs, millis int
	if _, err := fmt.Sscanf(value, "%d:%d:%d,%d", &hours, &minutes, &secs, &millis); err != nil {
		return 0, fmt.Errorf("bad timestamp %q", value)
	}
	return float64(hours)*3600 + float64(minutes)*60 + float64(secs) + float64(millis)/1000, nil
}
