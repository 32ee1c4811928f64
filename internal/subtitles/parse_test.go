package subtitles

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"dubber/internal/segment"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"00:00:00,000", 0},
		{"00:00:01,500", 1.5},
		{"01:02:03,042", 3723.042},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", tc.in, err)
		}
		if math.Abs(got-tc.want) > 0.0005 {
			t.Fatalf("ParseTimestamp(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if _, err := ParseTimestamp("garbage"); err == nil {
		t.Fatal("expected error for malformed timestamp")
	}
}

func TestParseSRTRoundTrip(t *testing.T) {
	segments := []segment.Segment{
		{ID: 0, Start: 0.25, End: 2.5, TranslatedText: "Hola"},
		{ID: 1, Start: 3.0, End: 4.75, TranslatedText: ""},
		{ID: 2, Start: 5.0, End: 9.001, TranslatedText: "Hasta luego"},
	}

	var buf bytes.Buffer
	if err := WriteSRT(&buf, segments); err != nil {
		t.Fatalf("write: %v", err)
	}

	cues, err := ParseSRT(&buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// The blank cue has no text lines, so its block ends at the timing line
	// and parses back with empty text.
	if len(cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(cues))
	}
	for i, cue := range cues {
		if cue.Index != i+1 {
			t.Fatalf("cue %d index = %d", i, cue.Index)
		}
		if math.Abs(cue.Start-segments[i].Start) > 0.0005 || math.Abs(cue.End-segments[i].End) > 0.0005 {
			t.Fatalf("cue %d window = [%v, %v], want [%v, %v]", i, cue.Start, cue.End, segments[i].Start, segments[i].End)
		}
		if cue.Text != strings.TrimSpace(segments[i].TranslatedText) {
			t.Fatalf("cue %d text = %q", i, cue.Text)
		}
	}
}

func TestParseSRTRejectsMalformedTiming(t *testing.T) {
	input := "1\n00:00:00,000 -> 00:00:01,000\nbroken arrow\n"
	if _, err := ParseSRT(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for malformed timing separator")
	}
}
