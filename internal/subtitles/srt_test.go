package subtitles

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubber/internal/segment"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{61.042, "00:01:01,042"},
		{3661.999, "01:01:01,999"},
		{7325.0015, "02:02:05,002"},
		{-3, "00:00:00,000"},
	}
	for _, tc := range cases {
		if got := FormatTimestamp(tc.seconds); got != tc.want {
			t.Fatalf("FormatTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestWriteSRT(t *testing.T) {
	segments := []segment.Segment{
		{ID: 0, Start: 1.0, End: 2.5, TranslatedText: "Hola mundo"},
		{ID: 1, Start: 3.0, End: 4.0, TranslatedText: ""},
		{ID: 2, Start: 5.25, End: 7.0, TranslatedText: "  Adios  "},
	}

	var sb strings.Builder
	if err := WriteSRT(&sb, segments); err != nil {
		t.Fatalf("write: %v", err)
	}

	want := "1\n" +
		"00:00:01,000 --> 00:00:02,500\n" +
		"Hola mundo\n" +
		"\n" +
		"2\n" +
		"00:00:03,000 --> 00:00:04,000\n" +
		"\n" +
		"\n" +
		"3\n" +
		"00:00:05,250 --> 00:00:07,000\n" +
		"Adios\n" +
		"\n"
	if sb.String() != want {
		t.Fatalf("unexpected srt output:\n%q\nwant:\n%q", sb.String(), want)
	}
}

func TestWriteSRTFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	segments := []segment.Segment{{ID: 0, Start: 0, End: 1, TranslatedText: "Uno"}}
	if err := WriteSRTFile(path, segments); err != nil {
		t.Fatalf("write file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "00:00:00,000 --> 00:00:01,000") {
		t.Fatalf("unexpected contents: %q", data)
	}
}

func TestWriteSRTEmpty(t *testing.T) {
	var sb strings.Builder
	if err := WriteSRT(&sb, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if sb.String() != "" {
		t.Fatalf("expected empty output, got %q", sb.String())
	}
}
