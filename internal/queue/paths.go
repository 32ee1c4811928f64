package queue

import (
	"fmt"
	"path/filepath"
	"strings"

	"dubber/internal/textutil"
)

// StagingRoot returns the per-job staging directory rooted at base. When the
// input fingerprint is available it keys the directory so reruns of the same
// source and target language share artifacts; otherwise job-{ID} avoids
// collisions.
func (j Job) StagingRoot(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	name := strings.TrimSpace(j.Fingerprint)
	if name != "" {
		if len(name) > 16 {
			name = name[:16]
		}
		name = name + "-" + textutil.SanitizeToken(j.TargetLang)
	} else {
		name = fmt.Sprintf("job-%d", j.ID)
	}
	return filepath.Join(base, name)
}

// Artifact locations inside a job's work directory. Stage handlers derive
// every intermediate path from these so a resumed job finds prior output.

// FullAudioPath is the extracted source audio (44.1 kHz stereo WAV).
func (j Job) FullAudioPath() string {
	return filepath.Join(j.WorkDir, "audio", "full_audio.wav")
}

// StemsDir is the Demucs output root.
func (j Job) StemsDir() string {
	return filepath.Join(j.WorkDir, "stems")
}

// TranscriptDir holds WhisperX and pyannote output.
func (j Job) TranscriptDir() string {
	return filepath.Join(j.WorkDir, "transcript")
}

// SnapshotPath is the JSON segment snapshot written after each stage.
func (j Job) SnapshotPath() string {
	return filepath.Join(j.WorkDir, "segments.json")
}

// SegmentsDir holds per-segment synthesized audio.
func (j Job) SegmentsDir() string {
	return filepath.Join(j.WorkDir, "segments")
}

// SpeechTrackPath is the assembled dubbed speech timeline.
func (j Job) SpeechTrackPath() string {
	return filepath.Join(j.WorkDir, "speech_track.wav")
}

// DubbedAudioPath is the final mixed audio track (speech over instrumental).
func (j Job) DubbedAudioPath() string {
	return filepath.Join(j.WorkDir, "dubbed_audio.wav")
}

// OutputBaseName is the sanitized basename (no extension) for exported files.
func (j Job) OutputBaseName() string {
	title := textutil.SanitizeFileName(j.Title)
	if title == "" {
		title = fmt.Sprintf("job-%d", j.ID)
	}
	return fmt.Sprintf("%s_%s", title, textutil.SanitizeToken(j.TargetLang))
}
