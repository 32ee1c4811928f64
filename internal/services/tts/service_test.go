package tts

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestModelIDExpansion(t *testing.T) {
	if got := NewService("", "", "cpu").ModelID(); got != xttsModelID {
		t.Fatalf("default model must expand, got %q", got)
	}
	custom := "tts_models/en/ljspeech/vits"
	if got := NewService("", custom, "cpu").ModelID(); got != custom {
		t.Fatalf("custom model must pass through, got %q", got)
	}
}

func TestSynthesizeBuildsCommand(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "ref.wav")
	if err := os.WriteFile(ref, []byte("wav"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "seg_0.wav")

	svc := NewService("tts", "xtts_v2", "cuda").WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		joined := strings.Join(args, " ")
		for _, want := range []string{
			"--model_name " + xttsModelID,
			"--speaker_wav " + ref,
			"--language_idx es",
			"--out_path " + out,
			"--use_cuda true",
		} {
			if !strings.Contains(joined, want) {
				t.Fatalf("args missing %q: %s", want, joined)
			}
		}
		return nil, os.WriteFile(out, []byte("audio"), 0o644)
	})

	if err := svc.Synthesize(context.Background(), "Hola", "es", ref, out); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
}

func TestSynthesizeMissingOutputFails(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "ref.wav")
	if err := os.WriteFile(ref, []byte("wav"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := NewService("", "", "cpu").WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, nil
	})
	err := svc.Synthesize(context.Background(), "Hola", "es", ref, filepath.Join(dir, "missing.wav"))
	if err == nil || !strings.Contains(err.Error(), "no output produced") {
		t.Fatalf("expected missing-output error, got %v", err)
	}
}

func TestSynthesizeToolFailure(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "ref.wav")
	if err := os.WriteFile(ref, []byte("wav"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := NewService("", "", "cpu").WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("model download failed"), errors.New("exit status 1")
	})
	err := svc.Synthesize(context.Background(), "Hola", "es", ref, filepath.Join(dir, "out.wav"))
	if err == nil || !strings.Contains(err.Error(), "model download failed") {
		t.Fatalf("expected tool output in error, got %v", err)
	}
}

func TestSynthesizeValidation(t *testing.T) {
	svc := NewService("", "", "cpu")
	if err := svc.Synthesize(context.Background(), " ", "es", "ref.wav", "out.wav"); err == nil {
		t.Fatal("expected error for empty text")
	}
	if err := svc.Synthesize(context.Background(), "hi", "es", "", "out.wav"); err == nil {
		t.Fatal("expected error for missing reference")
	}
}

func TestProfilesFallback(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "speaker1.wav")
	if err := os.WriteFile(ref, []byte("wav"), 0o644); err != nil {
		t.Fatal(err)
	}

	profiles := NewProfiles("/defaults/tone.wav")
	if err := profiles.Register("SPEAKER_01", ref); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := profiles.Register("SPEAKER_02", filepath.Join(dir, "missing.wav")); err == nil {
		t.Fatal("expected error for missing profile wav")
	}

	if got := profiles.Reference("SPEAKER_01"); got != ref {
		t.Fatalf("expected dedicated profile, got %q", got)
	}
	if got := profiles.Reference("SPEAKER_00"); got != "/defaults/tone.wav" {
		t.Fatalf("expected default fallback, got %q", got)
	}
	speakers := profiles.Speakers()
	if len(speakers) != 1 || speakers[0] != "SPEAKER_01" {
		t.Fatalf("unexpected speaker list: %v", speakers)
	}
}

func TestEnsureDefaultReference(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refs", "default_speaker.wav")

	got, err := EnsureDefaultReference(path)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if got != path {
		t.Fatalf("unexpected path %q", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 44+referenceSampleRate*referenceSeconds*2 {
		t.Fatalf("unexpected wav size %d", len(data))
	}
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("not a wav header: %q", data[:12])
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != referenceSampleRate {
		t.Fatalf("unexpected sample rate %d", rate)
	}

	// A second call must reuse the existing file.
	if err := os.WriteFile(path, []byte("sentinel"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := EnsureDefaultReference(path); err != nil {
		t.Fatalf("ensure existing: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "sentinel" {
		t.Fatal("existing reference must not be overwritten")
	}
}
