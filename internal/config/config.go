package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Tools names the external binaries the pipeline shells out to.
type Tools struct {
	FFmpeg    string `toml:"ffmpeg"`
	FFprobe   string `toml:"ffprobe"`
	Demucs    string `toml:"demucs"`
	UVX       string `toml:"uvx"`
	TTS       string `toml:"tts"`
	Translate string `toml:"translate"`
}

// Transcription contains settings for the speech-to-text engine.
type Transcription struct {
	Model            string `toml:"model"`
	VADMinSilenceMs  int    `toml:"vad_min_silence_ms"`
	MaxSpeakers      int    `toml:"max_speakers"`
	HuggingFaceToken string `toml:"hf_token"`
}

// Separation contains settings for the source-separation engine.
type Separation struct {
	Model  string `toml:"model"`
	LowMem bool   `toml:"low_mem"`
}

// Translation contains settings for the machine-translation engine.
type Translation struct {
	Model string `toml:"model"`
}

// TTS contains settings for the voice-synthesis engine.
type TTS struct {
	Model string `toml:"model"`
	// SpeakerWav is the reference voice applied to every detected speaker
	// when no per-speaker mapping is configured.
	SpeakerWav string `toml:"speaker_wav"`
	// SpeakerWavs maps diarization labels (SPEAKER_00, ...) to reference files.
	SpeakerWavs map[string]string `toml:"speaker_wavs"`
}

// Subtitles controls subtitle file emission.
type Subtitles struct {
	Enabled bool `toml:"enabled"`
}

// Workflow contains pipeline execution settings.
type Workflow struct {
	// SynthesisWorkers bounds the per-segment synthesis worker pool.
	SynthesisWorkers int `toml:"synthesis_workers"`
	// Device selects the execution backend passed to the ML tools (cpu, mps, cuda).
	Device string `toml:"device"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the dubbing pipeline.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Tools         Tools         `toml:"tools"`
	Transcription Transcription `toml:"transcription"`
	Separation    Separation    `toml:"separation"`
	Translation   Translation   `toml:"translation"`
	TTS           TTS           `toml:"tts"`
	Subtitles     Subtitles     `toml:"subtitles"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dubber/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the work, output, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to the given path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}
