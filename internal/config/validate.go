package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.FFmpeg == "" {
		return errors.New("tools.ffmpeg must be set")
	}
	if c.Tools.FFprobe == "" {
		return errors.New("tools.ffprobe must be set")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if c.Transcription.MaxSpeakers < 1 {
		return errors.New("transcription.max_speakers must be at least 1")
	}
	if c.Transcription.VADMinSilenceMs < 0 {
		return errors.New("transcription.vad_min_silence_ms must not be negative")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	switch c.Workflow.Device {
	case "cpu", "mps", "cuda":
	default:
		return fmt.Errorf("workflow.device must be cpu, mps, or cuda (got %q)", c.Workflow.Device)
	}
	if c.Workflow.SynthesisWorkers < 1 {
		return errors.New("workflow.synthesis_workers must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	return nil
}
