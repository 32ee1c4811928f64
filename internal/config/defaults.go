package config

const (
	defaultWorkDir          = "~/.local/share/dubber/work"
	defaultOutputDir        = "~/.local/share/dubber/output"
	defaultLogDir           = "~/.local/share/dubber/logs"
	defaultFFmpeg           = "ffmpeg"
	defaultFFprobe          = "ffprobe"
	defaultDemucs           = "demucs"
	defaultUVX              = "uvx"
	defaultTTSCommand       = "xtts"
	defaultTranslateCommand = "argos-translate"
	defaultWhisperModel     = "large-v3"
	defaultVADMinSilenceMs  = 500
	defaultMaxSpeakers      = 3
	defaultDemucsModel      = "htdemucs"
	defaultTranslationModel = "nllb-200-distilled-600M"
	defaultTTSModel         = "xtts_v2"
	defaultSynthesisWorkers = 1
	defaultDevice           = "cpu"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Tools: Tools{
			FFmpeg:    defaultFFmpeg,
			FFprobe:   defaultFFprobe,
			Demucs:    defaultDemucs,
			UVX:       defaultUVX,
			TTS:       defaultTTSCommand,
			Translate: defaultTranslateCommand,
		},
		Transcription: Transcription{
			Model:           defaultWhisperModel,
			VADMinSilenceMs: defaultVADMinSilenceMs,
			MaxSpeakers:     defaultMaxSpeakers,
		},
		Separation: Separation{
			Model: defaultDemucsModel,
		},
		Translation: Translation{
			Model: defaultTranslationModel,
		},
		TTS: TTS{
			Model: defaultTTSModel,
		},
		Workflow: Workflow{
			SynthesisWorkers: defaultSynthesisWorkers,
			Device:           defaultDevice,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
