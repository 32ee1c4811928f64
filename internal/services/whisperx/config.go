package whisperx

// Config captures runtime settings for WhisperX transcription.
type Config struct {
	// Model is the Whisper model to use (e.g., "large-v3").
	Model string
	// Device selects the compute device ("cpu", "cuda", "mps").
	Device string
	// LowMem trades accuracy for a smaller memory footprint.
	LowMem bool
	// VADMinSilenceMs is the minimum silence gap used to split segments.
	VADMinSilenceMs int
}

// WhisperX configuration constants.
const (
	DefaultModel        = "large-v3"
	LowMemModel         = "small"
	PypiIndexURL        = "https://pypi.org/simple"
	CUDAIndexURL        = "https://download.pytorch.org/whl/cu128"
	BatchSize           = "4"
	BeamSize            = "5"
	OutputFormat        = "json"
	DefaultVADSilenceMs = 500
	CPUComputeType      = "float32"
	LowMemComputeType   = "int8"
	CUDADevice          = "cuda"
	CPUDevice           = "cpu"
	UVXCommand          = "uvx"
)
