package whisperx

// Config captures runtime settings for WhisperX operations.
type Config struct {
	// Model is the WhisperX model to use (e.g., "large-v3").
	Model string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// CPUThreads limits torch threads on CPU; zero keeps the WhisperX default.
	CPUThreads int
	// HFToken is the Hugging Face token required by the pyannote diarization models.
	HFToken string
	// UVXBinary is the launcher used to run WhisperX; defaults to "uvx".
	UVXBinary string
}

// WhisperX configuration constants.
const (
	DefaultModel      = "large-v3"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	BatchSize         = "4"
	BeamSize          = "5"
	Temperature       = "0.0"
	SegmentResolution = "sentence"
	OutputFormat      = "json"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
	CPUComputeType    = "float32"
	VADMethodPyannote = "pyannote"
)

// UVXCommand is the default launcher binary.
const UVXCommand = "uvx"
