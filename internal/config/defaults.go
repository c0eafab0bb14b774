package config

const (
	defaultStorageDir = "~/.local/share/memora/storage"
	defaultTempDir    = "~/.local/share/memora/temp"
	defaultLogDir     = "~/.local/share/memora/logs"

	defaultWhisperBinary      = "whisper-ctranslate2"
	defaultWhisperModel       = "base"
	defaultWhisperDevice      = "cpu"
	defaultWhisperComputeType = "int8"

	defaultOllamaURL            = "http://localhost:11434"
	defaultOllamaModel          = "gemma2:2b"
	defaultOllamaTimeoutSeconds = 120

	defaultFallbackBaseURL        = "https://api.openai.com/v1/chat/completions"
	defaultFallbackModel          = "gpt-4o-mini"
	defaultFallbackTimeoutSeconds = 60

	defaultMaxParallelJobs = 2

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageDir: defaultStorageDir,
			TempDir:    defaultTempDir,
			LogDir:     defaultLogDir,
		},
		Whisper: Whisper{
			Binary:      defaultWhisperBinary,
			Model:       defaultWhisperModel,
			Device:      defaultWhisperDevice,
			ComputeType: defaultWhisperComputeType,
		},
		Ollama: Ollama{
			URL:            defaultOllamaURL,
			Model:          defaultOllamaModel,
			TimeoutSeconds: defaultOllamaTimeoutSeconds,
		},
		Fallback: Fallback{
			BaseURL:        defaultFallbackBaseURL,
			Model:          defaultFallbackModel,
			TimeoutSeconds: defaultFallbackTimeoutSeconds,
		},
		Workflow: Workflow{
			MaxParallelJobs: defaultMaxParallelJobs,
			AutoDelete:      true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
