package config

const (
	defaultOutputDir          = "~/.local/share/clarion/output"
	defaultLogDir             = "~/.local/share/clarion/logs"
	defaultEnvFile            = "~/.config/clarion/clarion.env"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultLoadTimeoutSeconds = 30
	defaultMinFreeMiB         = 64
	defaultStderrTailLines    = 20
	defaultNormalizeFilter    = "dynaudnorm"
	defaultNormalizeParams    = "f=150:g=15"
	defaultDenoiseMethod      = DenoiseFFT
	defaultDenoiseParams      = "nr=12:nf=-25"
	defaultDeharshFrequency   = 5000
	defaultDeharshWidth       = 2
	defaultDeharshGain        = -6
	defaultOutputFormat       = "ogg"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogMaxSizeMiB      = 10
	defaultLogRetentionDays   = 30
	defaultTelemetryBuffer    = 32
	defaultNtfyTimeoutSeconds = 10
)

// Denoise methods accepted by filters.denoise_method.
const (
	DenoiseFFT = "afftdn"
	DenoiseRNN = "arnndn"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir(),
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			EnvFile:   defaultEnvFile,
		},
		Engine: Engine{
			FFmpegBinary:       defaultFFmpegBinary,
			FFprobeBinary:      defaultFFprobeBinary,
			LoadTimeoutSeconds: defaultLoadTimeoutSeconds,
			MinFreeMiB:         defaultMinFreeMiB,
			StderrTailLines:    defaultStderrTailLines,
		},
		Filters: Filters{
			NormalizeFilter:  defaultNormalizeFilter,
			NormalizeParams:  defaultNormalizeParams,
			DenoiseMethod:    defaultDenoiseMethod,
			DenoiseParams:    defaultDenoiseParams,
			DeharshFrequency: defaultDeharshFrequency,
			DeharshWidth:     defaultDeharshWidth,
			DeharshGain:      defaultDeharshGain,
		},
		Output: Output{
			DefaultFormat: defaultOutputFormat,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			File:          true,
			MaxSizeMiB:    defaultLogMaxSizeMiB,
			RetentionDays: defaultLogRetentionDays,
		},
		Telemetry: Telemetry{
			Enabled:            true,
			History:            true,
			BufferSize:         defaultTelemetryBuffer,
			NtfyTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
	}
}
