package config

import (
	"strings"

	"clarion/internal/filterplan"
)

// FilterPolicy converts the [filters] section into the policy constants the
// plan builder applies for each toggle.
func (c *Config) FilterPolicy() filterplan.Policy {
	policy := filterplan.DefaultPolicy()
	policy.Normalize = filterplan.Stage{Name: c.Filters.NormalizeFilter, Params: c.Filters.NormalizeParams}

	switch c.Filters.DenoiseMethod {
	case DenoiseRNN:
		policy.Denoise = filterplan.Stage{Name: DenoiseRNN, Params: "m=" + escapeFilterValue(c.Filters.DenoiseModel)}
	default:
		policy.Denoise = filterplan.Stage{Name: DenoiseFFT, Params: c.Filters.DenoiseParams}
	}

	policy.Deharsh = filterplan.EqualizerStage(c.Filters.DeharshFrequency, c.Filters.DeharshWidth, c.Filters.DeharshGain)
	return policy
}

// DefaultFormat returns the configured default output format.
func (c *Config) DefaultFormat() filterplan.Format {
	format, err := filterplan.ParseFormat(c.Output.DefaultFormat)
	if err != nil {
		return filterplan.DefaultFormat
	}
	return format
}

// escapeFilterValue quotes characters the ffmpeg filter-graph parser treats
// as separators.
func escapeFilterValue(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`, `,`, `\,`)
	return replacer.Replace(value)
}
