package filterplan

import (
	"fmt"
	"strconv"
	"strings"

	"clarion/internal/services"
)

// Options are the user-facing enhancement toggles. The zero value enables
// nothing; every combination is valid.
type Options struct {
	NormalizeVolume        bool `json:"normalize_volume"`
	ReduceNoise            bool `json:"reduce_noise"`
	ReduceHarshFrequencies bool `json:"reduce_harsh_frequencies"`
	ConvertToMono          bool `json:"convert_to_mono"`
}

// Stage is one named filter with its parameter string.
type Stage struct {
	Name   string `json:"name"`
	Params string `json:"params,omitempty"`
}

// Spec renders the stage in filter-graph syntax.
func (s Stage) Spec() string {
	name := strings.TrimSpace(s.Name)
	params := strings.TrimSpace(s.Params)
	if params == "" {
		return name
	}
	return name + "=" + params
}

// Plan is the immutable operation plan for one job. Channels of zero means
// the input channel layout is kept.
type Plan struct {
	Format   Format
	Stages   []Stage
	Channels int
	Encoder  EncoderParams
}

// HasFilters reports whether any filter stage is present.
func (p Plan) HasFilters() bool {
	return len(p.Stages) > 0
}

// FilterGraph combines every stage into one comma-joined filter argument,
// preserving stage order. It is empty when no stage is present.
func (p Plan) FilterGraph() string {
	if len(p.Stages) == 0 {
		return ""
	}
	specs := make([]string, 0, len(p.Stages))
	for _, stage := range p.Stages {
		specs = append(specs, stage.Spec())
	}
	return strings.Join(specs, ",")
}

// StageNames lists the filter names in execution order.
func (p Plan) StageNames() []string {
	names := make([]string, 0, len(p.Stages))
	for _, stage := range p.Stages {
		names = append(names, stage.Name)
	}
	return names
}

// Policy holds the filter constants used for each toggle.
type Policy struct {
	Normalize Stage
	Denoise   Stage
	Deharsh   Stage
}

// DefaultPolicy returns the built-in filter constants: dynamic normalization,
// FFT denoise, and a -6 dB narrow cut at 5 kHz.
func DefaultPolicy() Policy {
	return Policy{
		Normalize: Stage{Name: "dynaudnorm", Params: "f=150:g=15"},
		Denoise:   Stage{Name: "afftdn", Params: "nr=12:nf=-25"},
		Deharsh:   EqualizerStage(5000, 2, -6),
	}
}

// EqualizerStage builds a peaking equalizer stage at frequency Hz with a Q of
// width and the given gain in dB.
func EqualizerStage(frequency, width, gain float64) Stage {
	return Stage{
		Name: "equalizer",
		Params: fmt.Sprintf("f=%s:width_type=q:width=%s:g=%s",
			formatNumber(frequency), formatNumber(width), formatNumber(gain)),
	}
}

// Build derives the plan for opts and format using DefaultPolicy.
func Build(opts Options, format Format) (Plan, error) {
	return DefaultPolicy().Build(opts, format)
}

// Build derives the plan for opts and format. Normalization acts on the
// original dynamics, denoise follows, and the equalizer cut shapes the
// already cleaned signal last.
func (p Policy) Build(opts Options, format Format) (Plan, error) {
	if !format.Valid() {
		return Plan{}, services.Wrap(
			services.ErrValidation,
			"plan",
			"build",
			fmt.Sprintf("unsupported output format %q", string(format)),
			nil,
		)
	}

	plan := Plan{
		Format:  format,
		Encoder: format.Encoder(),
	}
	if opts.NormalizeVolume {
		plan.Stages = append(plan.Stages, p.Normalize)
	}
	if opts.ReduceNoise {
		plan.Stages = append(plan.Stages, p.Denoise)
	}
	if opts.ReduceHarshFrequencies {
		plan.Stages = append(plan.Stages, p.Deharsh)
	}
	if opts.ConvertToMono {
		plan.Channels = 1
	}
	return plan, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
