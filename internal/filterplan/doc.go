// Package filterplan maps enhancement toggles and an output format to the
// ordered operation plan the engine executes.
//
// Build is pure: the same Options and Format always yield the same Plan. Filter
// stages are appended in a fixed order (normalize, denoise, harsh-frequency
// attenuation) and combined into a single filter-graph argument; the mono
// downmix is a channel override independent of that order; encoder parameters
// come from a fixed per-format table.
package filterplan
