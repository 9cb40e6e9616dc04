// Package staging reclaims the engine workspace.
//
// Staged inputs and engine outputs are removed after every job, but a crash
// or kill can strand them. CleanStale sweeps what is left behind.
package staging
