// Package logs reads the rotating Clarion log file for `clarion logs`.
//
// Last returns the trailing lines; Follow polls for appended lines and starts
// over when lumberjack rotates the file underneath it.
package logs
