//go:build debug
// +build debug

package config

import "time"

// Debug build: sample fast and keep little history so a bench unit cycles
// quickly.
const (
	ProfileName           = "debug"
	IsDebugBuild          = true
	DefaultVerbosity      = VerbositySummary
	DefaultReadsPerSample = 1
	DefaultSampleSize     = 2
	DefaultSampleInterval = 15 * time.Second
)
