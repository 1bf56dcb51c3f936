//go:build !debug
// +build !debug

package config

import "time"

// Production build
const (
	ProfileName           = "production"
	IsDebugBuild          = false
	DefaultVerbosity      = VerbosityOff
	DefaultReadsPerSample = 5
	DefaultSampleSize     = 10
	DefaultSampleInterval = 60 * time.Second
)
