package config

import "github.com/Sumatoshi-tech/astdiff/pkg/matchers"

// Matching defaults.
const (
	DefaultMinSubtreeHeight    = matchers.DefaultMinSubtreeHeight
	DefaultSimilarityThreshold = matchers.DefaultSimilarity
	DefaultWorkers             = 0
)

// Output defaults.
const (
	DefaultOutputFormat = FormatSummary
	DefaultOutputColor  = true
)

// Logging defaults.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false
)

// Telemetry defaults.
const (
	DefaultSampleRatio  = 0.0
	DefaultOTLPInsecure = false
	DefaultRedactPaths  = false
)

// Input defaults.
const (
	DefaultMaxFileSize = "1MB"
)

// DefaultExtensions lists the file extensions the CLI parses.
func DefaultExtensions() []string {
	return []string{".java"}
}
