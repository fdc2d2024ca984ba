package version

import (
	"fmt"
	"runtime"
)

// Build information. These variables are set at build time using ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// Wire protocol facts reported alongside the build. They mirror the
// constants in internal/abx and are checked against them in tests.
const (
	Protocol          = "ABX"
	RecordSize        = 17
	MaxResendSequence = 255
)

// Info contains version information.
type Info struct {
	Version           string `json:"version"`
	GitCommit         string `json:"git_commit"`
	GoVersion         string `json:"go_version"`
	Protocol          string `json:"protocol"`
	RecordSize        int    `json:"record_size"`
	MaxResendSequence int    `json:"max_resend_sequence"`
}

// GetInfo returns the version information.
func GetInfo() Info {
	return Info{
		Version:           Version,
		GitCommit:         GitCommit,
		GoVersion:         runtime.Version(),
		Protocol:          Protocol,
		RecordSize:        RecordSize,
		MaxResendSequence: MaxResendSequence,
	}
}

// String returns the version string printed by -version. It states the
// one-byte resend limit because sequences above it cannot be recovered.
func (i Info) String() string {
	return fmt.Sprintf("abxclient %s (commit: %s, go: %s, protocol: %s %d-byte records, resend up to #%d)",
		i.Version, i.GitCommit, i.GoVersion, i.Protocol, i.RecordSize, i.MaxResendSequence)
}

// Short returns a short version string.
func (i Info) Short() string {
	return fmt.Sprintf("abxclient %s", i.Version)
}
