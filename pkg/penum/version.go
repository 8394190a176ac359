package penum

import (
	"github.com/penum-labs/penum-ingress/pkg/lifecycle"
	"github.com/penum-labs/penum-ingress/pkg/log"
)

// Version information for the penum module.
const (
	// Version is the current version of the penum module.
	Version = "1.0.0"

	// MinCompatibleVersion is the minimum version that is compatible with this version.
	MinCompatibleVersion = "1.0.0"
)

// ModuleVersions returns the versions of all sub-modules.
func ModuleVersions() map[string]string {
	return map[string]string{
		"penum":     Version,
		"log":       log.Version,
		"lifecycle": lifecycle.Version,
	}
}

// CompatibilityMatrix returns the minimum compatible version for each sub-module.
func CompatibilityMatrix() map[string]string {
	return map[string]string{
		"penum":     MinCompatibleVersion,
		"log":       log.MinCompatibleVersion,
		"lifecycle": lifecycle.MinCompatibleVersion,
	}
}
