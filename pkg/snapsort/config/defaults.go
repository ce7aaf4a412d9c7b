// Package config provides configuration management for snapsort.
package config

// Default configuration values.
const (
	// DefaultWorkers is the default digest concurrency.
	DefaultWorkers = 1

	// DefaultMaxCollisions bounds the "(n)" slots probed per file.
	DefaultMaxCollisions = 10000

	// DefaultRetentionDays is how long run manifests are kept.
	DefaultRetentionDays = 90

	// DefaultLogLevel is the file log level.
	DefaultLogLevel = "info"

	// DefaultLogMaxSize is the size that triggers log rotation.
	DefaultLogMaxSize = "10MB"

	// DefaultLogMaxBackups is the number of rotated logs kept.
	DefaultLogMaxBackups = 5

	// EnvPrefix prefixes environment overrides, e.g. SNAPSORT_WORKERS.
	EnvPrefix = "SNAPSORT"

	appName = "snapsort"
)

// DefaultExclusions are skipped by every scan unless overridden.
var DefaultExclusions = []string{
	".thumbnails",
	"@eaDir",
	".Trashes",
}
