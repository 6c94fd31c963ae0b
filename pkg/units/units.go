// Package units provides byte size multipliers. Decimal units match the
// strings accepted by humanize.ParseBytes ("64MB" is 64 * MB).
package units

// Decimal size multipliers.
const (
	KB = 1000
	MB = 1000 * KB
	GB = 1000 * MB
)

// Binary size multipliers.
const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
)
