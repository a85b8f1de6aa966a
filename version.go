// Package bulwark provides the version information for bulwark.
package bulwark

// Version is the current version of bulwark.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
