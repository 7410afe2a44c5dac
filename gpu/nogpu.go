//go:build nogpu

package gpu

// Available reports whether a GPU accelerator is registered. Builds tagged
// nogpu never register one.
func Available() bool { return false }
