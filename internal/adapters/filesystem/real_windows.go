//go:build windows

package filesystem

import "errors"

// lookupOwner is not supported: Windows has no numeric owner ids.
func lookupOwner(_, _ string) (int, int, error) {
	return 0, 0, errors.New("setting archive owner is not supported on windows")
}
