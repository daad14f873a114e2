//go:build !windows

package filesystem

import (
	"fmt"
	"os/user"
	"strconv"
)

// lookupOwner resolves names through the system user database. Numeric
// names are accepted as ids.
func lookupOwner(userName, groupName string) (int, int, error) {
	uid, gid := -1, -1

	if userName != "" {
		id, err := resolveID(userName, func(name string) (string, error) {
			u, err := user.Lookup(name)
			if err != nil {
				return "", err
			}
			return u.Uid, nil
		})
		if err != nil {
			return 0, 0, fmt.Errorf("unknown user %q: %w", userName, err)
		}
		uid = id
	}

	if groupName != "" {
		id, err := resolveID(groupName, func(name string) (string, error) {
			g, err := user.LookupGroup(name)
			if err != nil {
				return "", err
			}
			return g.Gid, nil
		})
		if err != nil {
			return 0, 0, fmt.Errorf("unknown group %q: %w", groupName, err)
		}
		gid = id
	}

	return uid, gid, nil
}

func resolveID(name string, lookup func(string) (string, error)) (int, error) {
	if id, err := strconv.Atoi(name); err == nil {
		return id, nil
	}
	raw, err := lookup(name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}
