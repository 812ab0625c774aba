//go:build !windows

package inventory

import (
	"os"

	"golang.org/x/sys/unix"
)

// HostIdentityFunc returns the inode lookup for this platform.
func HostIdentityFunc() IdentityFunc {
	return InodeIdentity
}

// DurableIdentityFunc returns a lookup whose identities stay valid across
// processes, or nil where the platform has none.
func DurableIdentityFunc() IdentityFunc {
	return InodeIdentity
}

// InodeIdentity returns the inode number of path without following symlinks.
func InodeIdentity(path string) (Identity, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return 0, &os.PathError{Op: "lstat", Path: path, Err: err}
	}
	return Identity(st.Ino), nil
}
