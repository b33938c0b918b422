//go:build windows

package fileutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// privateMode reports whether perm keeps group and other out.
func privateMode(perm os.FileMode) bool {
	return perm&0o077 == 0
}

// ownerOnlyACL builds a DACL that grants the current process user full
// control and nobody else anything. Directory DACLs propagate to children.
func ownerOnlyACL(dir bool) (*windows.ACL, error) {
	user, err := windows.GetCurrentProcessToken().GetTokenUser()
	if err != nil {
		return nil, fmt.Errorf("look up current user: %w", err)
	}
	inherit := uint32(windows.NO_INHERITANCE)
	if dir {
		inherit = windows.CONTAINER_INHERIT_ACE | windows.OBJECT_INHERIT_ACE
	}
	return windows.ACLFromEntries([]windows.EXPLICIT_ACCESS{{
		AccessPermissions: windows.GENERIC_ALL,
		AccessMode:        windows.SET_ACCESS,
		Inheritance:       inherit,
		Trustee: windows.TRUSTEE{
			TrusteeForm:  windows.TRUSTEE_IS_SID,
			TrusteeType:  windows.TRUSTEE_IS_USER,
			TrusteeValue: windows.TrusteeValueFromSID(user.User.Sid),
		},
	}}, nil)
}

// lockDown replaces the DACL on path with an owner-only one and stops
// inheritance from the parent.
func lockDown(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	acl, err := ownerOnlyACL(info.IsDir())
	if err != nil {
		return fmt.Errorf("fileutil: %s: %w", path, err)
	}
	err = windows.SetNamedSecurityInfo(path, windows.SE_FILE_OBJECT,
		windows.SECURITY_INFORMATION(windows.DACL_SECURITY_INFORMATION|windows.PROTECTED_DACL_SECURITY_INFORMATION),
		nil, nil, acl, nil)
	if err != nil {
		return fmt.Errorf("fileutil: set DACL on %s: %w", path, err)
	}
	return nil
}

// lockDownAll applies lockDown to each path. The mode is already set, so
// a failed DACL is only logged.
func lockDownAll(paths ...string) {
	for _, p := range paths {
		if err := lockDown(p); err != nil {
			slog.Warn("fileutil: could not restrict access", "path", p, "err", err)
		}
	}
}

// missingDirs returns path and each of its ancestors up to the first one
// that already exists.
func missingDirs(path string) []string {
	var out []string
	for p := filepath.Clean(path); ; {
		if _, err := os.Stat(p); err == nil {
			return out
		}
		out = append(out, p)
		parent := filepath.Dir(p)
		if parent == p || parent == "." {
			return out
		}
		p = parent
	}
}

// SecureMkdirAll creates path and any missing parents. With a private
// mode every directory it creates is restricted to the current user.
func SecureMkdirAll(path string, perm os.FileMode) error {
	var created []string
	if privateMode(perm) {
		created = missingDirs(path)
	}
	if err := os.MkdirAll(path, perm); err != nil {
		return err
	}
	lockDownAll(created...)
	return nil
}

// SecureChmod changes the mode of path, restricting it to the current
// user when the mode is private.
func SecureChmod(path string, perm os.FileMode) error {
	if err := os.Chmod(path, perm); err != nil {
		return err
	}
	if privateMode(perm) {
		lockDownAll(path)
	}
	return nil
}
