//go:build windows

package inventory

// HostIdentityFunc returns a per-process allocator, since file indexes are
// not exposed through the portable stat interface.
func HostIdentityFunc() IdentityFunc {
	return NewSequentialIdentities(1).Identify
}

// DurableIdentityFunc returns nil: allocated identities do not outlive the
// process that handed them out.
func DurableIdentityFunc() IdentityFunc {
	return nil
}
