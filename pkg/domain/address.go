package domain

import "strings"

// CanonicalAddress is the single normalization applied to wallet and
// organization addresses at every ingress (submit, decide, lookup).
// Addresses are compared case-insensitively, so the canonical form is the
// trimmed lowercase string. Hex validity is not enforced here.
func CanonicalAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// SameAddress reports whether two addresses are equal after canonicalization.
func SameAddress(a, b string) bool {
	return CanonicalAddress(a) == CanonicalAddress(b)
}
