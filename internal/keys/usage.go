// Package keys provides deterministic sub-account derivation. Each
// account is bound to a fixed usage tag so that different concerns
// (token transfers, identity database, generic chain calls, donations)
// never share an address, preserving user privacy.
package keys

import "fmt"

// Usage selects a deterministic derivation index for a sub-account.
type Usage string

// Supported account usages.
const (
	// UsagePrimaryToken is the main token account ("gd").
	UsagePrimaryToken Usage = "primary-token"

	// UsageIdentityDB signs identity-database records ("gundb").
	UsageIdentityDB Usage = "identity-db"

	// UsageGenericChain is for generic chain interactions ("eth").
	UsageGenericChain Usage = "generic-chain"

	// UsageDonation is the donation account ("donate").
	UsageDonation Usage = "donation"
)

// usageIndex is the fixed, total usage-to-derivation-index mapping.
// The same seed and usage must always yield the same address, so these
// indexes are never reassigned.
//
//nolint:gochecknoglobals // Fixed derivation table, never mutated
var usageIndex = map[Usage]uint32{
	UsagePrimaryToken: 0,
	UsageIdentityDB:   1,
	UsageGenericChain: 2,
	UsageDonation:     3,
}

// Index returns the derivation index for a usage.
func (u Usage) Index() (uint32, error) {
	idx, ok := usageIndex[u]
	if !ok {
		return 0, fmt.Errorf("unknown account usage %q", u)
	}
	return idx, nil
}

// IsValid returns true if the usage is a known usage tag.
func (u Usage) IsValid() bool {
	_, ok := usageIndex[u]
	return ok
}

// String returns the usage tag string.
func (u Usage) String() string {
	return string(u)
}

// DerivationPath returns the full BIP44 derivation path for a usage.
func (u Usage) DerivationPath() string {
	idx, err := u.Index()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("m/44'/60'/0'/0/%d", idx)
}

// AllUsages returns every usage in fixed index order.
func AllUsages() []Usage {
	return []Usage{UsagePrimaryToken, UsageIdentityDB, UsageGenericChain, UsageDonation}
}

// ParseUsage parses a string into a Usage.
func ParseUsage(s string) (Usage, bool) {
	u := Usage(s)
	return u, u.IsValid()
}
