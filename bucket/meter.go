package bucket

import "github.com/stellarbase/bucketlist/xdr"

// LedgerKeyMeter is the per-transaction read-quota accountant LoadKeys
// consults. Quota arithmetic is opaque to the core (§6); this module only
// calls CanLoad before counting bytes against a key and UpdateReadQuotas
// afterward.
type LedgerKeyMeter interface {
	// CanLoad reports whether the transaction(s) that reference key still
	// have at least bytes of remaining quota.
	CanLoad(key xdr.LedgerKey, bytes int) bool
	// UpdateReadQuotas consumes bytes from the quota of every transaction
	// that references key, regardless of whether CanLoad permitted it.
	UpdateReadQuotas(key xdr.LedgerKey, bytes int)
}
