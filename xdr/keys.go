// Package xdr holds the ledger entry and key shapes the bucket list cascade
// stores. It is deliberately small: the real wire encoding is out of scope
// (see bucketio), this package only fixes identity and comparison.
package xdr

// AccountID identifies an account. The real system encodes this as a
// public key; a string is enough to carry identity and ordering here.
type AccountID string

// PoolID identifies a liquidity pool.
type PoolID string

// AssetType discriminates the Asset union below.
type AssetType int

const (
	AssetTypeNative AssetType = iota
	AssetTypeCreditAlphanum
	AssetTypePoolShare
)

// Asset is the minimal asset union needed to drive the pool-share trustline
// query: native, a credit asset identified by code+issuer, or a pool share
// asset identified by the pool it belongs to.
type Asset struct {
	Type          AssetType
	Code          string
	Issuer        AccountID
	LiquidityPool PoolID
}

func NativeAsset() Asset {
	return Asset{Type: AssetTypeNative}
}

func CreditAsset(code string, issuer AccountID) Asset {
	return Asset{Type: AssetTypeCreditAlphanum, Code: code, Issuer: issuer}
}

func PoolShareAsset(pool PoolID) Asset {
	return Asset{Type: AssetTypePoolShare, LiquidityPool: pool}
}

// LedgerKeyType discriminates the LedgerKey union.
type LedgerKeyType int

const (
	LedgerKeyAccount LedgerKeyType = iota
	LedgerKeyTrustLine
	LedgerKeyLiquidityPool
	LedgerKeyOther
)

// LedgerKey is the identity of a ledger entry. It sorts by its encoded
// bytes, matching the "entries carry an identity ... sorted by identity"
// invariant in the bucket file layout.
type LedgerKey struct {
	Type LedgerKeyType

	Account struct {
		AccountID AccountID
	}
	TrustLine struct {
		AccountID AccountID
		Asset     Asset
	}
	LiquidityPool struct {
		PoolID PoolID
	}
	// Other carries an opaque discriminator for every other ledger entry
	// kind (offers, data entries, claimable balances, contract data, ...).
	// Behavior for these keys is out of scope; they exist only so bucket
	// files can carry non-account, non-trustline, non-pool entries and so
	// "the first entry whose type != Account" is a reachable condition.
	Other struct {
		Kind string
		ID   string
	}
}

func AccountKey(id AccountID) LedgerKey {
	k := LedgerKey{Type: LedgerKeyAccount}
	k.Account.AccountID = id
	return k
}

func TrustLineKey(account AccountID, asset Asset) LedgerKey {
	k := LedgerKey{Type: LedgerKeyTrustLine}
	k.TrustLine.AccountID = account
	k.TrustLine.Asset = asset
	return k
}

func LiquidityPoolKey(id PoolID) LedgerKey {
	k := LedgerKey{Type: LedgerKeyLiquidityPool}
	k.LiquidityPool.PoolID = id
	return k
}

func OtherKey(kind, id string) LedgerKey {
	k := LedgerKey{Type: LedgerKeyOther}
	k.Other.Kind = kind
	k.Other.ID = id
	return k
}

// id returns a byte-comparable encoding of the key's identity. It is not a
// wire format (see bucketio for that); it only needs to be total-ordered
// and stable within a process.
func (k LedgerKey) id() string {
	switch k.Type {
	case LedgerKeyAccount:
		return "A:" + string(k.Account.AccountID)
	case LedgerKeyTrustLine:
		return "T:" + string(k.TrustLine.AccountID) + ":" + assetID(k.TrustLine.Asset)
	case LedgerKeyLiquidityPool:
		return "L:" + string(k.LiquidityPool.PoolID)
	default:
		return "O:" + k.Other.Kind + ":" + k.Other.ID
	}
}

func assetID(a Asset) string {
	switch a.Type {
	case AssetTypeNative:
		return "native"
	case AssetTypeCreditAlphanum:
		return "credit:" + a.Code + ":" + string(a.Issuer)
	default:
		return "pool:" + string(a.LiquidityPool)
	}
}

// IdentityBytes exposes k's identity encoding for callers outside this
// package that need stable bytes to hash or index by (e.g. a bloom filter),
// without exposing id() itself or the encoding's format.
func IdentityBytes(k LedgerKey) []byte {
	return []byte(k.id())
}

// CompareKeys orders two keys by their identity encoding. Buckets are
// sorted in this order; MetaEntry is never compared (it sorts first by
// construction, not by this function).
func CompareKeys(a, b LedgerKey) int {
	ai, bi := a.id(), b.id()
	switch {
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	default:
		return 0
	}
}
