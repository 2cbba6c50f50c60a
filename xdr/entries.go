package xdr

// AccountEntry is the subset of account state the inflation-winner tally
// needs: balance and an optional vote for an inflation destination.
type AccountEntry struct {
	AccountID     AccountID
	Balance       int64
	InflationDest *AccountID
}

// TrustLineEntry links an account to an asset it holds (including pool
// share trustlines, the target of the pool-share query).
type TrustLineEntry struct {
	AccountID AccountID
	Asset     Asset
	Balance   int64
}

// LiquidityPoolEntry is the pool referenced by a pool-share asset.
type LiquidityPoolEntry struct {
	PoolID PoolID
	AssetA Asset
	AssetB Asset
}

// OtherEntry stands in for every ledger entry kind this module does not
// need to interpret (offers, data entries, claimable balances, contract
// data, ...). Only its key identity and sort position matter.
type OtherEntry struct {
	Kind string
}

// LedgerEntryType discriminates the LedgerEntry union.
type LedgerEntryType int

const (
	LedgerEntryAccount LedgerEntryType = iota
	LedgerEntryTrustLine
	LedgerEntryLiquidityPool
	LedgerEntryOther
)

// LedgerEntry is the value half of the cascade: what a LiveEntry/InitEntry
// carries. Exactly one of the payload fields is meaningful, selected by
// Type, mirroring the original system's XDR union.
type LedgerEntry struct {
	Type LedgerEntryType

	Account       AccountEntry
	TrustLine     TrustLineEntry
	LiquidityPool LiquidityPoolEntry
	Other         OtherEntry
}

// Key returns the identity of the value this entry represents.
func (e LedgerEntry) Key() LedgerKey {
	switch e.Type {
	case LedgerEntryAccount:
		return AccountKey(e.Account.AccountID)
	case LedgerEntryTrustLine:
		return TrustLineKey(e.TrustLine.AccountID, e.TrustLine.Asset)
	case LedgerEntryLiquidityPool:
		return LiquidityPoolKey(e.LiquidityPool.PoolID)
	default:
		return OtherKey(e.Other.Kind, "")
	}
}

func AccountLedgerEntry(id AccountID, balance int64, inflationDest *AccountID) LedgerEntry {
	return LedgerEntry{
		Type: LedgerEntryAccount,
		Account: AccountEntry{
			AccountID:     id,
			Balance:       balance,
			InflationDest: inflationDest,
		},
	}
}

func TrustLineLedgerEntry(account AccountID, asset Asset, balance int64) LedgerEntry {
	return LedgerEntry{
		Type: LedgerEntryTrustLine,
		TrustLine: TrustLineEntry{
			AccountID: account,
			Asset:     asset,
			Balance:   balance,
		},
	}
}

func LiquidityPoolLedgerEntry(id PoolID, a, b Asset) LedgerEntry {
	return LedgerEntry{
		Type: LedgerEntryLiquidityPool,
		LiquidityPool: LiquidityPoolEntry{
			PoolID: id,
			AssetA: a,
			AssetB: b,
		},
	}
}

func OtherLedgerEntry(kind string) LedgerEntry {
	return LedgerEntry{Type: LedgerEntryOther, Other: OtherEntry{Kind: kind}}
}

// InflationWinner is one tally result from LoadInflationWinners.
type InflationWinner struct {
	AccountID AccountID
	Votes     int64
}
