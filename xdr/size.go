package xdr

// XDRSize estimates the encoded size of a key or entry for the purposes of
// LedgerKeyMeter quota arithmetic. The real encoding is out of scope for
// this module (see bucketio for the concrete record codec this module does
// define); this is a cheap structural estimate, not a byte-exact count.
func XDRSizeOfKey(k LedgerKey) int {
	const fixedOverhead = 8
	switch k.Type {
	case LedgerKeyAccount:
		return fixedOverhead + len(k.Account.AccountID)
	case LedgerKeyTrustLine:
		return fixedOverhead + len(k.TrustLine.AccountID) + xdrSizeOfAsset(k.TrustLine.Asset)
	case LedgerKeyLiquidityPool:
		return fixedOverhead + len(k.LiquidityPool.PoolID)
	default:
		return fixedOverhead + len(k.Other.Kind) + len(k.Other.ID)
	}
}

func XDRSizeOfEntry(e LedgerEntry) int {
	const fixedOverhead = 16
	switch e.Type {
	case LedgerEntryAccount:
		n := fixedOverhead + len(e.Account.AccountID) + 8
		if e.Account.InflationDest != nil {
			n += len(*e.Account.InflationDest)
		}
		return n
	case LedgerEntryTrustLine:
		return fixedOverhead + len(e.TrustLine.AccountID) + xdrSizeOfAsset(e.TrustLine.Asset) + 8
	case LedgerEntryLiquidityPool:
		return fixedOverhead + len(e.LiquidityPool.PoolID) +
			xdrSizeOfAsset(e.LiquidityPool.AssetA) + xdrSizeOfAsset(e.LiquidityPool.AssetB)
	default:
		return fixedOverhead + len(e.Other.Kind)
	}
}

func xdrSizeOfAsset(a Asset) int {
	switch a.Type {
	case AssetTypeNative:
		return 4
	case AssetTypeCreditAlphanum:
		return 4 + len(a.Code) + len(a.Issuer)
	default:
		return 4 + len(a.LiquidityPool)
	}
}
