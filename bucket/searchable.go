package bucket

import (
	"sort"

	"github.com/stellarbase/bucketlist/xdr"
)

// minInflationBalance is the balance floor below which an account's vote
// never counts, regardless of minBalance (§4.4).
const minInflationBalance = 1_000_000_000

// SearchableSnapshot is the read-side façade (C5): it refreshes its
// snapshot pointer from the external SnapshotManager on every public call,
// then drives the level-shadowing lookup loop or one of the two domain
// queries over whatever snapshot it captured at entry.
type SearchableSnapshot struct {
	manager  SnapshotManager
	snapshot *BucketListSnapshot
}

// NewSearchableSnapshot builds a façade over manager, pulling its first
// snapshot immediately (mirroring the original's constructor, which primes
// mSnapshot before returning).
func NewSearchableSnapshot(manager SnapshotManager) *SearchableSnapshot {
	s := &SearchableSnapshot{manager: manager}
	s.manager.Refresh(&s.snapshot)
	return s
}

// GetEntry resolves key through the cascade (§4.4, P1). A nil entry with a
// nil error means "absent"; this is never ambiguous with "not yet found".
func (s *SearchableSnapshot) GetEntry(key xdr.LedgerKey) (*xdr.LedgerEntry, error) {
	s.manager.Refresh(&s.snapshot)
	snap := s.snapshot

	timer := s.manager.PointLoadTimer(keyTypeLabel(key))
	defer timer.Stop()

	var result *xdr.LedgerEntry
	var loopErr error

	snap.ForEachBucket(func(b *BucketSnapshot) bool {
		entry, err := b.Get(key)
		if err != nil {
			loopErr = err
			return true
		}
		if entry == nil {
			return false
		}
		if entry.Type != xdr.DeadEntryType {
			live := entry.LiveEntry()
			result = &live
		}
		return true
	})

	return result, loopErr
}

// LoadKeys resolves every key in inputKeys through the cascade in one pass
// per level rather than one cascade walk per key (§4.4, P2).
func (s *SearchableSnapshot) LoadKeys(inputKeys []xdr.LedgerKey, meter LedgerKeyMeter) ([]xdr.LedgerEntry, error) {
	s.manager.Refresh(&s.snapshot)
	snap := s.snapshot

	label := "prefetch-classic"
	if meter != nil {
		label = "prefetch-soroban"
	}
	timer := s.manager.BulkLoadTimer(label, len(inputKeys))
	defer timer.Stop()

	return s.loadKeysInternal(snap, inputKeys, meter)
}

func (s *SearchableSnapshot) loadKeysInternal(snap *BucketListSnapshot, inputKeys []xdr.LedgerKey, meter LedgerKeyMeter) ([]xdr.LedgerEntry, error) {
	keys := NewSortedKeySet(inputKeys)
	var entries []xdr.LedgerEntry
	var loopErr error

	snap.ForEachBucket(func(b *BucketSnapshot) bool {
		if err := b.LoadKeys(keys, &entries, meter); err != nil {
			loopErr = err
			return true
		}
		return keys.Empty()
	})

	return entries, loopErr
}

// LoadPoolShareTrustlines resolves every pool-share trustline the given
// account holds against pools containing asset (§4.4). Main-thread-only per
// §5.
func (s *SearchableSnapshot) LoadPoolShareTrustlines(mainThread MainThreadToken, account xdr.AccountID, asset xdr.Asset) ([]xdr.LedgerEntry, error) {
	mainThread.assert()
	s.manager.Refresh(&s.snapshot)
	snap := s.snapshot

	poolIDs := map[xdr.PoolID]struct{}{}
	snap.ForEachBucket(func(b *BucketSnapshot) bool {
		for _, id := range b.PoolIDsByAsset(asset) {
			poolIDs[id] = struct{}{}
		}
		return false
	})

	trustlineKeys := make([]xdr.LedgerKey, 0, len(poolIDs))
	for id := range poolIDs {
		trustlineKeys = append(trustlineKeys, xdr.TrustLineKey(account, xdr.PoolShareAsset(id)))
	}

	timer := s.manager.BulkLoadTimer("poolshareTrustlines", len(trustlineKeys))
	defer timer.Stop()

	return s.loadKeysInternal(snap, trustlineKeys, nil)
}

// LoadInflationWinners tallies inflation-destination votes by streaming
// every bucket's account entries in file order, respecting cross-level
// shadowing (§4.4, S6). Main-thread-only per §5.
func (s *SearchableSnapshot) LoadInflationWinners(mainThread MainThreadToken, maxWinners int, minBalance int64) ([]xdr.InflationWinner, error) {
	mainThread.assert()
	s.manager.Refresh(&s.snapshot)
	snap := s.snapshot

	timer := s.manager.BulkLoadTimer("inflationWinners", 0)
	defer timer.Stop()

	votes := map[xdr.AccountID]int64{}
	seen := map[xdr.AccountID]struct{}{}
	var loopErr error

	snap.ForEachBucket(func(b *BucketSnapshot) bool {
		err := b.ForEachEntry(func(be xdr.BucketEntry) (bool, error) {
			if be.Type == xdr.DeadEntryType {
				if be.Key.Type == xdr.LedgerKeyAccount {
					seen[be.Key.Account.AccountID] = struct{}{}
				}
				return false, nil
			}
			if be.IsMeta() {
				return false, nil
			}

			le := be.LiveEntry()
			if le.Type != xdr.LedgerEntryAccount {
				// Account entries sort first within a bucket; once we hit
				// a non-account entry there are no more accounts left.
				return true, nil
			}

			ae := le.Account
			if _, already := seen[ae.AccountID]; already {
				return false, nil
			}
			seen[ae.AccountID] = struct{}{}

			if ae.InflationDest != nil && ae.Balance >= minInflationBalance {
				votes[*ae.InflationDest] += ae.Balance
			}
			return false, nil
		})
		if err != nil {
			loopErr = err
			return true
		}
		return false
	})

	if loopErr != nil {
		return nil, loopErr
	}

	return topInflationWinners(votes, maxWinners, minBalance), nil
}

func topInflationWinners(votes map[xdr.AccountID]int64, maxWinners int, minBalance int64) []xdr.InflationWinner {
	var winners []xdr.InflationWinner

	if len(votes) > maxWinners {
		type kv struct {
			id    xdr.AccountID
			count int64
		}
		all := make([]kv, 0, len(votes))
		for id, count := range votes {
			all = append(all, kv{id, count})
		}
		// Ties are unordered per DESIGN NOTES: the original sorts by count
		// through an ordered map keyed on count alone, which silently drops
		// all but the last-inserted account at a given count. This module
		// instead keeps every account and only orders by count descending,
		// which is a superset-safe resolution of that ambiguity (see
		// DESIGN.md).
		sort.Slice(all, func(i, j int) bool { return all[i].count > all[j].count })

		for _, e := range all {
			if len(winners) >= maxWinners || e.count < minBalance {
				break
			}
			winners = append(winners, xdr.InflationWinner{AccountID: e.id, Votes: e.count})
		}
	} else {
		for id, count := range votes {
			if count >= minBalance {
				winners = append(winners, xdr.InflationWinner{AccountID: id, Votes: count})
			}
		}
	}

	return winners
}

func keyTypeLabel(k xdr.LedgerKey) string {
	switch k.Type {
	case xdr.LedgerKeyAccount:
		return "account"
	case xdr.LedgerKeyTrustLine:
		return "trustline"
	case xdr.LedgerKeyLiquidityPool:
		return "liquidity_pool"
	default:
		return "other"
	}
}
