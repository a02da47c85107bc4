package consignment

import (
	"github.com/opmecontrol/opme_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedDelta returns the signed quantity a movement contributes to its
// balance bucket under the given classification table. The second return
// value is false when the CFOP is not in the table; such movements are still
// counted but move nothing.
func SignedDelta(m domain.Movement, table domain.CFOPTable) (decimal.Decimal, bool) {
	effect, ok := table[m.CFOP]
	if !ok {
		return decimal.Zero, false
	}
	switch effect {
	case domain.EffectConsignmentOut:
		return m.EffectiveQuantity().Neg(), true
	case domain.EffectConsignmentReturn, domain.EffectSymbolicReturn:
		return m.EffectiveQuantity(), true
	default: // billing: ownership already left consignment accounting
		return decimal.Zero, true
	}
}

// ComputeBalance folds a movement history into per-bucket signed balances.
// Accumulation is a sum over a commutative group, so the result is
// independent of movement order and recomputation is idempotent. Buckets are
// created on first touch; a recipient with zero movements never appears.
// A balance may go negative: the client holds more than it returned, which is
// a valid signal, not an error.
//
// The returned map counts movements whose CFOP is not in the table, keyed by
// code, so callers can surface unclassified codes instead of losing them
// silently.
func ComputeBalance(movements []domain.Movement, table domain.CFOPTable) (domain.Balance, map[string]int) {
	balance := make(domain.Balance)
	unclassified := make(map[string]int)

	for _, m := range movements {
		delta, known := SignedDelta(m, table)
		if !known {
			unclassified[m.CFOP]++
		}

		key := m.Key()
		if cur, ok := balance[key]; ok {
			balance[key] = cur.Add(delta)
		} else {
			balance[key] = delta
		}
	}

	return balance, unclassified
}
