// Package store persists the per-subject verification state (UserRegistry) and
// the append-only audit ledger.
//
// Error contract: lookups return sentinel.ErrNotFound (possibly wrapped) when
// the entity does not exist; infrastructure failures are wrapped with context.
package store

import "verigate/pkg/domain"

// StatusCounts is a status → count rollup.
type StatusCounts map[domain.Status]int

// Total sums every status.
func (c StatusCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}
