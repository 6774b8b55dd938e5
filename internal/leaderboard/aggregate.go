package leaderboard

import (
	"github.com/google/uuid"

	"github.com/hackarena/portal/internal/ledger"
)

// Aggregate sums ledger entries into per-team totals. It is a pure function:
// the result depends only on the multiset of entries, never on their order.
// All arithmetic is integer; an empty input yields an empty map.
func Aggregate(entries []ledger.Entry) map[uuid.UUID]int {
	totals := make(map[uuid.UUID]int, len(entries))
	for _, e := range entries {
		totals[e.TeamID] += e.Points
	}
	return totals
}
