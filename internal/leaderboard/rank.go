package leaderboard

import (
	"sort"

	"github.com/google/uuid"

	"github.com/hackarena/portal/internal/team"
)

// Standing is a team's derived position at a point in time. It is recomputed
// from the ledger on every refresh and never persisted.
type Standing struct {
	TeamID      uuid.UUID `json:"teamId"`
	AccountID   string    `json:"accountId"`
	Name        string    `json:"name"`
	Avatar      string    `json:"avatar"`
	MemberCount int       `json:"memberCount"`
	Total       int       `json:"totalPoints"`
	Rank        int       `json:"rank"`
}

// Rank orders teams by total points descending and assigns 1-based contiguous
// ranks. Teams without ledger entries rank with a total of 0. Ties are broken
// by creation time, then account ID, then UUID string, so identical inputs
// always produce identical output. Equal totals do not share a rank number.
func Rank(teams []team.Team, totals map[uuid.UUID]int) []Standing {
	standings := make([]Standing, 0, len(teams))
	for i := range teams {
		t := &teams[i]
		standings = append(standings, Standing{
			TeamID:      t.ID,
			AccountID:   t.AccountID,
			Name:        t.Name,
			Avatar:      t.Avatar,
			MemberCount: len(t.Members),
			Total:       totals[t.ID],
		})
	}

	created := make(map[uuid.UUID]int64, len(teams))
	for i := range teams {
		created[teams[i].ID] = teams[i].CreatedAt.UnixNano()
	}

	sort.Slice(standings, func(i, j int) bool {
		a, b := &standings[i], &standings[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if created[a.TeamID] != created[b.TeamID] {
			return created[a.TeamID] < created[b.TeamID]
		}
		if a.AccountID != b.AccountID {
			return a.AccountID < b.AccountID
		}
		return a.TeamID.String() < b.TeamID.String()
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}

	return standings
}
