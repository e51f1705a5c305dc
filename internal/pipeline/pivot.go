package pipeline

import (
	"sort"

	"github.com/theirongolddev/gptrecap/internal/model"
)

// PivotByRole widens a long role table: one row per key in first-seen
// order, one column per role sorted ascending, missing cells 0. Long
// tables are sorted by key, so the wide form keeps their order.
func PivotByRole[K comparable, T model.RoleKeyed[K]](rows []T) model.RolePivot[K] {
	roleSet := make(map[string]struct{})
	keyPos := make(map[K]int)
	var keys []K
	for _, r := range rows {
		roleSet[r.PivotRole()] = struct{}{}
		if _, ok := keyPos[r.PivotKey()]; !ok {
			keyPos[r.PivotKey()] = len(keys)
			keys = append(keys, r.PivotKey())
		}
	}

	roles := make([]string, 0, len(roleSet))
	for role := range roleSet {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	rolePos := make(map[string]int, len(roles))
	for i, role := range roles {
		rolePos[role] = i
	}

	pivot := model.RolePivot[K]{Roles: roles, Rows: make([]model.RolePivotRow[K], len(keys))}
	for i, k := range keys {
		pivot.Rows[i] = model.RolePivotRow[K]{Key: k, Counts: make([]int, len(roles))}
	}
	for _, r := range rows {
		pivot.Rows[keyPos[r.PivotKey()]].Counts[rolePos[r.PivotRole()]] += r.PivotCount()
	}
	return pivot
}
