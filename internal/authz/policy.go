// Package authz filters an operation against authorization metadata parsed
// from the supergraph (@authenticated / @requiresScopes), removing fields
// the current JWT state cannot access and null-bubbling removals past any
// non-null ancestor.
package authz

import (
	"sort"

	"github.com/n9te9/hive-query-router/internal/supergraph"
)

// Policy is the canonicalized authorization requirement for one field or
// type: RequireAuth demands an authenticated JWT; Scopes is a DNF (outer =
// OR of inner AND-groups) of scope requirements. A zero Policy grants
// access unconditionally.
type Policy struct {
	RequireAuth bool
	Scopes      [][]string
}

// IsEmpty reports whether the policy grants access unconditionally.
func (p Policy) IsEmpty() bool {
	return !p.RequireAuth && len(p.Scopes) == 0
}

// FromSupergraph converts a raw parsed annotation into a canonicalized
// Policy.
func FromSupergraph(ap supergraph.AuthPolicy) Policy {
	return Policy{RequireAuth: ap.Authenticated, Scopes: canonicalize(ap.Scopes)}
}

// Or composes two policies so that satisfying either one satisfies the
// result: require_auth combines by logical OR, and the scope DNF is the
// union of both sides' AND-groups (then minimized).
func Or(a, b Policy) Policy {
	combined := append(append([][]string{}, a.Scopes...), b.Scopes...)
	return Policy{RequireAuth: a.RequireAuth || b.RequireAuth, Scopes: canonicalize(combined)}
}

// And composes two policies so that satisfying the result requires
// satisfying both sides: the scope DNF distributes by Cartesian product,
// each combination unioning one AND-group from each side.
func And(a, b Policy) Policy {
	switch {
	case len(a.Scopes) == 0:
		return Policy{RequireAuth: a.RequireAuth || b.RequireAuth, Scopes: canonicalize(b.Scopes)}
	case len(b.Scopes) == 0:
		return Policy{RequireAuth: a.RequireAuth || b.RequireAuth, Scopes: canonicalize(a.Scopes)}
	}
	var combined [][]string
	for _, ga := range a.Scopes {
		for _, gb := range b.Scopes {
			combined = append(combined, append(append([]string{}, ga...), gb...))
		}
	}
	return Policy{RequireAuth: a.RequireAuth || b.RequireAuth, Scopes: canonicalize(combined)}
}

// canonicalize sorts and dedupes each AND-group's members, dedupes
// identical groups, and drops any group that is a strict superset of
// another surviving group (satisfying the superset always satisfies the
// subset, so the superset adds nothing to the OR).
func canonicalize(groups [][]string) [][]string {
	if len(groups) == 0 {
		return nil
	}
	normalized := make([]map[string]bool, 0, len(groups))
	for _, g := range groups {
		set := make(map[string]bool, len(g))
		for _, s := range g {
			set[s] = true
		}
		normalized = append(normalized, set)
	}

	var minimal []map[string]bool
	for i, gi := range normalized {
		dominated := false
		for j, gj := range normalized {
			if i == j {
				continue
			}
			if isSupersetOrDuplicate(gi, gj, i, j) {
				dominated = true
				break
			}
		}
		if !dominated {
			minimal = append(minimal, gi)
		}
	}

	seen := make(map[string]bool)
	out := make([][]string, 0, len(minimal))
	for _, set := range minimal {
		sorted := make([]string, 0, len(set))
		for s := range set {
			sorted = append(sorted, s)
		}
		sort.Strings(sorted)
		key := sortedKey(sorted)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, sorted)
	}
	sort.Slice(out, func(i, j int) bool { return sortedKey(out[i]) < sortedKey(out[j]) })
	return out
}

// isSupersetOrDuplicate reports whether group i is a strict superset of
// group j, or an exact duplicate appearing at a later index (so only the
// first of identical groups survives).
func isSupersetOrDuplicate(gi, gj map[string]bool, i, j int) bool {
	if len(gi) < len(gj) {
		return false
	}
	for s := range gj {
		if !gi[s] {
			return false
		}
	}
	if len(gi) == len(gj) {
		return i > j // exact duplicate: keep the earlier one
	}
	return true
}

func sortedKey(sorted []string) string {
	out := ""
	for _, s := range sorted {
		out += s + ","
	}
	return out
}

// JWTState is the bearer-token state the filter evaluates policies
// against. The zero value is Unauthenticated.
type JWTState struct {
	Authenticated bool
	Scopes        []string
}

// Satisfies reports whether jwt satisfies p.
func (jwt JWTState) Satisfies(p Policy) bool {
	if p.RequireAuth && !jwt.Authenticated {
		return false
	}
	if len(p.Scopes) == 0 {
		return true
	}
	if !jwt.Authenticated {
		return false
	}
	have := make(map[string]bool, len(jwt.Scopes))
	for _, s := range jwt.Scopes {
		have[s] = true
	}
	for _, group := range p.Scopes {
		if containsAll(have, group) {
			return true
		}
	}
	return false
}

func containsAll(have map[string]bool, want []string) bool {
	for _, w := range want {
		if !have[w] {
			return false
		}
	}
	return true
}
