package domain

import "sort"

// DefaultLogicOrder is the declared comparison order of the known logics.
var DefaultLogicOrder = LogicOrder{"Logic A", "Logic B", "Logic C", "Logic D"}

// LogicOrder is the declared rendering order of logics. It is not lexical:
// logics listed earlier always sort first, unknown logics come after every
// known one and are ordered by name among themselves.
type LogicOrder []LogicID

// Rank returns the position of id in the order, or len(o) when unknown.
func (o LogicOrder) Rank(id LogicID) int {
	for i, l := range o {
		if l == id {
			return i
		}
	}
	return len(o)
}

// Less reports whether a sorts before b.
func (o LogicOrder) Less(a, b LogicID) bool {
	ra, rb := o.Rank(a), o.Rank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}

// Sort returns the given ids sorted by the declared order, without duplicates.
func (o LogicOrder) Sort(ids []LogicID) []LogicID {
	seen := make(map[LogicID]struct{}, len(ids))
	out := make([]LogicID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.SliceStable(out, func(i, j int) bool { return o.Less(out[i], out[j]) })
	return out
}
