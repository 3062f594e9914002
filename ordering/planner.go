package ordering

// PlanMove moves sourceID to the index currently held by targetID and returns
// the new order. Elements between the two indices shift by one. When source
// equals target, or either id is missing, the input is returned unchanged.
func PlanMove(orderedIDs []uint, sourceID, targetID uint) []uint {
	if sourceID == targetID {
		return orderedIDs
	}
	from, to := -1, -1
	for i, id := range orderedIDs {
		switch id {
		case sourceID:
			from = i
		case targetID:
			to = i
		}
	}
	if from == -1 || to == -1 {
		return orderedIDs
	}

	out := make([]uint, 0, len(orderedIDs))
	out = append(out, orderedIDs[:from]...)
	out = append(out, orderedIDs[from+1:]...)
	out = append(out[:to], append([]uint{sourceID}, out[to:]...)...)
	return out
}

// Plan is the outcome of a planned move within one parent.
type Plan struct {
	ParentID uint
	Before   []Item
	Order    []Item
	Changes  []Assignment
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool { return len(p.Changes) == 0 }

// PlanItems plans a move of sourceID onto targetID. items may span several
// parents; only the siblings sharing the source's parent are reordered. A
// target under a different parent is rejected with KindCrossParent and nothing
// is computed.
func PlanItems(items []Item, sourceID, targetID uint) (Plan, error) {
	source, ok := find(items, sourceID)
	if !ok {
		return Plan{}, Errorf(KindNotFound, "item %d not found", sourceID)
	}
	target, ok := find(items, targetID)
	if !ok {
		return Plan{}, Errorf(KindNotFound, "item %d not found", targetID)
	}
	if source.ParentID != target.ParentID {
		return Plan{}, Errorf(KindCrossParent,
			"cannot move item %d from parent %d to parent %d", sourceID, source.ParentID, target.ParentID)
	}

	siblings := SortByPosition(Siblings(items, source.ParentID))
	ids := make([]uint, len(siblings))
	byID := make(map[uint]Item, len(siblings))
	for i, it := range siblings {
		ids[i] = it.ID
		byID[it.ID] = it
	}

	moved := PlanMove(ids, sourceID, targetID)
	order := make([]Item, len(moved))
	for i, id := range moved {
		order[i] = byID[id]
	}
	order = Normalize(order)

	return Plan{
		ParentID: source.ParentID,
		Before:   siblings,
		Order:    order,
		Changes:  Diff(siblings, order),
	}, nil
}

// Remove drops id from its sibling list and renumbers the rest densely,
// keeping their relative order.
func Remove(items []Item, id uint) (Plan, error) {
	victim, ok := find(items, id)
	if !ok {
		return Plan{}, Errorf(KindNotFound, "item %d not found", id)
	}
	siblings := SortByPosition(Siblings(items, victim.ParentID))
	rest := make([]Item, 0, len(siblings))
	for _, it := range siblings {
		if it.ID != id {
			rest = append(rest, it)
		}
	}
	order := Normalize(rest)
	return Plan{
		ParentID: victim.ParentID,
		Before:   siblings,
		Order:    order,
		Changes:  Diff(siblings, order),
	}, nil
}

// Siblings returns the items under parentID, in input order.
func Siblings(items []Item, parentID uint) []Item {
	var out []Item
	for _, it := range items {
		if it.ParentID == parentID {
			out = append(out, it)
		}
	}
	return out
}

func find(items []Item, id uint) (Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
