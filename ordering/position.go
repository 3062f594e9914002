// Package ordering holds the pure position model and reorder planner shared by
// the structure services and the client-side coordinator.
//
// Positions are 1-based and dense among siblings: a parent with N children has
// children at exactly 1..N.
package ordering

import "sort"

// Item is one sibling in an ordered list: a chapter under a course or a lesson
// under a chapter.
type Item struct {
	ID       uint `json:"id"`
	ParentID uint `json:"parent_id"`
	Position int  `json:"position"`
}

// Assignment sets the position of one row.
type Assignment struct {
	ID       uint `json:"id" validate:"required"`
	Position int  `json:"position" validate:"required,min=1"`
}

// Normalize returns a copy of items with Position = index+1, preserving the
// order of the input slice.
func Normalize(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		it.Position = i + 1
		out[i] = it
	}
	return out
}

// SortByPosition returns a copy ordered by position, ties broken by id.
func SortByPosition(items []Item) []Item {
	out := append([]Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// IsDense reports whether the positions of items are exactly {1..len(items)}.
// Input order does not matter.
func IsDense(items []Item) bool {
	seen := make([]bool, len(items)+1)
	for _, it := range items {
		if it.Position < 1 || it.Position > len(items) || seen[it.Position] {
			return false
		}
		seen[it.Position] = true
	}
	return true
}

// Diff returns the assignments needed to turn before into after. Only ids whose
// position changed are included, in the order they appear in after.
func Diff(before, after []Item) []Assignment {
	old := make(map[uint]int, len(before))
	for _, it := range before {
		old[it.ID] = it.Position
	}
	var changes []Assignment
	for _, it := range after {
		if pos, ok := old[it.ID]; !ok || pos != it.Position {
			changes = append(changes, Assignment{ID: it.ID, Position: it.Position})
		}
	}
	return changes
}
