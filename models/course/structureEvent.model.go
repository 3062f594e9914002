package course

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StructureEvent is an audit record of a change to a course outline. Before and
// After hold the sibling order as JSON arrays of {id, parent_id, position}.
type StructureEvent struct {
	gorm.Model
	CourseID uint           `json:"course_id" gorm:"index;not null"`
	ActorID  uint           `json:"actor_id"`
	Action   string         `json:"action" gorm:"size:32"`
	ParentID uint           `json:"parent_id"`
	Before   datatypes.JSON `json:"before"`
	After    datatypes.JSON `json:"after"`
}
