package structure

import (
	"context"
	courseModels "coursehub/models/course"
	"coursehub/ordering"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionReorderChapters = "reorder_chapters"
	ActionReorderLessons  = "reorder_lessons"
	ActionMoveChapter     = "move_chapter"
	ActionMoveLesson      = "move_lesson"
	ActionDeleteChapter   = "delete_chapter"
	ActionDeleteLesson    = "delete_lesson"
	ActionAddChapter      = "add_chapter"
	ActionAddLesson       = "add_lesson"
	ActionRepair          = "repair"
)

// record writes an audit row inside tx, so it commits or rolls back with the
// change it describes.
func record(tx *gorm.DB, courseID, actorID uint, action string, parentID uint, before, after []ordering.Item) error {
	b, err := marshalItems(before)
	if err != nil {
		return err
	}
	a, err := marshalItems(after)
	if err != nil {
		return err
	}
	return tx.Create(&courseModels.StructureEvent{
		CourseID: courseID,
		ActorID:  actorID,
		Action:   action,
		ParentID: parentID,
		Before:   b,
		After:    a,
	}).Error
}

func marshalItems(items []ordering.Item) (datatypes.JSON, error) {
	if items == nil {
		items = []ordering.Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// MaxEvents caps one page of the audit trail.
const MaxEvents = 200

// Events returns the audit trail of a course, newest first.
func (s *Service) Events(ctx context.Context, courseID uint, limit int) ([]courseModels.StructureEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > MaxEvents {
		limit = MaxEvents
	}
	var events []courseModels.StructureEvent
	err := s.db.WithContext(ctx).Where("course_id = ?", courseID).Order("id desc").Limit(limit).Find(&events).Error
	return events, err
}
