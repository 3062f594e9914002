package structure

import (
	"context"
	courseModels "coursehub/models/course"
	"coursehub/ordering"

	"gorm.io/gorm"
)

// MoveChapter moves sourceID onto targetID's position within the course,
// planning against the stored order and writing only the changed rows.
func (s *Service) MoveChapter(ctx context.Context, actor Actor, courseID, sourceID, targetID uint) ordering.Result {
	err := s.moveChapter(ctx, actor, courseID, sourceID, targetID)
	return s.finish("move_chapter", err, "Chapters reordered successfully", "Failed to reorder chapters",
		"course_id", courseID, "source_id", sourceID, "target_id", targetID, "actor_id", actor.UserID)
}

func (s *Service) moveChapter(ctx context.Context, actor Actor, courseID, sourceID, targetID uint) error {
	if courseID == 0 || sourceID == 0 || targetID == 0 {
		return ordering.Errorf(ordering.KindValidation, "Course ID, source and target chapter are required")
	}
	if err := requireAuthor(actor); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockCourse(tx, actor, courseID); err != nil {
			return err
		}
		items, err := siblings(tx, chapterScope, courseID)
		if err != nil {
			return err
		}
		plan, err := ordering.PlanItems(items, sourceID, targetID)
		if err != nil {
			return ordering.Errorf(ordering.KindNotFound, "Could not determine the chapter for reordering")
		}
		if plan.Empty() {
			return nil
		}
		return applyPositions(tx, actor, courseID, chapterScope, courseID, ActionMoveChapter, plan.Changes)
	})
}

// MoveLesson moves a lesson onto the position of another lesson of the same
// chapter. A target in a different chapter is rejected without any write.
func (s *Service) MoveLesson(ctx context.Context, actor Actor, courseID, sourceID, targetID uint) ordering.Result {
	err := s.moveLesson(ctx, actor, courseID, sourceID, targetID)
	return s.finish("move_lesson", err, "Lessons reordered successfully", "Failed to reorder lessons",
		"course_id", courseID, "source_id", sourceID, "target_id", targetID, "actor_id", actor.UserID)
}

func (s *Service) moveLesson(ctx context.Context, actor Actor, courseID, sourceID, targetID uint) error {
	if courseID == 0 || sourceID == 0 || targetID == 0 {
		return ordering.Errorf(ordering.KindValidation, "Course ID, source and target lesson are required")
	}
	if err := requireAuthor(actor); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockCourse(tx, actor, courseID); err != nil {
			return err
		}
		items, err := courseLessons(tx, courseID)
		if err != nil {
			return err
		}
		plan, err := ordering.PlanItems(items, sourceID, targetID)
		switch ordering.KindOf(err) {
		case ordering.KindCrossParent:
			return ordering.Errorf(ordering.KindCrossParent, "Lesson move between different chapters is not allowed")
		case ordering.KindNotFound:
			return ordering.Errorf(ordering.KindNotFound, "Could not determine the lesson for reordering")
		}
		if err != nil {
			return err
		}
		if plan.Empty() {
			return nil
		}
		if _, err := lockChapter(tx, courseID, plan.ParentID); err != nil {
			return err
		}
		return applyPositions(tx, actor, courseID, lessonScope, plan.ParentID, ActionMoveLesson, plan.Changes)
	})
}

// courseLessons lists every lesson of the course with its chapter as parent.
func courseLessons(tx *gorm.DB, courseID uint) ([]ordering.Item, error) {
	var items []ordering.Item
	err := tx.Model(&courseModels.Lesson{}).
		Select("lessons.id, lessons.chapter_id AS parent_id, lessons.position").
		Joins("JOIN chapters ON chapters.id = lessons.chapter_id AND chapters.deleted_at IS NULL").
		Where("chapters.course_id = ?", courseID).
		Order("lessons.chapter_id asc, lessons.position asc, lessons.id asc").
		Scan(&items).Error
	return items, err
}
