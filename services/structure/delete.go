package structure

import (
	"context"
	courseModels "coursehub/models/course"
	"coursehub/ordering"

	"gorm.io/gorm"
)

// DeleteChapter removes a chapter with its lessons and closes the gap in the
// course's chapter positions, all in one transaction.
func (s *Service) DeleteChapter(ctx context.Context, actor Actor, courseID, chapterID uint) ordering.Result {
	err := s.deleteChapter(ctx, actor, courseID, chapterID)
	return s.finish("delete_chapter", err,
		"Chapter deleted successfully", "Failed to delete chapter",
		"course_id", courseID, "chapter_id", chapterID, "actor_id", actor.UserID)
}

func (s *Service) deleteChapter(ctx context.Context, actor Actor, courseID, chapterID uint) error {
	if courseID == 0 || chapterID == 0 {
		return ordering.Errorf(ordering.KindValidation, "Course ID and Chapter ID are required")
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
		plan, err := ordering.Remove(items, chapterID)
		if err != nil {
			return ordering.Errorf(ordering.KindNotFound, "Chapter not found")
		}

		if err := tx.Unscoped().Where("chapter_id = ?", chapterID).Delete(&courseModels.Lesson{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("id = ? AND course_id = ?", chapterID, courseID).Delete(&courseModels.Chapter{}).Error; err != nil {
			return err
		}
		return renumberRemaining(tx, actor, courseID, chapterScope, courseID, ActionDeleteChapter, plan)
	})
}

// DeleteLesson removes a lesson and closes the gap in its chapter's positions.
func (s *Service) DeleteLesson(ctx context.Context, actor Actor, courseID, chapterID, lessonID uint) ordering.Result {
	err := s.deleteLesson(ctx, actor, courseID, chapterID, lessonID)
	return s.finish("delete_lesson", err,
		"Lesson deleted successfully", "Failed to delete lesson",
		"course_id", courseID, "chapter_id", chapterID, "lesson_id", lessonID, "actor_id", actor.UserID)
}

func (s *Service) deleteLesson(ctx context.Context, actor Actor, courseID, chapterID, lessonID uint) error {
	if courseID == 0 || chapterID == 0 || lessonID == 0 {
		return ordering.Errorf(ordering.KindValidation, "Course ID, Chapter ID and Lesson ID are required")
	}
	if err := requireAuthor(actor); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockCourse(tx, actor, courseID); err != nil {
			return err
		}
		if _, err := lockChapter(tx, courseID, chapterID); err != nil {
			return err
		}
		items, err := siblings(tx, lessonScope, chapterID)
		if err != nil {
			return err
		}
		plan, err := ordering.Remove(items, lessonID)
		if err != nil {
			return ordering.Errorf(ordering.KindNotFound, "Lesson not found")
		}

		if err := tx.Unscoped().Where("id = ? AND chapter_id = ?", lessonID, chapterID).Delete(&courseModels.Lesson{}).Error; err != nil {
			return err
		}
		return renumberRemaining(tx, actor, courseID, lessonScope, chapterID, ActionDeleteLesson, plan)
	})
}

func renumberRemaining(tx *gorm.DB, actor Actor, courseID uint, sc scope, parentID uint, action string, plan ordering.Plan) error {
	if err := writePositions(tx, sc, parentID, plan.Changes); err != nil {
		return err
	}
	after, err := verifyDense(tx, sc, parentID)
	if err != nil {
		return err
	}
	return record(tx, courseID, actor.UserID, action, parentID, plan.Before, after)
}

// DeleteCourse removes a course together with its chapters, lessons,
// enrollments and audit trail.
func (s *Service) DeleteCourse(ctx context.Context, actor Actor, courseID uint) ordering.Result {
	err := s.deleteCourse(ctx, actor, courseID)
	return s.finish("delete_course", err,
		"Course deleted successfully", "Failed to delete course",
		"course_id", courseID, "actor_id", actor.UserID)
}

func (s *Service) deleteCourse(ctx context.Context, actor Actor, courseID uint) error {
	if courseID == 0 {
		return ordering.Errorf(ordering.KindValidation, "Course ID is required")
	}
	if err := requireAuthor(actor); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockCourse(tx, actor, courseID); err != nil {
			return err
		}
		chapterIDs := tx.Model(&courseModels.Chapter{}).Select("id").Where("course_id = ?", courseID)
		if err := tx.Unscoped().Where("chapter_id IN (?)", chapterIDs).Delete(&courseModels.Lesson{}).Error; err != nil {
			return err
		}
		for _, model := range []interface{}{&courseModels.Chapter{}, &courseModels.Enrollment{}, &courseModels.StructureEvent{}} {
			if err := tx.Unscoped().Where("course_id = ?", courseID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Unscoped().Delete(&courseModels.Course{}, courseID).Error
	})
}
