package structure

import (
	"context"
	courseModels "coursehub/models/course"
	"coursehub/ordering"
	"errors"

	"gorm.io/gorm"
)

// PreloadOrdered loads chapters and their lessons ordered by position.
func PreloadOrdered(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Chapters", func(db *gorm.DB) *gorm.DB {
			return db.Order("chapters.position asc, chapters.id asc")
		}).
		Preload("Chapters.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lessons.position asc, lessons.id asc")
		})
}

// Outline returns a course with its ordered chapters and lessons, for editing.
func (s *Service) Outline(ctx context.Context, actor Actor, courseID uint) (*courseModels.Course, ordering.Result) {
	var course courseModels.Course
	err := func() error {
		if courseID == 0 {
			return ordering.Errorf(ordering.KindValidation, "Course ID is required")
		}
		if err := requireAuthor(actor); err != nil {
			return err
		}
		err := PreloadOrdered(s.db.WithContext(ctx)).First(&course, courseID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ordering.Errorf(ordering.KindNotFound, "Course not found")
		}
		if err != nil {
			return err
		}
		if !canEdit(actor, &course) {
			return ordering.Errorf(ordering.KindAuthorization, "You are not allowed to edit this course")
		}
		return nil
	}()
	res := s.finish("outline", err, "Course fetched successfully", "Failed to fetch course",
		"course_id", courseID, "actor_id", actor.UserID)
	if !res.OK() {
		return nil, res
	}
	return &course, res
}

// editable loads only the ownership columns of a course and checks that actor
// may edit it.
func (s *Service) editable(ctx context.Context, actor Actor, courseID uint) error {
	if courseID == 0 {
		return ordering.Errorf(ordering.KindValidation, "Course ID is required")
	}
	if err := requireAuthor(actor); err != nil {
		return err
	}
	var course courseModels.Course
	err := s.db.WithContext(ctx).Select("id", "user_id").First(&course, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ordering.Errorf(ordering.KindNotFound, "Course not found")
	}
	if err != nil {
		return err
	}
	if !canEdit(actor, &course) {
		return ordering.Errorf(ordering.KindAuthorization, "You are not allowed to edit this course")
	}
	return nil
}

// Authorize reports whether actor may edit the course without loading its
// outline.
func (s *Service) Authorize(ctx context.Context, actor Actor, courseID uint) ordering.Result {
	return s.finish("authorize", s.editable(ctx, actor, courseID), "Access granted", "Failed to check access",
		"course_id", courseID, "actor_id", actor.UserID)
}

// Lesson returns one lesson of a course for editing.
func (s *Service) Lesson(ctx context.Context, actor Actor, courseID, chapterID, lessonID uint) (*courseModels.Lesson, ordering.Result) {
	var lesson courseModels.Lesson
	err := func() error {
		if chapterID == 0 || lessonID == 0 {
			return ordering.Errorf(ordering.KindValidation, "Chapter ID and Lesson ID are required")
		}
		if err := s.editable(ctx, actor, courseID); err != nil {
			return err
		}
		err := s.db.WithContext(ctx).
			Joins("JOIN chapters ON chapters.id = lessons.chapter_id AND chapters.deleted_at IS NULL").
			Where("lessons.id = ? AND lessons.chapter_id = ? AND chapters.course_id = ?", lessonID, chapterID, courseID).
			First(&lesson).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ordering.Errorf(ordering.KindNotFound, "Lesson not found")
		}
		return err
	}()
	res := s.finish("lesson", err, "Lesson fetched successfully", "Failed to fetch lesson",
		"course_id", courseID, "chapter_id", chapterID, "lesson_id", lessonID, "actor_id", actor.UserID)
	if !res.OK() {
		return nil, res
	}
	return &lesson, res
}
