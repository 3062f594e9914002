package structure

import (
	"context"
	courseModels "coursehub/models/course"
	"coursehub/ordering"
	"strings"

	"gorm.io/gorm"
)

// LessonInput carries the editable lesson fields.
type LessonInput struct {
	Title        string
	Description  string
	ThumbnailKey string
	VideoKey     string
}

// nextPosition is max(position)+1 under parentID, or 1 for an empty list.
func nextPosition(tx *gorm.DB, sc scope, parentID uint) (int, error) {
	var maxPosition int
	err := tx.Model(sc.model()).
		Where(sc.parentColumn+" = ?", parentID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&maxPosition).Error
	return maxPosition + 1, err
}

// AddChapter appends a chapter at the end of the course.
func (s *Service) AddChapter(ctx context.Context, actor Actor, courseID uint, title string) (*courseModels.Chapter, ordering.Result) {
	var chapter *courseModels.Chapter
	err := func() error {
		title = strings.TrimSpace(title)
		if courseID == 0 {
			return ordering.Errorf(ordering.KindValidation, "Course ID is required")
		}
		if len(title) < 3 {
			return ordering.Errorf(ordering.KindValidation, "Name must be at least 3 characters")
		}
		if err := requireAuthor(actor); err != nil {
			return err
		}
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if _, err := lockCourse(tx, actor, courseID); err != nil {
				return err
			}
			before, err := siblings(tx, chapterScope, courseID)
			if err != nil {
				return err
			}
			pos, err := nextPosition(tx, chapterScope, courseID)
			if err != nil {
				return err
			}
			c := courseModels.Chapter{CourseID: courseID, Title: title, Position: pos}
			if err := tx.Create(&c).Error; err != nil {
				return err
			}
			after, err := verifyDense(tx, chapterScope, courseID)
			if err != nil {
				return err
			}
			chapter = &c
			return record(tx, courseID, actor.UserID, ActionAddChapter, courseID, before, after)
		})
	}()
	res := s.finish("add_chapter", err, "Chapter created successfully", "Failed to create chapter",
		"course_id", courseID, "actor_id", actor.UserID)
	if !res.OK() {
		return nil, res
	}
	return chapter, res
}

// AddLesson appends a lesson at the end of a chapter.
func (s *Service) AddLesson(ctx context.Context, actor Actor, courseID, chapterID uint, in LessonInput) (*courseModels.Lesson, ordering.Result) {
	var lesson *courseModels.Lesson
	err := func() error {
		in.Title = strings.TrimSpace(in.Title)
		if courseID == 0 || chapterID == 0 {
			return ordering.Errorf(ordering.KindValidation, "Course ID and Chapter ID are required")
		}
		if len(in.Title) < 3 {
			return ordering.Errorf(ordering.KindValidation, "Name must be at least 3 characters")
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
			before, err := siblings(tx, lessonScope, chapterID)
			if err != nil {
				return err
			}
			pos, err := nextPosition(tx, lessonScope, chapterID)
			if err != nil {
				return err
			}
			l := courseModels.Lesson{
				ChapterID:    chapterID,
				Title:        in.Title,
				Description:  in.Description,
				ThumbnailKey: in.ThumbnailKey,
				VideoKey:     in.VideoKey,
				Position:     pos,
			}
			if err := tx.Create(&l).Error; err != nil {
				return err
			}
			after, err := verifyDense(tx, lessonScope, chapterID)
			if err != nil {
				return err
			}
			lesson = &l
			return record(tx, courseID, actor.UserID, ActionAddLesson, chapterID, before, after)
		})
	}()
	res := s.finish("add_lesson", err, "Lesson created successfully", "Failed to create lesson",
		"course_id", courseID, "chapter_id", chapterID, "actor_id", actor.UserID)
	if !res.OK() {
		return nil, res
	}
	return lesson, res
}

// RenameChapter changes a chapter title; its position is left alone.
func (s *Service) RenameChapter(ctx context.Context, actor Actor, courseID, chapterID uint, title string) ordering.Result {
	err := func() error {
		title = strings.TrimSpace(title)
		if courseID == 0 || chapterID == 0 {
			return ordering.Errorf(ordering.KindValidation, "Course ID and Chapter ID are required")
		}
		if len(title) < 3 {
			return ordering.Errorf(ordering.KindValidation, "Name must be at least 3 characters")
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
			return tx.Model(&courseModels.Chapter{}).
				Where("id = ? AND course_id = ?", chapterID, courseID).
				Update("title", title).Error
		})
	}()
	return s.finish("rename_chapter", err, "Chapter updated successfully", "Failed to update chapter",
		"course_id", courseID, "chapter_id", chapterID, "actor_id", actor.UserID)
}

// UpdateLesson edits lesson metadata. Chapter and position never change here.
func (s *Service) UpdateLesson(ctx context.Context, actor Actor, courseID, chapterID, lessonID uint, in LessonInput) ordering.Result {
	err := func() error {
		in.Title = strings.TrimSpace(in.Title)
		if courseID == 0 || chapterID == 0 || lessonID == 0 {
			return ordering.Errorf(ordering.KindValidation, "Course ID, Chapter ID and Lesson ID are required")
		}
		if len(in.Title) < 3 {
			return ordering.Errorf(ordering.KindValidation, "Name must be at least 3 characters")
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
			res := tx.Model(&courseModels.Lesson{}).
				Where("id = ? AND chapter_id = ?", lessonID, chapterID).
				Updates(map[string]interface{}{
					"title":         in.Title,
					"description":   in.Description,
					"thumbnail_key": in.ThumbnailKey,
					"video_key":     in.VideoKey,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ordering.Errorf(ordering.KindNotFound, "Lesson not found")
			}
			return nil
		})
	}()
	return s.finish("update_lesson", err, "Lesson updated successfully", "Failed to update lesson",
		"course_id", courseID, "chapter_id", chapterID, "lesson_id", lessonID, "actor_id", actor.UserID)
}
