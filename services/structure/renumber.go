package structure

import (
	"context"
	"coursehub/ordering"

	"gorm.io/gorm"
)

// ReorderChapters applies chapter positions within a course atomically.
func (s *Service) ReorderChapters(ctx context.Context, actor Actor, courseID uint, assignments []ordering.Assignment) ordering.Result {
	err := s.reorder(ctx, actor, courseID, 0, chapterScope, assignments)
	return s.finish("reorder_chapters", err,
		"Chapters reordered successfully", "Failed to reorder chapters",
		"course_id", courseID, "actor_id", actor.UserID, "count", len(assignments))
}

// ReorderLessons applies lesson positions within one chapter of a course
// atomically. Lessons of other chapters are never touched.
func (s *Service) ReorderLessons(ctx context.Context, actor Actor, courseID, chapterID uint, assignments []ordering.Assignment) ordering.Result {
	err := s.reorder(ctx, actor, courseID, chapterID, lessonScope, assignments)
	return s.finish("reorder_lessons", err,
		"Lessons reordered successfully", "Failed to reorder lessons",
		"course_id", courseID, "chapter_id", chapterID, "actor_id", actor.UserID, "count", len(assignments))
}

func (s *Service) reorder(ctx context.Context, actor Actor, courseID, chapterID uint, sc scope, assignments []ordering.Assignment) error {
	if courseID == 0 || (sc.kind == lessonScope.kind && chapterID == 0) {
		return ordering.Errorf(ordering.KindValidation, "Missing %s id", sc.parentKind)
	}
	if err := validateAssignments(sc, assignments); err != nil {
		return err
	}
	if err := requireAuthor(actor); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockCourse(tx, actor, courseID); err != nil {
			return err
		}
		parentID, action := courseID, ActionReorderChapters
		if sc.kind == lessonScope.kind {
			if _, err := lockChapter(tx, courseID, chapterID); err != nil {
				return err
			}
			parentID, action = chapterID, ActionReorderLessons
		}
		return applyPositions(tx, actor, courseID, sc, parentID, action, assignments)
	})
}

// applyPositions writes assignments under parentID, checks density and records
// the change. Callers run it inside a transaction.
func applyPositions(tx *gorm.DB, actor Actor, courseID uint, sc scope, parentID uint, action string, assignments []ordering.Assignment) error {
	before, err := siblings(tx, sc, parentID)
	if err != nil {
		return err
	}
	if err := writePositions(tx, sc, parentID, assignments); err != nil {
		return err
	}
	after, err := verifyDense(tx, sc, parentID)
	if err != nil {
		return err
	}
	return record(tx, courseID, actor.UserID, action, parentID, before, after)
}

func validateAssignments(sc scope, assignments []ordering.Assignment) error {
	if len(assignments) == 0 {
		return ordering.Errorf(ordering.KindValidation, "No %ss to reorder", sc.kind)
	}
	ids := make(map[uint]bool, len(assignments))
	positions := make(map[int]bool, len(assignments))
	for _, a := range assignments {
		switch {
		case a.ID == 0:
			return ordering.Errorf(ordering.KindValidation, "Missing %s id", sc.kind)
		case a.Position < 1:
			return ordering.Errorf(ordering.KindValidation, "Position for %s %d must be positive", sc.kind, a.ID)
		case ids[a.ID]:
			return ordering.Errorf(ordering.KindValidation, "%s %d listed twice", titleCase(sc.kind), a.ID)
		case positions[a.Position]:
			return ordering.Errorf(ordering.KindValidation, "Position %d assigned twice", a.Position)
		}
		ids[a.ID] = true
		positions[a.Position] = true
	}
	return nil
}
