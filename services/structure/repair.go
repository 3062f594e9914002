package structure

import (
	"context"
	"coursehub/models"
	courseModels "coursehub/models/course"
	"coursehub/ordering"

	"gorm.io/gorm"
)

// sweeper is the actor the repair jobs run as. It takes the same course row
// lock as every other structure write.
var sweeper = Actor{Role: models.RoleAdmin}

// RepairCourse re-densifies every sibling list of a course whose positions are
// not exactly 1..N, keeping the stored relative order (ties by id). It returns
// the number of lists rewritten.
func (s *Service) RepairCourse(ctx context.Context, courseID uint) (int, error) {
	repaired := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repaired = 0
		if _, err := lockCourse(tx, sweeper, courseID); err != nil {
			return err
		}

		fixed, err := repairList(tx, courseID, chapterScope, courseID)
		if err != nil {
			return err
		}
		if fixed {
			repaired++
		}

		var chapterIDs []uint
		if err := tx.Model(&courseModels.Chapter{}).Where("course_id = ?", courseID).Order("position asc").Pluck("id", &chapterIDs).Error; err != nil {
			return err
		}
		for _, id := range chapterIDs {
			fixed, err := repairList(tx, courseID, lessonScope, id)
			if err != nil {
				return err
			}
			if fixed {
				repaired++
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("structure repair failed", "course_id", courseID, "error", err)
		return 0, err
	}
	if repaired > 0 {
		s.log.Warn("structure repaired", "course_id", courseID, "lists", repaired)
	}
	return repaired, nil
}

// RepairAll runs RepairCourse over every course and returns the total number
// of lists rewritten. Courses deleted during the sweep are skipped; any other
// failure stops it.
func (s *Service) RepairAll(ctx context.Context) (int, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&courseModels.Course{}).Order("id asc").Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	return s.repairCourses(ctx, ids)
}

func (s *Service) repairCourses(ctx context.Context, ids []uint) (int, error) {
	total := 0
	for _, id := range ids {
		n, err := s.RepairCourse(ctx, id)
		if ordering.KindOf(err) == ordering.KindNotFound {
			s.log.Debug("structure repair skipped deleted course", "course_id", id)
			continue
		}
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func repairList(tx *gorm.DB, courseID uint, sc scope, parentID uint) (bool, error) {
	before, err := siblings(tx, sc, parentID)
	if err != nil {
		return false, err
	}
	if ordering.IsDense(before) {
		return false, nil
	}
	after := ordering.Normalize(ordering.SortByPosition(before))
	if err := writePositions(tx, sc, parentID, ordering.Diff(before, after)); err != nil {
		return false, err
	}
	if after, err = verifyDense(tx, sc, parentID); err != nil {
		return false, err
	}
	return true, record(tx, courseID, 0, ActionRepair, parentID, before, after)
}
