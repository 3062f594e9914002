// Package structure persists course outlines: chapter and lesson creation,
// reordering and deletion, always keeping positions dense among siblings.
//
// Every exported operation takes the acting identity explicitly and resolves to
// an ordering.Result; errors never escape the package.
package structure

import (
	"context"
	"coursehub/logger"
	"coursehub/models"
	courseModels "coursehub/models/course"
	"coursehub/ordering"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Actor is the verified identity performing an operation.
type Actor struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
}

// CanAuthor reports whether the role may edit course structure at all.
func (a Actor) CanAuthor() bool {
	return a.UserID != 0 && (a.Role == models.RoleAdmin || a.Role == models.RoleAuthor)
}

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(db *gorm.DB, log *logger.Logger) *Service {
	return &Service{db: db, log: log.With("service", "structure")}
}

// ActorFor builds the actor of a stored user, for callers outside an HTTP
// request. Missing, banned and non-author users are refused.
func (s *Service) ActorFor(ctx context.Context, userID uint) (Actor, ordering.Result) {
	var user models.User
	err := func() error {
		if userID == 0 {
			return ordering.Errorf(ordering.KindValidation, "User ID is required")
		}
		err := s.db.WithContext(ctx).First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ordering.Errorf(ordering.KindNotFound, "User not found")
		}
		if err != nil {
			return err
		}
		if user.IsBanned {
			return ordering.Errorf(ordering.KindAuthorization, "Your account has been suspended")
		}
		return requireAuthor(Actor{UserID: user.ID, Role: user.Role})
	}()
	res := s.finish("actor", err, "Actor resolved", "Failed to resolve actor", "user_id", userID)
	if !res.OK() {
		return Actor{}, res
	}
	return Actor{UserID: user.ID, Role: user.Role}, res
}

// scope describes one kind of sibling list. model returns a fresh value per
// statement since gorm writes assigned columns back into it.
type scope struct {
	kind         string
	parentKind   string
	model        func() interface{}
	parentColumn string
}

var (
	chapterScope = scope{kind: "chapter", parentKind: "course", model: func() interface{} { return &courseModels.Chapter{} }, parentColumn: "course_id"}
	lessonScope  = scope{kind: "lesson", parentKind: "chapter", model: func() interface{} { return &courseModels.Lesson{} }, parentColumn: "chapter_id"}
)

// requireAuthor runs before any store access.
func requireAuthor(actor Actor) error {
	if actor.UserID == 0 {
		return ordering.Errorf(ordering.KindAuthorization, "Sign in required")
	}
	if !actor.CanAuthor() {
		return ordering.Errorf(ordering.KindAuthorization, "Access denied! Admin or author only.")
	}
	return nil
}

func canEdit(actor Actor, course *courseModels.Course) bool {
	return actor.Role == models.RoleAdmin || course.UserID == actor.UserID
}

// lockCourse loads the course row FOR UPDATE and checks ownership. SQLite
// ignores the locking clause.
func lockCourse(tx *gorm.DB, actor Actor, courseID uint) (*courseModels.Course, error) {
	var course courseModels.Course
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&course, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ordering.Errorf(ordering.KindNotFound, "Course not found")
	}
	if err != nil {
		return nil, err
	}
	if !canEdit(actor, &course) {
		return nil, ordering.Errorf(ordering.KindAuthorization, "You are not allowed to edit this course")
	}
	return &course, nil
}

// lockChapter loads a chapter of courseID FOR UPDATE.
func lockChapter(tx *gorm.DB, courseID, chapterID uint) (*courseModels.Chapter, error) {
	var chapter courseModels.Chapter
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND course_id = ?", chapterID, courseID).
		First(&chapter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ordering.Errorf(ordering.KindNotFound, "Chapter not found")
	}
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

// siblings returns the children of parentID ordered by position.
func siblings(tx *gorm.DB, sc scope, parentID uint) ([]ordering.Item, error) {
	var items []ordering.Item
	err := tx.Model(sc.model()).
		Select(fmt.Sprintf("id, %s AS parent_id, position", sc.parentColumn)).
		Where(sc.parentColumn+" = ?", parentID).
		Order("position asc, id asc").
		Scan(&items).Error
	return items, err
}

// writePositions issues one update per assignment, each filtered by id AND
// parent. A row that matches no update aborts the batch.
func writePositions(tx *gorm.DB, sc scope, parentID uint, assignments []ordering.Assignment) error {
	for _, a := range assignments {
		res := tx.Model(sc.model()).
			Where("id = ? AND "+sc.parentColumn+" = ?", a.ID, parentID).
			Update("position", a.Position)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(sc.model()).Where("id = ?", a.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ordering.Errorf(ordering.KindCrossParent,
					"%s %d does not belong to %s %d", titleCase(sc.kind), a.ID, sc.parentKind, parentID)
			}
			return ordering.Errorf(ordering.KindNotFound, "%s %d not found", titleCase(sc.kind), a.ID)
		}
	}
	return nil
}

// verifyDense reloads the siblings inside tx and fails when positions are not
// exactly 1..N.
func verifyDense(tx *gorm.DB, sc scope, parentID uint) ([]ordering.Item, error) {
	after, err := siblings(tx, sc, parentID)
	if err != nil {
		return nil, err
	}
	if !ordering.IsDense(after) {
		return nil, ordering.Errorf(ordering.KindValidation,
			"Positions for %s %d must be exactly 1..%d", sc.parentKind, parentID, len(after))
	}
	return after, nil
}

// finish logs err and converts the outcome into a Result.
func (s *Service) finish(op string, err error, success, failure string, kv ...interface{}) ordering.Result {
	if err == nil {
		s.log.Debug(success, append(kv, "op", op)...)
		return ordering.Success(success)
	}
	kind := ordering.KindOf(err)
	kv = append(kv, "op", op, "kind", kind, "error", err)
	if kind == ordering.KindPersistence {
		s.log.Error(failure, kv...)
	} else {
		s.log.Info(failure, kv...)
	}
	return ordering.FromError(err, failure)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
