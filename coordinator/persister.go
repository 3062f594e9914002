package coordinator

import (
	"context"
	"coursehub/ordering"
	"coursehub/services/structure"
)

// Persister carries coordinator intents to the store.
type Persister interface {
	ReorderChapters(ctx context.Context, courseID uint, changes []ordering.Assignment) ordering.Result
	ReorderLessons(ctx context.Context, courseID, chapterID uint, changes []ordering.Assignment) ordering.Result
	DeleteChapter(ctx context.Context, courseID, chapterID uint) ordering.Result
	DeleteLesson(ctx context.Context, courseID, chapterID, lessonID uint) ordering.Result
	Outline(ctx context.Context, courseID uint) (Outline, ordering.Result)
}

// ServicePersister calls the structure service in process, acting as Actor.
type ServicePersister struct {
	Service *structure.Service
	Actor   structure.Actor
}

func (p ServicePersister) ReorderChapters(ctx context.Context, courseID uint, changes []ordering.Assignment) ordering.Result {
	return p.Service.ReorderChapters(ctx, p.Actor, courseID, changes)
}

func (p ServicePersister) ReorderLessons(ctx context.Context, courseID, chapterID uint, changes []ordering.Assignment) ordering.Result {
	return p.Service.ReorderLessons(ctx, p.Actor, courseID, chapterID, changes)
}

func (p ServicePersister) DeleteChapter(ctx context.Context, courseID, chapterID uint) ordering.Result {
	return p.Service.DeleteChapter(ctx, p.Actor, courseID, chapterID)
}

func (p ServicePersister) DeleteLesson(ctx context.Context, courseID, chapterID, lessonID uint) ordering.Result {
	return p.Service.DeleteLesson(ctx, p.Actor, courseID, chapterID, lessonID)
}

func (p ServicePersister) Outline(ctx context.Context, courseID uint) (Outline, ordering.Result) {
	course, res := p.Service.Outline(ctx, p.Actor, courseID)
	if !res.OK() {
		return Outline{}, res
	}
	return FromCourse(course), res
}
