package structure

import (
	"context"
	"coursehub/database"
	"coursehub/logger"
	"coursehub/models"
	courseModels "coursehub/models/course"
	"coursehub/ordering"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	svc      *Service
	admin    Actor
	owner    Actor
	course   courseModels.Course
	chapters []courseModels.Chapter
	lessons  map[uint][]courseModels.Lesson
}

// setup seeds one course owned by an author with the given number of lessons
// per chapter.
func setup(t *testing.T, lessonsPerChapter ...int) *fixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)

	admin := models.User{Email: "admin@example.com", Role: models.RoleAdmin}
	author := models.User{Email: "author@example.com", Role: models.RoleAuthor}
	require.NoError(t, db.Create(&admin).Error)
	require.NoError(t, db.Create(&author).Error)

	f := &fixture{
		db:      db,
		svc:     NewService(db, logger.Nop()),
		admin:   Actor{UserID: admin.ID, Role: models.RoleAdmin},
		owner:   Actor{UserID: author.ID, Role: models.RoleAuthor},
		lessons: map[uint][]courseModels.Lesson{},
	}
	f.course = courseModels.Course{Title: "Go in Practice", Slug: "go-in-practice", UserID: author.ID}
	require.NoError(t, db.Create(&f.course).Error)

	for i, n := range lessonsPerChapter {
		ch := courseModels.Chapter{CourseID: f.course.ID, Title: fmt.Sprintf("Chapter %d", i+1), Position: i + 1}
		require.NoError(t, db.Create(&ch).Error)
		f.chapters = append(f.chapters, ch)
		for j := 0; j < n; j++ {
			l := courseModels.Lesson{ChapterID: ch.ID, Title: fmt.Sprintf("Lesson %d.%d", i+1, j+1), Position: j + 1}
			require.NoError(t, db.Create(&l).Error)
			f.lessons[ch.ID] = append(f.lessons[ch.ID], l)
		}
	}
	return f
}

func (f *fixture) chapterOrder(t *testing.T) []ordering.Item {
	t.Helper()
	items, err := siblings(f.db, chapterScope, f.course.ID)
	require.NoError(t, err)
	return items
}

func (f *fixture) lessonOrder(t *testing.T, chapterID uint) []ordering.Item {
	t.Helper()
	items, err := siblings(f.db, lessonScope, chapterID)
	require.NoError(t, err)
	return items
}

func (f *fixture) eventCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&courseModels.StructureEvent{}).Count(&n).Error)
	return n
}

func ids(items []ordering.Item) []uint {
	out := make([]uint, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestMoveChapterReorderExample(t *testing.T) {
	f := setup(t, 0, 0, 0)
	a, b, c := f.chapters[0].ID, f.chapters[1].ID, f.chapters[2].ID

	res := f.svc.MoveChapter(context.Background(), f.owner, f.course.ID, a, c)
	require.True(t, res.OK(), res.Message)

	assert.Equal(t, []ordering.Item{
		{ID: b, ParentID: f.course.ID, Position: 1},
		{ID: c, ParentID: f.course.ID, Position: 2},
		{ID: a, ParentID: f.course.ID, Position: 3},
	}, f.chapterOrder(t))
	assert.EqualValues(t, 1, f.eventCount(t))
}

func TestMoveChapterSameIDIsNoop(t *testing.T) {
	f := setup(t, 0, 0)
	a := f.chapters[0].ID
	before := f.chapterOrder(t)

	res := f.svc.MoveChapter(context.Background(), f.owner, f.course.ID, a, a)
	require.True(t, res.OK())
	assert.Equal(t, before, f.chapterOrder(t))
	assert.EqualValues(t, 0, f.eventCount(t))
}

func TestReorderChaptersFullList(t *testing.T) {
	f := setup(t, 0, 0, 0)
	a, b, c := f.chapters[0].ID, f.chapters[1].ID, f.chapters[2].ID

	res := f.svc.ReorderChapters(context.Background(), f.admin, f.course.ID, []ordering.Assignment{
		{ID: c, Position: 1}, {ID: a, Position: 2}, {ID: b, Position: 3},
	})
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, "Chapters reordered successfully", res.Message)
	assert.Equal(t, []uint{c, a, b}, ids(f.chapterOrder(t)))
}

func TestReorderLessonsCrossParentRejected(t *testing.T) {
	f := setup(t, 2, 2)
	ch1, ch2 := f.chapters[0].ID, f.chapters[1].ID
	foreign := f.lessons[ch2][0].ID
	before1, before2 := f.lessonOrder(t, ch1), f.lessonOrder(t, ch2)

	res := f.svc.ReorderLessons(context.Background(), f.owner, f.course.ID, ch1, []ordering.Assignment{
		{ID: f.lessons[ch1][1].ID, Position: 1},
		{ID: foreign, Position: 2},
	})
	require.False(t, res.OK())
	assert.Equal(t, ordering.KindCrossParent, res.Kind)
	assert.Equal(t, before1, f.lessonOrder(t, ch1), "first write must be rolled back")
	assert.Equal(t, before2, f.lessonOrder(t, ch2))
	assert.EqualValues(t, 0, f.eventCount(t))
}

func TestReorderLessonsRollsBackOnMissingRow(t *testing.T) {
	f := setup(t, 2)
	ch := f.chapters[0].ID
	a := f.lessons[ch][1].ID

	res := f.svc.ReorderLessons(context.Background(), f.owner, f.course.ID, ch, []ordering.Assignment{
		{ID: a, Position: 1},
		{ID: 9999, Position: 2},
	})
	require.False(t, res.OK())
	assert.Equal(t, ordering.KindNotFound, res.Kind)

	var stored courseModels.Lesson
	require.NoError(t, f.db.First(&stored, a).Error)
	assert.Equal(t, 2, stored.Position)
}

func TestReorderLessonsRejectsNonDenseResult(t *testing.T) {
	f := setup(t, 3)
	ch := f.chapters[0].ID
	before := f.lessonOrder(t, ch)

	// a partial diff computed against a stale view leaves two lessons at 3
	res := f.svc.ReorderLessons(context.Background(), f.owner, f.course.ID, ch, []ordering.Assignment{
		{ID: f.lessons[ch][0].ID, Position: 3},
	})
	require.False(t, res.OK())
	assert.Equal(t, ordering.KindValidation, res.Kind)
	assert.Equal(t, before, f.lessonOrder(t, ch))
}

func TestReorderLessonsChapterOfOtherCourse(t *testing.T) {
	f := setup(t, 1)
	other := courseModels.Course{Title: "Other", Slug: "other", UserID: f.owner.UserID}
	require.NoError(t, f.db.Create(&other).Error)

	res := f.svc.ReorderLessons(context.Background(), f.owner, other.ID, f.chapters[0].ID, []ordering.Assignment{
		{ID: f.lessons[f.chapters[0].ID][0].ID, Position: 1},
	})
	assert.Equal(t, ordering.KindNotFound, res.Kind)
	assert.Equal(t, "Chapter not found", res.Message)
}

func TestReorderValidation(t *testing.T) {
	f := setup(t, 2)
	ch := f.chapters[0].ID
	l1, l2 := f.lessons[ch][0].ID, f.lessons[ch][1].ID

	tests := []struct {
		name        string
		assignments []ordering.Assignment
		chapterID   uint
	}{
		{"empty", nil, ch},
		{"missing chapter", []ordering.Assignment{{ID: l1, Position: 1}}, 0},
		{"zero id", []ordering.Assignment{{ID: 0, Position: 1}}, ch},
		{"zero position", []ordering.Assignment{{ID: l1, Position: 0}}, ch},
		{"duplicate id", []ordering.Assignment{{ID: l1, Position: 1}, {ID: l1, Position: 2}}, ch},
		{"duplicate position", []ordering.Assignment{{ID: l1, Position: 1}, {ID: l2, Position: 1}}, ch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.svc.ReorderLessons(context.Background(), f.owner, f.course.ID, tt.chapterID, tt.assignments)
			assert.Equal(t, ordering.StatusError, res.Status)
			assert.Equal(t, ordering.KindValidation, res.Kind)
		})
	}
}

func TestAuthorization(t *testing.T) {
	f := setup(t, 0, 0)
	stranger := models.User{Email: "other-author@example.com", Role: models.RoleAuthor}
	require.NoError(t, f.db.Create(&stranger).Error)
	a, b := f.chapters[0].ID, f.chapters[1].ID

	for name, actor := range map[string]Actor{
		"anonymous":      {},
		"learner":        {UserID: f.owner.UserID, Role: models.RoleUser},
		"foreign author": {UserID: stranger.ID, Role: models.RoleAuthor},
	} {
		t.Run(name, func(t *testing.T) {
			res := f.svc.MoveChapter(context.Background(), actor, f.course.ID, a, b)
			assert.Equal(t, ordering.KindAuthorization, res.Kind)
			res = f.svc.DeleteChapter(context.Background(), actor, f.course.ID, a)
			assert.Equal(t, ordering.KindAuthorization, res.Kind)
		})
	}
	assert.Equal(t, []uint{a, b}, ids(f.chapterOrder(t)))
}

func TestAuthorizeAndLesson(t *testing.T) {
	f := setup(t, 1, 0)
	stranger := models.User{Email: "other-author@example.com", Role: models.RoleAuthor}
	require.NoError(t, f.db.Create(&stranger).Error)
	foreign := Actor{UserID: stranger.ID, Role: models.RoleAuthor}
	ctx := context.Background()
	a, b := f.chapters[0].ID, f.chapters[1].ID
	lesson := f.lessons[a][0]

	assert.True(t, f.svc.Authorize(ctx, f.owner, f.course.ID).OK())
	assert.True(t, f.svc.Authorize(ctx, f.admin, f.course.ID).OK())
	assert.Equal(t, ordering.KindAuthorization, f.svc.Authorize(ctx, foreign, f.course.ID).Kind)
	assert.Equal(t, ordering.KindNotFound, f.svc.Authorize(ctx, f.owner, 9999).Kind)

	got, res := f.svc.Lesson(ctx, f.owner, f.course.ID, a, lesson.ID)
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, lesson.ID, got.ID)

	_, res = f.svc.Lesson(ctx, foreign, f.course.ID, a, lesson.ID)
	assert.Equal(t, ordering.KindAuthorization, res.Kind)
	_, res = f.svc.Lesson(ctx, f.owner, f.course.ID, b, lesson.ID)
	assert.Equal(t, ordering.KindNotFound, res.Kind)
	_, res = f.svc.Lesson(ctx, f.owner, f.course.ID, a, 0)
	assert.Equal(t, ordering.KindValidation, res.Kind)
}

func TestActorForUsesStoredUser(t *testing.T) {
	f := setup(t, 0)
	ctx := context.Background()
	learner := models.User{Email: "learner@example.com", Role: models.RoleUser}
	banned := models.User{Email: "banned@example.com", Role: models.RoleAdmin, IsBanned: true}
	require.NoError(t, f.db.Create(&learner).Error)
	require.NoError(t, f.db.Create(&banned).Error)

	actor, res := f.svc.ActorFor(ctx, f.owner.UserID)
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, f.owner, actor)

	actor, res = f.svc.ActorFor(ctx, f.admin.UserID)
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, models.RoleAdmin, actor.Role)

	_, res = f.svc.ActorFor(ctx, learner.ID)
	assert.Equal(t, ordering.KindAuthorization, res.Kind)
	_, res = f.svc.ActorFor(ctx, banned.ID)
	assert.Equal(t, ordering.KindAuthorization, res.Kind)
	_, res = f.svc.ActorFor(ctx, 9999)
	assert.Equal(t, ordering.KindNotFound, res.Kind)
}

func TestEventsPageIsCapped(t *testing.T) {
	f := setup(t, 0)
	events := make([]courseModels.StructureEvent, MaxEvents+5)
	for i := range events {
		events[i] = courseModels.StructureEvent{CourseID: f.course.ID, Action: ActionRepair, ParentID: f.course.ID}
	}
	require.NoError(t, f.db.CreateInBatches(&events, 50).Error)

	got, err := f.svc.Events(context.Background(), f.course.ID, 100000)
	require.NoError(t, err)
	assert.Len(t, got, MaxEvents)

	got, err = f.svc.Events(context.Background(), f.course.ID, 0)
	require.NoError(t, err)
	assert.Len(t, got, 50)
}

func TestMoveLessonWithinChapter(t *testing.T) {
	f := setup(t, 3, 2)
	ch := f.chapters[0].ID
	l := f.lessons[ch]

	res := f.svc.MoveLesson(context.Background(), f.owner, f.course.ID, l[2].ID, l[0].ID)
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, []uint{l[2].ID, l[0].ID, l[1].ID}, ids(f.lessonOrder(t, ch)))
}

func TestMoveLessonAcrossChaptersRejected(t *testing.T) {
	f := setup(t, 2, 2)
	ch1, ch2 := f.chapters[0].ID, f.chapters[1].ID
	before1, before2 := f.lessonOrder(t, ch1), f.lessonOrder(t, ch2)

	res := f.svc.MoveLesson(context.Background(), f.owner, f.course.ID, f.lessons[ch1][0].ID, f.lessons[ch2][1].ID)
	require.False(t, res.OK())
	assert.Equal(t, ordering.KindCrossParent, res.Kind)
	assert.Equal(t, "Lesson move between different chapters is not allowed", res.Message)
	assert.Equal(t, before1, f.lessonOrder(t, ch1))
	assert.Equal(t, before2, f.lessonOrder(t, ch2))
}

func TestDeleteLessonRenumbers(t *testing.T) {
	f := setup(t, 3)
	ch := f.chapters[0].ID
	l := f.lessons[ch]

	res := f.svc.DeleteLesson(context.Background(), f.owner, f.course.ID, ch, l[1].ID)
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, []ordering.Item{
		{ID: l[0].ID, ParentID: ch, Position: 1},
		{ID: l[2].ID, ParentID: ch, Position: 2},
	}, f.lessonOrder(t, ch))

	var count int64
	require.NoError(t, f.db.Unscoped().Model(&courseModels.Lesson{}).Where("id = ?", l[1].ID).Count(&count).Error)
	assert.Zero(t, count, "lesson must be physically removed")
}

func TestDeleteLessonNotFound(t *testing.T) {
	f := setup(t, 2, 1)
	ch1, ch2 := f.chapters[0].ID, f.chapters[1].ID
	before := f.lessonOrder(t, ch1)

	// lesson exists, but in another chapter
	res := f.svc.DeleteLesson(context.Background(), f.owner, f.course.ID, ch1, f.lessons[ch2][0].ID)
	assert.Equal(t, ordering.KindNotFound, res.Kind)
	assert.Equal(t, "Lesson not found", res.Message)
	assert.Equal(t, before, f.lessonOrder(t, ch1))
	assert.Len(t, f.lessonOrder(t, ch2), 1)
}

func TestDeleteChapterCascadesAndRenumbers(t *testing.T) {
	f := setup(t, 1, 2, 1)
	first, middle, last := f.chapters[0].ID, f.chapters[1].ID, f.chapters[2].ID

	res := f.svc.DeleteChapter(context.Background(), f.admin, f.course.ID, middle)
	require.True(t, res.OK(), res.Message)

	assert.Equal(t, []ordering.Item{
		{ID: first, ParentID: f.course.ID, Position: 1},
		{ID: last, ParentID: f.course.ID, Position: 2},
	}, f.chapterOrder(t))
	assert.Empty(t, f.lessonOrder(t, middle))
	assert.Len(t, f.lessonOrder(t, first), 1)
}

func TestDeleteCourseCascades(t *testing.T) {
	f := setup(t, 2, 2)
	res := f.svc.DeleteCourse(context.Background(), f.owner, f.course.ID)
	require.True(t, res.OK(), res.Message)

	var chapters, lessons int64
	f.db.Unscoped().Model(&courseModels.Chapter{}).Count(&chapters)
	f.db.Unscoped().Model(&courseModels.Lesson{}).Count(&lessons)
	assert.Zero(t, chapters)
	assert.Zero(t, lessons)
}

func TestAddChapterAndLessonAppend(t *testing.T) {
	f := setup(t, 2, 0)
	ctx := context.Background()

	ch, res := f.svc.AddChapter(ctx, f.owner, f.course.ID, "  Wrap up  ")
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, 3, ch.Position)
	assert.Equal(t, "Wrap up", ch.Title)

	l, res := f.svc.AddLesson(ctx, f.owner, f.course.ID, f.chapters[0].ID, LessonInput{Title: "Exercises"})
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, 3, l.Position)

	l, res = f.svc.AddLesson(ctx, f.owner, f.course.ID, f.chapters[1].ID, LessonInput{Title: "Intro"})
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, 1, l.Position)

	_, res = f.svc.AddChapter(ctx, f.owner, f.course.ID, "ab")
	assert.Equal(t, ordering.KindValidation, res.Kind)
}

func TestRenameAndUpdateKeepPositions(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()
	ch := f.chapters[0].ID
	l := f.lessons[ch][1]

	require.True(t, f.svc.RenameChapter(ctx, f.owner, f.course.ID, ch, "Basics").OK())
	res := f.svc.UpdateLesson(ctx, f.owner, f.course.ID, ch, l.ID, LessonInput{Title: "Slices", VideoKey: "v.mp4"})
	require.True(t, res.OK(), res.Message)

	var stored courseModels.Lesson
	require.NoError(t, f.db.First(&stored, l.ID).Error)
	assert.Equal(t, "Slices", stored.Title)
	assert.Equal(t, "v.mp4", stored.VideoKey)
	assert.Equal(t, 2, stored.Position)
	assert.Equal(t, ch, stored.ChapterID)
}

func TestOutlineOrdered(t *testing.T) {
	f := setup(t, 2, 2)
	ctx := context.Background()
	require.True(t, f.svc.MoveChapter(ctx, f.owner, f.course.ID, f.chapters[1].ID, f.chapters[0].ID).OK())

	course, res := f.svc.Outline(ctx, f.owner, f.course.ID)
	require.True(t, res.OK(), res.Message)
	require.Len(t, course.Chapters, 2)
	assert.Equal(t, f.chapters[1].ID, course.Chapters[0].ID)
	assert.Equal(t, 1, course.Chapters[0].Lessons[0].Position)
	assert.Equal(t, 2, course.Chapters[0].Lessons[1].Position)
}

func TestRepairCourse(t *testing.T) {
	f := setup(t, 3, 2)
	ch := f.chapters[0].ID
	l := f.lessons[ch]
	// simulate a write that bypassed the services
	require.NoError(t, f.db.Model(&courseModels.Lesson{}).Where("id = ?", l[0].ID).Update("position", 7).Error)
	require.NoError(t, f.db.Model(&courseModels.Chapter{}).Where("id = ?", f.chapters[1].ID).Update("position", 5).Error)

	n, err := f.svc.RepairCourse(context.Background(), f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint{l[1].ID, l[2].ID, l[0].ID}, ids(f.lessonOrder(t, ch)))
	assert.True(t, ordering.IsDense(f.lessonOrder(t, ch)))
	assert.True(t, ordering.IsDense(f.chapterOrder(t)))

	n, err = f.svc.RepairAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRepairSkipsDeletedCourses(t *testing.T) {
	f := setup(t, 2)
	ch := f.chapters[0].ID
	l := f.lessons[ch]
	require.NoError(t, f.db.Model(&courseModels.Lesson{}).Where("id = ?", l[0].ID).Update("position", 4).Error)

	_, err := f.svc.RepairCourse(context.Background(), 9999)
	assert.Equal(t, ordering.KindNotFound, ordering.KindOf(err))

	n, err := f.svc.repairCourses(context.Background(), []uint{9999, f.course.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uint{l[1].ID, l[0].ID}, ids(f.lessonOrder(t, ch)))
	assert.True(t, ordering.IsDense(f.lessonOrder(t, ch)))

	var events []courseModels.StructureEvent
	require.NoError(t, f.db.Where("action = ?", ActionRepair).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, ch, events[0].ParentID)
}

func TestConcurrentMovesStayDense(t *testing.T) {
	f := setup(t, 6)
	ch := f.chapters[0].ID
	l := f.lessons[ch]
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := l[i%len(l)].ID
			dst := l[(i*5+1)%len(l)].ID
			f.svc.MoveLesson(ctx, f.owner, f.course.ID, src, dst)
		}(i)
	}
	wg.Wait()

	order := f.lessonOrder(t, ch)
	assert.Len(t, order, len(l))
	assert.True(t, ordering.IsDense(order), "%v", order)
}

func TestEventsRecordBeforeAndAfter(t *testing.T) {
	f := setup(t, 2)
	ch := f.chapters[0].ID
	l := f.lessons[ch]
	ctx := context.Background()
	require.True(t, f.svc.MoveLesson(ctx, f.owner, f.course.ID, l[0].ID, l[1].ID).OK())

	events, err := f.svc.Events(ctx, f.course.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionMoveLesson, events[0].Action)
	assert.Equal(t, ch, events[0].ParentID)
	assert.Equal(t, f.owner.UserID, events[0].ActorID)
	assert.JSONEq(t, fmt.Sprintf(`[{"id":%d,"parent_id":%d,"position":1},{"id":%d,"parent_id":%d,"position":2}]`,
		l[1].ID, ch, l[0].ID, ch), string(events[0].After))
}
