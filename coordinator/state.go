package coordinator

import (
	courseModels "coursehub/models/course"
	"coursehub/ordering"
	"sort"
)

// Kind selects which sibling list an intent targets.
type Kind string

const (
	KindChapter Kind = "chapter"
	KindLesson  Kind = "lesson"
)

// State of the coordinator's local view.
type State string

const (
	Stable  State = "stable"
	Pending State = "pending"
)

type Lesson struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type Chapter struct {
	ID       uint     `json:"id"`
	Title    string   `json:"title"`
	Position int      `json:"position"`
	Lessons  []Lesson `json:"lessons"`
}

// Outline is the local view of one course: chapters and lessons in display
// order.
type Outline struct {
	CourseID uint      `json:"id"`
	Chapters []Chapter `json:"chapters"`
}

// FromCourse builds an outline from a course loaded with its chapters and
// lessons.
func FromCourse(course *courseModels.Course) Outline {
	out := Outline{CourseID: course.ID, Chapters: make([]Chapter, 0, len(course.Chapters))}
	for _, ch := range course.Chapters {
		c := Chapter{ID: ch.ID, Title: ch.Title, Position: ch.Position, Lessons: make([]Lesson, 0, len(ch.Lessons))}
		for _, l := range ch.Lessons {
			c.Lessons = append(c.Lessons, Lesson{ID: l.ID, Title: l.Title, Position: l.Position})
		}
		out.Chapters = append(out.Chapters, c)
	}
	out.sort()
	return out
}

// Clone returns a deep copy.
func (o Outline) Clone() Outline {
	out := Outline{CourseID: o.CourseID, Chapters: make([]Chapter, len(o.Chapters))}
	for i, ch := range o.Chapters {
		if ch.Lessons != nil {
			ch.Lessons = append(make([]Lesson, 0, len(ch.Lessons)), ch.Lessons...)
		}
		out.Chapters[i] = ch
	}
	return out
}

func (o *Outline) sort() {
	sort.SliceStable(o.Chapters, func(i, j int) bool { return o.Chapters[i].Position < o.Chapters[j].Position })
	for i := range o.Chapters {
		ls := o.Chapters[i].Lessons
		sort.SliceStable(ls, func(a, b int) bool { return ls[a].Position < ls[b].Position })
	}
}

func (o Outline) chapterIndex(id uint) int {
	for i, ch := range o.Chapters {
		if ch.ID == id {
			return i
		}
	}
	return -1
}

func (o Outline) chapterItems() []ordering.Item {
	items := make([]ordering.Item, len(o.Chapters))
	for i, ch := range o.Chapters {
		items[i] = ordering.Item{ID: ch.ID, ParentID: o.CourseID, Position: ch.Position}
	}
	return items
}

// lessonItems lists the lessons of every chapter, parented by chapter id.
func (o Outline) lessonItems() []ordering.Item {
	var items []ordering.Item
	for _, ch := range o.Chapters {
		for _, l := range ch.Lessons {
			items = append(items, ordering.Item{ID: l.ID, ParentID: ch.ID, Position: l.Position})
		}
	}
	return items
}

// applyChapters rewrites chapter order and positions from order, dropping
// chapters that are not listed.
func (o *Outline) applyChapters(order []ordering.Item) {
	byID := make(map[uint]Chapter, len(o.Chapters))
	for _, ch := range o.Chapters {
		byID[ch.ID] = ch
	}
	chapters := make([]Chapter, 0, len(order))
	for _, it := range order {
		ch, ok := byID[it.ID]
		if !ok {
			continue
		}
		ch.Position = it.Position
		chapters = append(chapters, ch)
	}
	o.Chapters = chapters
}

// applyLessons rewrites one chapter's lessons from order.
func (o *Outline) applyLessons(chapterID uint, order []ordering.Item) {
	idx := o.chapterIndex(chapterID)
	if idx < 0 {
		return
	}
	ch := &o.Chapters[idx]
	byID := make(map[uint]Lesson, len(ch.Lessons))
	for _, l := range ch.Lessons {
		byID[l.ID] = l
	}
	lessons := make([]Lesson, 0, len(order))
	for _, it := range order {
		l, ok := byID[it.ID]
		if !ok {
			continue
		}
		l.Position = it.Position
		lessons = append(lessons, l)
	}
	ch.Lessons = lessons
}
