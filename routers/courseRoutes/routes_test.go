package courseRoutes

import (
	"bytes"
	"coursehub/config"
	controllers "coursehub/controllers/course"
	"coursehub/database"
	"coursehub/logger"
	"coursehub/middleware"
	"coursehub/models"
	courseModels "coursehub/models/course"
	"coursehub/services/structure"
	"coursehub/utils"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const browserUA = "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0"

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{JWTKey: "test-secret", JWTTTL: time.Hour}
	utils.Mail = &utils.LogMailer{Log: logger.Nop()}
	os.Exit(m.Run())
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type routeFixture struct {
	app     *fiber.App
	admin   string
	author  string
	other   string
	learner string
}

func setup(t *testing.T, limits Limits) *routeFixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	database.Database.Db = db
	controllers.Init(structure.NewService(db, logger.Nop()), logger.Nop())

	if limits.Course == nil {
		limits.Course = middleware.NewMemoryLimiter(1000, time.Minute)
	}
	if limits.Structure == nil {
		limits.Structure = middleware.NewMemoryLimiter(1000, time.Minute)
	}

	app := fiber.New()
	SetupCourseRoutes(app)
	SetupAdminCourseRoutes(app, limits, logger.Nop())

	token := func(email, role string) string {
		u := models.User{Email: email, Role: role}
		require.NoError(t, db.Create(&u).Error)
		tok, err := middleware.GenerateJWT(u.ID, u.Role, u.Email)
		require.NoError(t, err)
		return tok
	}
	return &routeFixture{
		app:     app,
		admin:   token("admin@example.com", models.RoleAdmin),
		author:  token("author@example.com", models.RoleAuthor),
		other:   token("other@example.com", models.RoleAuthor),
		learner: token("learner@example.com", models.RoleUser),
	}
}

func (f *routeFixture) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", browserUA)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func courseBody(title, status string) fiber.Map {
	return fiber.Map{
		"title":             title,
		"description":       "A practical course",
		"small_description": "Practical",
		"file_key":          "thumbs/course.png",
		"category":          "Programming",
		"status":            status,
	}
}

func (f *routeFixture) createCourse(t *testing.T, token, title, status string) courseModels.Course {
	t.Helper()
	code, env := f.do(t, "POST", "/admin/course/create", token, courseBody(title, status))
	require.Equal(t, fiber.StatusCreated, code, env.Message)
	var course courseModels.Course
	require.NoError(t, json.Unmarshal(env.Data, &course))
	return course
}

func (f *routeFixture) addChapter(t *testing.T, courseID uint, title string) courseModels.Chapter {
	t.Helper()
	code, env := f.do(t, "POST", fmt.Sprintf("/admin/course/%d/chapter", courseID), f.author, fiber.Map{"title": title})
	require.Equal(t, fiber.StatusCreated, code, env.Message)
	var chapter courseModels.Chapter
	require.NoError(t, json.Unmarshal(env.Data, &chapter))
	return chapter
}

func (f *routeFixture) addLesson(t *testing.T, courseID, chapterID uint, title string) courseModels.Lesson {
	t.Helper()
	code, env := f.do(t, "POST", fmt.Sprintf("/admin/course/%d/chapter/%d/lesson", courseID, chapterID), f.author,
		fiber.Map{"title": title, "video_key": "videos/" + title + ".mp4"})
	require.Equal(t, fiber.StatusCreated, code, env.Message)
	var lesson courseModels.Lesson
	require.NoError(t, json.Unmarshal(env.Data, &lesson))
	return lesson
}

func (f *routeFixture) outline(t *testing.T, courseID uint) courseModels.Course {
	t.Helper()
	code, env := f.do(t, "GET", fmt.Sprintf("/admin/course/%d/structure", courseID), f.author, nil)
	require.Equal(t, fiber.StatusOK, code, env.Message)
	var course courseModels.Course
	require.NoError(t, json.Unmarshal(env.Data, &course))
	return course
}

func chapterTitles(c courseModels.Course) []string {
	titles := make([]string, 0, len(c.Chapters))
	for _, ch := range c.Chapters {
		titles = append(titles, ch.Title)
	}
	return titles
}

func TestChapterRoutes(t *testing.T) {
	f := setup(t, Limits{})
	course := f.createCourse(t, f.author, "Go Basics", courseModels.StatusDraft)
	assert.Equal(t, "go-basics", course.Slug)

	a := f.addChapter(t, course.ID, "Alpha")
	f.addChapter(t, course.ID, "Bravo")
	c := f.addChapter(t, course.ID, "Charlie")
	assert.Equal(t, 3, c.Position)

	code, env := f.do(t, "POST", fmt.Sprintf("/admin/course/%d/chapters/move", course.ID), f.author,
		fiber.Map{"source_id": a.ID, "target_id": c.ID})
	require.Equal(t, fiber.StatusOK, code, env.Message)
	assert.Equal(t, []string{"Bravo", "Charlie", "Alpha"}, chapterTitles(f.outline(t, course.ID)))

	outline := f.outline(t, course.ID)
	items := make([]fiber.Map, 0, 3)
	for i, ch := range outline.Chapters {
		items = append(items, fiber.Map{"id": ch.ID, "position": len(outline.Chapters) - i})
	}
	code, env = f.do(t, "PUT", fmt.Sprintf("/admin/course/%d/chapters/reorder", course.ID), f.author, fiber.Map{"items": items})
	require.Equal(t, fiber.StatusOK, code, env.Message)
	assert.Equal(t, []string{"Alpha", "Charlie", "Bravo"}, chapterTitles(f.outline(t, course.ID)))

	code, _ = f.do(t, "PUT", fmt.Sprintf("/admin/course/%d/chapter/%d", course.ID, c.ID), f.author, fiber.Map{"title": "Charlie 2"})
	require.Equal(t, fiber.StatusOK, code)

	code, _ = f.do(t, "DELETE", fmt.Sprintf("/admin/course/%d/chapter/%d", course.ID, a.ID), f.author, nil)
	require.Equal(t, fiber.StatusOK, code)
	after := f.outline(t, course.ID)
	assert.Equal(t, []string{"Charlie 2", "Bravo"}, chapterTitles(after))
	for i, ch := range after.Chapters {
		assert.Equal(t, i+1, ch.Position)
	}

	code, env = f.do(t, "GET", fmt.Sprintf("/admin/course/%d/events?limit=10", course.ID), f.author, nil)
	require.Equal(t, fiber.StatusOK, code)
	var events []courseModels.StructureEvent
	require.NoError(t, json.Unmarshal(env.Data, &events))
	assert.NotEmpty(t, events)
}

func TestReorderRejectsBadPayload(t *testing.T) {
	f := setup(t, Limits{})
	course := f.createCourse(t, f.author, "Go Basics", courseModels.StatusDraft)
	a := f.addChapter(t, course.ID, "Alpha")

	path := fmt.Sprintf("/admin/course/%d/chapters/reorder", course.ID)
	code, _ := f.do(t, "PUT", path, f.author, fiber.Map{"items": []fiber.Map{}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)

	code, _ = f.do(t, "PUT", path, f.author, fiber.Map{"items": []fiber.Map{{"id": a.ID, "position": 0}}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)

	code, _ = f.do(t, "PUT", path, f.author, fiber.Map{"items": []fiber.Map{{"id": 999, "position": 1}}})
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestLessonRoutes(t *testing.T) {
	f := setup(t, Limits{})
	course := f.createCourse(t, f.author, "Go Basics", courseModels.StatusDraft)
	one := f.addChapter(t, course.ID, "One")
	two := f.addChapter(t, course.ID, "Two")

	l1 := f.addLesson(t, course.ID, one.ID, "intro")
	f.addLesson(t, course.ID, one.ID, "setup")
	l3 := f.addLesson(t, course.ID, one.ID, "first")
	other := f.addLesson(t, course.ID, two.ID, "types")

	code, env := f.do(t, "POST", fmt.Sprintf("/admin/course/%d/lessons/move", course.ID), f.author,
		fiber.Map{"source_id": l3.ID, "target_id": l1.ID})
	require.Equal(t, fiber.StatusOK, code, env.Message)

	titles := func() []string {
		var out []string
		for _, l := range f.outline(t, course.ID).Chapters[0].Lessons {
			out = append(out, l.Title)
		}
		return out
	}
	assert.Equal(t, []string{"first", "intro", "setup"}, titles())

	code, env = f.do(t, "POST", fmt.Sprintf("/admin/course/%d/lessons/move", course.ID), f.author,
		fiber.Map{"source_id": l1.ID, "target_id": other.ID})
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "Lesson move between different chapters is not allowed", env.Message)

	code, _ = f.do(t, "PUT", fmt.Sprintf("/admin/course/%d/chapter/%d/lessons/reorder", course.ID, one.ID), f.author,
		fiber.Map{"items": []fiber.Map{{"id": other.ID, "position": 1}}})
	assert.Equal(t, fiber.StatusConflict, code)

	code, _ = f.do(t, "PUT", fmt.Sprintf("/admin/course/%d/chapter/%d/lesson/%d", course.ID, one.ID, l1.ID), f.author,
		fiber.Map{"title": "welcome", "description": "Start here"})
	require.Equal(t, fiber.StatusOK, code)

	code, _ = f.do(t, "DELETE", fmt.Sprintf("/admin/course/%d/chapter/%d/lesson/%d", course.ID, one.ID, l3.ID), f.author, nil)
	require.Equal(t, fiber.StatusOK, code)
	lessons := f.outline(t, course.ID).Chapters[0].Lessons
	require.Len(t, lessons, 2)
	assert.Equal(t, "welcome", lessons[0].Title)
	assert.Equal(t, 1, lessons[0].Position)
	assert.Equal(t, 2, lessons[1].Position)

	code, _ = f.do(t, "DELETE", fmt.Sprintf("/admin/course/%d/chapter/%d/lesson/%d", course.ID, one.ID, l3.ID), f.author, nil)
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestAdminAccess(t *testing.T) {
	f := setup(t, Limits{})
	course := f.createCourse(t, f.author, "Go Basics", courseModels.StatusDraft)
	path := fmt.Sprintf("/admin/course/%d/structure", course.ID)

	code, _ := f.do(t, "GET", path, "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = f.do(t, "GET", path, f.learner, nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = f.do(t, "GET", path, f.other, nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = f.do(t, "GET", path, f.admin, nil)
	assert.Equal(t, fiber.StatusOK, code)

	code, env := f.do(t, "GET", "/admin/course/abc/structure", f.author, nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Invalid Course ID!", env.Message)

	code, _ = f.do(t, "GET", "/admin/course/999/structure", f.author, nil)
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestCourseAdminList(t *testing.T) {
	f := setup(t, Limits{})
	f.createCourse(t, f.author, "Go Basics", courseModels.StatusDraft)
	f.createCourse(t, f.other, "Rust Basics", courseModels.StatusDraft)

	var page struct {
		Courses []courseModels.Course `json:"courses"`
		Total   int64                 `json:"total"`
	}
	code, env := f.do(t, "GET", "/admin/course/list", f.author, nil)
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 1, page.Total)

	code, env = f.do(t, "GET", "/admin/course/list?search=Basics", f.admin, nil)
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 2, page.Total)

	code, _ = f.do(t, "POST", "/admin/course/create", f.author, courseBody("Go Basics", courseModels.StatusDraft))
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
}

func TestCourseWritesBlockBots(t *testing.T) {
	f := setup(t, Limits{})
	raw, err := json.Marshal(courseBody("Go Basics", courseModels.StatusDraft))
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/admin/course/create", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "curl/8.5.0")
	req.Header.Set("Authorization", "Bearer "+f.author)
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestStructureRateLimit(t *testing.T) {
	f := setup(t, Limits{Structure: middleware.NewMemoryLimiter(2, time.Minute)})
	course := f.createCourse(t, f.author, "Go Basics", courseModels.StatusDraft)
	f.addChapter(t, course.ID, "Alpha")
	f.addChapter(t, course.ID, "Bravo")

	code, _ := f.do(t, "POST", fmt.Sprintf("/admin/course/%d/chapter", course.ID), f.author, fiber.Map{"title": "Charlie"})
	assert.Equal(t, fiber.StatusTooManyRequests, code)
}

func TestPublicCatalogueAndEnrollment(t *testing.T) {
	f := setup(t, Limits{})
	draft := f.createCourse(t, f.author, "Draft Course", courseModels.StatusDraft)
	course := f.createCourse(t, f.author, "Go Basics", courseModels.StatusPublished)
	f.addChapter(t, course.ID, "Alpha")
	b := f.addChapter(t, course.ID, "Bravo")
	code, _ := f.do(t, "POST", fmt.Sprintf("/admin/course/%d/chapters/move", course.ID), f.author,
		fiber.Map{"source_id": b.ID, "target_id": b.ID - 1})
	require.Equal(t, fiber.StatusOK, code)

	var page struct {
		Courses []courseModels.Course `json:"courses"`
		Total   int64                 `json:"total"`
	}
	code, env := f.do(t, "GET", "/course/list", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, course.ID, page.Courses[0].ID)

	code, env = f.do(t, "GET", "/course/go-basics", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	var detail courseModels.Course
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, []string{"Bravo", "Alpha"}, chapterTitles(detail))

	code, _ = f.do(t, "GET", "/course/draft-course", "", nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	code, _ = f.do(t, "POST", fmt.Sprintf("/course/%d/enroll", draft.ID), f.learner, nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	code, env = f.do(t, "POST", fmt.Sprintf("/course/%d/enroll", course.ID), f.learner, nil)
	require.Equal(t, fiber.StatusCreated, code, env.Message)
	var enrollment courseModels.Enrollment
	require.NoError(t, json.Unmarshal(env.Data, &enrollment))
	assert.Equal(t, courseModels.EnrollmentActive, enrollment.Status)

	code, _ = f.do(t, "POST", fmt.Sprintf("/course/%d/enroll", course.ID), f.learner, nil)
	assert.Equal(t, fiber.StatusConflict, code)

	code, env = f.do(t, "GET", "/user/enrollments", f.learner, nil)
	require.Equal(t, fiber.StatusOK, code)
	var enrollments []courseModels.Enrollment
	require.NoError(t, json.Unmarshal(env.Data, &enrollments))
	require.Len(t, enrollments, 1)
	assert.Equal(t, "Go Basics", enrollments[0].Course.Title)

	// deleting the course takes its outline and enrollments with it
	code, _ = f.do(t, "DELETE", fmt.Sprintf("/admin/course/%d", course.ID), f.author, nil)
	require.Equal(t, fiber.StatusOK, code)
	code, env = f.do(t, "GET", "/user/enrollments", f.learner, nil)
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &enrollments))
	assert.Empty(t, enrollments)
}

func TestUpdateCourse(t *testing.T) {
	f := setup(t, Limits{})
	course := f.createCourse(t, f.author, "Go Basics", courseModels.StatusDraft)
	f.createCourse(t, f.other, "Rust Basics", courseModels.StatusDraft)
	path := fmt.Sprintf("/admin/course/%d", course.ID)

	withSlug := func(title, slug string) fiber.Map {
		body := courseBody(title, courseModels.StatusPublished)
		body["slug"] = slug
		return body
	}

	tests := []struct {
		name  string
		path  string
		token string
		body  fiber.Map
		want  int
	}{
		{"owner renames", path, f.author, withSlug("Go Fundamentals", "go-fundamentals"), fiber.StatusOK},
		{"other author", path, f.other, withSlug("Taken Over", "taken-over"), fiber.StatusForbidden},
		{"admin", path, f.admin, withSlug("Go Fundamentals II", "go-fundamentals"), fiber.StatusOK},
		{"missing course", "/admin/course/999", f.author, withSlug("Go Basics", ""), fiber.StatusNotFound},
		{"slug in use", path, f.author, withSlug("Go Basics", "rust-basics"), fiber.StatusUnprocessableEntity},
		{"bad id", "/admin/course/abc", f.author, withSlug("Go Basics", ""), fiber.StatusBadRequest},
		{"short title", path, f.author, withSlug("Go", ""), fiber.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := f.do(t, "PUT", tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, code, env.Message)
		})
	}

	var stored courseModels.Course
	require.NoError(t, database.Database.Db.First(&stored, course.ID).Error)
	assert.Equal(t, "Go Fundamentals II", stored.Title)
	assert.Equal(t, "go-fundamentals", stored.Slug)
	assert.Equal(t, courseModels.StatusPublished, stored.Status)
	assert.Equal(t, course.UserID, stored.UserID)
}

func TestStructureEventsAccess(t *testing.T) {
	f := setup(t, Limits{})
	course := f.createCourse(t, f.author, "Go Basics", courseModels.StatusDraft)
	f.addChapter(t, course.ID, "Alpha")
	path := fmt.Sprintf("/admin/course/%d/events", course.ID)

	code, _ := f.do(t, "GET", path, f.other, nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = f.do(t, "GET", "/admin/course/999/events", f.author, nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	code, env := f.do(t, "GET", path+"?limit=100000", f.admin, nil)
	require.Equal(t, fiber.StatusOK, code, env.Message)
	var events []courseModels.StructureEvent
	require.NoError(t, json.Unmarshal(env.Data, &events))
	assert.Len(t, events, 1)
}

func TestGetLesson(t *testing.T) {
	f := setup(t, Limits{})
	course := f.createCourse(t, f.author, "Go Basics", courseModels.StatusDraft)
	one := f.addChapter(t, course.ID, "One")
	two := f.addChapter(t, course.ID, "Two")
	lesson := f.addLesson(t, course.ID, one.ID, "intro")
	path := fmt.Sprintf("/admin/course/%d/chapter/%d/lesson/%d", course.ID, one.ID, lesson.ID)

	code, env := f.do(t, "GET", path, f.author, nil)
	require.Equal(t, fiber.StatusOK, code, env.Message)
	var got courseModels.Lesson
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, lesson.ID, got.ID)
	assert.Equal(t, "intro", got.Title)
	assert.Equal(t, "videos/intro.mp4", got.VideoKey)

	code, _ = f.do(t, "GET", path, f.other, nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = f.do(t, "GET", path, f.admin, nil)
	assert.Equal(t, fiber.StatusOK, code)

	code, _ = f.do(t, "GET", fmt.Sprintf("/admin/course/%d/chapter/%d/lesson/%d", course.ID, two.ID, lesson.ID), f.author, nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	other := f.createCourse(t, f.author, "Rust Basics", courseModels.StatusDraft)
	code, _ = f.do(t, "GET", fmt.Sprintf("/admin/course/%d/chapter/%d/lesson/%d", other.ID, one.ID, lesson.ID), f.author, nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	code, _ = f.do(t, "GET", fmt.Sprintf("/admin/course/%d/chapter/%d/lesson/abc", course.ID, one.ID), f.author, nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
}
