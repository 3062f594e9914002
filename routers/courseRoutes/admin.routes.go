package courseRoutes

import (
	controllers "coursehub/controllers/course"
	"coursehub/logger"
	"coursehub/middleware"
	validators "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// Limits holds the limiters applied to admin writes.
type Limits struct {
	// Course create and edit
	Course middleware.Limiter
	// Chapter and lesson changes
	Structure middleware.Limiter
}

// SetupAdminCourseRoutes sets up all admin course management routes
func SetupAdminCourseRoutes(app *fiber.App, limits Limits, log *logger.Logger) {
	adminGroup := app.Group("/admin/course", middleware.JWTMiddleware, middleware.RequireAuthor())

	courseLimit := middleware.RateLimit(limits.Course, "course", log)
	structureLimit := middleware.RateLimit(limits.Structure, "structure", log)

	// Course CRUD
	adminGroup.Post("/create", courseLimit, middleware.BotFilter(), validators.CreateCourse(), controllers.AdminCreateCourse)
	adminGroup.Get("/list", validators.CourseList(), controllers.AdminGetAllCourses)
	adminGroup.Put("/:id", courseLimit, middleware.BotFilter(), validators.UpdateCourse(), controllers.AdminUpdateCourse)
	adminGroup.Delete("/:id", validators.Params("id"), controllers.AdminDeleteCourse)
	adminGroup.Get("/:id/structure", validators.Params("id"), controllers.AdminGetStructure)
	adminGroup.Get("/:id/events", validators.Params("id"), controllers.AdminGetStructureEvents)

	// Chapter management
	adminGroup.Post("/:course_id/chapter", structureLimit, validators.Params("course_id"), validators.Chapter(), controllers.AdminAddChapter)
	adminGroup.Put("/:course_id/chapter/:chapter_id", structureLimit, validators.Params("course_id", "chapter_id"), validators.Chapter(), controllers.AdminRenameChapter)
	adminGroup.Delete("/:course_id/chapter/:chapter_id", structureLimit, validators.Params("course_id", "chapter_id"), controllers.AdminDeleteChapter)
	adminGroup.Put("/:course_id/chapters/reorder", structureLimit, validators.Params("course_id"), validators.Reorder(), controllers.AdminReorderChapters)
	adminGroup.Post("/:course_id/chapters/move", structureLimit, validators.Params("course_id"), validators.Move(), controllers.AdminMoveChapter)

	// Lesson management
	adminGroup.Post("/:course_id/chapter/:chapter_id/lesson", structureLimit, validators.Params("course_id", "chapter_id"), validators.Lesson(), controllers.AdminAddLesson)
	adminGroup.Get("/:course_id/chapter/:chapter_id/lesson/:lesson_id", validators.Params("course_id", "chapter_id", "lesson_id"), controllers.AdminGetLesson)
	adminGroup.Put("/:course_id/chapter/:chapter_id/lesson/:lesson_id", structureLimit, validators.Params("course_id", "chapter_id", "lesson_id"), validators.Lesson(), controllers.AdminUpdateLesson)
	adminGroup.Delete("/:course_id/chapter/:chapter_id/lesson/:lesson_id", structureLimit, validators.Params("course_id", "chapter_id", "lesson_id"), controllers.AdminDeleteLesson)
	adminGroup.Put("/:course_id/chapter/:chapter_id/lessons/reorder", structureLimit, validators.Params("course_id", "chapter_id"), validators.Reorder(), controllers.AdminReorderLessons)
	adminGroup.Post("/:course_id/lessons/move", structureLimit, validators.Params("course_id"), validators.Move(), controllers.AdminMoveLesson)
}
