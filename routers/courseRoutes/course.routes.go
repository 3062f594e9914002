package courseRoutes

import (
	controllers "coursehub/controllers/course"
	"coursehub/middleware"
	validators "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	userGroup := app.Group("/course")

	// Published catalogue
	userGroup.Get("/list", validators.CourseList(), controllers.GetCourses)
	userGroup.Get("/:slug", validators.Slug(), controllers.GetCourseBySlug)

	// Enrollment
	userGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.Params("id"), controllers.EnrollCourse)

	app.Get("/user/enrollments", middleware.JWTMiddleware, controllers.GetUserEnrollments)
}
