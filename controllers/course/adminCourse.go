package controllers

import (
	"coursehub/database"
	"coursehub/logger"
	"coursehub/middleware"
	"coursehub/models"
	courseModels "coursehub/models/course"
	"coursehub/services/structure"
	"coursehub/utils"
	courseValidator "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

var (
	// Structure performs every chapter and lesson change.
	Structure *structure.Service
	Log       = logger.Nop()
)

// Init wires the structure service and logger used by the handlers.
func Init(svc *structure.Service, log *logger.Logger) {
	Structure = svc
	Log = log.With("controller", "course")
}

// slugTaken reports whether another course already uses slug.
func slugTaken(slug string, exceptID uint) (bool, error) {
	var count int64
	err := database.Database.Db.Model(&courseModels.Course{}).
		Where("slug = ? AND id <> ?", slug, exceptID).
		Count(&count).Error
	return count > 0, err
}

// AdminCreateCourse creates a new course owned by the caller
func AdminCreateCourse(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)

	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CourseInput)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	slug := reqData.Slug
	if slug == "" {
		slug = utils.Slugify(reqData.Title)
	}
	taken, err := slugTaken(slug, 0)
	if err != nil {
		Log.Error("slug check failed", "slug", slug, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}
	if taken {
		return middleware.ValidationErrorResponse(c, map[string]string{"slug": "Slug is already in use!"})
	}

	course := courseModels.Course{
		Title:            reqData.Title,
		Slug:             slug,
		Description:      reqData.Description,
		SmallDescription: reqData.SmallDescription,
		FileKey:          reqData.FileKey,
		Price:            reqData.Price,
		Duration:         reqData.Duration,
		Level:            reqData.Level,
		Category:         reqData.Category,
		Status:           reqData.Status,
		UserID:           actor.UserID,
	}
	if course.Level == "" {
		course.Level = "Beginner"
	}
	if course.Status == "" {
		course.Status = courseModels.StatusDraft
	}

	if err := database.Database.Db.Create(&course).Error; err != nil {
		Log.Error("course create failed", "actor_id", actor.UserID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	Log.Info("course created", "course_id", course.ID, "actor_id", actor.UserID)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

// AdminUpdateCourse replaces the editable fields of a course
func AdminUpdateCourse(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	courseID := c.Locals("courseID").(uint)

	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CourseInput)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var course courseModels.Course
	if err := database.Database.Db.First(&course, courseID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	if actor.Role != models.RoleAdmin && course.UserID != actor.UserID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not allowed to edit this course", nil)
	}

	if reqData.Slug != "" && reqData.Slug != course.Slug {
		taken, err := slugTaken(reqData.Slug, course.ID)
		if err != nil {
			Log.Error("slug check failed", "slug", reqData.Slug, "error", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
		}
		if taken {
			return middleware.ValidationErrorResponse(c, map[string]string{"slug": "Slug is already in use!"})
		}
		course.Slug = reqData.Slug
	}

	course.Title = reqData.Title
	course.Description = reqData.Description
	course.SmallDescription = reqData.SmallDescription
	course.FileKey = reqData.FileKey
	course.Price = reqData.Price
	course.Duration = reqData.Duration
	course.Category = reqData.Category
	if reqData.Level != "" {
		course.Level = reqData.Level
	}
	if reqData.Status != "" {
		course.Status = reqData.Status
	}

	if err := database.Database.Db.Omit("Chapters").Save(&course).Error; err != nil {
		Log.Error("course update failed", "course_id", course.ID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

// AdminDeleteCourse removes a course with its chapters, lessons and enrollments
func AdminDeleteCourse(c *fiber.Ctx) error {
	res := Structure.DeleteCourse(c.UserContext(), middleware.ActorFrom(c), c.Locals("courseID").(uint))
	return middleware.ResultResponse(c, res, fiber.StatusOK, nil)
}

// AdminGetAllCourses lists every course for admins and the caller's own
// courses for authors
func AdminGetAllCourses(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	reqData, ok := c.Locals("validatedList").(*courseValidator.ListQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db.Model(&courseModels.Course{})
	if actor.Role != models.RoleAdmin {
		db = db.Where("user_id = ?", actor.UserID)
	}
	if reqData.Search != "" {
		db = db.Where("title LIKE ?", "%"+reqData.Search+"%")
	}
	if reqData.Category != "" {
		db = db.Where("category = ?", reqData.Category)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	var courses []courseModels.Course
	if err := db.Offset(reqData.Offset()).Limit(reqData.Limit).Order("created_at desc").Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": courses,
		"total":   total,
		"page":    reqData.Page,
		"limit":   reqData.Limit,
	})
}

// AdminGetStructure returns a course with its ordered chapters and lessons
func AdminGetStructure(c *fiber.Ctx) error {
	course, res := Structure.Outline(c.UserContext(), middleware.ActorFrom(c), c.Locals("courseID").(uint))
	return middleware.ResultResponse(c, res, fiber.StatusOK, course)
}

// AdminGetStructureEvents returns the most recent structure changes of a course
func AdminGetStructureEvents(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	courseID := c.Locals("courseID").(uint)

	if res := Structure.Authorize(c.UserContext(), actor, courseID); !res.OK() {
		return middleware.ResultResponse(c, res, fiber.StatusOK, nil)
	}
	events, err := Structure.Events(c.UserContext(), courseID, c.QueryInt("limit", 50))
	if err != nil {
		Log.Error("structure events fetch failed", "course_id", courseID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch events!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Events fetched successfully!", events)
}
