package controllers

import (
	"coursehub/database"
	"coursehub/middleware"
	courseModels "coursehub/models/course"
	"coursehub/services/structure"
	courseValidator "coursehub/validators/course"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetCourses lists published courses
func GetCourses(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedList").(*courseValidator.ListQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db.Model(&courseModels.Course{}).Where("status = ?", courseModels.StatusPublished)
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

// GetCourseBySlug returns a published course with its chapters and lessons in order
func GetCourseBySlug(c *fiber.Ctx) error {
	slug, _ := c.Locals("slug").(string)

	var course courseModels.Course
	err := structure.PreloadOrdered(database.Database.Db).
		Where("slug = ? AND status = ?", slug, courseModels.StatusPublished).
		First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	if err != nil {
		Log.Error("course fetch failed", "slug", slug, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", course)
}
