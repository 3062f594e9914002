package courseValidator

import (
	"coursehub/middleware"
	"coursehub/ordering"
	"coursehub/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type ChapterInput struct {
	Title string `json:"title" validate:"required,min=3,max=200"`
}

type LessonInput struct {
	Title        string `json:"title" validate:"required,min=3,max=200"`
	Description  string `json:"description" validate:"max=5000"`
	ThumbnailKey string `json:"thumbnail_key" validate:"max=255"`
	VideoKey     string `json:"video_key" validate:"max=255"`
}

// ReorderRequest carries the positions to apply to one sibling list.
type ReorderRequest struct {
	Items []ordering.Assignment `json:"items" validate:"required,min=1,dive"`
}

// MoveRequest asks the server to plan a move of source onto target.
type MoveRequest struct {
	SourceID uint `json:"source_id" validate:"required"`
	TargetID uint `json:"target_id" validate:"required"`
}

// body parses and validates the request body into reqData and stores it under
// key.
func body(key string, reqData interface{}, normalize func()) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if normalize != nil {
			normalize()
		}
		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals(key, reqData)
		return c.Next()
	}
}

// Chapter validates a chapter create or rename body
func Chapter() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ChapterInput)
		return body("validatedChapter", reqData, func() {
			reqData.Title = strings.TrimSpace(reqData.Title)
		})(c)
	}
}

// Lesson validates a lesson create or update body
func Lesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LessonInput)
		return body("validatedLesson", reqData, func() {
			reqData.Title = strings.TrimSpace(reqData.Title)
			reqData.Description = strings.TrimSpace(reqData.Description)
		})(c)
	}
}

// Reorder validates a list of {id, position} assignments
func Reorder() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return body("validatedReorder", new(ReorderRequest), nil)(c)
	}
}

// Move validates a server-planned move body
func Move() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return body("validatedMove", new(MoveRequest), nil)(c)
	}
}
