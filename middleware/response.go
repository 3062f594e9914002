package middleware

import (
	"coursehub/ordering"

	"github.com/gofiber/fiber/v2"
)

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed!", errors)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind ordering.Kind) int {
	switch kind {
	case ordering.KindValidation:
		return fiber.StatusUnprocessableEntity
	case ordering.KindAuthorization:
		return fiber.StatusForbidden
	case ordering.KindNotFound:
		return fiber.StatusNotFound
	case ordering.KindCrossParent:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// ResultResponse writes a service result; data is sent only on success.
func ResultResponse(c *fiber.Ctx, res ordering.Result, successCode int, data interface{}) error {
	if res.OK() {
		return JsonResponse(c, successCode, true, res.Message, data)
	}
	return JsonResponse(c, StatusFor(res.Kind), false, res.Message, nil)
}
