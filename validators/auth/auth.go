package authValidator

import (
	"coursehub/middleware"
	"coursehub/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=191"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=191"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// SendOTP validator middleware
func SendOTP() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SendOTPRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("validatedUser", reqData)
		return c.Next()
	}
}

// VerifyOTP validates OTP request data
func VerifyOTP() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(VerifyOTPRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))
		reqData.Code = strings.TrimSpace(reqData.Code)

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("validatedOTP", reqData)
		return c.Next()
	}
}
