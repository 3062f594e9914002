package authRoutes

import (
	authControllers "coursehub/controllers/auth"
	"coursehub/logger"
	"coursehub/middleware"
	authValidators "coursehub/validators/auth"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes sets up the OTP sign-in routes. limiter guards code
// requests and code checks per client.
func SetupAuthRoutes(app *fiber.App, limiter middleware.Limiter, log *logger.Logger) {
	authGroup := app.Group("/auth")

	authGroup.Post("/otp/send", middleware.RateLimit(limiter, "otp", log), authValidators.SendOTP(), authControllers.SendOTP)
	authGroup.Post("/otp/verify", middleware.RateLimit(limiter, "otp_verify", log), authValidators.VerifyOTP(), authControllers.VerifyOTP)
	authGroup.Get("/me", middleware.JWTMiddleware, authControllers.Me)
}
