package middleware

import (
	"coursehub/database"
	"coursehub/models"
	"coursehub/services/structure"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireRole returns a middleware that loads the signed-in user and checks
// that their stored role is one of roles. The stored role replaces the one in
// the token, so demotions apply immediately.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
		}

		var user models.User
		err := database.Database.Db.First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		}
		if err != nil {
			return JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while checking permissions!", nil)
		}
		if user.IsBanned {
			return JsonResponse(c, fiber.StatusForbidden, false, "Your account has been suspended!", nil)
		}
		if !allowed[user.Role] {
			return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
		}

		c.Locals("user", &user)
		c.Locals("actor", structure.Actor{UserID: user.ID, Role: user.Role})
		return c.Next()
	}
}

// RequireAuthor allows admins and course authors.
func RequireAuthor() fiber.Handler {
	return RequireRole(models.RoleAdmin, models.RoleAuthor)
}

// RequireAdmin allows admins only.
func RequireAdmin() fiber.Handler {
	return RequireRole(models.RoleAdmin)
}
