package authController

import (
	"coursehub/config"
	"coursehub/database"
	"coursehub/logger"
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/utils"
	authValidator "coursehub/validators/auth"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Log is set by the router setup.
var Log = logger.Nop()

var errOTPRejected = errors.New("otp rejected")

func bcryptCost() int {
	cost := config.AppConfig.SaltRound
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}

// SendOTP emails a fresh 6-digit code. Earlier unused codes for the address
// stop working.
func SendOTP(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*authValidator.SendOTPRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var user models.User
	err := database.Database.Db.Where("email = ?", reqData.Email).First(&user).Error
	if err == nil && user.IsBanned {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Your account has been suspended!", nil)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		Log.Error("otp user lookup failed", "email", reqData.Email, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to send OTP!", nil)
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		Log.Error("otp generation failed", "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to send OTP!", nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcryptCost())
	if err != nil {
		Log.Error("otp hashing failed", "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to send OTP!", nil)
	}

	ttl := config.AppConfig.OTPTTL
	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OTP{}).
			Where("email = ? AND is_used = ?", reqData.Email, false).
			Update("is_used", true).Error; err != nil {
			return err
		}
		return tx.Create(&models.OTP{
			Email:     reqData.Email,
			CodeHash:  string(hash),
			ExpiresAt: time.Now().Add(ttl),
		}).Error
	})
	if err != nil {
		Log.Error("otp save failed", "email", reqData.Email, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to Create OTP!", nil)
	}

	if err := utils.SendOTPEmail(reqData.Email, code, int(ttl/time.Minute)); err != nil {
		Log.Error("otp email failed", "email", reqData.Email, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to send OTP to email!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP sent successfully.", nil)
}

// VerifyOTP exchanges a valid code for a session token, creating the account
// on first sign-in.
func VerifyOTP(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedOTP").(*authValidator.VerifyOTPRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var user models.User
	status, message := fiber.StatusOK, ""
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		var otp models.OTP
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("email = ? AND is_used = ?", reqData.Email, false).
			Order("id desc").
			First(&otp).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status, message = fiber.StatusUnauthorized, "Invalid OTP or OTP expired!"
			return errOTPRejected
		}
		if err != nil {
			return err
		}

		maxAttempts := config.AppConfig.OTPMaxAttempts
		switch {
		case otp.ExpiresAt.Before(time.Now()):
			status, message = fiber.StatusUnauthorized, "OTP has expired!"
			return tx.Model(&otp).Update("is_used", true).Error
		case otp.Attempts >= maxAttempts:
			status, message = fiber.StatusTooManyRequests, "Too many attempts, request a new OTP!"
			return tx.Model(&otp).Update("is_used", true).Error
		case bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(reqData.Code)) != nil:
			status, message = fiber.StatusUnauthorized, "Invalid OTP!"
			// incremented in SQL against the stored count; the attempt must
			// persist, so commit and report separately
			return tx.Model(&models.OTP{}).
				Where("id = ? AND attempts < ?", otp.ID, maxAttempts).
				Updates(map[string]interface{}{
					"attempts": gorm.Expr("attempts + 1"),
					"is_used":  gorm.Expr("attempts + 1 >= ?", maxAttempts),
				}).Error
		}

		redeemed := tx.Model(&models.OTP{}).
			Where("id = ? AND is_used = ?", otp.ID, false).
			Update("is_used", true)
		if redeemed.Error != nil {
			return redeemed.Error
		}
		if redeemed.RowsAffected == 0 {
			status, message = fiber.StatusUnauthorized, "Invalid OTP or OTP expired!"
			return nil
		}

		err = tx.Where("email = ?", reqData.Email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				Email: reqData.Email,
				Name:  strings.SplitN(reqData.Email, "@", 2)[0],
				Role:  models.RoleUser,
			}
			err = tx.Create(&user).Error
		}
		if err != nil {
			return err
		}
		if user.IsBanned {
			status, message = fiber.StatusForbidden, "Your account has been suspended!"
			return nil
		}

		now := time.Now()
		user.IsEmailVerified = true
		user.LastLogin = &now
		if err := tx.Model(&user).Select("is_email_verified", "last_login").Updates(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.LoginTracking{
			UserID:    user.ID,
			IPAddress: c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
			Timestamp: now,
		}).Error
	})
	if errors.Is(err, errOTPRejected) {
		return middleware.JsonResponse(c, status, false, message, nil)
	}
	if err != nil {
		Log.Error("otp verification failed", "email", reqData.Email, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to verify OTP!", nil)
	}
	if status != fiber.StatusOK {
		return middleware.JsonResponse(c, status, false, message, nil)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Role, user.Email)
	if err != nil {
		Log.Error("token signing failed", "user_id", user.ID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token!", nil)
	}

	Log.Info("user signed in", "user_id", user.ID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP verified successfully!", fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Me returns the signed-in user
func Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.First(&user, userID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User fetched successfully!", user)
}
