package utils

import (
	"context"
	"coursehub/config"
	"coursehub/logger"
	"coursehub/models"
	"coursehub/services/structure"
	"time"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// PurgeOTPs hard-deletes codes that were used or expired before cutoff.
func PurgeOTPs(db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.Unscoped().
		Where("is_used = ? OR expires_at < ?", true, cutoff).
		Delete(&models.OTP{})
	return res.RowsAffected, res.Error
}

// InitializeSchedulers registers the OTP purge and the structure repair sweep
// and starts the cron. Stop the returned cron on shutdown.
func InitializeSchedulers(cfg *config.Config, db *gorm.DB, svc *structure.Service, log *logger.Logger) (*cron.Cron, error) {
	log = log.With("component", "scheduler")
	c := cron.New()

	_, err := c.AddFunc(cfg.OTPPurgeSchedule, func() {
		n, err := PurgeOTPs(db, now.BeginningOfHour())
		if err != nil {
			log.Error("otp purge failed", "error", err)
			return
		}
		log.Debug("otp purge done", "deleted", n)
	})
	if err != nil {
		return nil, err
	}

	_, err = c.AddFunc(cfg.RepairSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		n, err := svc.RepairAll(ctx)
		if err != nil {
			log.Error("structure repair sweep failed", "error", err)
			return
		}
		log.Info("structure repair sweep done", "lists_repaired", n)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Info("schedulers started", "otp_purge", cfg.OTPPurgeSchedule, "repair", cfg.RepairSchedule)
	return c, nil
}
