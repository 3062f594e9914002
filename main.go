package main

import (
	"coursehub/config"
	authControllers "coursehub/controllers/auth"
	courseControllers "coursehub/controllers/course"
	"coursehub/database"
	appLogger "coursehub/logger"
	"coursehub/middleware"
	authRoutes "coursehub/routers/authRoutes"
	courseRoutes "coursehub/routers/courseRoutes"
	"coursehub/services/structure"
	"coursehub/utils"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	appLog, err := appLogger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	database.ConnectDb()

	var limits courseRoutes.Limits
	var otpLimiter middleware.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		limits.Course = middleware.NewRedisLimiter(rdb, "ratelimit", cfg.RateLimitMax, cfg.RateLimitWindow)
		limits.Structure = middleware.NewRedisLimiter(rdb, "ratelimit", cfg.StructureRateLimitMax, cfg.RateLimitWindow)
		otpLimiter = limits.Course
	} else {
		appLog.Warn("REDIS_ADDR not set, rate limits are kept in process memory")
		limits.Course = middleware.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
		limits.Structure = middleware.NewMemoryLimiter(cfg.StructureRateLimitMax, cfg.RateLimitWindow)
		otpLimiter = middleware.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	}

	svc := structure.NewService(database.Database.Db, appLog)
	courseControllers.Init(svc, appLog)
	authControllers.Log = appLog.With("controller", "auth")
	utils.InitMailer(cfg, appLog)

	scheduler, err := utils.InitializeSchedulers(cfg, database.Database.Db, svc, appLog)
	if err != nil {
		appLog.Fatal("failed to start schedulers", "error", err)
	}
	defer scheduler.Stop()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app, otpLimiter, appLog)
	courseRoutes.SetupCourseRoutes(app)
	courseRoutes.SetupAdminCourseRoutes(app, limits, appLog)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		appLog.Info("shutting down")
		_ = app.Shutdown()
	}()

	appLog.Info("server is running", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		appLog.Error("server stopped", "error", err)
	}
}
