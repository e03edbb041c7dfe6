package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"codequest/handlers"
	"codequest/middleware"
	"codequest/models"
	"codequest/services"
	"codequest/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 2 * 1024 * 1024, // 2MB — source code submissions only
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Problem{},
		&models.TestCase{},
		&models.Submission{},
		&models.ProblemSolution{},
		&models.Profile{},
		&models.LeaderboardGroup{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// Redis is optional; without it standings fall back to SQL on every read.
	var standingsCache *services.StandingsCache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("⚠️  Redis unreachable at %s, standings cache disabled: %v", redisAddr, err)
		} else {
			standingsCache = services.NewStandingsCache(rdb)
			log.Printf("✅ Redis connected at %s", redisAddr)
		}
	} else {
		log.Println("⚠️  REDIS_ADDR not set, standings cache disabled")
	}

	store := services.NewGormGradingStore(db)
	judgeClient := services.NewJudgeClient()
	scoringService := services.NewScoringService(services.DefaultRewardTable())
	leaderboardService := services.NewLeaderboardService(db, standingsCache)
	gradingService := services.NewGradingService(store, judgeClient, scoringService, leaderboardService, os.Getenv("JUDGE_MODE"))
	problemService := services.NewProblemService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	judgeMonitor := workers.NewJudgeMonitor()
	go workers.PollJudge(ctx, judgeMonitor, 30*time.Second)

	leaderboardService.StartStandingsScheduler()

	// ✅ Setup routes — enforced Gateway auth + consistent /s/ prefix
	handlers.SetupProblemRoutes(app, problemService)
	handlers.SetupSubmissionRoutes(app, gradingService, db)
	handlers.SetupLeaderboardRoutes(app, leaderboardService, db)

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{
			"status":        "ok",
			"judge_healthy": judgeMonitor.Healthy(),
		}
		if lastErr := judgeMonitor.LastError(); lastErr != "" {
			status["judge_error"] = lastErr
		}
		return c.JSON(status)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Judge health polling running (every 30s)")
	log.Println("✅ Standings rebuild scheduler running (every 5m)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
