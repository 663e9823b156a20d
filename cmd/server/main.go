package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/coachware/fitness-coaching-backend/internal/config"
	"github.com/coachware/fitness-coaching-backend/internal/database"
	"github.com/coachware/fitness-coaching-backend/internal/handler"
	"github.com/coachware/fitness-coaching-backend/internal/repository"
	"github.com/coachware/fitness-coaching-backend/internal/router"
	"github.com/coachware/fitness-coaching-backend/internal/service"
)

func main() {
	// .env is optional; in containers the environment comes from the runtime.
	_ = godotenv.Load()

	cfg := config.Load()
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName,
		cfg.DBMaxConns, cfg.DBConnLifeMin)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if os.Getenv("MIGRATE_ON_BOOT") != "false" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.Migrate(ctx, db); err != nil {
			cancel()
			log.Fatalf("migrate: %v", err)
		}
		cancel()
	}

	// Redis backs rate limiting and the coach-list cache; both fail open
	// when it is unreachable, so a nil client is tolerated.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	sessions := repository.NewSessionRepo(db)
	clients := repository.NewClientRepo(db)
	coaches := repository.NewCoachRepo(db)
	kids := repository.NewKidRepo(db)
	calendars := repository.NewCalendarRepo(db)

	h := router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, tokens),
		Sessions: handler.NewSessionHandler(sessions, clients, coaches),
		Clients:  handler.NewClientHandler(clients, coaches),
		Coaches:  handler.NewCoachHandler(coaches),
		Kids:     handler.NewKidHandler(kids),
		Calendar: handler.NewCalendarHandler(calendars),
		Team:     handler.NewTeamHandler(users, clients, coaches),
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, db, rdb)
	router.RegisterAuth(e, h.Auth, config.LoadRateLimitConfig(), rdb)
	router.RegisterAPI(e, h, cfg.JWTSecret, config.LoadCacheConfig(), rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background workers: expired refresh-token cleanup and the KPI
	// consumer that recomputes coach aggregates from session events.
	go service.StartTokenSweeper(ctx, tokens, time.Hour)
	kpi := &service.KPIConsumer{Sessions: sessions, Coaches: coaches}
	go kpi.Start()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
