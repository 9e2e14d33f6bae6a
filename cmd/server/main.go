package main // Entry point package

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/identity-service/internal/auth"
	"github.com/iliyamo/identity-service/internal/config"
	"github.com/iliyamo/identity-service/internal/database"
	"github.com/iliyamo/identity-service/internal/handler"
	"github.com/iliyamo/identity-service/internal/queue"
	"github.com/iliyamo/identity-service/internal/repository"
	"github.com/iliyamo/identity-service/internal/router"
)

func main() {
	// Load .env during local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	keys, err := auth.LoadKeys(cfg.PrivateKeyFile, cfg.PublicKeyDir)
	if err != nil {
		log.Fatalf("keys: %v", err)
	}

	users := repository.NewUserRepo(db)
	tenants := repository.NewTenantRepo(db)
	tokens := repository.NewTokenRepo(db)

	tokenSvc := auth.NewTokenService(keys, tokens, users, cfg.Issuer,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour)

	h := router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, users, tokenSvc),
		Users:   handler.NewUserHandler(cfg, users),
		Tenants: handler.NewTenantHandler(tenants),
		JWKS:    handler.NewJWKSHandler(keys),
		Tokens:  tokenSvc,
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h, config.LoadRateLimitConfig(), config.NewRedisClient())

	// Optional audit trail: consume identity events into logs/audit.log.
	if strings.EqualFold(os.Getenv("AUDIT_CONSUMER_ENABLED"), "true") {
		go func() {
			if err := queue.StartAuditConsumer(); err != nil {
				log.Printf("audit consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
