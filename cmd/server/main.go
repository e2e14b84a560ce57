// Server runs the Serviços Já API: auth, admin, and health over HTTP.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminhandler "servicos-ja/backend/internal/admin/handler"
	"servicos-ja/backend/internal/audit"
	auditrepo "servicos-ja/backend/internal/audit/repository"
	authhandler "servicos-ja/backend/internal/auth/handler"
	authservice "servicos-ja/backend/internal/auth/service"
	"servicos-ja/backend/internal/cache"
	"servicos-ja/backend/internal/config"
	"servicos-ja/backend/internal/db"
	healthhandler "servicos-ja/backend/internal/health/handler"
	"servicos-ja/backend/internal/ratelimit"
	refreshrepo "servicos-ja/backend/internal/refreshtoken/repository"
	"servicos-ja/backend/internal/security"
	"servicos-ja/backend/internal/server"
	"servicos-ja/backend/internal/telemetry"
	telemetryotel "servicos-ja/backend/internal/telemetry/otel"
	"servicos-ja/backend/internal/telemetry/producer"
	userrepo "servicos-ja/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, "servicos-ja-api", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	var store cache.Cache
	if cfg.RedisAddr != "" {
		store = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		log.Printf("cache: redis at %s", cfg.RedisAddr)
	} else {
		store = cache.NewMemory()
		log.Print("cache: in-process memory (REDIS_ADDR not set)")
	}

	var emitter telemetry.EventEmitter
	if brokers := cfg.EventKafkaBrokersList(); len(brokers) > 0 {
		kp, err := producer.NewKafkaProducer(brokers, cfg.EventKafkaTopic)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		defer kp.Close()
		emitter = kp
		log.Printf("events: kafka topic %s", cfg.EventKafkaTopic)
	} else {
		emitter = telemetryotel.NewEventEmitter(providers.LoggerProvider)
	}

	users := userrepo.NewPostgresRepository(database)
	refreshTokens := refreshrepo.NewPostgresRepository(database)
	activityLogs := auditrepo.NewPostgresRepository(database)

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTTL(), cfg.RefreshTTL())
	auditLogger := audit.NewLogger(activityLogs, nil)
	limiter := ratelimit.New(store)

	auth := authservice.NewAuthService(
		users, refreshTokens, store, hasher, tokens, auditLogger, emitter,
		cfg.UserTTL(), cfg.SessionTTL(), cfg.RotationRevokesAll,
	)

	router := server.NewRouter(server.RouterDeps{
		Auth:     authhandler.New(auth),
		Admin:    adminhandler.New(users, auth),
		Health:   healthhandler.New(database, store),
		Verifier: auth,
		Limiter:  limiter,
		Policies: cfg.RatePolicies(),
		Events:   emitter,
	})
	srv := server.New(cfg.HTTPAddr, router)

	go func() {
		log.Printf("http server listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down http server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Give in-flight async event emits time to finish before the providers go away.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("http server stopped")
}
