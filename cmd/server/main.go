package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"familytree/internal/auth"
	"familytree/internal/config"
	"familytree/internal/database"
	"familytree/internal/handlers"
	"familytree/internal/security"
	"familytree/internal/service"
)

func main() {
	cfg := config.Load()

	handlers.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	handlers.CompleteStep(handlers.StepDatabase)

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	handlers.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	handlers.CompleteStep(handlers.StepMigrations)

	log.Println("Migrations completed successfully")

	handlers.SetCurrentStep(handlers.StepServices)
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	if err != nil {
		log.Fatalf("Failed to initialize token verification: %v", err)
	}

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.EmailDebug)
	if err != nil {
		log.Printf("Warning: Failed to initialize email service: %v", err)
		emailService, _ = service.NewEmailService(cfg.AWSRegion, "", cfg.SESFromName, cfg.EmailDebug)
	}

	treeService := service.NewTreeService(db)
	memberService := service.NewMemberService(db)
	relationshipService := service.NewRelationshipService(db)
	inviteService := service.NewInviteService(db, cfg.InviteBaseURL, emailService)

	limiter := security.NewRateLimiter(cfg.InviteRateLimit, cfg.InviteRateBurst, time.Hour)
	done := make(chan struct{})
	go limiter.Run(10*time.Minute, done)

	router := handlers.NewRouter(handlers.Handlers{
		Middleware:    handlers.NewMiddleware(tokens, limiter),
		Trees:         handlers.NewTreeHandler(treeService, memberService, relationshipService),
		Members:       handlers.NewMemberHandler(memberService),
		Relationships: handlers.NewRelationshipHandler(relationshipService),
		Invites:       handlers.NewInviteHandler(inviteService),
	})
	handlers.CompleteStep(handlers.StepServices)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      http.TimeoutHandler(router, cfg.RequestTimeout, handlers.ErrInternalServerError),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		handlers.CompleteStep(handlers.StepServer)
		handlers.MarkReady()
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
