package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whatsapp-gateway/internal/api"
	"whatsapp-gateway/internal/audit"
	"whatsapp-gateway/internal/auth"
	"whatsapp-gateway/internal/automation"
	"whatsapp-gateway/internal/config"
	"whatsapp-gateway/internal/contacts"
	"whatsapp-gateway/internal/conversation"
	"whatsapp-gateway/internal/database"
	"whatsapp-gateway/internal/outbound"
	"whatsapp-gateway/internal/status"
	"whatsapp-gateway/internal/store"
	"whatsapp-gateway/internal/webhook"
	"whatsapp-gateway/internal/whatsapp"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	for _, warning := range startupWarnings(cfg) {
		log.Println("Warning: " + warning)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	repos := store.New(db)

	auditLog := audit.New(repos.Logs, cfg.WebhookLogMaxBytes)
	directory := contacts.NewDirectory(repos.Contacts)
	conversations := conversation.NewStore(repos.Messages, directory)

	whatsappClient := whatsapp.NewClient(cfg)
	sender := outbound.NewService(whatsappClient, conversations, auditLog, cfg.SendTimeout)
	flow := whatsapp.Flow{
		ID:     cfg.FlowID,
		Token:  cfg.FlowToken,
		CTA:    cfg.FlowCTA,
		Action: cfg.FlowAction,
		Screen: cfg.FlowScreen,
	}

	dispatcher := automation.NewDispatcher(sender, flow)
	tracker := status.NewTracker(repos.Statuses, repos.Messages, auditLog)
	pipeline := webhook.NewPipeline(conversations, tracker, dispatcher, auditLog, cfg.TenantForPhoneNumber)
	webhookHandler := webhook.NewHandler(webhook.HandlerConfig{
		VerifyToken:     cfg.VerifyToken,
		AppSecret:       cfg.AppSecret,
		ValidateUpdates: cfg.ValidateUpdates,
	}, pipeline, auditLog)

	// statuses for messages sent from PHONE_NUMBER_ID land in this tenant
	statusTenant := cfg.TenantForPhoneNumber(cfg.PhoneNumberID)

	sessions := auth.NewSessions(repos.Sessions, cfg.SessionTTL)
	resolver := auth.NewResolver(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.RequiredModule, sessions)

	r := gin.Default()

	// CORS Middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Webhook Routes
	r.GET("/webhook", webhookHandler.VerifyWebhook)
	r.POST("/webhook", webhookHandler.HandleMessage)

	api.RegisterRoutes(r, api.Handlers{
		Auth:          api.NewAuthHandler(sessions, cfg.SessionCookie),
		Conversations: api.NewConversationHandler(conversations),
		Contacts:      api.NewContactHandler(directory),
		Groups:        api.NewGroupHandler(contacts.NewGroups(repos.Groups)),
		Send:          api.NewSendHandler(sender, flow, statusTenant),
		Dashboard:     api.NewDashboardHandler(conversations, tracker, auditLog, repos.Stats),
	}, resolver, cfg.SessionCookie)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	// let in-flight replies finish before the process exits
	pipeline.Wait()
	log.Println("Server stopped")
}

// startupWarnings lists settings that start the server in a degraded mode.
func startupWarnings(cfg *config.Config) []string {
	var warnings []string
	if !cfg.FlowConfigured() {
		warnings = append(warnings, "FLOW_ID not set, /flow is disabled")
	}
	if cfg.ValidateUpdates && cfg.AppSecret == "" {
		warnings = append(warnings, "VALIDATE_UPDATES is on but APP_SECRET is empty, webhook signatures are not checked")
	}
	if _, mapped := cfg.TenantPhoneNumbers[cfg.PhoneNumberID]; !mapped {
		warnings = append(warnings, fmt.Sprintf("PHONE_NUMBER_ID is not in TENANT_PHONE_NUMBERS, delivery statuses go to tenant %q",
			cfg.TenantForPhoneNumber(cfg.PhoneNumberID)))
	}
	return warnings
}
