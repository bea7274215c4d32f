package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"student_console/internal/api"
	"student_console/internal/config"
	"student_console/internal/handler"
	"student_console/internal/middleware"
	"student_console/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	// --- Configuration ---
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	// --- Session Manager ---
	newClient := func(opts ...api.Option) *api.Client {
		return api.New(cfg.APIBaseURL, opts...)
	}
	sessions := session.NewManager([]byte(cfg.SessionSecret), cfg.SessionName, cfg.SessionMaxAge, newClient)

	// --- Initialize Handlers ---
	authHandler := handler.NewAuthHandler(sessions)
	dashboardHandler := handler.NewDashboardHandler(sessions)

	// --- Setup Gin Router ---
	router := gin.Default()
	router.LoadHTMLGlob("internal/templates/*.html")
	router.Static("/static", "static")

	// --- Initialize Middlewares ---
	authMW := middleware.RequireAuth(sessions)
	adminMW := middleware.AdminOnly()

	// --- Register Routes ---
	authHandler.RegisterAuthRoutes(router)
	dashboardHandler.RegisterDashboardRoutes(router, authMW, adminMW)

	// --- Start Server ---
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Console starting on port %s (records API at %s)", cfg.ServerPort, cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
