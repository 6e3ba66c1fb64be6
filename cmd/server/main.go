package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/puntosmx/loyalty-server/internal/api"
	"github.com/puntosmx/loyalty-server/internal/config"
	"github.com/puntosmx/loyalty-server/internal/repository"
	"github.com/puntosmx/loyalty-server/internal/service"
	"github.com/puntosmx/loyalty-server/internal/utils"
	"go.uber.org/zap"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	flushLogs, err := utils.SetupLogger()
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	defer flushLogs()

	// Load configuration
	cfg := config.LoadConfig()

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		zap.L().Fatal("failed to set up database", zap.Error(err))
	}
	defer db.Close()

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Create service
	svc := service.NewDefaultService(repo, cfg.Ledger)

	// Create API handler
	handler := api.NewHandler(svc)

	// Set up Gin router
	router := gin.New()
	router.Use(api.RequestLogger(), gin.Recovery())

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	zap.L().Info("starting server", zap.String("addr", serverAddr))
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		zap.L().Fatal("server stopped", zap.Error(err))
	}
}
