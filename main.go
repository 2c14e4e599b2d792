package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"

	"github.com/Samartha120/Vechile-Damage-Detection/analyzer"
	"github.com/Samartha120/Vechile-Damage-Detection/batch"
	"github.com/Samartha120/Vechile-Damage-Detection/config"
	"github.com/Samartha120/Vechile-Damage-Detection/frames"
	"github.com/Samartha120/Vechile-Damage-Detection/handlers"
	"github.com/Samartha120/Vechile-Damage-Detection/media"
)

func main() {
	cfg := config.Load()

	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: "15:04:05",
		}),
	)

	store := media.NewStore()
	client := analyzer.NewClient(cfg.AnalyzeURL)
	orchestrator := batch.NewOrchestrator(client, logger)
	grabber := frames.NewFFmpegGrabber(cfg.FFmpegBin, cfg.FFprobeBin)
	extractor := frames.NewExtractor(grabber, cfg.MaxVideoFrames, logger)

	api := handlers.New(store, orchestrator, extractor, cfg.UploadDir, logger)

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.MaxMultipartMemory = 50 << 20

	group := router.Group("/api")
	{
		group.POST("/media", api.UploadMedia)
		group.POST("/analyze", api.Analyze)
		group.GET("/progress", api.Progress)
		group.GET("/report", api.Report)
		group.POST("/export", api.Export)
	}

	router.Static("/static", "./static")

	// Serve frontend
	router.GET("/", func(c *gin.Context) {
		c.File("./static/index.html")
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Vehicle Damage Detection API",
		})
	})

	addr := ":" + cfg.Port
	logger.Info("server starting", "addr", addr)
	if err := router.Run(addr); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
