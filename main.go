// @title           Billet Production API
// @version         1.0
// @description     Billet production tracking backend - spreadsheet-driven dashboard for a steel billet line.

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https
package main

import (
	_ "billetdash/docs"
	"billetdash/handlers"
	"billetdash/models"
	"billetdash/services"
	"billetdash/storage"
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:5173",
		"http://localhost:3000",
		"http://localhost:8080",
	}
	if extra := os.Getenv("CORS_ORIGIN"); extra != "" {
		corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, extra)
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding",
		"Accept", "Origin", "X-Requested-With", "Authorization", "User-Agent",
		"Cache-Control", "Referer",
		"Access-Control-Request-Method", "Access-Control-Request-Headers",
	}
	corsConfig.AllowMethods = []string{
		"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length", "Authorization", "Content-Type", "Content-Disposition",
	}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

// warmSnapshot fetches the workbook once and records how the
// materialization went. Runs on a schedule so data-quality drift shows
// up in the refresh log before an operator hits it.
func warmSnapshot(svc *services.SheetsService, cfg models.SheetConfig, gdb *gorm.DB, cronLogger *log.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	prodRows, err := svc.FetchTable(ctx, cfg.Production.Sheet)
	if err != nil {
		return err
	}
	labRows, err := svc.FetchTable(ctx, cfg.LabTesting.Sheet)
	if err != nil {
		return err
	}

	labs, _ := services.ExtractLabTests(labRows, cfg.LabTesting)
	view := services.MaterializeProduction(prodRows, cfg.Production, labs)

	entry := &models.RefreshLog{
		Sheet:        cfg.Production.Sheet,
		RowCount:     view.Metrics.RecordCount,
		PendingCount: len(view.PendingRecords),
		HistoryCount: len(view.HistoryRecords),
		ErrorCount:   len(view.Errors),
		TriggeredBy:  "cron",
	}
	if err := storage.AddRefreshLog(gdb, entry); err != nil {
		cronLogger.Printf("Failed to record refresh log: %v", err)
	}
	cronLogger.Printf("Snapshot warm: %d rows, %d pending, %d history, %d errors",
		entry.RowCount, entry.PendingCount, entry.HistoryCount, entry.ErrorCount)
	return nil
}

func setupRoutes(router *gin.Engine, db *sql.DB, gdb *gorm.DB, svc *services.SheetsService, cfg models.SheetConfig) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Billet production API"})
	})

	router.POST("/api/login", handlers.LoginHandler(db, svc, cfg))
	router.POST("/api/refresh-token", handlers.RefreshTokenHandler(db, svc, cfg))
	router.POST("/api/validate-session", handlers.ValidateSession(db))

	api := router.Group("/api")
	api.Use(handlers.AuthMiddleware(db))
	{
		api.POST("/logout", handlers.LogoutHandler(db))
		api.POST("/logout-device", handlers.LogoutDeviceHandler(db))
		api.GET("/active-devices", handlers.GetActiveDevicesHandler(db))

		api.GET("/dashboard", handlers.GetDashboardHandler(svc, cfg))
		api.GET("/refresh-logs", handlers.GetRefreshLogsHandler(gdb))
		api.GET("/activity", handlers.GetActivityLogHandler(db))

		api.GET("/production", handlers.GetProductionViewHandler(svc, cfg))
		api.POST("/production", handlers.CreateProductionHandler(db, svc, cfg))
		api.GET("/production/:row/qr", handlers.GenerateJobCardQR(svc, cfg))

		api.GET("/receiving/pending", handlers.GetReceivingPendingHandler(svc, cfg))
		api.GET("/receiving/history", handlers.GetReceivingHistoryHandler(svc, cfg))
		api.POST("/receiving", handlers.CreateReceivingHandler(db, svc, cfg))

		api.GET("/lab-tests/pending", handlers.GetLabTestPendingHandler(svc, cfg))
		api.GET("/lab-tests/history", handlers.GetLabTestHistoryHandler(svc, cfg))
		api.POST("/lab-tests", handlers.CreateLabTestHandler(db, svc, cfg))

		api.GET("/export/production.csv", handlers.ExportProductionCSV(svc, cfg))
		api.GET("/export/production.xlsx", handlers.ExportProductionXLSX(svc, cfg))
		api.GET("/export/receiving.csv", handlers.ExportReceivingCSV(svc, cfg))
		api.GET("/export/production.pdf", handlers.GenerateProductionReportPDF(svc, cfg))
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db := storage.InitDB()
	defer db.Close()
	gormDB := storage.InitGormDB()

	sheetCfg, err := models.LoadSheetConfig(os.Getenv("SHEET_CONFIG_PATH"))
	if err != nil {
		log.Println("Sheet config override failed, using defaults:", err)
	}

	sheetsService, err := services.NewSheetsService(
		os.Getenv("SHEET_ID"),
		os.Getenv("APPS_SCRIPT_URL"),
		os.Getenv("GOOGLE_CREDENTIALS_PATH"),
	)
	if err != nil {
		log.Fatal("Failed to initialize sheets service:", err)
	}

	router := gin.Default()
	router.Use(cors.New(CORSConfig()))
	setupRoutes(router, db, gormDB, sheetsService, sheetCfg)

	// Cron jobs log to their own file so the request log stays readable.
	cronLogFile, err := os.OpenFile("cron.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal("Failed to open cron log file:", err)
	}
	defer cronLogFile.Close()
	cronLogger := log.New(cronLogFile, "CRON: ", log.LstdFlags)

	c := cron.New()

	var cleanupRunning int32
	if _, err := c.AddFunc("@hourly", func() {
		if !atomic.CompareAndSwapInt32(&cleanupRunning, 0, 1) {
			cronLogger.Println("Session cleanup still running, skipping")
			return
		}
		defer atomic.StoreInt32(&cleanupRunning, 0)
		if err := storage.CleanupExpiredSessions(db); err != nil {
			cronLogger.Printf("Session cleanup failed: %v", err)
		}
	}); err != nil {
		log.Fatal("Failed to schedule session cleanup:", err)
	}

	var warmRunning int32
	if _, err := c.AddFunc("*/15 * * * *", func() {
		if !atomic.CompareAndSwapInt32(&warmRunning, 0, 1) {
			cronLogger.Println("Snapshot warm still running, skipping")
			return
		}
		defer atomic.StoreInt32(&warmRunning, 0)
		if err := warmSnapshot(sheetsService, sheetCfg, gormDB, cronLogger); err != nil {
			cronLogger.Printf("Snapshot warm failed: %v", err)
		}
	}); err != nil {
		log.Fatal("Failed to schedule snapshot warm:", err)
	}

	c.Start()
	defer c.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Println("Server listening on port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
