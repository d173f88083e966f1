package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"billetdash/models"
	"billetdash/services"
	"billetdash/storage"
	"billetdash/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// defaultSeriesDays is the window of the dashboard conversion chart.
const defaultSeriesDays = 30

// dashboardSnapshot is the full set of numbers the dashboard page
// renders in one request.
type dashboardSnapshot struct {
	Metrics models.AggregateMetrics  `json:"metrics"`
	Series  []models.DailyProduction `json:"series"`
	Errors  []models.ErrorEntry      `json:"errors,omitempty"`
}

// buildDashboard runs the three-sheet materialization. Receiving and
// lab pending counts come from re-classifying the production snapshot
// under each page's marker pair.
func buildDashboard(c *gin.Context, svc *services.SheetsService, cfg models.SheetConfig, days int) (dashboardSnapshot, error) {
	ctx, cancel := utils.GetSheetFetchContext(c.Request.Context())
	defer cancel()

	prodRows, err := svc.FetchTable(ctx, cfg.Production.Sheet)
	if err != nil {
		return dashboardSnapshot{}, err
	}
	recvRows, err := svc.FetchTable(ctx, cfg.Receiving.Sheet)
	if err != nil {
		return dashboardSnapshot{}, err
	}
	labRows, err := svc.FetchTable(ctx, cfg.LabTesting.Sheet)
	if err != nil {
		return dashboardSnapshot{}, err
	}

	labs, labErrs := services.ExtractLabTests(labRows, cfg.LabTesting)
	view := services.MaterializeProduction(prodRows, cfg.Production, labs)
	receivingView := services.MaterializeProduction(prodRows, cfg.ReceivingMarkers, nil)
	_, totalReceiving, recvErrs := services.MaterializeReceiving(recvRows, cfg.Receiving)

	metrics := view.Metrics
	metrics.TotalReceiving = totalReceiving
	metrics.PendingReceiving = len(receivingView.PendingRecords)
	metrics.PendingLabTesting = metrics.PendingProduction

	all := append(append([]models.ProductionRecord{}, view.HistoryRecords...), view.PendingRecords...)
	series := services.GroupDailyProduction(all, days)

	snap := dashboardSnapshot{
		Metrics: metrics,
		Series:  series,
	}
	snap.Errors = append(snap.Errors, view.Errors...)
	snap.Errors = append(snap.Errors, labErrs...)
	snap.Errors = append(snap.Errors, recvErrs...)
	return snap, nil
}

// GetDashboardHandler returns the aggregate metrics and the daily
// conversion series.
// @Summary Dashboard snapshot
// @Description Aggregate production metrics and the daily conversion series
// @Tags Dashboard
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param days query int false "Series window in days" default(30)
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} models.ErrorResponse
// @Router /api/dashboard [get]
func GetDashboardHandler(svc *services.SheetsService, cfg models.SheetConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		days := defaultSeriesDays
		if q := c.Query("days"); q != "" {
			if n, err := strconv.Atoi(q); err == nil && n > 0 {
				days = n
			}
		}

		snap, err := buildDashboard(c, svc, cfg, days)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch sheets", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// GetRefreshLogsHandler lists recent snapshot refresh audit entries.
// @Summary Refresh audit log
// @Tags Dashboard
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/refresh-logs [get]
func GetRefreshLogsHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		logs, err := storage.RecentRefreshLogs(gdb, 50)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch refresh logs", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs})
	}
}

// GetActivityLogHandler lists recent write activity.
// @Summary Activity log
// @Tags Dashboard
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/activity [get]
func GetActivityLogHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		changes, err := storage.GetRecentChanges(db, 100)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch activity log", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"activity": changes})
	}
}
