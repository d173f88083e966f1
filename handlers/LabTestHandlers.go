package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"billetdash/models"
	"billetdash/services"
	"billetdash/storage"
	"billetdash/utils"

	"github.com/gin-gonic/gin"
)

// labTestRowWidth covers columns A through J of the LAB TESTING sheet.
const labTestRowWidth = 10

// GetLabTestPendingHandler lists production rows waiting for a lab
// result. Heats whose newest test says no retest is needed are
// suppressed out of the pending view.
// @Summary Pending lab tests
// @Tags LabTesting
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} models.MaterializedView
// @Failure 502 {object} models.ErrorResponse
// @Router /api/lab-tests/pending [get]
func GetLabTestPendingHandler(svc *services.SheetsService, cfg models.SheetConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := fetchProductionView(c, svc, cfg, cfg.Production)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch sheets", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// GetLabTestHistoryHandler lists completed lab tests from the LAB
// TESTING sheet.
// @Summary Lab test history
// @Tags LabTesting
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} models.ErrorResponse
// @Router /api/lab-tests/history [get]
func GetLabTestHistoryHandler(svc *services.SheetsService, cfg models.SheetConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.GetSheetFetchContext(c.Request.Context())
		defer cancel()

		rows, err := svc.FetchTable(ctx, cfg.LabTesting.Sheet)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch lab testing sheet", "details": err.Error()})
			return
		}

		records, errs := services.ExtractLabTests(rows, cfg.LabTesting)
		services.SortLabTestsByTimestampDesc(records)
		c.JSON(http.StatusOK, gin.H{
			"records": records,
			"errors":  errs,
		})
	}
}

// CreateLabTestHandler records a lab result: appends the LAB TESTING
// row and marks the production row lab-tested so it leaves the pending
// view.
// @Summary Create lab test entry
// @Tags LabTesting
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param request body models.LabTestSubmission true "Lab test entry"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/lab-tests [post]
func CreateLabTestHandler(db *sql.DB, svc *services.SheetsService, cfg models.SheetConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sub models.LabTestSubmission
		if err := c.ShouldBindJSON(&sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		ctx, cancel := utils.GetSheetFetchContext(c.Request.Context())
		defer cancel()

		now := time.Now()
		row := make([]string, labTestRowWidth)
		row[0] = now.Format("02/01/2006")
		row[1] = services.FlattenRichText(sub.HeatNumber)
		row[2] = sub.Carbon
		row[3] = sub.Sulfur
		row[4] = sub.Magnesium
		row[5] = sub.Phosphorus
		row[6] = sub.Status
		row[7] = sub.NeedTestingAgain
		row[8] = services.FlattenRichText(sub.Remarks)
		row[9] = sub.JobCard

		if err := svc.InsertRow(ctx, cfg.LabTesting.Sheet, row); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to insert lab test row", "details": err.Error()})
			return
		}

		markerColumn := cfg.Production.MarkerProcessed + 1
		if err := svc.MarkLabTested(ctx, cfg.Production.Sheet, sub.RowNumber, markerColumn, now.Format(time.RFC3339)); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "Lab test row inserted but marker update failed",
				"details": err.Error(),
			})
			return
		}

		_ = storage.LogChange(db, c.GetString("username"), cfg.LabTesting.Sheet, "insert", "", sub.HeatNumber)

		c.JSON(http.StatusCreated, gin.H{
			"message":     "Lab test recorded",
			"heat_number": sub.HeatNumber,
		})
	}
}
