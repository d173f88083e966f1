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

// receivingRowWidth covers columns A through K of the RECEIVING sheet.
const receivingRowWidth = 11

// GetReceivingPendingHandler lists production rows waiting to be
// received. The receiving page watches its own marker pair on the
// production sheet, distinct from the lab pair.
// @Summary Pending receiving records
// @Tags Receiving
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} models.MaterializedView
// @Failure 502 {object} models.ErrorResponse
// @Router /api/receiving/pending [get]
func GetReceivingPendingHandler(svc *services.SheetsService, cfg models.SheetConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.GetSheetFetchContext(c.Request.Context())
		defer cancel()

		prodRows, err := svc.FetchTable(ctx, cfg.Production.Sheet)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch production sheet", "details": err.Error()})
			return
		}

		// Lab suppression does not apply here; a heat cleared by the lab
		// still has to be physically received.
		view := services.MaterializeProduction(prodRows, cfg.ReceivingMarkers, nil)
		c.JSON(http.StatusOK, view)
	}
}

// GetReceivingHistoryHandler lists completed receiving entries from the
// RECEIVING sheet.
// @Summary Receiving history
// @Tags Receiving
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} models.ErrorResponse
// @Router /api/receiving/history [get]
func GetReceivingHistoryHandler(svc *services.SheetsService, cfg models.SheetConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.GetSheetFetchContext(c.Request.Context())
		defer cancel()

		rows, err := svc.FetchTable(ctx, cfg.Receiving.Sheet)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch receiving sheet", "details": err.Error()})
			return
		}

		records, total, errs := services.MaterializeReceiving(rows, cfg.Receiving)
		c.JSON(http.StatusOK, gin.H{
			"records":         records,
			"total_receiving": total,
			"errors":          errs,
		})
	}
}

// CreateReceivingHandler processes one pending production row: appends
// the receiving entry and stamps the processed marker on the production
// sheet so the row moves to history.
// @Summary Create receiving entry
// @Tags Receiving
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param request body models.ReceivingSubmission true "Receiving entry"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/receiving [post]
func CreateReceivingHandler(db *sql.DB, svc *services.SheetsService, cfg models.SheetConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sub models.ReceivingSubmission
		if err := c.ShouldBindJSON(&sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		ctx, cancel := utils.GetSheetFetchContext(c.Request.Context())
		defer cancel()

		now := time.Now()
		row := make([]string, receivingRowWidth)
		row[0] = now.Format("02/01/2006")
		row[1] = services.FlattenRichText(sub.HeatNumber)
		row[2] = valueOr(sub.Time, now.Format("3:04 PM"))
		row[3] = sub.ReceivingQtyMT
		row[4] = services.FlattenRichText(sub.Ledel)
		row[5] = sub.CCMTotalPieces
		row[6] = sub.BPMillTO
		row[7] = sub.BPCCMTO
		row[8] = sub.MillTOPcs
		row[9] = services.FlattenRichText(sub.Remark)
		row[10] = sub.JobCard

		if err := svc.InsertRow(ctx, cfg.Receiving.Sheet, row); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to insert receiving row", "details": err.Error()})
			return
		}

		// Stamp the processed marker with an ISO timestamp. Column indexes
		// on the wire are 1-based.
		markerColumn := cfg.ReceivingMarkers.MarkerProcessed + 1
		if err := svc.UpdateCell(ctx, cfg.Production.Sheet, sub.RowNumber, markerColumn, now.Format(time.RFC3339)); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "Receiving row inserted but marker update failed",
				"details": err.Error(),
			})
			return
		}

		_ = storage.LogChange(db, c.GetString("username"), cfg.Receiving.Sheet, "insert", "", sub.HeatNumber)

		c.JSON(http.StatusCreated, gin.H{
			"message":     "Receiving entry created",
			"heat_number": sub.HeatNumber,
		})
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
