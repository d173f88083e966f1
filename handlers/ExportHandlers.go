package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"billetdash/models"
	"billetdash/services"
	"billetdash/utils"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

var productionExportHeader = []string{
	"Row", "Job Card", "Date", "Heat Number",
	"DRCLO", "Pellet", "Lumps", "Scrap Common", "Scrap Grade",
	"Pig Iron", "Silico MN", "Feno Chrone", "Aluminium",
	"Anthracite Coal", "MET Coke", "Production MT", "Status",
}

func productionExportRow(rec models.ProductionRecord) []string {
	return []string{
		strconv.Itoa(rec.RowNumber),
		rec.JobCard,
		rec.Timestamp,
		rec.HeatNumber,
		formatQty(rec.Drclo),
		formatQty(rec.Pellet),
		formatQty(rec.Lumps),
		formatQty(rec.ScrapCommon),
		formatQty(rec.ScrapGrade),
		formatQty(rec.PigIron),
		formatQty(rec.SilicoMn),
		formatQty(rec.FenoChrone),
		formatQty(rec.Aluminium),
		formatQty(rec.AnthraciteCoal),
		formatQty(rec.MetCoke),
		formatQty(rec.ProductionMT),
		string(rec.Status),
	}
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ExportProductionCSV godoc
// @Summary      Export production records as CSV
// @Tags         Export
// @Produce      text/csv
// @Param        Authorization header string true "Bearer token"
// @Success      200  {file}  file  "CSV file"
// @Failure      502  {object}  models.ErrorResponse
// @Router       /api/export/production.csv [get]
func ExportProductionCSV(svc *services.SheetsService, cfg models.SheetConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := fetchProductionView(c, svc, cfg, cfg.Production)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch sheets", "details": err.Error()})
			return
		}

		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment;filename=production_export.csv")

		writer := csv.NewWriter(c.Writer)
		defer writer.Flush()

		if err := writer.Write(productionExportHeader); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV header"})
			return
		}

		for _, rec := range append(view.HistoryRecords, view.PendingRecords...) {
			if err := writer.Write(productionExportRow(rec)); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV row"})
				return
			}
		}
	}
}

// ExportProductionXLSX godoc
// @Summary      Export production records as an Excel workbook
// @Tags         Export
// @Param        Authorization header string true "Bearer token"
// @Success      200  {file}  file  "XLSX file"
// @Failure      502  {object}  models.ErrorResponse
// @Router       /api/export/production.xlsx [get]
func ExportProductionXLSX(svc *services.SheetsService, cfg models.SheetConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := fetchProductionView(c, svc, cfg, cfg.Production)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch sheets", "details": err.Error()})
			return
		}

		f := excelize.NewFile()
		defer func() {
			if err := f.Close(); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error closing Excel file"})
			}
		}()

		// Summary sheet first, data sheet second, mirror the workbook
		// layout operators already know.
		summarySheet := "Summary"
		index, err := f.NewSheet(summarySheet)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating summary sheet"})
			return
		}
		f.SetActiveSheet(index)
		f.DeleteSheet("Sheet1")

		m := view.Metrics
		summary := [][]interface{}{
			{"Production Export", time.Now().Format("02-Jan-2006 15:04")},
			{},
			{"Total Production (MT)", m.TotalProduction},
			{"Total Scrap (MT)", m.TotalScrap},
			{"Average Production (MT)", m.AverageProduction},
			{"Conversion Rate (%)", m.ConversionRate},
			{"Record Count", m.RecordCount},
			{"Pending Records", m.PendingProduction},
		}
		for i, rowVals := range summary {
			for j, val := range rowVals {
				cell, err := excelize.CoordinatesToCellName(j+1, i+1)
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating cell name"})
					return
				}
				f.SetCellValue(summarySheet, cell, val)
			}
		}

		dataSheet := "Production"
		index, err = f.NewSheet(dataSheet)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating data sheet"})
			return
		}
		f.SetActiveSheet(index)

		for j, col := range productionExportHeader {
			cell, err := excelize.CoordinatesToCellName(j+1, 1)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating cell name"})
				return
			}
			f.SetCellValue(dataSheet, cell, col)
		}

		for i, rec := range append(view.HistoryRecords, view.PendingRecords...) {
			for j, val := range productionExportRow(rec) {
				cell, err := excelize.CoordinatesToCellName(j+1, i+2)
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating cell name"})
					return
				}
				f.SetCellValue(dataSheet, cell, val)
			}
		}

		filename := fmt.Sprintf("production_export_%s.xlsx", time.Now().Format("20060102"))
		escaped := url.PathEscape(filename)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", filename, escaped))

		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing Excel file"})
			return
		}
	}
}

// ExportReceivingCSV godoc
// @Summary      Export receiving history as CSV
// @Tags         Export
// @Produce      text/csv
// @Param        Authorization header string true "Bearer token"
// @Success      200  {file}  file  "CSV file"
// @Failure      502  {object}  models.ErrorResponse
// @Router       /api/export/receiving.csv [get]
func ExportReceivingCSV(svc *services.SheetsService, cfg models.SheetConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.GetSheetFetchContext(c.Request.Context())
		defer cancel()

		rows, err := svc.FetchTable(ctx, cfg.Receiving.Sheet)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch receiving sheet", "details": err.Error()})
			return
		}
		records, _, _ := services.MaterializeReceiving(rows, cfg.Receiving)

		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment;filename=receiving_export.csv")

		writer := csv.NewWriter(c.Writer)
		defer writer.Flush()

		header := []string{"Date", "Heat Number", "Job Card", "Time", "Receiving Qty MT", "Ledel", "CCM Total Pieces", "B.P Mill T.O", "B.P CCM T.O", "Mill T.O Pcs", "Remark"}
		if err := writer.Write(header); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV header"})
			return
		}

		for _, rec := range records {
			row := []string{
				rec.Timestamp, rec.HeatNumber, rec.JobCard, rec.Time,
				formatQty(rec.ReceivingQtyMT), rec.Ledel, rec.CCMTotalPieces,
				rec.BPMillTO, rec.BPCCMTO, rec.MillTOPcs, rec.Remark,
			}
			if err := writer.Write(row); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV row"})
				return
			}
		}
	}
}
