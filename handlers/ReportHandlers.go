package handlers

import (
	"fmt"
	"net/http"
	"time"

	"billetdash/models"
	"billetdash/services"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// GenerateProductionReportPDF godoc
// @Summary      Generate production summary PDF
// @Tags         Export
// @Param        Authorization header string true "Bearer token"
// @Success      200  "PDF file"
// @Failure      502  {object}  models.ErrorResponse
// @Router       /api/export/production.pdf [get]
func GenerateProductionReportPDF(svc *services.SheetsService, cfg models.SheetConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := buildDashboard(c, svc, cfg, defaultSeriesDays)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch sheets", "details": err.Error()})
			return
		}

		titleCaser := cases.Title(language.Und)

		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetMargins(10, 10, 10)
		pdf.SetFont("Arial", "", 10)

		// --- Header ---
		pdf.SetFont("Arial", "B", 18)
		pdf.Cell(190, 10, "PRODUCTION SUMMARY")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(190, 6, fmt.Sprintf("Generated: %s", time.Now().Format("02-Jan-2006 15:04")))
		pdf.Ln(10)

		// --- Metrics ---
		m := snap.Metrics
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(190, 8, titleCaser.String("key figures"))
		pdf.Ln(8)

		pdf.SetFont("Arial", "", 10)
		metricRows := []struct {
			Label string
			Value string
		}{
			{"Total Production (MT)", fmt.Sprintf("%.2f", m.TotalProduction)},
			{"Total Receiving (MT)", fmt.Sprintf("%.2f", m.TotalReceiving)},
			{"Total Scrap (MT)", fmt.Sprintf("%.2f", m.TotalScrap)},
			{"Average Production (MT)", fmt.Sprintf("%.2f", m.AverageProduction)},
			{"Conversion Rate", fmt.Sprintf("%.1f%%", m.ConversionRate)},
			{"Heats Recorded", fmt.Sprintf("%d", m.RecordCount)},
			{"Pending Receiving", fmt.Sprintf("%d", m.PendingReceiving)},
			{"Pending Lab Tests", fmt.Sprintf("%d", m.PendingLabTesting)},
		}
		for _, row := range metricRows {
			pdf.Cell(95, 6, row.Label)
			pdf.Cell(95, 6, row.Value)
			pdf.Ln(6)
		}
		pdf.Ln(6)

		// --- Daily series table ---
		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(50, 8, "Date", "1", 0, "L", true, 0, "")
		pdf.CellFormat(45, 8, "Production (MT)", "1", 0, "C", true, 0, "")
		pdf.CellFormat(45, 8, "Scrap (MT)", "1", 0, "C", true, 0, "")
		pdf.CellFormat(50, 8, "Conversion (%)", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, day := range snap.Series {
			pdf.CellFormat(50, 8, day.Date, "1", 0, "L", false, 0, "")
			pdf.CellFormat(45, 8, fmt.Sprintf("%.2f", day.Production), "1", 0, "C", false, 0, "")
			pdf.CellFormat(45, 8, fmt.Sprintf("%.2f", day.Scrap), "1", 0, "C", false, 0, "")
			pdf.CellFormat(50, 8, fmt.Sprintf("%.1f", day.ConversionRate), "1", 1, "C", false, 0, "")
		}

		c.Header("Content-Type", "application/pdf")
		c.Header("Content-Disposition", "attachment;filename=production_summary.pdf")
		if err := pdf.Output(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing PDF"})
			return
		}
	}
}
