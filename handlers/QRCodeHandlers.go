package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/http"
	"strconv"

	"billetdash/models"
	"billetdash/services"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

// addLabel adds text to an image at the specified position
func addLabel(img *image.RGBA, x, y int, label string) {
	col := color.RGBA{0, 0, 0, 255}
	face := inconsolata.Regular8x16

	point := fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(y * 64),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  point,
	}
	d.DrawString(label)
}

// addLabelBold adds bold text for field labels
func addLabelBold(img *image.RGBA, x, y int, label string) {
	col := color.RGBA{30, 30, 30, 255}
	face := inconsolata.Bold8x16

	point := fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(y * 64),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  point,
	}
	d.DrawString(label)
}

func truncateLabel(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

// GenerateJobCardQR godoc
// @Summary      Generate a job card QR label as JPEG
// @Tags         Production
// @Param        Authorization header string true "Bearer token"
// @Param        row  path  int  true  "Production sheet row number"
// @Success      200  {file}  file  "JPEG image"
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/production/{row}/qr [get]
func GenerateJobCardQR(svc *services.SheetsService, cfg models.SheetConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		rowParam := c.Param("row")
		rowNumber, err := strconv.Atoi(rowParam)
		if err != nil || rowNumber <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid row number"})
			return
		}

		view, err := fetchProductionView(c, svc, cfg, cfg.Production)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch sheets", "details": err.Error()})
			return
		}

		var rec *models.ProductionRecord
		for i := range view.PendingRecords {
			if view.PendingRecords[i].RowNumber == rowNumber {
				rec = &view.PendingRecords[i]
				break
			}
		}
		if rec == nil {
			for i := range view.HistoryRecords {
				if view.HistoryRecords[i].RowNumber == rowNumber {
					rec = &view.HistoryRecords[i]
					break
				}
			}
		}
		if rec == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Production row not found"})
			return
		}

		qrData := struct {
			JobCard    string `json:"job_card"`
			HeatNumber string `json:"heat_number"`
			RowNumber  int    `json:"row_number"`
		}{
			JobCard:    rec.JobCard,
			HeatNumber: rec.HeatNumber,
			RowNumber:  rec.RowNumber,
		}
		jsonData, err := json.Marshal(qrData)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to marshal job card data"})
			return
		}

		qr, err := qrcode.New(string(jsonData), qrcode.Medium)
		if err != nil {
			c.String(http.StatusInternalServerError, "QR code generation failed")
			return
		}

		qrImg := qr.Image(512)

		qrSize := qrImg.Bounds().Dy()
		padding := 30
		lineHeight := 28
		textAreaHeight := 4*lineHeight + padding
		totalHeight := qrSize + padding + textAreaHeight

		combinedImg := image.NewRGBA(image.Rect(0, 0, qrSize, totalHeight))
		draw.Draw(combinedImg, combinedImg.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

		qrRect := image.Rect(0, 0, qrSize, qrSize)
		draw.Draw(combinedImg, qrRect, qrImg, image.Point{}, draw.Src)

		separatorY := qrSize + padding/2
		for x := 0; x < qrSize; x++ {
			combinedImg.Set(x, separatorY, color.RGBA{200, 200, 200, 255})
		}

		startY := qrSize + padding + lineHeight
		xPos := 20

		addLabelBold(combinedImg, xPos, startY, "Job Card:")
		addLabel(combinedImg, xPos+120, startY, truncateLabel(rec.JobCard, 25))

		addLabelBold(combinedImg, xPos, startY+lineHeight, "Heat No:")
		addLabel(combinedImg, xPos+120, startY+lineHeight, truncateLabel(rec.HeatNumber, 25))

		addLabelBold(combinedImg, xPos, startY+2*lineHeight, "Date:")
		addLabel(combinedImg, xPos+120, startY+2*lineHeight, rec.Timestamp)

		addLabelBold(combinedImg, xPos, startY+3*lineHeight, "Production:")
		addLabel(combinedImg, xPos+120, startY+3*lineHeight, formatQty(rec.ProductionMT)+" MT")

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, combinedImg, nil); err != nil {
			c.String(http.StatusInternalServerError, "JPEG encoding failed")
			return
		}

		c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
	}
}
