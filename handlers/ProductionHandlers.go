package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"billetdash/models"
	"billetdash/repository"
	"billetdash/services"
	"billetdash/storage"
	"billetdash/utils"

	"github.com/gin-gonic/gin"
)

// productionRowWidth covers columns A through AJ of the PRODUCTION
// sheet, markers and lab columns included.
const productionRowWidth = 36

// fetchProductionView pulls both the PRODUCTION and LAB TESTING sheets
// and runs the full materialization, since suppression needs the lab
// records even for the production page.
func fetchProductionView(c *gin.Context, svc *services.SheetsService, cfg models.SheetConfig, markers models.TableConfig) (models.MaterializedView, error) {
	ctx, cancel := utils.GetSheetFetchContext(c.Request.Context())
	defer cancel()

	prodRows, err := svc.FetchTable(ctx, cfg.Production.Sheet)
	if err != nil {
		return models.MaterializedView{}, err
	}

	labRows, err := svc.FetchTable(ctx, cfg.LabTesting.Sheet)
	if err != nil {
		return models.MaterializedView{}, err
	}

	labs, labErrs := services.ExtractLabTests(labRows, cfg.LabTesting)
	view := services.MaterializeProduction(prodRows, markers, labs)
	view.Errors = append(view.Errors, labErrs...)
	return view, nil
}

// GetProductionViewHandler returns the materialized production table.
// @Summary Production records
// @Description Pending and history production records with aggregate metrics
// @Tags Production
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} models.MaterializedView
// @Failure 502 {object} models.ErrorResponse
// @Router /api/production [get]
func GetProductionViewHandler(svc *services.SheetsService, cfg models.SheetConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := fetchProductionView(c, svc, cfg, cfg.Production)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch production sheet", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// CreateProductionHandler appends a new production row.
// @Summary Create production entry
// @Description Append a production row to the sheet with a generated job card
// @Tags Production
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param request body models.ProductionSubmission true "Production entry"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/production [post]
func CreateProductionHandler(db *sql.DB, svc *services.SheetsService, cfg models.SheetConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sub models.ProductionSubmission
		if err := c.ShouldBindJSON(&sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		ctx, cancel := utils.GetSheetFetchContext(c.Request.Context())
		defer cancel()

		// The next job card number comes from the current sheet state, so
		// the read and the append race concurrent submitters. The sheet is
		// operated by a handful of people; last write wins is acceptable.
		prodRows, err := svc.FetchTable(ctx, cfg.Production.Sheet)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch production sheet", "details": err.Error()})
			return
		}
		jobCard := repository.NextJobCard(prodRows, jobCardIndex(cfg.Production))

		row := make([]string, productionRowWidth)
		row[0] = time.Now().Format("02/01/2006")
		row[1] = services.FlattenRichText(sub.HeatNumber)
		row[2] = sub.Drclo
		row[3] = sub.Pellet
		row[4] = sub.Lumps
		row[5] = sub.ScrapCommon
		row[6] = sub.ScrapGrade
		row[7] = sub.PigIron
		row[8] = sub.SilicoMn
		row[9] = sub.FenoChrone
		row[10] = sub.Aluminium
		row[11] = sub.AnthraciteCoal
		row[12] = sub.MetCoke
		row[13] = sub.ProductionMT
		row[35] = jobCard

		if err := svc.InsertRow(ctx, cfg.Production.Sheet, row); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to insert production row", "details": err.Error()})
			return
		}

		_ = storage.LogChange(db, c.GetString("username"), cfg.Production.Sheet, "insert", "", jobCard)

		c.JSON(http.StatusCreated, gin.H{
			"message":  "Production entry created",
			"job_card": jobCard,
		})
	}
}

// jobCardIndex finds the job card column of a table config, falling
// back to the canonical AJ position.
func jobCardIndex(cfg models.TableConfig) int {
	for _, col := range cfg.Columns {
		if col.Field == "job_card" {
			return col.Index
		}
	}
	return 35
}
