package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"billetdash/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
)

// SheetsService is the gateway to the external spreadsheet: reads go
// through the gviz JSON endpoint, writes go through the deployed Apps
// Script. It is the only component that talks to the network; the
// materializer never does.
type SheetsService struct {
	sheetID     string
	scriptURL   string
	httpClient  *http.Client
	tokenSource oauth2.TokenSource
}

// serviceAccountCredentials represents the structure of a Google
// service account JSON file.
type serviceAccountCredentials struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// NewSheetsService builds the gateway. credentialsPath may be empty:
// the billet workbook is link-readable, so anonymous gviz access works.
// When a service account file is supplied, reads are authenticated and
// the workbook can stay private.
func NewSheetsService(sheetID, scriptURL, credentialsPath string) (*SheetsService, error) {
	if sheetID == "" {
		return nil, fmt.Errorf("sheet ID is required")
	}
	if scriptURL == "" {
		return nil, fmt.Errorf("apps script URL is required")
	}

	svc := &SheetsService{
		sheetID:    sheetID,
		scriptURL:  scriptURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	if credentialsPath != "" {
		data, err := os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %v", err)
		}
		var creds serviceAccountCredentials
		if err := json.Unmarshal(data, &creds); err != nil {
			return nil, fmt.Errorf("failed to parse credentials JSON: %v", err)
		}
		if creds.ClientEmail == "" || creds.PrivateKey == "" {
			return nil, fmt.Errorf("credentials file is missing client_email or private_key")
		}
		conf := &jwt.Config{
			Email:        creds.ClientEmail,
			PrivateKey:   []byte(creds.PrivateKey),
			PrivateKeyID: creds.PrivateKeyID,
			Scopes:       []string{"https://www.googleapis.com/auth/spreadsheets.readonly"},
			TokenURL:     creds.TokenURI,
		}
		svc.tokenSource = conf.TokenSource(context.Background())
		svc.httpClient = conf.Client(context.Background())
		log.Println("Sheets service using service account credentials")
	}

	return svc, nil
}

// gvizResponse mirrors the relevant slice of the gviz wire format.
type gvizResponse struct {
	Table struct {
		Cols []struct {
			Label string `json:"label"`
		} `json:"cols"`
		Rows []struct {
			C []*gvizCell `json:"c"`
		} `json:"rows"`
	} `json:"table"`
}

// gvizCell carries both the raw value and, when the sheet applies a
// display format, the formatted string.
type gvizCell struct {
	V any     `json:"v"`
	F *string `json:"f"`
}

// ParseGvizPayload strips the gviz JSONP wrapper and converts the table
// to raw rows. Formatted cell values win over raw ones so records show
// what the sheet shows.
func ParseGvizPayload(payload []byte) ([]models.RawRow, error) {
	text := string(payload)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("payload does not contain a JSON object")
	}

	var parsed gvizResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse gviz payload: %v", err)
	}

	rows := make([]models.RawRow, 0, len(parsed.Table.Rows))
	for _, r := range parsed.Table.Rows {
		row := make(models.RawRow, len(r.C))
		for i, cell := range r.C {
			row[i] = extractCellValue(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func extractCellValue(cell *gvizCell) any {
	if cell == nil || cell.V == nil {
		return ""
	}
	if cell.F != nil {
		return *cell.F
	}
	return cell.V
}

// FetchTable downloads one sheet of the workbook as raw rows.
func (s *SheetsService) FetchTable(ctx context.Context, sheetName string) ([]models.RawRow, error) {
	return s.FetchTableRange(ctx, sheetName, "")
}

// FetchTableRange downloads a bounded range (for example "A7:AJ1000")
// of one sheet.
func (s *SheetsService) FetchTableRange(ctx context.Context, sheetName, cellRange string) ([]models.RawRow, error) {
	endpoint := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/gviz/tq?tqx=out:json&sheet=%s",
		s.sheetID, url.QueryEscape(sheetName))
	if cellRange != "" {
		endpoint += "&range=" + url.QueryEscape(cellRange)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build gviz request: %v", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheet %s: %v", sheetName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheet %s fetch returned status %d", sheetName, resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s response: %v", sheetName, err)
	}
	return ParseGvizPayload(payload)
}

// scriptResponse is the Apps Script reply envelope.
type scriptResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *SheetsService) postAction(ctx context.Context, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.scriptURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build script request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach apps script: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read apps script response: %v", err)
	}

	var result scriptResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("unexpected apps script response: %v", err)
	}
	if !result.Success {
		if result.Error != "" {
			return fmt.Errorf("apps script rejected the action: %s", result.Error)
		}
		return fmt.Errorf("apps script rejected the action")
	}
	return nil
}

// InsertRow appends one row to a sheet. Free-text cells should already
// be flattened through FlattenRichText by the caller.
func (s *SheetsService) InsertRow(ctx context.Context, sheetName string, rowData []string) error {
	encoded, err := json.Marshal(rowData)
	if err != nil {
		return fmt.Errorf("failed to encode row data: %v", err)
	}
	form := url.Values{}
	form.Set("sheetName", sheetName)
	form.Set("action", "insert")
	form.Set("rowData", string(encoded))
	return s.postAction(ctx, form)
}

// UpdateCell writes one cell. rowIndex and columnIndex are 1-based, the
// way the Apps Script expects them.
func (s *SheetsService) UpdateCell(ctx context.Context, sheetName string, rowIndex, columnIndex int, value string) error {
	form := url.Values{}
	form.Set("sheetName", sheetName)
	form.Set("action", "updateCell")
	form.Set("rowIndex", strconv.Itoa(rowIndex))
	form.Set("columnIndex", strconv.Itoa(columnIndex))
	form.Set("value", value)
	return s.postAction(ctx, form)
}

// MarkLabTested stamps the lab-processed marker on a production row.
// The script exposes this as its own action rather than a plain cell
// update.
func (s *SheetsService) MarkLabTested(ctx context.Context, sheetName string, rowIndex, columnIndex int, value string) error {
	form := url.Values{}
	form.Set("sheetName", sheetName)
	form.Set("action", "markLabTested")
	form.Set("rowIndex", strconv.Itoa(rowIndex))
	form.Set("columnIndex", strconv.Itoa(columnIndex))
	form.Set("value", value)
	return s.postAction(ctx, form)
}
