package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGvizPayload = `/*O_o*/
google.visualization.Query.setResponse({"version":"0.6","reqId":"0","status":"ok","sig":"1234","table":{"cols":[{"id":"A","label":"Timestamp","type":"date"},{"id":"B","label":"Heat Number","type":"string"},{"id":"C","label":"Production MT","type":"number"}],"rows":[{"c":[{"v":"Date(2025,4,7)","f":"07/05/2025"},{"v":"H100"},{"v":78.5,"f":"78.50"}]},{"c":[{"v":"Date(2025,4,8)"},null,{"v":null}]}]}});`

func TestParseGvizPayload(t *testing.T) {
	rows, err := ParseGvizPayload([]byte(sampleGvizPayload))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Formatted values win over raw ones.
	assert.Equal(t, "07/05/2025", rows[0][0])
	assert.Equal(t, "H100", rows[0][1])
	assert.Equal(t, "78.50", rows[0][2])

	// Null cells and null values collapse to "".
	assert.Equal(t, "Date(2025,4,8)", rows[1][0])
	assert.Equal(t, "", rows[1][1])
	assert.Equal(t, "", rows[1][2])
}

func TestParseGvizPayloadRejectsNonJSON(t *testing.T) {
	_, err := ParseGvizPayload([]byte("<html>sign in required</html>"))
	assert.Error(t, err)
}

func TestParseGvizPayloadEmptyTable(t *testing.T) {
	payload := `google.visualization.Query.setResponse({"table":{"cols":[],"rows":[]}});`
	rows, err := ParseGvizPayload([]byte(payload))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFetchTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "out:json", r.URL.Query().Get("tqx"))
		assert.Equal(t, "PRODUCTION", r.URL.Query().Get("sheet"))
		w.Write([]byte(sampleGvizPayload))
	}))
	defer server.Close()

	// Point the gviz fetch at the test server by rewriting the request
	// host via a transport override.
	svc := &SheetsService{
		sheetID:    "test-sheet",
		scriptURL:  server.URL,
		httpClient: &http.Client{Transport: rewriteHost(server.URL)},
	}

	rows, err := svc.FetchTable(context.Background(), "PRODUCTION")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

// rewriteHost redirects every outgoing request to the test server while
// keeping the original path and query intact.
func rewriteHost(target string) http.RoundTripper {
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		u, err := url.Parse(target)
		if err != nil {
			return nil, err
		}
		req.URL.Scheme = u.Scheme
		req.URL.Host = u.Host
		return http.DefaultTransport.RoundTrip(req)
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestInsertRow(t *testing.T) {
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer server.Close()

	svc := &SheetsService{
		sheetID:    "test-sheet",
		scriptURL:  server.URL,
		httpClient: server.Client(),
	}

	err := svc.InsertRow(context.Background(), "RECEIVING", []string{"07/05/2025", "H100", "78.5"})
	require.NoError(t, err)

	assert.Equal(t, "insert", gotForm.Get("action"))
	assert.Equal(t, "RECEIVING", gotForm.Get("sheetName"))

	var rowData []string
	require.NoError(t, json.Unmarshal([]byte(gotForm.Get("rowData")), &rowData))
	assert.Equal(t, []string{"07/05/2025", "H100", "78.5"}, rowData)
}

func TestUpdateCellScriptError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "row out of range"})
	}))
	defer server.Close()

	svc := &SheetsService{
		sheetID:    "test-sheet",
		scriptURL:  server.URL,
		httpClient: server.Client(),
	}

	err := svc.UpdateCell(context.Background(), "PRODUCTION", 12, 16, "done")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row out of range")
}

func TestMarkLabTestedSendsAction(t *testing.T) {
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer server.Close()

	svc := &SheetsService{
		sheetID:    "test-sheet",
		scriptURL:  server.URL,
		httpClient: server.Client(),
	}

	err := svc.MarkLabTested(context.Background(), "PRODUCTION", 12, 27, "2025-05-07T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "markLabTested", gotForm.Get("action"))
	assert.Equal(t, "12", gotForm.Get("rowIndex"))
	assert.Equal(t, "27", gotForm.Get("columnIndex"))
}
