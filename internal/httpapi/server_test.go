package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"call-quality-go/internal/aggregator"
	"call-quality-go/internal/config"
	"call-quality-go/internal/history"
	"call-quality-go/internal/metrics"
	"call-quality-go/internal/notify"
	"call-quality-go/internal/pipeline"
	"call-quality-go/internal/processor"
	"call-quality-go/internal/types"
)

const fridge = "Customer: My fridge arrived damaged and is not cooling. This is broken."

func newTestServer(t *testing.T) (*httptest.Server, *notify.Capture) {
	t.Helper()
	m := metrics.New("test_httpapi")
	capture := &notify.Capture{}
	proc := processor.New(processor.Deps{
		Pipeline:  pipeline.New(config.DefaultProfile()),
		Recorder:  history.NewRecorder(history.NewMemoryStore(), 100*time.Millisecond, nil),
		Publisher: capture,
		Metrics:   m,
	})
	ts := httptest.NewServer(New(proc, m, nil).Router())
	t.Cleanup(ts.Close)
	return ts, capture
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestProcessCall(t *testing.T) {
	ts, capture := newTestServer(t)
	res := postJSON(t, ts.URL+"/v1/calls", map[string]any{
		"transcript":    fridge,
		"call_id":       "CALL-001",
		"customer_name": "John Davis",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var out processor.Result
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Equal(t, "CALL-001", out.Record.CallID)
	assert.Equal(t, 6.0, out.Record.QualityScore)
	assert.Equal(t, "LOW_SCORE, NEG_SENTIMENT", out.Record.ReviewFlags)
	assert.True(t, out.Persisted)
	assert.True(t, out.Notified)
	assert.Len(t, capture.Alerts(), 1)
}

func TestProcessCallRejectsBadInput(t *testing.T) {
	ts, _ := newTestServer(t)

	res, err := http.Post(ts.URL+"/v1/calls", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = postJSON(t, ts.URL+"/v1/calls", map[string]any{"transcript": "hi", "review_threshold": 150})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	var e errorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&e))
	assert.Equal(t, "invalid_threshold", e.Code)

	res = postJSON(t, ts.URL+"/v1/calls", map[string]any{"audio_url": "https://example.test/a.wav"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
}

func TestBatchAndList(t *testing.T) {
	ts, _ := newTestServer(t)
	threshold := 40.0
	batch := []types.CallRequest{
		{Transcript: fridge, CallID: "B-1"},
		{Transcript: "hello", CallID: "B-2", ReviewThreshold: &threshold},
		{Transcript: "", CallID: "B-3"},
	}
	res := postJSON(t, ts.URL+"/v1/calls/batch", batch)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var results []processor.Result
	require.NoError(t, json.NewDecoder(res.Body).Decode(&results))
	require.Len(t, results, 3)
	assert.Equal(t, 50.0, results[2].Record.QualityScore)

	all := getRecords(t, ts.URL+"/v1/calls")
	require.Len(t, all, 3)
	assert.Equal(t, []string{"B-1", "B-2", "B-3"}, []string{all[0].CallID, all[1].CallID, all[2].CallID})

	flagged := getRecords(t, ts.URL+"/v1/calls?flagged=true")
	require.Len(t, flagged, 2)
	assert.Equal(t, "B-1", flagged[0].CallID)
	assert.Equal(t, "B-3", flagged[1].CallID)

	res2, err := http.Get(ts.URL + "/v1/calls?flagged=maybe")
	require.NoError(t, err)
	res2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res2.StatusCode)
}

func getRecords(t *testing.T, url string) []types.CallRecord {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var out []types.CallRecord
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func TestDashboardAndExport(t *testing.T) {
	ts, _ := newTestServer(t)
	postJSON(t, ts.URL+"/v1/calls", map[string]any{"transcript": fridge})

	res, err := http.Get(ts.URL + "/v1/dashboard")
	require.NoError(t, err)
	defer res.Body.Close()
	var d aggregator.Dashboard
	require.NoError(t, json.NewDecoder(res.Body).Decode(&d))
	assert.Equal(t, 1, d.TotalCalls)
	assert.Equal(t, 1, d.FlaggedCalls)

	xres, err := http.Get(ts.URL + "/v1/export.xlsx")
	require.NoError(t, err)
	defer xres.Body.Close()
	assert.Equal(t, http.StatusOK, xres.StatusCode)
	f, err := excelize.OpenReader(xres.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 3)
}

func TestImportWorkbook(t *testing.T) {
	ts, _ := newTestServer(t)

	f := excelize.NewFile()
	rows := [][]any{{"Call ID", "Customer", "Transcript"}, {"X-1", "Ana", fridge}, {"X-2", "Ben", "hello"}}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	f.Close()

	res, err := http.Post(ts.URL+"/v1/calls/import", "application/octet-stream", &buf)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var results []processor.Result
	require.NoError(t, json.NewDecoder(res.Body).Decode(&results))
	require.Len(t, results, 2)
	assert.Equal(t, "X-1", results[0].Record.CallID)
	assert.Equal(t, "Ana", results[0].Record.CustomerName)

	bad, err := http.Post(ts.URL+"/v1/calls/import", "application/octet-stream", strings.NewReader("nope"))
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	postJSON(t, ts.URL+"/v1/calls", map[string]any{"transcript": fridge})

	res, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	assert.Contains(t, string(body), "test_httpapi_calls_processed_total")
	assert.Contains(t, string(body), `route="/v1/calls"`)
}

func TestDecodeJSONDistinguishesEmptyFromTruncated(t *testing.T) {
	var req types.CallRequest

	r := httptest.NewRequest(http.MethodPost, "/v1/calls", strings.NewReader(""))
	assert.ErrorIs(t, decodeJSON(r, &req), errEmptyBody)

	r = httptest.NewRequest(http.MethodPost, "/v1/calls", strings.NewReader(`{"transcript":"x"`))
	err := decodeJSON(r, &req)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, errEmptyBody)
}

func TestProcessCallTruncatedBody(t *testing.T) {
	ts, _ := newTestServer(t)
	res, err := http.Post(ts.URL+"/v1/calls", "application/json", strings.NewReader(`{"transcript":"x"`))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var e errorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&e))
	assert.Equal(t, "unexpected EOF", e.Error)
}
