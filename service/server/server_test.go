package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/txplain/txplain/service/solana"
)

func testServer() *Server {
	ledger := &mockLedger{record: &solana.TransactionRecord{Signature: validTestSignature}}
	explainer := &mockExplainer{result: testResult()}
	return New(":0", testConfig(), ledger, explainer, nil, nil, testLogger())
}

func TestRoutes_Health(t *testing.T) {
	ts := httptest.NewServer(testServer().routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}

func TestRoutes_AnalyzeEndToEnd(t *testing.T) {
	ts := httptest.NewServer(testServer().routes())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/analyze", "application/json",
		strings.NewReader(`{"signature":"`+validTestSignature+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	ts := httptest.NewServer(testServer().routes())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/analyze", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	ts := httptest.NewServer(testServer().routes())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/analyze", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}
