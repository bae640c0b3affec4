package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/indexdata/internal/indexdata/application"
	"github.com/wyfcoding/indexdata/internal/indexdata/infrastructure/persistence/memory"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := memory.NewIndexRepository()
	reconcileSvc := application.NewReconcileService(repo, nil)
	querySvc := application.NewIndexQueryService(repo, nil)
	marketDataSvc := application.NewMarketDataService(memory.NewPriceBarRepository())

	r := gin.New()
	handler := NewIndexDataHandler(reconcileSvc, querySvc, marketDataSvc)
	handler.RegisterRoutes(r.Group("/api"))
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerIndex(t *testing.T, r *gin.Engine) {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/v1/indexdata/indices",
		`{"index_code":"SP500","index_name":"S&P 500","country":"US","data_source":"wikipedia"}`)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterIndexValidation(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/indexdata/indices", `{"index_name":"missing code"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetIndexNotFound(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/v1/indexdata/indices/NOPE", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReconcileSnapshotFlow(t *testing.T) {
	r := newTestRouter(t)
	registerIndex(t, r)

	w := doJSON(r, http.MethodPost, "/api/v1/indexdata/indices/SP500/snapshot",
		`{"snapshot_date":"2020-01-01","symbols":["AAPL","MSFT"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"added_count":2`)

	w = doJSON(r, http.MethodGet, "/api/v1/indexdata/indices/SP500/constituents", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "AAPL")

	w = doJSON(r, http.MethodGet, "/api/v1/indexdata/indices/SP500/constituents?as_of=2019-12-31", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "AAPL")
}

func TestReconcileSnapshotUnknownIndex(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/indexdata/indices/NOPE/snapshot",
		`{"snapshot_date":"2020-01-01","symbols":["AAPL"]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReconcileSnapshotOutOfOrderConflict(t *testing.T) {
	r := newTestRouter(t)
	registerIndex(t, r)

	w := doJSON(r, http.MethodPost, "/api/v1/indexdata/indices/SP500/snapshot",
		`{"snapshot_date":"2020-06-01","symbols":["AAPL"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/indexdata/indices/SP500/snapshot",
		`{"snapshot_date":"2020-05-01","symbols":["AAPL"]}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReconcileSnapshotInvalidDate(t *testing.T) {
	r := newTestRouter(t)
	registerIndex(t, r)

	w := doJSON(r, http.MethodPost, "/api/v1/indexdata/indices/SP500/snapshot",
		`{"snapshot_date":"06/01/2020","symbols":["AAPL"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckMembership(t *testing.T) {
	r := newTestRouter(t)
	registerIndex(t, r)

	w := doJSON(r, http.MethodPost, "/api/v1/indexdata/indices/SP500/snapshot",
		`{"snapshot_date":"2020-01-01","symbols":["AAPL"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/indexdata/indices/SP500/members/AAPL?date=2020-03-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_member":true`)

	w = doJSON(r, http.MethodGet, "/api/v1/indexdata/indices/SP500/members/MSFT?date=2020-03-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_member":false`)
}

func TestChangesRequiresRange(t *testing.T) {
	r := newTestRouter(t)
	registerIndex(t, r)

	w := doJSON(r, http.MethodGet, "/api/v1/indexdata/indices/SP500/changes", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/indexdata/indices/SP500/changes?start=2020-01-01&end=2020-12-31", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeltaRequiresRange(t *testing.T) {
	r := newTestRouter(t)
	registerIndex(t, r)

	w := doJSON(r, http.MethodGet, "/api/v1/indexdata/indices/SP500/delta", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/indexdata/indices/SP500/delta?from=2020-01-01&to=2020-06-01", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSaveAndGetBars(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/indexdata/bars/AAPL",
		`[{"bar_date":"2020-01-02","close":"300.35","volume":"33870100"}]`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"saved":1`)

	w = doJSON(r, http.MethodGet, "/api/v1/indexdata/bars/AAPL?start=2020-01-01&end=2020-01-31", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "300.35")

	w = doJSON(r, http.MethodGet, "/api/v1/indexdata/bars/AAPL", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
