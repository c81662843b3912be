package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"MarketWhisperer/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addRequest struct {
	Symbol string `json:"symbol" validate:"required,max=5"`
	Limit  int    `query:"limit" default:"10" validate:"gte=1,lte=50"`
}

type testHandler struct{}

func (testHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/things", func(c echo.Context) error {
		var req addRequest
		if errs := ReadAndValidateRequest(c, &req); errs != nil {
			return BadRequestResponse(c, errs)
		}
		return CreatedResponse(c, req)
	})
	e.GET("/things/:id", func(c echo.Context) error {
		if c.Param("id") == "missing" {
			return AppErrorResponse(c, NotFoundError("no such thing").WithParam("id", "missing"))
		}
		return SuccessResponse(c, map[string]string{"id": c.Param("id")})
	})
	e.GET("/panic", func(c echo.Context) error {
		panic("kaboom")
	})
}

func newTestServer(t *testing.T) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewServer(testHandler{}, logger.Nop(), WithMetrics(reg, "/metrics", 0)), reg
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestServerEnvelopeAndValidation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, http.MethodPost, "/things", `{"symbol":"ACME"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.EqualValues(t, 201, env["status"])
	assert.Equal(t, "Created", env["message"])
	data := env["data"].(map[string]interface{})
	assert.Equal(t, "ACME", data["symbol"])

	rec = do(s, http.MethodPost, "/things", `{"symbol":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env = decodeEnvelope(t, rec)
	errs := env["data"].([]interface{})
	require.Len(t, errs, 1)
	first := errs[0].(map[string]interface{})
	assert.Equal(t, "ERR_REQUIRED", first["code"])
	assert.Equal(t, "Symbol", first["field"])

	rec = do(s, http.MethodPost, "/things", `{"symbol":"TOOLONG"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_MAX")

	rec = do(s, http.MethodPost, "/things", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_BIND")
}

func TestServerAppError(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, http.MethodGet, "/things/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	errs := env["data"].([]interface{})
	first := errs[0].(map[string]interface{})
	assert.Equal(t, "ERR_NOT_FOUND", first["code"])
	assert.Equal(t, "no such thing", first["message"])
}

func TestServerRecoversPanics(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}

func TestServerCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/things", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPost)
}

func TestServerMetricsUseRouteTemplate(t *testing.T) {
	s, _ := newTestServer(t)

	do(s, http.MethodGet, "/things/a", "")
	do(s, http.MethodGet, "/things/b", "")

	rec := do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",route="/things/:id",status="200"} 2`)
	assert.NotContains(t, body, `route="/things/a"`)
}
