package route

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/api/controller"
	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/repository"
	"github.com/hugohenrick/nfe-distribuicao/internal/app"
	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
	"github.com/hugohenrick/nfe-distribuicao/internal/service/distribution"
	"github.com/hugohenrick/nfe-distribuicao/pkg/auth"
	"github.com/hugohenrick/nfe-distribuicao/pkg/logger"
)

type stubService struct{}

func (stubService) FetchKey(context.Context, string) (*distribution.KeyResult, error) {
	return nil, app.ErrBusy
}

func (stubService) FetchKeys(context.Context, []string) (*distribution.BulkReport, error) {
	return &distribution.BulkReport{}, nil
}

func (stubService) Scan(context.Context, app.ScanOptions) (*distribution.ScanResult, error) {
	return &distribution.ScanResult{}, nil
}

func (stubService) CurrentCursor(context.Context) (dfe.Cursor, error) { return dfe.ZeroCursor, nil }
func (stubService) Party() dfe.PartyID                                 { return "34683891000140" }
func (stubService) Environment() dfe.Environment                       { return dfe.Production }
func (stubService) Certificate() app.CertificateInfo                   { return app.CertificateInfo{} }

func (stubService) RecentRuns(context.Context, int) ([]*dfe.Run, error) {
	return nil, app.ErrNoHistory
}

func (stubService) StoredDocuments(context.Context, string) ([]*repository.StoredDocument, error) {
	return nil, app.ErrNoHistory
}

func newTestRouter(t *testing.T, origins string) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService, err := auth.NewJWTService("segredo", time.Hour)
	require.NoError(t, err)
	token, _, err := jwtService.GenerateToken("fiscal", "")
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		AuthController:         controller.NewAuthController(controller.Credentials{Username: "fiscal"}, jwtService, logger.NewNop()),
		DistributionController: controller.NewDistributionController(stubService{}, logger.NewNop()),
		JWTService:             jwtService,
		CORSOrigins:            origins,
	})
	return router, token
}

func TestRouter_HealthIsPublic(t *testing.T) {
	router, _ := newTestRouter(t, "*")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, BasePath+"/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_DistributionRequiresToken(t *testing.T) {
	router, token := newTestRouter(t, "*")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, BasePath+"/dfe/nsu", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, BasePath+"/dfe/nsu", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_BusyReturnsConflict(t *testing.T) {
	router, token := newTestRouter(t, "*")

	req := httptest.NewRequest(http.MethodGet, BasePath+"/dfe/chaves/23250834683891000140650220000207061299677609", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_HistoryWithoutDatabase(t *testing.T) {
	router, token := newTestRouter(t, "*")

	for _, path := range []string{"/dfe/execucoes", "/dfe/documentos/23250834683891000140650220000207061299677609"} {
		req := httptest.NewRequest(http.MethodGet, BasePath+path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotImplemented, w.Code, path)
	}
}

func TestRouter_CORS(t *testing.T) {
	router, _ := newTestRouter(t, "https://painel.empresa.com.br")

	req := httptest.NewRequest(http.MethodOptions, BasePath+"/health", nil)
	req.Header.Set("Origin", "https://painel.empresa.com.br")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "https://painel.empresa.com.br", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSConfig(t *testing.T) {
	assert.True(t, corsConfig("*").AllowAllOrigins)
	assert.True(t, corsConfig("").AllowAllOrigins)

	cfg := corsConfig("https://a.com.br, https://b.com.br")
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://a.com.br", "https://b.com.br"}, cfg.AllowOrigins)
}
