package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/api/dto"
	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/repository"
	"github.com/hugohenrick/nfe-distribuicao/internal/app"
	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
	"github.com/hugohenrick/nfe-distribuicao/internal/service/distribution"
	"github.com/hugohenrick/nfe-distribuicao/pkg/auth"
	"github.com/hugohenrick/nfe-distribuicao/pkg/logger"
)

const sampleKey = "23250834683891000140650220000207061299677609"

type fakeService struct {
	keyResult *distribution.KeyResult
	bulk      *distribution.BulkReport
	scan      *distribution.ScanResult
	scanOpts  app.ScanOptions
	bulkKeys  []string
	cursor    dfe.Cursor
	runs      []*dfe.Run
	stored    []*repository.StoredDocument
	limit     int
	err       error
}

func (f *fakeService) FetchKey(_ context.Context, rawKey string) (*distribution.KeyResult, error) {
	if _, err := dfe.ParseKey(rawKey); err != nil {
		return nil, err
	}
	return f.keyResult, f.err
}

func (f *fakeService) FetchKeys(_ context.Context, keys []string) (*distribution.BulkReport, error) {
	f.bulkKeys = keys
	return f.bulk, f.err
}

func (f *fakeService) Scan(_ context.Context, opts app.ScanOptions) (*distribution.ScanResult, error) {
	f.scanOpts = opts
	return f.scan, f.err
}

func (f *fakeService) CurrentCursor(context.Context) (dfe.Cursor, error) {
	return f.cursor, f.err
}

func (f *fakeService) RecentRuns(_ context.Context, limit int) ([]*dfe.Run, error) {
	f.limit = limit
	return f.runs, f.err
}

func (f *fakeService) StoredDocuments(_ context.Context, rawKey string) ([]*repository.StoredDocument, error) {
	if _, err := dfe.ParseKey(rawKey); err != nil {
		return nil, err
	}
	return f.stored, f.err
}

func (f *fakeService) Party() dfe.PartyID { return "34683891000140" }

func (f *fakeService) Environment() dfe.Environment { return dfe.Homologation }

func (f *fakeService) Certificate() app.CertificateInfo {
	return app.CertificateInfo{Subject: "CN=EMPRESA TESTE LTDA", NotAfter: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func newRouter(svc DistributionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	c := NewDistributionController(svc, logger.NewNop())
	r := gin.New()
	r.GET("/health", c.Health)
	r.GET("/dfe/chaves/:chave", c.GetByKey)
	r.POST("/dfe/chaves", c.FetchKeys)
	r.POST("/dfe/nsu/consultar", c.Scan)
	r.GET("/dfe/nsu", c.GetCursor)
	r.GET("/dfe/execucoes", c.ListRuns)
	r.GET("/dfe/documentos/:chave", c.ListStored)
	return r
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	w := do(newRouter(&fakeService{}), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[dto.HealthResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "34683891000140", resp.CNPJ)
	assert.Equal(t, "homologation", resp.Ambiente)
	assert.Equal(t, "CN=EMPRESA TESTE LTDA", resp.Certificado.Titular)
}

func TestGetByKey_Found(t *testing.T) {
	key := dfe.MustParseKey(sampleKey)
	doc := dfe.Document{NSU: "000000000000000", Schema: "procNFe_v4.00", Key: key}
	svc := &fakeService{keyResult: &distribution.KeyResult{
		RunID: "run-1", Key: key, Found: true, Document: &doc,
		State: distribution.StateDone, Status: dfe.Status{Code: "138", Reason: "Documento localizado"}, Requests: 1,
	}}

	w := do(newRouter(svc), http.MethodGet, "/dfe/chaves/"+sampleKey, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[dto.KeyResponse](t, w)
	assert.True(t, resp.Encontrado)
	assert.Equal(t, "138", resp.CStat)
	require.NotNil(t, resp.Documento)
	assert.Equal(t, "procNFe_v4.00", resp.Documento.Schema)
}

func TestGetByKey_NotFound(t *testing.T) {
	svc := &fakeService{keyResult: &distribution.KeyResult{
		Key: dfe.MustParseKey(sampleKey), State: distribution.StateDone,
		Status: dfe.Status{Code: "137", Reason: "Nenhum documento localizado"},
	}}

	w := do(newRouter(svc), http.MethodGet, "/dfe/chaves/"+sampleKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, decode[dto.KeyResponse](t, w).Encontrado)
}

func TestGetByKey_Errors(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		err    error
		status int
		cstat  string
	}{
		{"chave inválida", "123", nil, http.StatusBadRequest, ""},
		{"consulta em andamento", sampleKey, app.ErrBusy, http.StatusConflict, ""},
		{"rejeição", sampleKey, &dfe.RejectedError{Status: dfe.Status{Code: "632", Reason: "Solicitação fora de prazo"}}, http.StatusUnprocessableEntity, "632"},
		{"timeout", sampleKey, &dfe.TransportError{Kind: dfe.TransportTimeout}, http.StatusGatewayTimeout, ""},
		{"rede", sampleKey, &dfe.TransportError{Kind: dfe.TransportNetwork, StatusCode: 503}, http.StatusBadGateway, ""},
		{"consumo indevido", sampleKey, &dfe.RateLimitExceededError{Status: dfe.Status{Code: "656"}, Attempts: 4}, http.StatusTooManyRequests, "656"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			w := do(newRouter(svc), http.MethodGet, "/dfe/chaves/"+tt.key, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.cstat, decode[dto.ErrorResponse](t, w).CStat)
		})
	}
}

func TestFetchKeys(t *testing.T) {
	svc := &fakeService{bulk: &distribution.BulkReport{
		Items: []distribution.BulkItem{{Key: sampleKey, Status: distribution.BulkSaved}, {Key: "123", Status: distribution.BulkInvalid}},
		Saved: 1, Invalid: 1,
	}}

	w := do(newRouter(svc), http.MethodPost, "/dfe/chaves", dto.BulkRequest{Chaves: []string{sampleKey, "123"}})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[dto.BulkResponse](t, w)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Salvos)
	assert.Equal(t, 1, resp.Invalidas)
	assert.Equal(t, []string{sampleKey, "123"}, svc.bulkKeys)
}

func TestFetchKeys_EmptyList(t *testing.T) {
	w := do(newRouter(&fakeService{}), http.MethodPost, "/dfe/chaves", dto.BulkRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFetchKeys_PartialReportOnCancel(t *testing.T) {
	svc := &fakeService{
		bulk: &distribution.BulkReport{Items: []distribution.BulkItem{{Key: sampleKey, Status: distribution.BulkNotFound}}, NotFound: 1},
		err:  context.Canceled,
	}
	w := do(newRouter(svc), http.MethodPost, "/dfe/chaves", dto.BulkRequest{Chaves: []string{sampleKey}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	resp := decode[dto.BulkResponse](t, w)
	assert.Equal(t, 1, resp.NaoEncontrados)
	assert.NotEmpty(t, resp.Erro)
}

func TestScan(t *testing.T) {
	key := dfe.MustParseKey(sampleKey)
	svc := &fakeService{scan: &distribution.ScanResult{
		RunID: "run-1", State: distribution.StateDone,
		Status:      dfe.Status{Code: "137", Reason: "Nenhum documento localizado"},
		StartCursor: "000000000000000", FinalCursor: "000000000000012",
		Matched:  []dfe.Document{{NSU: "000000000000012", Schema: "resNFe_v1.01", Key: key}},
		Requests: 2,
	}}

	w := do(newRouter(svc), http.MethodPost, "/dfe/nsu/consultar", dto.ScanRequest{Alvos: []string{sampleKey}, Reiniciar: true})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[dto.ScanResponse](t, w)
	assert.Equal(t, "DONE", resp.Estado)
	assert.Equal(t, "000000000000012", resp.NSUFinal)
	require.Len(t, resp.Documentos, 1)
	assert.True(t, resp.Documentos[0].Resumo)
	assert.Equal(t, app.ScanOptions{Targets: []string{sampleKey}, Reset: true}, svc.scanOpts)
}

func TestScan_WithoutBody(t *testing.T) {
	svc := &fakeService{scan: &distribution.ScanResult{State: distribution.StateDone}}
	w := do(newRouter(svc), http.MethodPost, "/dfe/nsu/consultar", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, svc.scanOpts.Targets)
}

func TestScan_AbortedKeepsPartialResult(t *testing.T) {
	svc := &fakeService{
		scan: &distribution.ScanResult{
			State:       distribution.StateAborted,
			Status:      dfe.Status{Code: "656", Reason: "Consumo Indevido"},
			FinalCursor: "000000000000050",
		},
		err: &dfe.RateLimitExceededError{Status: dfe.Status{Code: "656", Reason: "Consumo Indevido"}, Attempts: 4},
	}

	w := do(newRouter(svc), http.MethodPost, "/dfe/nsu/consultar", dto.ScanRequest{})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	resp := decode[dto.ScanResponse](t, w)
	assert.Equal(t, "ABORTED", resp.Estado)
	assert.Equal(t, "000000000000050", resp.NSUFinal)
	assert.NotEmpty(t, resp.Erro)
}

func TestScan_LogsOperator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	svc := &fakeService{scan: &distribution.ScanResult{State: distribution.StateDone}}
	c := NewDistributionController(svc, logger.New(logger.Options{Output: &buf}))

	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		ctx.Set(auth.ContextUsername, "fiscal")
		ctx.Next()
	})
	r.POST("/dfe/nsu/consultar", c.Scan)

	w := do(r, http.MethodPost, "/dfe/nsu/consultar", dto.ScanRequest{Reiniciar: true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), "operador=fiscal")
	assert.Contains(t, buf.String(), "reiniciar=true")
}

func TestGetCursor(t *testing.T) {
	w := do(newRouter(&fakeService{cursor: "000000000000321"}), http.MethodGet, "/dfe/nsu", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "000000000000321", decode[dto.CursorResponse](t, w).NSU)
}

func TestListRuns(t *testing.T) {
	started := time.Date(2025, 8, 14, 10, 0, 0, 0, time.UTC)
	svc := &fakeService{runs: []*dfe.Run{{
		ID: "run-1", Mode: dfe.CursorScan, State: dfe.RunDone,
		Status:      dfe.Status{Code: "137", Reason: "Nenhum documento localizado"},
		FinalCursor: "000000000000012", Requests: 2, StartedAt: started, FinishedAt: started.Add(time.Minute),
	}}}

	w := do(newRouter(svc), http.MethodGet, "/dfe/execucoes?limite=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, svc.limit)

	resp := decode[dto.RunListResponse](t, w)
	require.Len(t, resp.Execucoes, 1)
	assert.Equal(t, "DONE", resp.Execucoes[0].Estado)
	assert.Equal(t, dfe.CursorScan.String(), resp.Execucoes[0].Modo)
	assert.Equal(t, "000000000000012", resp.Execucoes[0].NSUFinal)
}

func TestListRuns_InvalidLimit(t *testing.T) {
	w := do(newRouter(&fakeService{}), http.MethodGet, "/dfe/execucoes?limite=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRuns_WithoutDatabase(t *testing.T) {
	w := do(newRouter(&fakeService{err: app.ErrNoHistory}), http.MethodGet, "/dfe/execucoes", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestListStored(t *testing.T) {
	svc := &fakeService{stored: []*repository.StoredDocument{{
		ID: "doc-1", Key: sampleKey, NSU: "000000000000010", Schema: "procNFe_v4.00", XML: "<nfeProc/>",
	}}}
	router := newRouter(svc)

	w := do(router, http.MethodGet, "/dfe/documentos/"+sampleKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	docs := decode[[]dto.StoredDocumentResponse](t, w)
	require.Len(t, docs, 1)
	assert.Equal(t, "procNFe_v4.00", docs[0].Schema)
	assert.Empty(t, docs[0].XML)

	w = do(router, http.MethodGet, "/dfe/documentos/"+sampleKey+"?xml=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<nfeProc/>", decode[[]dto.StoredDocumentResponse](t, w)[0].XML)

	w = do(router, http.MethodGet, "/dfe/documentos/123", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hash, err := auth.HashPassword("s3nha")
	require.NoError(t, err)
	jwtService, err := auth.NewJWTService("segredo", time.Hour)
	require.NoError(t, err)

	c := NewAuthController(Credentials{Username: "fiscal", PasswordHash: hash}, jwtService, logger.NewNop())
	r := gin.New()
	r.POST("/auth/login", c.Login)

	w := do(r, http.MethodPost, "/auth/login", dto.LoginRequest{Username: "fiscal", Password: "s3nha"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[dto.LoginResponse](t, w)
	assert.Equal(t, "Bearer", resp.TokenType)

	claims, err := jwtService.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "fiscal", claims.Username)

	w = do(r, http.MethodPost, "/auth/login", dto.LoginRequest{Username: "fiscal", Password: "errada"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/auth/login", map[string]string{"username": "fiscal"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
