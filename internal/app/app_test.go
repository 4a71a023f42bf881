package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugohenrick/nfe-distribuicao/internal/config"
	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
	"github.com/hugohenrick/nfe-distribuicao/internal/service/distribution"
	"github.com/hugohenrick/nfe-distribuicao/internal/testutil"
	"github.com/hugohenrick/nfe-distribuicao/pkg/logger"
)

// fakeSefaz responde consultas por chave com o nfeProc e consultas por NSU
// com dois documentos, esvaziando a fila
func fakeSefaz(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/soap+xml; charset=utf-8")

		if bytes.Contains(body, []byte("consChNFe")) {
			key := testutil.Key("23", 1)
			_, _ = w.Write(testutil.RetDistDFeInt("138", "Documento localizado", "", "",
				testutil.DocZip{NSU: testutil.NSU(0), Schema: "procNFe_v4.00", XML: testutil.ProcNFe(key)}))
			return
		}
		_, _ = w.Write(testutil.RetDistDFeInt("138", "Documento localizado", testutil.NSU(2), testutil.NSU(2),
			testutil.DocZip{NSU: testutil.NSU(1), Schema: "procNFe_v4.00", XML: testutil.ProcNFe(testutil.Key("23", 1))},
			testutil.DocZip{NSU: testutil.NSU(2), Schema: "resNFe_v1.01", XML: testutil.ResNFe(testutil.Key("23", 2))},
		))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, endpoint string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	pfxPath := filepath.Join(dir, "empresa.pfx")
	require.NoError(t, os.WriteFile(pfxPath, testutil.PFX(t, testutil.SharedIdentity(t), "1234"), 0o600))

	return &config.Config{
		Certificate: config.CertificateConfig{PFXPath: pfxPath, Password: "1234"},
		CNPJ:        "34683891000140",
		UFAutor:     "CE",
		Ambiente:    "2",
		Timeout:     5 * time.Second,
		TLSInsecure: true,
		SOAPVersion: "1.2",
		OutputDir:   filepath.Join(dir, "xml"),
		CursorFile:  filepath.Join(dir, "ultimo_nsu.txt"),
		Storage:     config.StorageFile,
		Policy:      config.PolicyConfig{RateLimitRetries: 3, PageSize: 50},
		Endpoints:   map[string]string{"23": endpoint},
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(context.Background(), &config.Config{Storage: config.StorageFile, Timeout: time.Second}, nil)
	assert.ErrorContains(t, err, "configuração inválida")
}

func TestNew_WrongPassword(t *testing.T) {
	cfg := testConfig(t, "https://localhost")
	cfg.Certificate.Password = "errada"

	_, err := New(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "erro ao carregar certificado")
}

func TestFetchKey_EndToEnd(t *testing.T) {
	srv := fakeSefaz(t)
	cfg := testConfig(t, srv.URL)

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	key := testutil.Key("23", 1)
	result, err := a.FetchKey(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, "138", result.Status.Code)

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, key+".xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<nfeProc")
}

func TestScan_EndToEnd(t *testing.T) {
	srv := fakeSefaz(t)
	cfg := testConfig(t, srv.URL)

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	result, err := a.Scan(context.Background(), ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, distribution.StateDone, result.State)
	assert.Equal(t, dfe.Cursor(testutil.NSU(2)), result.FinalCursor)
	assert.Len(t, result.Matched, 2)

	cursor, err := a.CurrentCursor(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dfe.Cursor(testutil.NSU(2)), cursor)

	assert.FileExists(t, filepath.Join(cfg.OutputDir, testutil.Key("23", 1)+".xml"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, testutil.Key("23", 2)+"-resNFe-"+testutil.NSU(2)+".xml"))
}

func TestScan_Reset(t *testing.T) {
	srv := fakeSefaz(t)
	cfg := testConfig(t, srv.URL)
	require.NoError(t, os.WriteFile(cfg.CursorFile, []byte(testutil.NSU(900)), 0o644))

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)

	result, err := a.Scan(context.Background(), ScanOptions{Reset: true})
	require.NoError(t, err)
	assert.Equal(t, dfe.ZeroCursor, result.StartCursor)
}

func TestScan_InvalidTarget(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, "https://localhost"), nil)
	require.NoError(t, err)

	_, err = a.Scan(context.Background(), ScanOptions{Targets: []string{"123"}})
	assert.True(t, dfe.IsValidation(err))
}

func TestSingleRunPerProcess(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, "https://localhost"), nil)
	require.NoError(t, err)

	a.running.Lock()
	defer a.running.Unlock()

	_, err = a.FetchKey(context.Background(), testutil.Key("23", 1))
	assert.ErrorIs(t, err, ErrBusy)
	_, err = a.FetchKeys(context.Background(), []string{testutil.Key("23", 1)})
	assert.ErrorIs(t, err, ErrBusy)
	_, err = a.Scan(context.Background(), ScanOptions{})
	assert.ErrorIs(t, err, ErrBusy)
}

func TestHistoryRequiresPostgres(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, "https://localhost"), nil)
	require.NoError(t, err)

	_, err = a.RecentRuns(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNoHistory)
	_, err = a.StoredDocuments(context.Background(), testutil.Key("23", 1))
	assert.ErrorIs(t, err, ErrNoHistory)

	_, err = a.StoredDocuments(context.Background(), "123")
	assert.True(t, dfe.IsValidation(err))
}

func TestCheckCertificate(t *testing.T) {
	var buf bytes.Buffer
	a, err := New(context.Background(), testConfig(t, "https://localhost"), logger.New(logger.Options{Output: &buf}))
	require.NoError(t, err)

	notAfter := a.material.Certificate.NotAfter
	a.now = func() time.Time { return notAfter.Add(-10 * 24 * time.Hour) }
	a.checkCertificate()
	assert.Contains(t, buf.String(), "perto do vencimento")

	buf.Reset()
	a.now = func() time.Time { return notAfter.Add(time.Hour) }
	a.checkCertificate()
	assert.Contains(t, buf.String(), "vencido")
	assert.True(t, a.Certificate().Expired)
	assert.True(t, strings.Contains(a.Certificate().Subject, "EMPRESA TESTE LTDA"))
}
