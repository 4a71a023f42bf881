// Package app monta os componentes do serviço de distribuição a partir da
// configuração e expõe as operações usadas pela CLI e pela API
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/repository"
	"github.com/hugohenrick/nfe-distribuicao/internal/config"
	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
	"github.com/hugohenrick/nfe-distribuicao/internal/infrastructure/database"
	"github.com/hugohenrick/nfe-distribuicao/internal/infrastructure/sefaz"
	"github.com/hugohenrick/nfe-distribuicao/internal/infrastructure/storage"
	"github.com/hugohenrick/nfe-distribuicao/internal/service/distribution"
	"github.com/hugohenrick/nfe-distribuicao/pkg/logger"
	"github.com/hugohenrick/nfe-distribuicao/pkg/pkcs12"
)

// ErrBusy indica que outra consulta está em andamento neste processo
var ErrBusy = errors.New("já existe uma consulta de distribuição em andamento")

// ErrNoHistory indica que o histórico exige DFE_STORAGE=postgres
var ErrNoHistory = errors.New("histórico disponível apenas com armazenamento postgres")

// certificateWarning é a antecedência do aviso de vencimento do certificado
const certificateWarning = 30 * 24 * time.Hour

// CursorStore é o armazenamento do NSU com suporte a reinício
type CursorStore interface {
	dfe.CursorStore
	Reset(ctx context.Context) error
}

// ScanOptions parametriza uma varredura por NSU
type ScanOptions struct {
	// Targets são as chaves procuradas; vazio baixa todos os documentos
	Targets []string
	// Reset volta o NSU para zero antes da varredura
	Reset bool
}

// CertificateInfo resume o certificado em uso
type CertificateInfo struct {
	Subject  string    `json:"subject"`
	NotAfter time.Time `json:"not_after"`
	Expired  bool      `json:"expired"`
}

// App reúne os componentes já configurados
type App struct {
	config    *config.Config
	logger    logger.Logger
	material  *dfe.SigningMaterial
	driver    *distribution.Driver
	party     dfe.PartyID
	env       dfe.Environment
	authority dfe.AuthorityCode
	cursor    CursorStore
	sink      dfe.DocumentSink
	pool      *pgxpool.Pool
	runs      *repository.RunRepository
	documents *repository.DocumentRepository
	running   sync.Mutex
	now       func() time.Time
}

// New valida a configuração, carrega o certificado e monta o driver
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuração inválida: %w", err)
	}

	a := &App{config: cfg, logger: log, now: time.Now}
	a.party, _ = cfg.PartyID()
	a.env, _ = cfg.Environment()
	a.authority, _ = cfg.AuthorityCode()

	material, err := LoadMaterial(cfg.Certificate)
	if err != nil {
		return nil, err
	}
	a.material = material
	a.checkCertificate()

	registry, err := dfe.NewRegistry(cfg.Endpoints)
	if err != nil {
		return nil, err
	}

	version, err := sefaz.ParseSOAPVersion(cfg.SOAPVersion)
	if err != nil {
		return nil, err
	}
	signer, err := sefaz.NewSigner(material, version)
	if err != nil {
		return nil, err
	}

	transport := sefaz.DefaultTransportConfig()
	transport.Timeout = cfg.Timeout
	transport.InsecureSkipVerify = cfg.TLSInsecure
	client := sefaz.NewClient(material, transport, log)

	policy := distribution.Policy{
		InterRequestDelay:   cfg.Policy.InterRequestDelay,
		RateLimitCooldown:   cfg.Policy.RateLimitCooldown,
		MaxRateLimitRetries: cfg.Policy.RateLimitRetries,
		PageSize:            cfg.Policy.PageSize,
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("política de consulta inválida: %w", err)
	}

	a.driver = distribution.NewDriver(registry, signer, client, sefaz.NewDecoder(log), policy, log)

	if err := a.setupStorage(ctx); err != nil {
		return nil, err
	}

	log.Info("Serviço de distribuição configurado",
		"party", string(a.party),
		"environment", string(a.env),
		"uf_autor", a.authority.UF(),
		"storage", cfg.Storage,
		"soap", string(version),
	)
	return a, nil
}

// setupStorage escolhe o armazenamento do NSU e dos documentos
func (a *App) setupStorage(ctx context.Context) error {
	files := storage.NewFileSink(a.config.OutputDir)

	switch a.config.Storage {
	case config.StoragePostgres:
		pool, err := database.NewPostgresPool(ctx, database.DefaultPostgresConfig(a.config.DatabaseURL))
		if err != nil {
			return err
		}
		a.pool = pool
		a.cursor = repository.NewCursorRepository(pool, a.party, a.env)
		a.documents = repository.NewDocumentRepository(pool, a.party, a.env)
		a.runs = repository.NewRunRepository(pool)
		a.sink = storage.MultiSink{files, a.documents}
		a.driver.WithRecorder(a.runs)
	default:
		a.cursor = storage.NewFileCursorStore(a.config.CursorFile)
		a.sink = files
	}
	return nil
}

// LoadMaterial lê o certificado A1 em PFX ou no par PEM
func LoadMaterial(cfg config.CertificateConfig) (*dfe.SigningMaterial, error) {
	if cfg.HasPFX() {
		material, err := pkcs12.LoadFile(cfg.PFXPath, cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("erro ao carregar certificado %s: %w", cfg.PFXPath, err)
		}
		return material, nil
	}
	material, err := pkcs12.LoadPEMFiles(cfg.CertPEM, cfg.KeyPEM)
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar certificado PEM: %w", err)
	}
	return material, nil
}

// checkCertificate avisa sobre certificado vencido ou perto do vencimento
func (a *App) checkCertificate() {
	now := a.now()
	notAfter := a.material.Certificate.NotAfter
	switch {
	case a.material.IsExpired(now):
		a.logger.Error("Certificado digital vencido", "subject", a.material.Subject(), "not_after", notAfter)
	case a.material.ExpiresWithin(now, certificateWarning):
		days := int(notAfter.Sub(now).Hours() / 24)
		a.logger.Warn("Certificado digital perto do vencimento", "subject", a.material.Subject(), "days", days)
	}
}

// Certificate retorna os dados do certificado em uso
func (a *App) Certificate() CertificateInfo {
	return CertificateInfo{
		Subject:  a.material.Subject(),
		NotAfter: a.material.Certificate.NotAfter,
		Expired:  a.material.IsExpired(a.now()),
	}
}

// Party retorna o interessado configurado
func (a *App) Party() dfe.PartyID {
	return a.party
}

// Environment retorna o ambiente configurado
func (a *App) Environment() dfe.Environment {
	return a.env
}

// Close libera as conexões abertas
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// acquire garante uma única consulta por vez no processo
func (a *App) acquire() (func(), error) {
	if !a.running.TryLock() {
		return nil, ErrBusy
	}
	return a.running.Unlock, nil
}

// FetchKey consulta um documento pela chave de acesso
func (a *App) FetchKey(ctx context.Context, rawKey string) (*distribution.KeyResult, error) {
	release, err := a.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	return a.driver.FetchKey(ctx, a.party, a.env, rawKey, a.sink)
}

// FetchKeys consulta várias chaves, uma de cada vez
func (a *App) FetchKeys(ctx context.Context, keys []string) (*distribution.BulkReport, error) {
	release, err := a.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	return a.driver.FetchKeys(ctx, a.party, a.env, keys, a.sink)
}

// Scan percorre a fila de documentos a partir do NSU salvo
func (a *App) Scan(ctx context.Context, opts ScanOptions) (*distribution.ScanResult, error) {
	targets := make([]dfe.DocumentKey, 0, len(opts.Targets))
	for _, raw := range opts.Targets {
		key, err := dfe.ParseKey(raw)
		if err != nil {
			return nil, err
		}
		targets = append(targets, key)
	}

	release, err := a.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	if opts.Reset {
		if err := a.cursor.Reset(ctx); err != nil {
			return nil, fmt.Errorf("erro ao reiniciar NSU: %w", err)
		}
		a.logger.Warn("NSU reiniciado para zero", "party", string(a.party))
	}

	return a.driver.Scan(ctx, distribution.ScanRequest{
		Party:       a.party,
		Authority:   a.authority,
		Environment: a.env,
		Targets:     targets,
		Cursor:      a.cursor,
		Sink:        a.sink,
	})
}

// CurrentCursor retorna o último NSU persistido
func (a *App) CurrentCursor(ctx context.Context) (dfe.Cursor, error) {
	return a.cursor.Load(ctx)
}

// RecentRuns lista as últimas execuções registradas no banco
func (a *App) RecentRuns(ctx context.Context, limit int) ([]*dfe.Run, error) {
	if a.runs == nil {
		return nil, ErrNoHistory
	}
	return a.runs.Recent(ctx, a.party, a.env, limit)
}

// StoredDocuments lista os documentos da chave já gravados no banco
func (a *App) StoredDocuments(ctx context.Context, rawKey string) ([]*repository.StoredDocument, error) {
	key, err := dfe.ParseKey(rawKey)
	if err != nil {
		return nil, err
	}
	if a.documents == nil {
		return nil, ErrNoHistory
	}
	return a.documents.FindByKey(ctx, key.String())
}
