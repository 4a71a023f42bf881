package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/api/dto"
	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/repository"
	"github.com/hugohenrick/nfe-distribuicao/internal/app"
	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
	"github.com/hugohenrick/nfe-distribuicao/internal/service/distribution"
	"github.com/hugohenrick/nfe-distribuicao/pkg/auth"
	"github.com/hugohenrick/nfe-distribuicao/pkg/logger"
)

// Version é a versão reportada pelo health check
var Version = "1.0.0"

// DistributionService são as operações do serviço de distribuição usadas pela API
type DistributionService interface {
	FetchKey(ctx context.Context, rawKey string) (*distribution.KeyResult, error)
	FetchKeys(ctx context.Context, keys []string) (*distribution.BulkReport, error)
	Scan(ctx context.Context, opts app.ScanOptions) (*distribution.ScanResult, error)
	CurrentCursor(ctx context.Context) (dfe.Cursor, error)
	RecentRuns(ctx context.Context, limit int) ([]*dfe.Run, error)
	StoredDocuments(ctx context.Context, rawKey string) ([]*repository.StoredDocument, error)
	Party() dfe.PartyID
	Environment() dfe.Environment
	Certificate() app.CertificateInfo
}

// DistributionController gerencia as consultas ao serviço de distribuição
type DistributionController struct {
	service DistributionService
	logger  logger.Logger
}

// NewDistributionController cria uma nova instância de DistributionController
func NewDistributionController(service DistributionService, log logger.Logger) *DistributionController {
	return &DistributionController{
		service: service,
		logger:  log,
	}
}

// Health informa o estado da API e do certificado
// @Summary Health check
// @Tags sistema
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (c *DistributionController) Health(ctx *gin.Context) {
	cert := c.service.Certificate()
	status := "ok"
	if cert.Expired {
		status = "certificado_vencido"
	}
	ctx.JSON(http.StatusOK, dto.HealthResponse{
		Status:   status,
		Version:  Version,
		CNPJ:     string(c.service.Party()),
		Ambiente: string(c.service.Environment()),
		Certificado: dto.CertificateResponse{
			Titular:  cert.Subject,
			Validade: cert.NotAfter,
			Vencido:  cert.Expired,
		},
	})
}

// GetByKey consulta um documento pela chave de acesso
// @Summary Consulta por chave de acesso
// @Description Consulta a NF-e/NFC-e pela chave (consChNFe) e grava o XML localizado
// @Tags distribuicao
// @Produce json
// @Security Bearer
// @Param chave path string true "Chave de acesso (44 dígitos)"
// @Success 200 {object} dto.KeyResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.KeyResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /dfe/chaves/{chave} [get]
func (c *DistributionController) GetByKey(ctx *gin.Context) {
	c.logger.Info("Consulta por chave solicitada", "operador", auth.CurrentUser(ctx), "chave", ctx.Param("chave"))

	result, err := c.service.FetchKey(ctx.Request.Context(), ctx.Param("chave"))
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	status := http.StatusOK
	if !result.Found {
		status = http.StatusNotFound
	}
	ctx.JSON(status, dto.ToKeyResponse(result))
}

// FetchKeys baixa várias chaves em sequência
// @Summary Download em lote
// @Description Consulta cada chave informada, respeitando o intervalo entre consultas
// @Tags distribuicao
// @Accept json
// @Produce json
// @Security Bearer
// @Param lote body dto.BulkRequest true "Chaves de acesso"
// @Success 200 {object} dto.BulkResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /dfe/chaves [post]
func (c *DistributionController) FetchKeys(ctx *gin.Context) {
	var request dto.BulkRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	c.logger.Info("Download em lote solicitado", "operador", auth.CurrentUser(ctx), "chaves", len(request.Chaves))

	report, err := c.service.FetchKeys(ctx.Request.Context(), request.Chaves)
	if err != nil && report == nil {
		c.respondError(ctx, err)
		return
	}

	resp := dto.ToBulkResponse(report)
	if err != nil {
		resp.Erro = err.Error()
		ctx.JSON(statusFor(err), resp)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Scan percorre a fila de documentos a partir do último NSU
// @Summary Consulta por NSU
// @Description Percorre os documentos do interessado a partir do último NSU salvo
// @Tags distribuicao
// @Accept json
// @Produce json
// @Security Bearer
// @Param consulta body dto.ScanRequest false "Chaves procuradas e reinício do NSU"
// @Success 200 {object} dto.ScanResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ScanResponse
// @Failure 502 {object} dto.ScanResponse
// @Router /dfe/nsu/consultar [post]
func (c *DistributionController) Scan(ctx *gin.Context) {
	var request dto.ScanRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&request); err != nil {
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
			return
		}
	}

	c.logger.Info("Consulta por NSU solicitada",
		"operador", auth.CurrentUser(ctx),
		"alvos", len(request.Alvos),
		"reiniciar", request.Reiniciar)

	result, err := c.service.Scan(ctx.Request.Context(), app.ScanOptions{
		Targets: request.Alvos,
		Reset:   request.Reiniciar,
	})
	if err != nil && result == nil {
		c.respondError(ctx, err)
		return
	}

	resp := dto.ToScanResponse(result)
	if err != nil {
		resp.Erro = err.Error()
		ctx.JSON(statusFor(err), resp)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetCursor retorna o último NSU persistido
// @Summary Último NSU
// @Tags distribuicao
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.CursorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /dfe/nsu [get]
func (c *DistributionController) GetCursor(ctx *gin.Context) {
	cursor, err := c.service.CurrentCursor(ctx.Request.Context())
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.CursorResponse{
		CNPJ:     string(c.service.Party()),
		Ambiente: string(c.service.Environment()),
		NSU:      cursor.String(),
	})
}

// ListRuns lista as últimas execuções registradas
// @Summary Histórico de execuções
// @Description Disponível apenas com DFE_STORAGE=postgres
// @Tags historico
// @Produce json
// @Security Bearer
// @Param limite query int false "Quantidade de execuções (padrão 20)"
// @Success 200 {object} dto.RunListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 501 {object} dto.ErrorResponse
// @Router /dfe/execucoes [get]
func (c *DistributionController) ListRuns(ctx *gin.Context) {
	limit := 20
	if raw := ctx.Query("limite"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", "limite deve estar entre 1 e 500"))
			return
		}
		limit = n
	}

	runs, err := c.service.RecentRuns(ctx.Request.Context(), limit)
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToRunListResponse(runs))
}

// ListStored lista os documentos da chave já gravados no banco
// @Summary Documentos gravados
// @Description Disponível apenas com DFE_STORAGE=postgres; xml=true inclui o XML
// @Tags historico
// @Produce json
// @Security Bearer
// @Param chave path string true "Chave de acesso (44 dígitos)"
// @Param xml query bool false "Inclui o XML"
// @Success 200 {array} dto.StoredDocumentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 501 {object} dto.ErrorResponse
// @Router /dfe/documentos/{chave} [get]
func (c *DistributionController) ListStored(ctx *gin.Context) {
	docs, err := c.service.StoredDocuments(ctx.Request.Context(), ctx.Param("chave"))
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	withXML, _ := strconv.ParseBool(ctx.Query("xml"))
	ctx.JSON(http.StatusOK, dto.ToStoredDocumentResponses(docs, withXML))
}

// respondError converte os erros do domínio em respostas HTTP
func (c *DistributionController) respondError(ctx *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		c.logger.Error("Erro na consulta de distribuição", "path", ctx.FullPath(), "error", err)
	}

	resp := dto.NewErrorResponse(status, messageFor(err), err.Error())
	if s, ok := dfe.StatusOf(err); ok {
		resp.CStat = s.Code
	}
	ctx.JSON(status, resp)
}

func statusFor(err error) int {
	var (
		rejected    *dfe.RejectedError
		rateLimited *dfe.RateLimitExceededError
		transport   *dfe.TransportError
		unknown     *dfe.UnrecognizedError
	)
	switch {
	case errors.Is(err, app.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, app.ErrNoHistory):
		return http.StatusNotImplemented
	case dfe.IsValidation(err):
		return http.StatusBadRequest
	case errors.As(err, &rejected):
		return http.StatusUnprocessableEntity
	case errors.As(err, &rateLimited):
		return http.StatusTooManyRequests
	case errors.As(err, &transport):
		if transport.Kind == dfe.TransportTimeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.As(err, &unknown):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func messageFor(err error) string {
	switch statusFor(err) {
	case http.StatusConflict:
		return "Consulta em andamento"
	case http.StatusNotImplemented:
		return "Histórico indisponível"
	case http.StatusBadRequest:
		return "Requisição inválida"
	case http.StatusUnprocessableEntity:
		return "Consulta rejeitada pela SEFAZ"
	case http.StatusTooManyRequests:
		return "Consumo indevido"
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return "Falha na comunicação com a SEFAZ"
	case http.StatusServiceUnavailable:
		return "Consulta interrompida"
	}
	return "Erro interno"
}
