package dto

import (
	"time"

	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/repository"
	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
	"github.com/hugohenrick/nfe-distribuicao/internal/service/distribution"
)

// DocumentResponse descreve um documento localizado
type DocumentResponse struct {
	Chave  string `json:"chave"`
	NSU    string `json:"nsu"`
	Schema string `json:"schema"`
	Resumo bool   `json:"resumo"`
}

// KeyResponse é o resultado da consulta por chave
type KeyResponse struct {
	RunID       string            `json:"run_id"`
	Chave       string            `json:"chave"`
	Encontrado  bool              `json:"encontrado"`
	Estado      string            `json:"estado"`
	CStat       string            `json:"cstat"`
	XMotivo     string            `json:"xmotivo"`
	Requisicoes int               `json:"requisicoes"`
	Documento   *DocumentResponse `json:"documento,omitempty"`
}

// BulkRequest lista as chaves do download em lote
type BulkRequest struct {
	Chaves []string `json:"chaves" binding:"required,min=1"`
}

// BulkResponse é o relatório do download em lote
type BulkResponse struct {
	Total          int                     `json:"total"`
	Salvos         int                     `json:"salvos"`
	NaoEncontrados int                     `json:"nao_encontrados"`
	Falhas         int                     `json:"falhas"`
	Invalidas      int                     `json:"invalidas"`
	Itens          []distribution.BulkItem `json:"itens"`
	Erro           string                  `json:"erro,omitempty"`
}

// ScanRequest parametriza a varredura por NSU
type ScanRequest struct {
	// Alvos são as chaves procuradas; vazio baixa todos os documentos
	Alvos []string `json:"alvos"`
	// Reiniciar volta o NSU para zero antes da varredura
	Reiniciar bool `json:"reiniciar"`
}

// ScanResponse é o resultado da varredura por NSU
type ScanResponse struct {
	RunID               string             `json:"run_id"`
	Estado              string             `json:"estado"`
	CStat               string             `json:"cstat"`
	XMotivo             string             `json:"xmotivo"`
	NSUInicial          string             `json:"nsu_inicial"`
	NSUFinal            string             `json:"nsu_final"`
	Requisicoes         int                `json:"requisicoes"`
	FalhasDecodificacao int                `json:"falhas_decodificacao"`
	Documentos          []DocumentResponse `json:"documentos"`
	Pendentes           []string           `json:"pendentes,omitempty"`
	Erro                string             `json:"erro,omitempty"`
}

// CursorResponse informa o último NSU persistido
type CursorResponse struct {
	CNPJ     string `json:"cnpj"`
	Ambiente string `json:"ambiente"`
	NSU      string `json:"nsu"`
}

// RunResponse descreve uma execução registrada
type RunResponse struct {
	ID          string    `json:"id"`
	Modo        string    `json:"modo"`
	Estado      string    `json:"estado"`
	CStat       string    `json:"cstat,omitempty"`
	XMotivo     string    `json:"xmotivo,omitempty"`
	NSUInicial  string    `json:"nsu_inicial,omitempty"`
	NSUFinal    string    `json:"nsu_final,omitempty"`
	Requisicoes int       `json:"requisicoes"`
	Localizados int       `json:"localizados"`
	Erro        string    `json:"erro,omitempty"`
	InicioEm    time.Time `json:"inicio_em"`
	FimEm       time.Time `json:"fim_em"`
}

// RunListResponse lista as execuções mais recentes
type RunListResponse struct {
	Execucoes []RunResponse `json:"execucoes"`
}

// StoredDocumentResponse descreve um documento gravado no banco
type StoredDocumentResponse struct {
	ID        string    `json:"id"`
	Chave     string    `json:"chave"`
	NSU       string    `json:"nsu"`
	Schema    string    `json:"schema"`
	XML       string    `json:"xml,omitempty"`
	GravadoEm time.Time `json:"gravado_em"`
}

// CertificateResponse resume o certificado em uso
type CertificateResponse struct {
	Titular  string    `json:"titular"`
	Validade time.Time `json:"validade"`
	Vencido  bool      `json:"vencido"`
}

// HealthResponse é a resposta do health check
type HealthResponse struct {
	Status      string              `json:"status"`
	Version     string              `json:"version"`
	CNPJ        string              `json:"cnpj"`
	Ambiente    string              `json:"ambiente"`
	Certificado CertificateResponse `json:"certificado"`
}

// ToDocumentResponse converte um documento do domínio
func ToDocumentResponse(doc dfe.Document) DocumentResponse {
	return DocumentResponse{
		Chave:  doc.KeyString(),
		NSU:    doc.NSU.String(),
		Schema: doc.Schema,
		Resumo: doc.IsSummary(),
	}
}

// ToKeyResponse converte o resultado da consulta por chave
func ToKeyResponse(r *distribution.KeyResult) KeyResponse {
	resp := KeyResponse{
		RunID:       r.RunID,
		Chave:       r.Key.String(),
		Encontrado:  r.Found,
		Estado:      string(r.State),
		CStat:       r.Status.Code,
		XMotivo:     r.Status.Reason,
		Requisicoes: r.Requests,
	}
	if r.Document != nil {
		doc := ToDocumentResponse(*r.Document)
		resp.Documento = &doc
	}
	return resp
}

// ToBulkResponse converte o relatório do download em lote
func ToBulkResponse(r *distribution.BulkReport) BulkResponse {
	items := r.Items
	if items == nil {
		items = []distribution.BulkItem{}
	}
	return BulkResponse{
		Total:          r.Total(),
		Salvos:         r.Saved,
		NaoEncontrados: r.NotFound,
		Falhas:         r.Failed,
		Invalidas:      r.Invalid,
		Itens:          items,
	}
}

// ToScanResponse converte o resultado da varredura
func ToScanResponse(r *distribution.ScanResult) ScanResponse {
	docs := make([]DocumentResponse, 0, len(r.Matched))
	for _, d := range r.Matched {
		docs = append(docs, ToDocumentResponse(d))
	}
	return ScanResponse{
		RunID:               r.RunID,
		Estado:              string(r.State),
		CStat:               r.Status.Code,
		XMotivo:             r.Status.Reason,
		NSUInicial:          r.StartCursor.String(),
		NSUFinal:            r.FinalCursor.String(),
		Requisicoes:         r.Requests,
		FalhasDecodificacao: r.DecodeFailures,
		Documentos:          docs,
		Pendentes:           r.Missing,
	}
}

// ToRunListResponse converte o histórico de execuções
func ToRunListResponse(runs []*dfe.Run) RunListResponse {
	items := make([]RunResponse, 0, len(runs))
	for _, r := range runs {
		items = append(items, RunResponse{
			ID:          r.ID,
			Modo:        r.Mode.String(),
			Estado:      string(r.State),
			CStat:       r.Status.Code,
			XMotivo:     r.Status.Reason,
			NSUInicial:  string(r.StartCursor),
			NSUFinal:    string(r.FinalCursor),
			Requisicoes: r.Requests,
			Localizados: r.Matched,
			Erro:        r.Error,
			InicioEm:    r.StartedAt,
			FimEm:       r.FinishedAt,
		})
	}
	return RunListResponse{Execucoes: items}
}

// ToStoredDocumentResponses converte os documentos gravados; o XML só é
// incluído quando solicitado
func ToStoredDocumentResponses(docs []*repository.StoredDocument, withXML bool) []StoredDocumentResponse {
	items := make([]StoredDocumentResponse, 0, len(docs))
	for _, d := range docs {
		item := StoredDocumentResponse{
			ID:        d.ID,
			Chave:     d.Key,
			NSU:       d.NSU,
			Schema:    d.Schema,
			GravadoEm: d.CreatedAt,
		}
		if withXML {
			item.XML = d.XML
		}
		items = append(items, item)
	}
	return items
}
