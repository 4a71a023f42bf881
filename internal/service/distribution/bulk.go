package distribution

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
)

// BulkStatus é o desfecho de uma chave no download em lote
type BulkStatus string

const (
	BulkSaved    BulkStatus = "salvo"
	BulkNotFound BulkStatus = "nao_encontrado"
	BulkFailed   BulkStatus = "falha"
	BulkInvalid  BulkStatus = "invalida"
)

// BulkItem registra o resultado de uma chave
type BulkItem struct {
	Key    string     `json:"chave"`
	Status BulkStatus `json:"status"`
	CStat  string     `json:"cstat,omitempty"`
	Reason string     `json:"motivo,omitempty"`
}

// BulkReport consolida o download em lote
type BulkReport struct {
	Items    []BulkItem `json:"itens"`
	Saved    int        `json:"salvos"`
	NotFound int        `json:"nao_encontrados"`
	Failed   int        `json:"falhas"`
	Invalid  int        `json:"invalidas"`
}

// Total retorna a quantidade de chaves processadas
func (r *BulkReport) Total() int {
	return len(r.Items)
}

func (r *BulkReport) add(item BulkItem) {
	r.Items = append(r.Items, item)
	switch item.Status {
	case BulkSaved:
		r.Saved++
	case BulkNotFound:
		r.NotFound++
	case BulkFailed:
		r.Failed++
	case BulkInvalid:
		r.Invalid++
	}
}

// FetchKeys baixa cada chave com uma consulta própria, uma de cada vez,
// respeitando o intervalo entre consultas. Chaves inválidas ou repetidas não
// geram requisição. Cancelamento e erros fatais interrompem o lote e retornam
// o relatório parcial.
func (d *Driver) FetchKeys(ctx context.Context, party dfe.PartyID, env dfe.Environment, keys []string, sink dfe.DocumentSink) (*BulkReport, error) {
	if sink == nil {
		return nil, errors.New("destino dos documentos não informado")
	}

	report := &BulkReport{}
	seen := make(map[string]bool, len(keys))
	queried := false

	for _, raw := range keys {
		key := strings.TrimSpace(raw)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		parsed, err := dfe.ParseKey(key)
		if err == nil {
			_, err = d.registry.ResolveKey(parsed)
		}
		if err != nil {
			report.add(BulkItem{Key: key, Status: BulkInvalid, Reason: err.Error()})
			continue
		}

		if queried {
			if err := d.sleep(ctx, d.policy.InterRequestDelay); err != nil {
				return report, err
			}
		}
		queried = true

		result, err := d.FetchKey(ctx, party, env, key, sink)
		switch {
		case err == nil && result.Found:
			report.add(BulkItem{Key: key, Status: BulkSaved, CStat: result.Status.Code})
		case err == nil:
			report.add(BulkItem{Key: key, Status: BulkNotFound, CStat: result.Status.Code, Reason: result.Status.Reason})
		case dfe.IsValidation(err):
			report.add(BulkItem{Key: key, Status: BulkInvalid, Reason: err.Error()})
		case dfe.IsFatal(err):
			return report, err
		default:
			item := BulkItem{Key: key, Status: BulkFailed, Reason: err.Error()}
			if status, ok := dfe.StatusOf(err); ok {
				item.CStat = status.Code
				item.Reason = status.Reason
			}
			report.add(item)
		}
	}

	d.logger.Info("download em lote concluído",
		"total", report.Total(),
		"salvos", report.Saved,
		"nao_encontrados", report.NotFound,
		"falhas", report.Failed,
		"invalidas", report.Invalid)
	return report, nil
}

// ReadKeys lê uma chave por linha, ignorando linhas em branco e comentários (#)
func ReadKeys(r io.Reader) ([]string, error) {
	var keys []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("erro ao ler lista de chaves: %w", err)
	}
	return keys, nil
}
