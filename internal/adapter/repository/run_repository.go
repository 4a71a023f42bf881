package repository

import (
	"context"
	"fmt"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
)

// RunRepository implementa dfe.RunRecorder na tabela dfe_runs
type RunRepository struct {
	db Querier
}

// NewRunRepository cria o repositório de histórico de execuções
func NewRunRepository(db Querier) *RunRepository {
	return &RunRepository{db: db}
}

// Record implementa dfe.RunRecorder
func (r *RunRepository) Record(ctx context.Context, run *dfe.Run) error {
	query := `
		INSERT INTO dfe_runs (
			id, mode, party, environment, state, cstat, xmotivo,
			start_nsu, final_nsu, requests, matched, error, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.Exec(ctx, query,
		run.ID, run.Mode.String(), string(run.Party), string(run.Environment), string(run.State),
		nullable(run.Status.Code), nullable(run.Status.Reason),
		nullable(string(run.StartCursor)), nullable(string(run.FinalCursor)),
		run.Requests, run.Matched, nullable(run.Error), run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("falha ao registrar execução %s: %w", run.ID, err)
	}
	return nil
}

// Recent lista as últimas execuções do interessado
func (r *RunRepository) Recent(ctx context.Context, party dfe.PartyID, env dfe.Environment, limit int) ([]*dfe.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, mode, state, COALESCE(cstat, ''), COALESCE(xmotivo, ''),
		       COALESCE(start_nsu, ''), COALESCE(final_nsu, ''),
		       requests, matched, COALESCE(error, ''), started_at, finished_at
		FROM dfe_runs
		WHERE party = $1 AND environment = $2
		ORDER BY started_at DESC
		LIMIT $3
	`, string(party), string(env), limit)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar execuções: %w", err)
	}
	defer rows.Close()

	runs := []*dfe.Run{}
	for rows.Next() {
		var (
			run         dfe.Run
			mode, state string
			start, end  string
		)
		err := rows.Scan(&run.ID, &mode, &state, &run.Status.Code, &run.Status.Reason,
			&start, &end, &run.Requests, &run.Matched, &run.Error, &run.StartedAt, &run.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("falha ao ler execução: %w", err)
		}
		run.Party = party
		run.Environment = env
		run.Mode = parseMode(mode)
		run.State = dfe.RunState(state)
		run.StartCursor = dfe.Cursor(start)
		run.FinalCursor = dfe.Cursor(end)
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("falha ao percorrer execuções: %w", err)
	}
	return runs, nil
}

func parseMode(s string) dfe.QueryMode {
	if s == dfe.SingleKey.String() {
		return dfe.SingleKey
	}
	return dfe.CursorScan
}

// nullable converte texto vazio em NULL
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
