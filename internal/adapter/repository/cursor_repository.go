package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
)

// CursorRepository implementa dfe.CursorStore na tabela dfe_cursors,
// com uma linha por interessado e ambiente
type CursorRepository struct {
	db          Querier
	party       dfe.PartyID
	environment dfe.Environment
}

// NewCursorRepository cria o repositório do NSU do interessado
func NewCursorRepository(db Querier, party dfe.PartyID, env dfe.Environment) *CursorRepository {
	return &CursorRepository{
		db:          db,
		party:       party,
		environment: env,
	}
}

// Load implementa dfe.CursorStore
func (r *CursorRepository) Load(ctx context.Context) (dfe.Cursor, error) {
	var nsu string
	err := r.db.QueryRow(ctx,
		"SELECT nsu FROM dfe_cursors WHERE party = $1 AND environment = $2",
		string(r.party), string(r.environment)).Scan(&nsu)
	if errors.Is(err, pgx.ErrNoRows) {
		return dfe.ZeroCursor, nil
	}
	if err != nil {
		return "", fmt.Errorf("falha ao buscar NSU: %w", err)
	}

	cursor, err := dfe.ParseCursor(nsu)
	if err != nil {
		return "", fmt.Errorf("NSU inválido no banco: %w", err)
	}
	return cursor, nil
}

// Save implementa dfe.CursorStore. GREATEST impede que uma execução
// concorrente mais antiga faça o NSU regredir.
func (r *CursorRepository) Save(ctx context.Context, cursor dfe.Cursor) error {
	query := `
		INSERT INTO dfe_cursors (party, environment, nsu, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (party, environment)
		DO UPDATE SET nsu = GREATEST(dfe_cursors.nsu, EXCLUDED.nsu), updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, string(r.party), string(r.environment), cursor.String()); err != nil {
		return fmt.Errorf("falha ao salvar NSU: %w", err)
	}
	return nil
}

// Reset volta o NSU do interessado para zero
func (r *CursorRepository) Reset(ctx context.Context) error {
	_, err := r.db.Exec(ctx,
		"UPDATE dfe_cursors SET nsu = $3, updated_at = NOW() WHERE party = $1 AND environment = $2",
		string(r.party), string(r.environment), dfe.ZeroCursor.String())
	if err != nil {
		return fmt.Errorf("falha ao reiniciar NSU: %w", err)
	}
	return nil
}
