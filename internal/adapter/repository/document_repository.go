package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
)

// StoredDocument é um documento persistido em dfe_documents
type StoredDocument struct {
	ID        string    `json:"id"`
	Key       string    `json:"chave"`
	NSU       string    `json:"nsu"`
	Schema    string    `json:"schema"`
	XML       string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentRepository implementa dfe.DocumentSink na tabela dfe_documents
type DocumentRepository struct {
	db          Querier
	party       dfe.PartyID
	environment dfe.Environment
	newID       func() string
}

// NewDocumentRepository cria o repositório de documentos do interessado
func NewDocumentRepository(db Querier, party dfe.PartyID, env dfe.Environment) *DocumentRepository {
	return &DocumentRepository{
		db:          db,
		party:       party,
		environment: env,
		newID:       func() string { return uuid.New().String() },
	}
}

// Write implementa dfe.DocumentSink; o mesmo documento recebido de novo
// apenas atualiza o XML
func (r *DocumentRepository) Write(ctx context.Context, doc dfe.Document) error {
	if doc.Key.IsZero() {
		return errors.New("documento sem chave de acesso")
	}

	query := `
		INSERT INTO dfe_documents (
			id, party, environment, access_key, nsu, schema_name, xml, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (access_key, schema_name, nsu)
		DO UPDATE SET xml = EXCLUDED.xml, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		r.newID(), string(r.party), string(r.environment), doc.KeyString(),
		doc.NSU.String(), doc.Schema, string(doc.XML))
	if err != nil {
		return fmt.Errorf("falha ao inserir documento %s: %w", doc.KeyString(), err)
	}
	return nil
}

// FindByKey lista os documentos gravados para a chave, do NSU mais recente ao mais antigo
func (r *DocumentRepository) FindByKey(ctx context.Context, key string) ([]*StoredDocument, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, access_key, nsu, schema_name, xml, created_at
		FROM dfe_documents
		WHERE access_key = $1 AND party = $2 AND environment = $3
		ORDER BY nsu DESC
	`, key, string(r.party), string(r.environment))
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar documentos: %w", err)
	}
	defer rows.Close()

	documents := []*StoredDocument{}
	for rows.Next() {
		var doc StoredDocument
		if err := rows.Scan(&doc.ID, &doc.Key, &doc.NSU, &doc.Schema, &doc.XML, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("falha ao ler documento: %w", err)
		}
		documents = append(documents, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("falha ao percorrer documentos: %w", err)
	}
	return documents, nil
}
