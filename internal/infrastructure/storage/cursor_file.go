// Package storage implementa a persistência em arquivo do NSU e dos documentos
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
)

// FileCursorStore guarda o NSU em um arquivo texto de 15 dígitos
type FileCursorStore struct {
	path string
}

// NewFileCursorStore cria o armazenamento no caminho informado
func NewFileCursorStore(path string) *FileCursorStore {
	return &FileCursorStore{path: path}
}

// Path retorna o caminho do arquivo
func (s *FileCursorStore) Path() string {
	return s.path
}

// Load lê o NSU salvo; arquivo ausente ou vazio equivale ao NSU zero
func (s *FileCursorStore) Load(ctx context.Context) (dfe.Cursor, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return dfe.ZeroCursor, nil
	}
	if err != nil {
		return "", fmt.Errorf("erro ao ler NSU de %s: %w", s.path, err)
	}

	cursor, err := dfe.ParseCursor(strings.TrimSpace(string(data)))
	if err != nil {
		return "", fmt.Errorf("conteúdo inválido em %s: %w", s.path, err)
	}
	return cursor, nil
}

// Save grava o NSU em um arquivo temporário e o renomeia sobre o original,
// de modo que uma interrupção nunca deixa o arquivo pela metade.
func (s *FileCursorStore) Save(ctx context.Context, cursor dfe.Cursor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("erro ao criar diretório %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("erro ao criar arquivo temporário: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(cursor.String()); err != nil {
		tmp.Close()
		return fmt.Errorf("erro ao gravar NSU: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("erro ao gravar NSU: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("erro ao gravar NSU: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("erro ao substituir %s: %w", s.path, err)
	}
	return nil
}

// Reset volta o NSU para zero
func (s *FileCursorStore) Reset(ctx context.Context) error {
	return s.Save(ctx, dfe.ZeroCursor)
}
