package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
)

// FileSink grava cada documento como <chave>.xml no diretório de saída.
// Resumos e eventos ganham o nome do schema no arquivo para não
// sobrescrever o XML completo da mesma chave.
type FileSink struct {
	dir string
}

// NewFileSink cria o destino no diretório informado
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Dir retorna o diretório de saída
func (s *FileSink) Dir() string {
	return s.dir
}

// Write grava o documento
func (s *FileSink) Write(ctx context.Context, doc dfe.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.Key.IsZero() {
		return errors.New("documento sem chave de acesso")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("erro ao criar diretório %s: %w", s.dir, err)
	}

	path := s.PathFor(doc)
	if err := os.WriteFile(path, doc.XML, 0o644); err != nil {
		return fmt.Errorf("erro ao gravar %s: %w", path, err)
	}
	return nil
}

// PathFor retorna o caminho em que o documento é gravado
func (s *FileSink) PathFor(doc dfe.Document) string {
	name := doc.KeyString()
	if !doc.IsComplete() {
		name += "-" + doc.SchemaName() + "-" + doc.NSU.String()
	}
	return filepath.Join(s.dir, name+".xml")
}
