package storage

import (
	"context"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
)

// MultiSink entrega cada documento a todos os destinos, na ordem informada,
// e para no primeiro erro
type MultiSink []dfe.DocumentSink

// Write implementa dfe.DocumentSink
func (m MultiSink) Write(ctx context.Context, doc dfe.Document) error {
	for _, sink := range m {
		if err := sink.Write(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}
