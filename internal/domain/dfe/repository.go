package dfe

import (
	"context"
	"time"
)

// CursorStore persiste o último NSU confirmado de um interessado
type CursorStore interface {
	// Load retorna o NSU salvo, ou ZeroCursor quando não há registro
	Load(ctx context.Context) (Cursor, error)

	// Save sobrescreve o NSU salvo; salvar o mesmo valor duas vezes não altera o estado
	Save(ctx context.Context, cursor Cursor) error
}

// DocumentSink recebe os documentos localizados, identificados pela chave
type DocumentSink interface {
	Write(ctx context.Context, doc Document) error
}

// RunState é o estado terminal de uma execução
type RunState string

const (
	RunDone    RunState = "DONE"
	RunAborted RunState = "ABORTED"
)

// Run é o registro de uma execução do serviço de distribuição
type Run struct {
	ID          string
	Mode        QueryMode
	Party       PartyID
	Environment Environment
	State       RunState
	Status      Status
	StartCursor Cursor
	FinalCursor Cursor
	Requests    int
	Matched     int
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// RunRecorder guarda o histórico de execuções
type RunRecorder interface {
	Record(ctx context.Context, run *Run) error
}
