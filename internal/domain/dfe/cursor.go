package dfe

import (
	"fmt"
	"strings"
)

// CursorLength é o tamanho do NSU trafegado no protocolo
const CursorLength = 15

// ZeroCursor é o ponto de partida de um contribuinte sem histórico
const ZeroCursor Cursor = "000000000000000"

// Cursor representa um NSU (número sequencial único) com 15 dígitos
type Cursor string

// ParseCursor valida um NSU e completa com zeros à esquerda
func ParseCursor(raw string) (Cursor, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ZeroCursor, nil
	}
	if len(value) > CursorLength || !isDigits(value) {
		return "", fmt.Errorf("NSU inválido: %q", raw)
	}
	return Cursor(strings.Repeat("0", CursorLength-len(value)) + value), nil
}

// String retorna o NSU com 15 dígitos
func (c Cursor) String() string {
	if c == "" {
		return string(ZeroCursor)
	}
	return string(c)
}

// Less compara dois NSUs; ambos têm o mesmo tamanho após ParseCursor
func (c Cursor) Less(other Cursor) bool {
	return c.String() < other.String()
}

// Max retorna o maior entre dois NSUs
func (c Cursor) Max(other Cursor) Cursor {
	if c.Less(other) {
		return other
	}
	return c
}

// IsZero indica se o NSU é o inicial
func (c Cursor) IsZero() bool {
	return c.String() == string(ZeroCursor)
}
