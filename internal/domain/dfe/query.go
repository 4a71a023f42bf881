package dfe

import (
	"errors"
	"fmt"
	"strings"
)

// Environment define o ambiente da SEFAZ
type Environment string

const (
	Production   Environment = "production"
	Homologation Environment = "homologation"
)

// ParseEnvironment aceita "1"/"2", "producao"/"homologacao" ou os valores em inglês
func ParseEnvironment(raw string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "1", "producao", "produção", "production":
		return Production, nil
	case "2", "homologacao", "homologação", "homologation", "staging":
		return Homologation, nil
	}
	return "", fmt.Errorf("ambiente inválido: %q", raw)
}

// TpAmb retorna o código do ambiente usado no XML
func (e Environment) TpAmb() string {
	if e == Homologation {
		return "2"
	}
	return "1"
}

// PartyID é o CNPJ (14 dígitos) ou CPF (11 dígitos) do interessado
type PartyID string

// ErrInvalidParty indica um CNPJ/CPF com formato inválido
var ErrInvalidParty = errors.New("CNPJ/CPF do interessado inválido")

// ParsePartyID remove a pontuação e valida o tamanho do documento
func ParsePartyID(raw string) (PartyID, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '/' || r == '-' || r == ' ':
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidParty, raw)
		}
	}
	id := b.String()
	if len(id) != 14 && len(id) != 11 {
		return "", fmt.Errorf("%w: %q", ErrInvalidParty, raw)
	}
	return PartyID(id), nil
}

// IsCPF indica se o interessado é pessoa física
func (p PartyID) IsCPF() bool {
	return len(p) == 11
}

// QueryMode define o tipo de consulta ao serviço de distribuição
type QueryMode int

const (
	// SingleKey consulta um documento específico pela chave (consChNFe)
	SingleKey QueryMode = iota + 1
	// CursorScan percorre os documentos a partir do último NSU (distNSU)
	CursorScan
)

// String implementa fmt.Stringer
func (m QueryMode) String() string {
	switch m {
	case SingleKey:
		return "chave"
	case CursorScan:
		return "nsu"
	}
	return "desconhecido"
}

// QuerySpec descreve uma única troca com o serviço de distribuição
type QuerySpec struct {
	Mode        QueryMode
	Key         DocumentKey
	Cursor      Cursor
	Authority   AuthorityCode
	Party       PartyID
	Environment Environment
}

// NewKeyQuery cria a consulta por chave, usando a UF da própria chave como autora
func NewKeyQuery(key DocumentKey, party PartyID, env Environment) QuerySpec {
	return QuerySpec{
		Mode:        SingleKey,
		Key:         key,
		Authority:   key.AuthorityCode(),
		Party:       party,
		Environment: env,
	}
}

// NewCursorQuery cria a consulta por NSU para a UF autora informada
func NewCursorQuery(cursor Cursor, authority AuthorityCode, party PartyID, env Environment) QuerySpec {
	return QuerySpec{
		Mode:        CursorScan,
		Cursor:      cursor,
		Authority:   authority,
		Party:       party,
		Environment: env,
	}
}

// Validate confere os campos obrigatórios de acordo com o modo
func (q QuerySpec) Validate() error {
	switch q.Mode {
	case SingleKey:
		if q.Key.IsZero() {
			return errors.New("consulta por chave sem chave de acesso")
		}
	case CursorScan:
		if _, err := ParseCursor(q.Cursor.String()); err != nil {
			return err
		}
	default:
		return fmt.Errorf("modo de consulta inválido: %d", q.Mode)
	}
	if !q.Authority.IsKnown() {
		return &UnresolvedAuthorityError{Code: q.Authority}
	}
	if q.Party == "" {
		return ErrInvalidParty
	}
	return nil
}
