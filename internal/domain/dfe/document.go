package dfe

import (
	"sort"
	"strings"
)

// Document é um documento do lote já descompactado
type Document struct {
	NSU    Cursor      `json:"nsu"`
	Schema string      `json:"schema"`
	Key    DocumentKey `json:"-"`
	XML    []byte      `json:"-"`
}

// KeyString retorna a chave do documento ou vazio quando não foi localizada
func (d Document) KeyString() string {
	return d.Key.String()
}

// IsSummary indica um resumo (resNFe/resEvento) em vez do XML completo
func (d Document) IsSummary() bool {
	return strings.HasPrefix(d.Schema, "res")
}

// IsEvent indica um documento de evento (cancelamento, carta de correção, ciência...)
func (d Document) IsEvent() bool {
	return strings.Contains(strings.ToLower(d.Schema), "evento")
}

// IsComplete indica o XML completo da nota (procNFe), o único que encerra a
// procura por uma chave
func (d Document) IsComplete() bool {
	return !d.IsSummary() && !d.IsEvent()
}

// SchemaName retorna o nome do schema sem a versão (ex.: "procNFe")
func (d Document) SchemaName() string {
	if i := strings.Index(d.Schema, "_"); i >= 0 {
		return d.Schema[:i]
	}
	return d.Schema
}

// Selection é o conjunto de chaves procuradas pelo chamador
type Selection struct {
	wanted map[string]bool
	found  map[string]bool
}

// NewSelection cria o conjunto a partir das chaves informadas
func NewSelection(keys []DocumentKey) *Selection {
	s := &Selection{
		wanted: make(map[string]bool, len(keys)),
		found:  make(map[string]bool, len(keys)),
	}
	for _, k := range keys {
		if !k.IsZero() {
			s.wanted[k.String()] = true
		}
	}
	return s
}

// IsEmpty indica que nenhuma chave foi pedida (modo espelho)
func (s *Selection) IsEmpty() bool {
	return len(s.wanted) == 0
}

// Matches indica se o documento interessa ao chamador
func (s *Selection) Matches(doc Document) bool {
	if doc.Key.IsZero() {
		return false
	}
	if s.IsEmpty() {
		return true
	}
	return s.wanted[doc.Key.String()]
}

// MarkFound registra que a chave foi encontrada. Resumos e eventos da chave
// não contam: a procura segue até chegar o XML completo.
func (s *Selection) MarkFound(doc Document) {
	if !doc.IsComplete() {
		return
	}
	if key := doc.Key.String(); s.wanted[key] {
		s.found[key] = true
	}
}

// Satisfied indica que todas as chaves pedidas foram encontradas
func (s *Selection) Satisfied() bool {
	return !s.IsEmpty() && len(s.found) == len(s.wanted)
}

// Missing lista as chaves ainda não encontradas
func (s *Selection) Missing() []string {
	var missing []string
	for k := range s.wanted {
		if !s.found[k] {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return missing
}
