package dfe

// Códigos de status (cStat) relevantes para o serviço de distribuição
const (
	StatusNoDocuments  = "137"
	StatusDocsFound    = "138"
	StatusRateExceeded = "656"
)

// Status é o par cStat/xMotivo extraído de toda resposta
type Status struct {
	Code   string `json:"cstat"`
	Reason string `json:"xmotivo"`
}

// OutcomeKind identifica a decisão de controle tomada para uma resposta
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeEndOfStream
	OutcomeRateLimited
	OutcomeRejected
	OutcomeUnrecognized
)

// String implementa fmt.Stringer
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "sucesso"
	case OutcomeEndOfStream:
		return "fim"
	case OutcomeRateLimited:
		return "consumo_indevido"
	case OutcomeRejected:
		return "rejeicao"
	case OutcomeUnrecognized:
		return "desconhecido"
	}
	return "invalido"
}

// BatchEntry é um docZip do lote: NSU, schema e conteúdo compactado em base64
type BatchEntry struct {
	NSU     Cursor
	Schema  string
	Payload string
}

// ClassifiedResponse é a resposta já interpretada.
// Entries só é preenchido em OutcomeSuccess; Raw é mantido para diagnóstico.
type ClassifiedResponse struct {
	Kind    OutcomeKind
	Status  Status
	Entries []BatchEntry
	LastNSU Cursor
	MaxNSU  Cursor
	Raw     []byte
}

// Drained indica que a SEFAZ informou não haver NSU posterior ao retornado
func (r ClassifiedResponse) Drained() bool {
	return r.LastNSU != "" && r.MaxNSU != "" && !r.LastNSU.Less(r.MaxNSU)
}

// HighestNSU retorna o maior NSU entre os documentos do lote
func (r ClassifiedResponse) HighestNSU() Cursor {
	var highest Cursor
	for _, e := range r.Entries {
		highest = highest.Max(e.NSU)
	}
	return highest
}
