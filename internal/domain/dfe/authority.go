package dfe

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// AuthorityCode é o código IBGE de duas posições de uma UF
type AuthorityCode string

// Endpoints compartilhados do serviço NFeDistribuicaoDFe
const (
	SVRSEndpoint = "https://dfe-svrs-1.sefazvirtual.rs.gov.br/ws/nfe/NFeDistribuicaoDFe/NFeDistribuicaoDFe.asmx"
	CEEndpoint   = "https://dfe.svrs.rs.gov.br/ws/NFeDistribuicaoDFe/NFeDistribuicaoDFe.asmx"
)

var ufByCode = map[AuthorityCode]string{
	"11": "RO", "12": "AC", "13": "AM", "14": "RR", "15": "PA",
	"16": "AP", "17": "TO", "21": "MA", "22": "PI", "23": "CE",
	"24": "RN", "25": "PB", "26": "PE", "27": "AL", "28": "SE",
	"29": "BA", "31": "MG", "32": "ES", "33": "RJ", "35": "SP",
	"41": "PR", "42": "SC", "43": "RS", "50": "MS", "51": "MT",
	"52": "GO", "53": "DF",
}

var defaultEndpoints = map[string]string{
	"AC": SVRSEndpoint,
	"AL": SVRSEndpoint,
	"AM": SVRSEndpoint,
	"AP": SVRSEndpoint,
	"BA": SVRSEndpoint,
	"CE": CEEndpoint,
	"DF": SVRSEndpoint,
	"ES": SVRSEndpoint,
	"GO": "https://dfe-go.sefaz.go.gov.br/nfe/distribuicaoDFe/nfeDistDFeInteresse.asmx",
	"MA": SVRSEndpoint,
	"MG": "https://dfe.fazenda.mg.gov.br/nfe2/services/NFeDistribuicaoDFe/NFeDistribuicaoDFe.asmx",
	"MS": SVRSEndpoint,
	"MT": SVRSEndpoint,
	"PA": SVRSEndpoint,
	"PB": SVRSEndpoint,
	"PE": SVRSEndpoint,
	"PI": SVRSEndpoint,
	"PR": "https://dfe.sefa.pr.gov.br/nfe/NFeDistribuicaoDFe/NFeDistribuicaoDFe.asmx",
	"RJ": SVRSEndpoint,
	"RN": SVRSEndpoint,
	"RO": SVRSEndpoint,
	"RR": SVRSEndpoint,
	"RS": "https://dfe.sefaz.rs.gov.br/ws/nfe/NFeDistribuicaoDFe/NFeDistribuicaoDFe.asmx",
	"SC": SVRSEndpoint,
	"SE": SVRSEndpoint,
	"SP": "https://nfe.fazenda.sp.gov.br/ws/nfedistribuicaodfe.asmx",
	"TO": SVRSEndpoint,
}

// ParseAuthorityCode aceita o código numérico ("23") ou a sigla da UF ("CE")
func ParseAuthorityCode(raw string) (AuthorityCode, error) {
	code := AuthorityCode(strings.TrimSpace(raw))
	if _, ok := ufByCode[code]; ok {
		return code, nil
	}
	for c, uf := range ufByCode {
		if strings.EqualFold(uf, string(code)) {
			return c, nil
		}
	}
	return "", &UnresolvedAuthorityError{Code: code}
}

// UF retorna a sigla da UF, ou string vazia se o código é desconhecido
func (c AuthorityCode) UF() string {
	return ufByCode[c]
}

// IsKnown indica se o código pertence às 27 UFs
func (c AuthorityCode) IsKnown() bool {
	_, ok := ufByCode[c]
	return ok
}

// KnownAuthorityCodes retorna os 27 códigos em ordem crescente
func KnownAuthorityCodes() []AuthorityCode {
	codes := make([]AuthorityCode, 0, len(ufByCode))
	for c := range ufByCode {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Registry mapeia códigos de UF para o endpoint do serviço de distribuição.
// É construído uma vez e não é alterado depois.
type Registry struct {
	endpoints map[AuthorityCode]string
}

// NewRegistry cria o registro padrão aplicando as substituições informadas.
// As chaves de overrides podem ser o código ("23") ou a sigla ("CE").
func NewRegistry(overrides map[string]string) (*Registry, error) {
	endpoints := make(map[AuthorityCode]string, len(ufByCode))
	for code, uf := range ufByCode {
		if endpoint, ok := defaultEndpoints[uf]; ok {
			endpoints[code] = endpoint
		}
	}

	for rawCode, endpoint := range overrides {
		code, err := ParseAuthorityCode(rawCode)
		if err != nil {
			return nil, fmt.Errorf("endpoint configurado para UF inválida: %w", err)
		}
		parsed, err := url.Parse(endpoint)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("endpoint inválido para UF %s: %q", code.UF(), endpoint)
		}
		endpoints[code] = endpoint
	}

	return &Registry{endpoints: endpoints}, nil
}

// DefaultRegistry retorna o registro com a tabela de produção embutida
func DefaultRegistry() *Registry {
	r, _ := NewRegistry(nil)
	return r
}

// Resolve retorna o endpoint responsável pelo código de UF
func (r *Registry) Resolve(code AuthorityCode) (string, error) {
	endpoint, ok := r.endpoints[code]
	if !ok {
		return "", &UnresolvedAuthorityError{Code: code}
	}
	return endpoint, nil
}

// ResolveKey resolve o endpoint a partir da UF codificada na chave
func (r *Registry) ResolveKey(key DocumentKey) (string, error) {
	return r.Resolve(key.AuthorityCode())
}
