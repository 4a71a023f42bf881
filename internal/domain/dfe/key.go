package dfe

import (
	"strings"
)

// KeyLength é o tamanho fixo da chave de acesso de uma NF-e/NFC-e
const KeyLength = 44

// Modelos de documento fiscal codificados na chave
const (
	ModelNFe  = "55"
	ModelNFCe = "65"
)

// DocumentKey representa uma chave de acesso já validada (44 dígitos)
type DocumentKey struct {
	value string
}

// ParseKey valida e converte uma string em chave de acesso
func ParseKey(raw string) (DocumentKey, error) {
	key := strings.TrimSpace(raw)
	if len(key) != KeyLength {
		return DocumentKey{}, &InvalidKeyError{Key: raw, Reason: "a chave deve conter exatamente 44 caracteres"}
	}
	if !isDigits(key) {
		return DocumentKey{}, &InvalidKeyError{Key: raw, Reason: "a chave deve conter apenas dígitos"}
	}
	return DocumentKey{value: key}, nil
}

// MustParseKey é como ParseKey mas entra em pânico em caso de erro
func MustParseKey(raw string) DocumentKey {
	key, err := ParseKey(raw)
	if err != nil {
		panic(err)
	}
	return key
}

// String retorna a chave completa
func (k DocumentKey) String() string {
	return k.value
}

// IsZero indica se a chave não foi inicializada
func (k DocumentKey) IsZero() bool {
	return k.value == ""
}

// AuthorityCode retorna o código da UF emitente (dois primeiros dígitos)
func (k DocumentKey) AuthorityCode() AuthorityCode {
	if k.IsZero() {
		return ""
	}
	return AuthorityCode(k.value[0:2])
}

// YearMonth retorna o ano e mês de emissão no formato AAMM
func (k DocumentKey) YearMonth() string {
	return k.slice(2, 6)
}

// IssuerID retorna o CNPJ (ou CPF com zeros à esquerda) do emitente
func (k DocumentKey) IssuerID() string {
	return k.slice(6, 20)
}

// Model retorna o modelo do documento ("55" NF-e, "65" NFC-e)
func (k DocumentKey) Model() string {
	return k.slice(20, 22)
}

// Series retorna a série do documento
func (k DocumentKey) Series() string {
	return k.slice(22, 25)
}

// Number retorna o número do documento
func (k DocumentKey) Number() string {
	return k.slice(25, 34)
}

// CheckDigit retorna o dígito verificador informado na chave
func (k DocumentKey) CheckDigit() string {
	return k.slice(43, 44)
}

// HasValidCheckDigit confere o dígito verificador (módulo 11)
func (k DocumentKey) HasValidCheckDigit() bool {
	if k.IsZero() {
		return false
	}
	return computeCheckDigit(k.value[:43]) == k.value[43]-'0'
}

func (k DocumentKey) slice(from, to int) string {
	if k.IsZero() {
		return ""
	}
	return k.value[from:to]
}

// computeCheckDigit aplica os pesos 2..9 da direita para a esquerda
func computeCheckDigit(base string) byte {
	sum := 0
	weight := 2
	for i := len(base) - 1; i >= 0; i-- {
		sum += int(base[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return byte(11 - rest)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
