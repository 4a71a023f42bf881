package dfe

import (
	"context"
	"errors"
	"fmt"
)

// InvalidKeyError indica uma chave de acesso malformada. Nunca é repetida.
type InvalidKeyError struct {
	Key    string
	Reason string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("chave inválida %q: %s", e.Key, e.Reason)
}

// UnresolvedAuthorityError indica uma UF sem endpoint configurado
type UnresolvedAuthorityError struct {
	Code AuthorityCode
}

func (e *UnresolvedAuthorityError) Error() string {
	return fmt.Sprintf("URL não configurada para o código de UF %q", string(e.Code))
}

// TransportErrorKind classifica falhas de transporte
type TransportErrorKind string

const (
	TransportTimeout TransportErrorKind = "timeout"
	TransportNetwork TransportErrorKind = "network"
)

// TransportError representa timeout, falha de conexão ou HTTP fora da faixa 2xx
type TransportError struct {
	Kind       TransportErrorKind
	StatusCode int
	Detail     string
	Err        error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("erro de transporte (%s)", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RejectedError é uma rejeição conhecida da SEFAZ; código e motivo são preservados
type RejectedError struct {
	Status Status
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejeição SEFAZ: cStat=%s, xMotivo=%s", e.Status.Code, e.Status.Reason)
}

// UnrecognizedError é um código fora da tabela conhecida ou uma resposta sem cStat
type UnrecognizedError struct {
	Status Status
	Raw    []byte
}

func (e *UnrecognizedError) Error() string {
	return fmt.Sprintf("resposta não reconhecida: cStat=%q, xMotivo=%s", e.Status.Code, e.Status.Reason)
}

// RateLimitExceededError indica que as tentativas após consumo indevido se esgotaram
type RateLimitExceededError struct {
	Status   Status
	Attempts int
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("consumo indevido persistente após %d tentativas: %s", e.Attempts, e.Status.Reason)
}

// SigningError indica falha na assinatura; sem assinatura não há como prosseguir
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return "erro ao assinar requisição: " + e.Err.Error()
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// IsValidation indica erros locais de validação (chave ou UF)
func IsValidation(err error) bool {
	var invalidKey *InvalidKeyError
	var unresolved *UnresolvedAuthorityError
	return errors.As(err, &invalidKey) || errors.As(err, &unresolved) || errors.Is(err, ErrInvalidParty)
}

// IsFatal indica erros que encerram toda a execução, não só a consulta atual
func IsFatal(err error) bool {
	var signing *SigningError
	return errors.As(err, &signing) || errors.Is(err, context.Canceled)
}

// IsRetryable indica erros que podem ser repetidos em uma nova execução sem intervenção.
// Dentro de uma execução, só o consumo indevido é repetido automaticamente.
func IsRetryable(err error) bool {
	var transport *TransportError
	var exceeded *RateLimitExceededError
	return errors.As(err, &transport) || errors.As(err, &exceeded)
}

// StatusOf extrai cStat/xMotivo de erros de protocolo
func StatusOf(err error) (Status, bool) {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Status, true
	}
	var unrecognized *UnrecognizedError
	if errors.As(err, &unrecognized) {
		return unrecognized.Status, true
	}
	var exceeded *RateLimitExceededError
	if errors.As(err, &exceeded) {
		return exceeded.Status, true
	}
	return Status{}, false
}
