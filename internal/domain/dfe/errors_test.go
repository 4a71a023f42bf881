package dfe

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorPredicates(t *testing.T) {
	rejected := &RejectedError{Status: Status{Code: "225", Reason: "Rejeição: Falha no Schema XML"}}
	transport := &TransportError{Kind: TransportTimeout, Err: context.DeadlineExceeded}
	signing := &SigningError{Err: errors.New("chave corrompida")}

	assert.False(t, IsValidation(rejected))
	assert.True(t, IsValidation(fmt.Errorf("lote: %w", &InvalidKeyError{Key: "1", Reason: "curta"})))

	assert.True(t, IsRetryable(transport))
	assert.True(t, IsRetryable(&RateLimitExceededError{Attempts: 3}))
	assert.False(t, IsRetryable(rejected))

	assert.True(t, IsFatal(signing))
	assert.True(t, IsFatal(fmt.Errorf("execução: %w", context.Canceled)))
	assert.False(t, IsFatal(rejected))

	assert.ErrorIs(t, transport, context.DeadlineExceeded)
	assert.Contains(t, transport.Error(), "timeout")
}

func TestStatusOf(t *testing.T) {
	status, ok := StatusOf(fmt.Errorf("wrap: %w", &RejectedError{Status: Status{Code: "589", Reason: "NSU informado superior"}}))
	assert.True(t, ok)
	assert.Equal(t, "589", status.Code)

	status, ok = StatusOf(&UnrecognizedError{Status: Status{Code: "777"}})
	assert.True(t, ok)
	assert.Equal(t, "777", status.Code)

	status, ok = StatusOf(&RateLimitExceededError{Status: Status{Code: StatusRateExceeded}})
	assert.True(t, ok)
	assert.Equal(t, StatusRateExceeded, status.Code)

	_, ok = StatusOf(errors.New("outro"))
	assert.False(t, ok)
}
