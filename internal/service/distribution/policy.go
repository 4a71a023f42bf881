package distribution

import (
	"context"
	"errors"
	"time"
)

// Policy concentra os tempos de espera e limites do driver
type Policy struct {
	// InterRequestDelay é o intervalo mínimo entre consultas consecutivas
	InterRequestDelay time.Duration
	// RateLimitCooldown é a pausa após cStat 656 (consumo indevido)
	RateLimitCooldown time.Duration
	// MaxRateLimitRetries limita as repetições da mesma consulta após 656
	MaxRateLimitRetries int
	// PageSize é o tamanho de lote cheio; lotes menores indicam fim da fila
	PageSize int
}

// DefaultPolicy retorna os valores documentados pela SEFAZ:
// até 20 consultas por hora e bloqueio de uma hora por consumo indevido.
func DefaultPolicy() Policy {
	return Policy{
		InterRequestDelay:   6 * time.Second,
		RateLimitCooldown:   time.Hour,
		MaxRateLimitRetries: 3,
		PageSize:            50,
	}
}

// Validate confere os limites da política
func (p Policy) Validate() error {
	if p.InterRequestDelay < 0 || p.RateLimitCooldown < 0 {
		return errors.New("intervalos da política não podem ser negativos")
	}
	if p.MaxRateLimitRetries < 0 {
		return errors.New("número de tentativas não pode ser negativo")
	}
	if p.PageSize <= 0 {
		return errors.New("tamanho de página deve ser positivo")
	}
	return nil
}

// Sleeper suspende a execução; deve retornar ctx.Err() se o contexto for cancelado
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep é o Sleeper padrão baseado em timer
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
