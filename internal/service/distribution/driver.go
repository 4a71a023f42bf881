// Package distribution conduz a paginação do serviço NFeDistribuicaoDFe:
// carrega o NSU salvo, consulta, decodifica, avança e persiste o cursor,
// respeitando o intervalo entre consultas e o bloqueio por consumo indevido.
package distribution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
	"github.com/hugohenrick/nfe-distribuicao/internal/infrastructure/sefaz"
	"github.com/hugohenrick/nfe-distribuicao/pkg/logger"
)

// State é o estado da máquina de paginação
type State string

const (
	StateInit        State = "INIT"
	StateQuerying    State = "QUERYING"
	StateAdvancing   State = "ADVANCING"
	StateRateLimited State = "RATE_LIMITED"
	StateDone        State = "DONE"
	StateAborted     State = "ABORTED"
)

// RequestBuilder monta a requisição assinada
type RequestBuilder interface {
	Build(spec dfe.QuerySpec) (sefaz.SignedRequest, error)
}

// Sender envia a requisição ao endpoint da UF
type Sender interface {
	Send(ctx context.Context, endpoint string, req sefaz.SignedRequest) ([]byte, error)
}

// BatchDecoder descompacta os documentos de um lote
type BatchDecoder interface {
	Decode(entries []dfe.BatchEntry) ([]dfe.Document, []sefaz.DecodeFailure)
}

// Driver executa as consultas de forma estritamente sequencial
type Driver struct {
	registry *dfe.Registry
	builder  RequestBuilder
	sender   Sender
	decoder  BatchDecoder
	classify func([]byte) dfe.ClassifiedResponse
	policy   Policy
	sleep    Sleeper
	recorder dfe.RunRecorder
	now      func() time.Time
	logger   logger.Logger
}

// NewDriver cria o driver de paginação
func NewDriver(registry *dfe.Registry, builder RequestBuilder, sender Sender, decoder BatchDecoder, policy Policy, log logger.Logger) *Driver {
	if log == nil {
		log = logger.NewNop()
	}
	return &Driver{
		registry: registry,
		builder:  builder,
		sender:   sender,
		decoder:  decoder,
		classify: sefaz.Classify,
		policy:   policy,
		sleep:    ContextSleep,
		now:      time.Now,
		logger:   log,
	}
}

// WithSleeper substitui a espera real (usado em testes)
func (d *Driver) WithSleeper(s Sleeper) *Driver {
	d.sleep = s
	return d
}

// WithRecorder registra o histórico das execuções
func (d *Driver) WithRecorder(r dfe.RunRecorder) *Driver {
	d.recorder = r
	return d
}

// WithClock substitui o relógio usado nos registros de execução
func (d *Driver) WithClock(now func() time.Time) *Driver {
	d.now = now
	return d
}

// Policy retorna a política em uso
func (d *Driver) Policy() Policy {
	return d.policy
}

// ScanRequest descreve uma varredura por NSU
type ScanRequest struct {
	Party       dfe.PartyID
	Authority   dfe.AuthorityCode
	Environment dfe.Environment
	// Targets são as chaves procuradas; vazio espelha todos os documentos
	Targets []dfe.DocumentKey
	Cursor  dfe.CursorStore
	Sink    dfe.DocumentSink
}

// ScanResult é o resultado de uma varredura
type ScanResult struct {
	RunID          string
	State          State
	Status         dfe.Status
	StartCursor    dfe.Cursor
	FinalCursor    dfe.Cursor
	Matched        []dfe.Document
	Missing        []string
	Requests       int
	DecodeFailures int
}

// KeyResult é o resultado de uma consulta por chave
type KeyResult struct {
	RunID    string
	Key      dfe.DocumentKey
	Found    bool
	Document *dfe.Document
	State    State
	Status   dfe.Status
	Requests int
}

// plan é a entrada da máquina de estados
type plan struct {
	runID     string
	endpoint  string
	query     dfe.QuerySpec
	store     dfe.CursorStore
	selection *dfe.Selection
	sink      dfe.DocumentSink
}

// outcome é a saída da máquina de estados
type outcome struct {
	state    State
	status   dfe.Status
	cursor   dfe.Cursor
	matched  []dfe.Document
	requests int
	failures int
	err      error
}

// Scan percorre a fila de documentos do interessado a partir do NSU salvo.
// Erros de validação retornam resultado nil; execuções abortadas retornam
// o resultado parcial junto com o erro.
func (d *Driver) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	if err := d.policy.Validate(); err != nil {
		return nil, err
	}
	if req.Cursor == nil {
		return nil, errors.New("armazenamento do NSU não informado")
	}
	if req.Sink == nil {
		return nil, errors.New("destino dos documentos não informado")
	}
	endpoint, err := d.registry.Resolve(req.Authority)
	if err != nil {
		return nil, err
	}

	// INIT
	cursor, err := req.Cursor.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar NSU: %w", err)
	}
	query := dfe.NewCursorQuery(cursor, req.Authority, req.Party, req.Environment)
	if err := query.Validate(); err != nil {
		return nil, err
	}

	p := plan{
		runID:     uuid.New().String(),
		endpoint:  endpoint,
		query:     query,
		store:     req.Cursor,
		selection: dfe.NewSelection(req.Targets),
		sink:      req.Sink,
	}

	started := d.now()
	out := d.run(ctx, p)

	result := &ScanResult{
		RunID:          p.runID,
		State:          out.state,
		Status:         out.status,
		StartCursor:    cursor,
		FinalCursor:    out.cursor,
		Matched:        out.matched,
		Missing:        p.selection.Missing(),
		Requests:       out.requests,
		DecodeFailures: out.failures,
	}
	d.record(ctx, p, cursor, out, started)
	return result, out.err
}

// FetchKey consulta um documento pela chave de acesso. É a mesma máquina de
// estados com uma única iteração e sem persistência de NSU.
// O documento encontrado é entregue ao sink quando ele é informado.
func (d *Driver) FetchKey(ctx context.Context, party dfe.PartyID, env dfe.Environment, rawKey string, sink dfe.DocumentSink) (*KeyResult, error) {
	if err := d.policy.Validate(); err != nil {
		return nil, err
	}
	key, err := dfe.ParseKey(rawKey)
	if err != nil {
		return nil, err
	}
	endpoint, err := d.registry.ResolveKey(key)
	if err != nil {
		return nil, err
	}
	query := dfe.NewKeyQuery(key, party, env)
	if err := query.Validate(); err != nil {
		return nil, err
	}

	p := plan{
		runID:     uuid.New().String(),
		endpoint:  endpoint,
		query:     query,
		selection: dfe.NewSelection([]dfe.DocumentKey{key}),
	}

	started := d.now()
	out := d.run(ctx, p)

	result := &KeyResult{
		RunID:    p.runID,
		Key:      key,
		State:    out.state,
		Status:   out.status,
		Requests: out.requests,
	}
	if out.err == nil {
		if doc, ok := preferredDocument(out.matched); ok {
			if sink != nil {
				if err := sink.Write(ctx, doc); err != nil {
					out.state = StateAborted
					out.err = fmt.Errorf("erro ao salvar documento %s: %w", key, err)
					result.State = StateAborted
				}
			}
			if out.err == nil {
				result.Found = true
				result.Document = &doc
				out.matched = []dfe.Document{doc}
			}
		}
	}
	d.record(ctx, p, "", out, started)
	return result, out.err
}

// run é a máquina de estados INIT → QUERYING → {ADVANCING, RATE_LIMITED, DONE, ABORTED}
func (d *Driver) run(ctx context.Context, p plan) outcome {
	log := d.logger.With("run_id", p.runID, "modo", p.query.Mode.String(), "endpoint", p.endpoint)

	out := outcome{cursor: p.query.Cursor}
	state := StateInit
	throttle := false
	attempts := 0
	var resp dfe.ClassifiedResponse

	abort := func(err error) {
		out.err = err
		state = StateAborted
	}

	for {
		switch state {
		case StateInit:
			log.Info("iniciando execução", "nsu", out.cursor.String(), "autor", string(p.query.Authority))
			state = StateQuerying

		case StateQuerying:
			if throttle {
				if err := d.sleep(ctx, d.policy.InterRequestDelay); err != nil {
					abort(err)
					continue
				}
				throttle = false
			}
			if err := ctx.Err(); err != nil {
				abort(err)
				continue
			}

			query := p.query
			query.Cursor = out.cursor
			if query.Mode == dfe.SingleKey {
				query.Cursor = ""
			}

			var err error
			resp, err = d.exchange(ctx, p.endpoint, query)
			out.requests++
			if err != nil {
				log.Error("falha na consulta", "nsu", out.cursor.String(), "error", err)
				// sem resposta, o cStat da consulta anterior não vale mais
				out.status = dfe.Status{}
				abort(err)
				continue
			}
			out.status = resp.Status
			log.Info("resposta classificada",
				"nsu", query.Cursor.String(),
				"cstat", resp.Status.Code,
				"xmotivo", resp.Status.Reason,
				"desfecho", resp.Kind.String(),
				"documentos", len(resp.Entries))

			switch resp.Kind {
			case dfe.OutcomeSuccess:
				state = StateAdvancing
			case dfe.OutcomeEndOfStream:
				state = StateDone
			case dfe.OutcomeRateLimited:
				state = StateRateLimited
			case dfe.OutcomeUnrecognized:
				log.Error("resposta não reconhecida", "cstat", resp.Status.Code, "xmotivo", resp.Status.Reason, "raw", string(resp.Raw))
				abort(sefaz.Err(resp))
			default:
				abort(sefaz.Err(resp))
			}

		case StateAdvancing:
			attempts = 0
			docs, failures := d.decoder.Decode(resp.Entries)
			out.failures += len(failures)

			// o lote já recebido é gravado mesmo que a execução seja cancelada
			// agora; o cancelamento é tratado antes da próxima consulta
			persistCtx := context.WithoutCancel(ctx)

			if p.store != nil {
				next := out.cursor.Max(resp.HighestNSU())
				if next != out.cursor {
					if err := p.store.Save(persistCtx, next); err != nil {
						abort(fmt.Errorf("erro ao salvar NSU %s: %w", next, err))
						continue
					}
					log.Debug("NSU avançado", "de", out.cursor.String(), "para", next.String())
				}
				if next == out.cursor && len(resp.Entries) >= d.policy.PageSize {
					// lote cheio sem avanço repetiria a mesma consulta indefinidamente
					log.Warn("lote sem avanço de NSU, encerrando", "nsu", next.String())
					state = StateDone
				}
				out.cursor = next
			}

			if err := d.deliver(persistCtx, p, docs, &out); err != nil {
				abort(err)
				continue
			}
			if state == StateDone {
				continue
			}

			switch {
			case p.query.Mode == dfe.SingleKey:
				state = StateDone
			case p.selection.Satisfied():
				log.Info("todas as chaves procuradas foram encontradas")
				state = StateDone
			case len(resp.Entries) < d.policy.PageSize:
				state = StateDone
			case resp.Drained():
				state = StateDone
			default:
				state = StateQuerying
				throttle = true
			}

		case StateRateLimited:
			attempts++
			if attempts > d.policy.MaxRateLimitRetries {
				abort(&dfe.RateLimitExceededError{Status: resp.Status, Attempts: attempts - 1})
				continue
			}
			log.Warn("consumo indevido, aguardando para repetir a mesma consulta",
				"espera", d.policy.RateLimitCooldown,
				"tentativa", attempts,
				"nsu", out.cursor.String())
			if err := d.sleep(ctx, d.policy.RateLimitCooldown); err != nil {
				abort(err)
				continue
			}
			state = StateQuerying

		case StateDone, StateAborted:
			out.state = state
			if state == StateAborted {
				log.Warn("execução abortada", "nsu", out.cursor.String(), "error", out.err)
			} else {
				log.Info("execução concluída", "nsu", out.cursor.String(), "requisicoes", out.requests, "documentos", len(out.matched))
			}
			return out
		}
	}
}

// exchange executa uma troca completa: assinatura, envio e classificação
func (d *Driver) exchange(ctx context.Context, endpoint string, query dfe.QuerySpec) (dfe.ClassifiedResponse, error) {
	req, err := d.builder.Build(query)
	if err != nil {
		return dfe.ClassifiedResponse{}, err
	}
	raw, err := d.sender.Send(ctx, endpoint, req)
	if err != nil {
		return dfe.ClassifiedResponse{}, err
	}
	return d.classify(raw), nil
}

// deliver filtra os documentos pela seleção. Na varredura por NSU eles são
// gravados no sink, sempre depois de o cursor já ter sido persistido.
func (d *Driver) deliver(ctx context.Context, p plan, docs []dfe.Document, out *outcome) error {
	for _, doc := range docs {
		if !p.selection.Matches(doc) {
			continue
		}
		if p.sink != nil {
			if err := p.sink.Write(ctx, doc); err != nil {
				return fmt.Errorf("erro ao salvar documento %s: %w", doc.KeyString(), err)
			}
		}
		p.selection.MarkFound(doc)
		out.matched = append(out.matched, doc)
	}
	return nil
}

// record grava o histórico da execução; falhas aqui não alteram o resultado
func (d *Driver) record(ctx context.Context, p plan, start dfe.Cursor, out outcome, started time.Time) {
	if d.recorder == nil {
		return
	}
	run := &dfe.Run{
		ID:          p.runID,
		Mode:        p.query.Mode,
		Party:       p.query.Party,
		Environment: p.query.Environment,
		State:       dfe.RunDone,
		Status:      out.status,
		StartCursor: start,
		FinalCursor: out.cursor,
		Requests:    out.requests,
		Matched:     len(out.matched),
		StartedAt:   started,
		FinishedAt:  d.now(),
	}
	if out.state == StateAborted {
		run.State = dfe.RunAborted
	}
	if out.err != nil {
		run.Error = out.err.Error()
	}
	// o contexto da execução pode já ter sido cancelado
	if err := d.recorder.Record(context.WithoutCancel(ctx), run); err != nil {
		d.logger.Error("erro ao registrar execução", "run_id", p.runID, "error", err)
	}
}

// preferredDocument escolhe o XML completo (procNFe) antes de resumos e eventos
func preferredDocument(docs []dfe.Document) (dfe.Document, bool) {
	if len(docs) == 0 {
		return dfe.Document{}, false
	}
	for _, doc := range docs {
		if doc.IsComplete() {
			return doc, true
		}
	}
	return docs[0], true
}
