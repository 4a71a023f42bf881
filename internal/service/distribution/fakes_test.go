package distribution

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
	"github.com/hugohenrick/nfe-distribuicao/internal/infrastructure/sefaz"
	"github.com/hugohenrick/nfe-distribuicao/internal/testutil"
	"github.com/hugohenrick/nfe-distribuicao/pkg/logger"
)

const party = dfe.PartyID("34683891000140")

type fakeBuilder struct {
	err error
}

func (b *fakeBuilder) Build(spec dfe.QuerySpec) (sefaz.SignedRequest, error) {
	if b.err != nil {
		return sefaz.SignedRequest{}, b.err
	}
	return sefaz.SignedRequest{Query: spec}, nil
}

// reply é uma resposta programada do servidor falso
type reply struct {
	body []byte
	err  error
}

type fakeSender struct {
	t         *testing.T
	replies   []reply
	queries   []dfe.QuerySpec
	endpoints []string
	onSend    func()
}

func newSender(t *testing.T, replies ...reply) *fakeSender {
	return &fakeSender{t: t, replies: replies}
}

func (s *fakeSender) Send(_ context.Context, endpoint string, req sefaz.SignedRequest) ([]byte, error) {
	s.queries = append(s.queries, req.Query)
	s.endpoints = append(s.endpoints, endpoint)
	if s.onSend != nil {
		s.onSend()
	}
	if len(s.replies) == 0 {
		s.t.Errorf("requisição inesperada: %+v", req.Query)
		return nil, errors.New("sem resposta programada")
	}
	next := s.replies[0]
	s.replies = s.replies[1:]
	return next.body, next.err
}

// events registra a ordem das operações de persistência
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, s)
}

type memoryStore struct {
	cursor  dfe.Cursor
	saves   []dfe.Cursor
	saveErr error
	events  *events
}

func (m *memoryStore) Load(context.Context) (dfe.Cursor, error) {
	if m.cursor == "" {
		return dfe.ZeroCursor, nil
	}
	return m.cursor, nil
}

func (m *memoryStore) Save(ctx context.Context, c dfe.Cursor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	m.cursor = c
	m.saves = append(m.saves, c)
	if m.events != nil {
		m.events.add("save:" + c.String())
	}
	return nil
}

type memorySink struct {
	docs   []dfe.Document
	err    error
	events *events
}

func (m *memorySink) Write(ctx context.Context, doc dfe.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.err != nil {
		return m.err
	}
	m.docs = append(m.docs, doc)
	if m.events != nil {
		m.events.add("write:" + doc.KeyString())
	}
	return nil
}

func (m *memorySink) keys() []string {
	keys := make([]string, 0, len(m.docs))
	for _, d := range m.docs {
		keys = append(keys, d.KeyString())
	}
	return keys
}

type sleepRecorder struct {
	calls []time.Duration
	err   error
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	if s.err != nil {
		return s.err
	}
	return ctx.Err()
}

type memoryRecorder struct {
	runs []dfe.Run
}

func (m *memoryRecorder) Record(_ context.Context, run *dfe.Run) error {
	m.runs = append(m.runs, *run)
	return nil
}

func newTestDriver(sender *fakeSender, sleeper *sleepRecorder) *Driver {
	return NewDriver(dfe.DefaultRegistry(), &fakeBuilder{}, sender, sefaz.NewDecoder(logger.NewNop()), DefaultPolicy(), logger.NewNop()).
		WithSleeper(sleeper.sleep)
}

// summaries gera count resumos com NSU sequencial a partir de first
func summaries(first, count int) []testutil.DocZip {
	docs := make([]testutil.DocZip, 0, count)
	for i := 0; i < count; i++ {
		n := first + i
		docs = append(docs, testutil.DocZip{
			NSU:    testutil.NSU(n),
			Schema: "resNFe_v1.01",
			XML:    testutil.ResNFe(testutil.Key("23", n)),
		})
	}
	return docs
}

func docsFound(ult, max int, docs ...testutil.DocZip) reply {
	return reply{body: testutil.RetDistDFeInt("138", "Documento(s) localizado(s)", testutil.NSU(ult), testutil.NSU(max), docs...)}
}

func status(cStat, reason string) reply {
	return reply{body: testutil.RetDistDFeInt(cStat, reason, "", "")}
}
