package distribution

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
	"github.com/hugohenrick/nfe-distribuicao/internal/testutil"
)

func TestFetchKeys_Report(t *testing.T) {
	found := testutil.Key("23", 1)
	missing := testutil.Key("35", 2)
	expired := testutil.Key("43", 3)
	unknownUF := "99" + strings.Repeat("0", 42)

	sender := newSender(t,
		docsFound(0, 0, testutil.DocZip{NSU: testutil.NSU(0), Schema: "procNFe_v4.00", XML: testutil.ProcNFe(found)}),
		status("137", "Nenhum documento localizado"),
		status("632", "Rejeição: Solicitação fora de prazo"),
	)
	sleeper := &sleepRecorder{}
	sink := &memorySink{}

	keys := []string{found, "123", " " + found + " ", "", missing, unknownUF, expired}
	report, err := newTestDriver(sender, sleeper).FetchKeys(context.Background(), party, dfe.Production, keys, sink)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total())
	assert.Equal(t, 1, report.Saved)
	assert.Equal(t, 1, report.NotFound)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Invalid)

	assert.Equal(t, BulkSaved, report.Items[0].Status)
	assert.Equal(t, BulkInvalid, report.Items[1].Status)
	assert.Equal(t, BulkNotFound, report.Items[2].Status)
	assert.Equal(t, "137", report.Items[2].CStat)
	assert.Equal(t, BulkInvalid, report.Items[3].Status)
	assert.Equal(t, BulkFailed, report.Items[4].Status)
	assert.Equal(t, "632", report.Items[4].CStat)

	assert.Equal(t, []string{found}, sink.keys())
	assert.Len(t, sender.queries, 3)
	assert.Equal(t, []time.Duration{6 * time.Second, 6 * time.Second}, sleeper.calls, "intervalo apenas entre consultas reais")
}

func TestFetchKeys_CanceledReturnsPartialReport(t *testing.T) {
	sender := newSender(t, status("137", "Nenhum documento localizado"))
	sleeper := &sleepRecorder{err: context.Canceled}

	keys := []string{testutil.Key("23", 1), testutil.Key("23", 2)}
	report, err := newTestDriver(sender, sleeper).FetchKeys(context.Background(), party, dfe.Production, keys, &memorySink{})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Total())
	assert.Len(t, sender.queries, 1)
}

func TestFetchKeys_TransportFailureContinues(t *testing.T) {
	sender := newSender(t,
		reply{err: &dfe.TransportError{Kind: dfe.TransportNetwork, StatusCode: 503}},
		status("137", "Nenhum documento localizado"),
	)

	keys := []string{testutil.Key("23", 1), testutil.Key("23", 2)}
	report, err := newTestDriver(sender, &sleepRecorder{}).FetchKeys(context.Background(), party, dfe.Production, keys, &memorySink{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.NotFound)
	assert.Contains(t, report.Items[0].Reason, "503")
}

func TestFetchKeys_RequiresSink(t *testing.T) {
	_, err := newTestDriver(newSender(t), &sleepRecorder{}).FetchKeys(context.Background(), party, dfe.Production, nil, nil)
	assert.Error(t, err)
}

func TestFetchKeys_SinkFailureCountsAsFailed(t *testing.T) {
	key := testutil.Key("23", 1)
	sender := newSender(t, docsFound(0, 0, testutil.DocZip{NSU: testutil.NSU(0), Schema: "procNFe_v4.00", XML: testutil.ProcNFe(key)}))

	report, err := newTestDriver(sender, &sleepRecorder{}).FetchKeys(context.Background(), party, dfe.Production,
		[]string{key}, &memorySink{err: errors.New("sem permissão")})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, report.Items[0].Reason, "sem permissão")
}

func TestReadKeys(t *testing.T) {
	input := "# chaves de agosto\n" +
		testutil.Key("23", 1) + "\n\n" +
		"  " + testutil.Key("23", 2) + "  \r\n"

	keys, err := ReadKeys(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{testutil.Key("23", 1), testutil.Key("23", 2)}, keys)
}
