package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
)

const sampleKey = "23250834683891000140650220000207061299677609"

func TestFileCursorStore_MissingFileIsZero(t *testing.T) {
	store := NewFileCursorStore(filepath.Join(t.TempDir(), "ultimo_nsu.txt"))

	cursor, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dfe.ZeroCursor, cursor)
}

func TestFileCursorStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estado", "ultimo_nsu.txt")
	store := NewFileCursorStore(path)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "000000000000123"))
	cursor, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, dfe.Cursor("000000000000123"), cursor)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "000000000000123", string(data))
}

func TestFileCursorStore_SaveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ultimo_nsu.txt")
	store := NewFileCursorStore(path)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "000000000000050"))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "000000000000050"))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "nenhum arquivo temporário deve sobrar")
}

func TestFileCursorStore_ShortValueIsPadded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ultimo_nsu.txt")
	require.NoError(t, os.WriteFile(path, []byte("42\n"), 0o644))

	cursor, err := NewFileCursorStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dfe.Cursor("000000000000042"), cursor)
}

func TestFileCursorStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ultimo_nsu.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	_, err := NewFileCursorStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestFileCursorStore_Reset(t *testing.T) {
	store := NewFileCursorStore(filepath.Join(t.TempDir(), "ultimo_nsu.txt"))
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "000000000000900"))
	require.NoError(t, store.Reset(ctx))

	cursor, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, cursor.IsZero())
}

func TestFileSink_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "xml")
	sink := NewFileSink(dir)
	key := dfe.MustParseKey(sampleKey)

	full := dfe.Document{NSU: "000000000000010", Schema: "procNFe_v4.00", Key: key, XML: []byte("<nfeProc/>")}
	summary := dfe.Document{NSU: "000000000000011", Schema: "resEvento_1.01", Key: key, XML: []byte("<resEvento/>")}

	require.NoError(t, sink.Write(context.Background(), full))
	require.NoError(t, sink.Write(context.Background(), summary))

	data, err := os.ReadFile(filepath.Join(dir, sampleKey+".xml"))
	require.NoError(t, err)
	assert.Equal(t, "<nfeProc/>", string(data))

	data, err = os.ReadFile(filepath.Join(dir, sampleKey+"-resEvento-000000000000011.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<resEvento/>", string(data))
}

func TestFileSink_RejectsDocumentWithoutKey(t *testing.T) {
	err := NewFileSink(t.TempDir()).Write(context.Background(), dfe.Document{XML: []byte("<x/>")})
	assert.Error(t, err)
}

type failingSink struct{ calls int }

func (f *failingSink) Write(context.Context, dfe.Document) error {
	f.calls++
	return os.ErrPermission
}

func TestMultiSink_StopsAtFirstError(t *testing.T) {
	dir := t.TempDir()
	failing := &failingSink{}
	after := &failingSink{}
	sink := MultiSink{NewFileSink(dir), failing, after}

	doc := dfe.Document{NSU: "000000000000001", Schema: "procNFe_v4.00", Key: dfe.MustParseKey(sampleKey), XML: []byte("<x/>")}
	err := sink.Write(context.Background(), doc)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Equal(t, 1, failing.calls)
	assert.Zero(t, after.calls)
	assert.FileExists(t, filepath.Join(dir, sampleKey+".xml"))
}
