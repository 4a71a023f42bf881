package sefaz

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
	"github.com/hugohenrick/nfe-distribuicao/pkg/logger"
)

// maxDocumentSize limita o XML descompactado de um único docZip
const maxDocumentSize = 32 << 20

// ErrKeyNotFound indica um XML sem infNFe/@Id nem chNFe
var ErrKeyNotFound = errors.New("chave de acesso não encontrada no documento")

// DecodeFailure descreve um docZip que não pôde ser aproveitado
type DecodeFailure struct {
	NSU    dfe.Cursor
	Schema string
	Err    error
}

func (f DecodeFailure) Error() string {
	return fmt.Sprintf("docZip NSU %s (%s): %v", f.NSU, f.Schema, f.Err)
}

func (f DecodeFailure) Unwrap() error {
	return f.Err
}

// Decoder descompacta os documentos do lote
type Decoder struct {
	logger logger.Logger
}

// NewDecoder cria o decodificador
func NewDecoder(log logger.Logger) *Decoder {
	if log == nil {
		log = logger.NewNop()
	}
	return &Decoder{logger: log}
}

// Decode decodifica cada docZip de forma isolada: uma entrada corrompida é
// registrada em failures e não interrompe as demais.
func (d *Decoder) Decode(entries []dfe.BatchEntry) (docs []dfe.Document, failures []DecodeFailure) {
	for _, entry := range entries {
		doc, err := decodeEntry(entry)
		if err != nil {
			failure := DecodeFailure{NSU: entry.NSU, Schema: entry.Schema, Err: err}
			d.logger.Warn("docZip ignorado", "nsu", entry.NSU.String(), "schema", entry.Schema, "error", err)
			failures = append(failures, failure)
			continue
		}
		if doc.Key.IsZero() {
			d.logger.Debug("documento sem chave de acesso", "nsu", doc.NSU.String(), "schema", doc.Schema)
		} else if !doc.Key.HasValidCheckDigit() {
			d.logger.Warn("chave com dígito verificador inválido", "chave", doc.Key.String(), "nsu", doc.NSU.String())
		}
		docs = append(docs, doc)
	}
	return docs, failures
}

func decodeEntry(entry dfe.BatchEntry) (dfe.Document, error) {
	if entry.NSU == "" {
		return dfe.Document{}, errors.New("NSU ausente ou inválido")
	}

	compressed, err := base64.StdEncoding.DecodeString(stripSpaces(entry.Payload))
	if err != nil {
		return dfe.Document{}, fmt.Errorf("erro ao decodificar base64: %w", err)
	}

	xml, err := gunzip(compressed)
	if err != nil {
		return dfe.Document{}, err
	}

	doc := dfe.Document{NSU: entry.NSU, Schema: entry.Schema, XML: xml}
	key, err := ExtractKey(xml)
	switch {
	case err == nil:
		doc.Key = key
	case errors.Is(err, ErrKeyNotFound):
	default:
		return dfe.Document{}, err
	}
	return doc, nil
}

// gunzip descompacta um único membro gzip
func gunzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir gzip: %w", err)
	}
	defer reader.Close()
	reader.Multistream(false)

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(reader, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("erro ao descompactar: %w", err)
	}
	if n > maxDocumentSize {
		return nil, fmt.Errorf("documento descompactado excede %d bytes", maxDocumentSize)
	}
	return buf.Bytes(), nil
}

// ExtractKey localiza a chave de acesso: infNFe/@Id sem o prefixo "NFe" e,
// na falta dele, o primeiro chNFe (resumos e eventos).
func ExtractKey(xml []byte) (dfe.DocumentKey, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xml); err != nil {
		return dfe.DocumentKey{}, fmt.Errorf("erro ao ler XML do documento: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return dfe.DocumentKey{}, ErrKeyNotFound
	}

	if inf := findElement(root, NamespaceNFe, "infNFe"); inf != nil {
		if id := strings.TrimPrefix(inf.SelectAttrValue("Id", ""), "NFe"); id != "" {
			return dfe.ParseKey(id)
		}
	}
	if ch := findText(root, NamespaceNFe, "chNFe"); ch != "" {
		return dfe.ParseKey(ch)
	}
	return dfe.DocumentKey{}, ErrKeyNotFound
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
