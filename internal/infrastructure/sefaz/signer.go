// Package sefaz implementa a troca SOAP com o serviço NFeDistribuicaoDFe:
// montagem e assinatura da requisição, transporte com TLS mútuo,
// classificação da resposta e decodificação dos lotes.
package sefaz

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/leifj/signedxml"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
)

// LayoutVersion é a versão do leiaute distDFeInt
const LayoutVersion = "1.01"

// Operation é a ação SOAP do serviço
const Operation = NamespaceWSDL + "/nfeDistDFeInteresse"

// Algoritmos exigidos pelo validador da SEFAZ
const (
	algC14N      = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	algEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
	algRSASHA1   = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	algSHA1      = "http://www.w3.org/2000/09/xmldsig#sha1"
)

// SOAPVersion define o envelope usado na requisição
type SOAPVersion string

const (
	SOAP11 SOAPVersion = "1.1"
	SOAP12 SOAPVersion = "1.2"
)

// ParseSOAPVersion aceita "1.1" ou "1.2"; vazio resulta em 1.2
func ParseSOAPVersion(raw string) (SOAPVersion, error) {
	switch strings.TrimSpace(raw) {
	case "", "1.2", "12":
		return SOAP12, nil
	case "1.1", "11":
		return SOAP11, nil
	}
	return "", fmt.Errorf("versão SOAP inválida: %q", raw)
}

// SignedRequest é uma requisição pronta para envio
type SignedRequest struct {
	Query dfe.QuerySpec
	// Payload é o distDFeInt assinado, sem o envelope
	Payload     []byte
	Envelope    []byte
	ContentType string
	SOAPAction  string
}

// Signer monta e assina as consultas com o certificado do interessado
type Signer struct {
	material *dfe.SigningMaterial
	version  SOAPVersion
}

// NewSigner cria o assinador
func NewSigner(material *dfe.SigningMaterial, version SOAPVersion) (*Signer, error) {
	if material == nil {
		return nil, &dfe.SigningError{Err: fmt.Errorf("material de assinatura não informado")}
	}
	if version == "" {
		version = SOAP12
	}
	return &Signer{material: material, version: version}, nil
}

// Build monta o distDFeInt, assina e envelopa. Não acessa rede nem disco.
func (s *Signer) Build(spec dfe.QuerySpec) (SignedRequest, error) {
	if err := spec.Validate(); err != nil {
		return SignedRequest{}, err
	}

	body, err := s.sign(buildQuery(spec))
	if err != nil {
		return SignedRequest{}, &dfe.SigningError{Err: err}
	}

	envelope, err := s.envelope(body)
	if err != nil {
		return SignedRequest{}, fmt.Errorf("erro ao montar envelope SOAP: %w", err)
	}

	payload, err := body.WriteToBytes()
	if err != nil {
		return SignedRequest{}, fmt.Errorf("erro ao serializar consulta: %w", err)
	}

	req := SignedRequest{
		Query:      spec,
		Payload:    payload,
		Envelope:   envelope,
		SOAPAction: Operation,
	}
	if s.version == SOAP11 {
		req.ContentType = "text/xml; charset=utf-8"
	} else {
		req.ContentType = fmt.Sprintf("application/soap+xml; charset=utf-8; action=%q", Operation)
	}
	return req, nil
}

// buildQuery monta o corpo distDFeInt com o template da assinatura
func buildQuery(spec dfe.QuerySpec) *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement("distDFeInt")
	root.CreateAttr("xmlns", NamespaceNFe)
	root.CreateAttr("versao", LayoutVersion)

	root.CreateElement("tpAmb").SetText(spec.Environment.TpAmb())
	root.CreateElement("cUFAutor").SetText(string(spec.Authority))
	if spec.Party.IsCPF() {
		root.CreateElement("CPF").SetText(string(spec.Party))
	} else {
		root.CreateElement("CNPJ").SetText(string(spec.Party))
	}

	switch spec.Mode {
	case dfe.SingleKey:
		root.CreateElement("consChNFe").CreateElement("chNFe").SetText(spec.Key.String())
	case dfe.CursorScan:
		root.CreateElement("distNSU").CreateElement("ultNSU").SetText(spec.Cursor.String())
	}
	return doc
}

// sign insere a assinatura envelopada (RSA-SHA1, C14N) e calcula digest e valor
func (s *Signer) sign(doc *etree.Document) (*etree.Document, error) {
	sig := doc.Root().CreateElement("Signature")
	sig.CreateAttr("xmlns", NamespaceDSig)

	signedInfo := sig.CreateElement("SignedInfo")
	signedInfo.CreateElement("CanonicalizationMethod").CreateAttr("Algorithm", algC14N)
	signedInfo.CreateElement("SignatureMethod").CreateAttr("Algorithm", algRSASHA1)

	ref := signedInfo.CreateElement("Reference")
	ref.CreateAttr("URI", "")
	transforms := ref.CreateElement("Transforms")
	transforms.CreateElement("Transform").CreateAttr("Algorithm", algEnveloped)
	transforms.CreateElement("Transform").CreateAttr("Algorithm", algC14N)
	ref.CreateElement("DigestMethod").CreateAttr("Algorithm", algSHA1)
	ref.CreateElement("DigestValue").SetText("placeholder")

	sig.CreateElement("SignatureValue").SetText("placeholder")
	sig.CreateElement("KeyInfo").
		CreateElement("X509Data").
		CreateElement("X509Certificate").
		SetText(base64.StdEncoding.EncodeToString(s.material.Certificate.Raw))

	xmlStr, err := doc.WriteToString()
	if err != nil {
		return nil, fmt.Errorf("erro ao serializar consulta: %w", err)
	}

	signer, err := signedxml.NewSigner(xmlStr)
	if err != nil {
		return nil, fmt.Errorf("erro ao preparar assinatura: %w", err)
	}
	signed, err := signer.Sign(s.material.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("erro ao assinar: %w", err)
	}

	out := etree.NewDocument()
	if err := out.ReadFromString(signed); err != nil {
		return nil, fmt.Errorf("erro ao ler consulta assinada: %w", err)
	}
	return out, nil
}

// envelope embala o corpo assinado em nfeDistDFeInteresse/nfeDadosMsg
func (s *Signer) envelope(body *etree.Document) ([]byte, error) {
	prefix, space := "soap12", NamespaceSOAP12
	if s.version == SOAP11 {
		prefix, space = "soap", NamespaceSOAP11
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	env := doc.CreateElement(prefix + ":Envelope")
	env.CreateAttr("xmlns:"+prefix, space)

	operation := env.CreateElement(prefix + ":Body").CreateElement("nfeDistDFeInteresse")
	operation.CreateAttr("xmlns", NamespaceWSDL)
	operation.CreateElement("nfeDadosMsg").AddChild(body.Root().Copy())

	return doc.WriteToBytes()
}
