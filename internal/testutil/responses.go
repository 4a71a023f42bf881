package testutil

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"strings"
)

// DocZip é um documento de lote usado para montar respostas falsas
type DocZip struct {
	NSU     string
	Schema  string
	XML     string
	Payload string // quando preenchido, substitui o XML compactado
}

// GzipBase64 compacta e codifica o XML como a SEFAZ faz no docZip
func GzipBase64(xml string) string {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, _ = w.Write([]byte(xml))
	_ = w.Close()
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// ProcNFe retorna um nfeProc mínimo com a chave informada
func ProcNFe(key string) string {
	return fmt.Sprintf(`<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00">`+
		`<NFe><infNFe Id="NFe%s" versao="4.00"><ide><cUF>%s</cUF></ide></infNFe></NFe>`+
		`<protNFe versao="4.00"><infProt><chNFe>%s</chNFe><cStat>100</cStat></infProt></protNFe>`+
		`</nfeProc>`, key, key[:2], key)
}

// ResNFe retorna um resumo de NF-e
func ResNFe(key string) string {
	return fmt.Sprintf(`<resNFe xmlns="http://www.portalfiscal.inf.br/nfe" versao="1.01">`+
		`<chNFe>%s</chNFe><CNPJ>34683891000140</CNPJ><xNome>EMPRESA TESTE LTDA</xNome></resNFe>`, key)
}

// ResEvento retorna um resumo de evento vinculado à chave
func ResEvento(key string) string {
	return fmt.Sprintf(`<resEvento xmlns="http://www.portalfiscal.inf.br/nfe" versao="1.01">`+
		`<cOrgao>91</cOrgao><chNFe>%s</chNFe><tpEvento>210210</tpEvento></resEvento>`, key)
}

// RetDistDFeInt monta o retorno do serviço dentro de um envelope SOAP 1.2
func RetDistDFeInt(cStat, xMotivo, ultNSU, maxNSU string, docs ...DocZip) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope"><soap:Body>`)
	b.WriteString(`<nfeDistDFeInteresseResponse xmlns="http://www.portalfiscal.inf.br/nfe/wsdl/NFeDistribuicaoDFe">`)
	b.WriteString(`<nfeDistDFeInteresseResult>`)
	b.WriteString(`<retDistDFeInt xmlns="http://www.portalfiscal.inf.br/nfe" versao="1.01">`)
	b.WriteString(`<tpAmb>1</tpAmb><verAplic>1.7.6</verAplic>`)
	fmt.Fprintf(&b, `<cStat>%s</cStat><xMotivo>%s</xMotivo>`, cStat, xMotivo)
	b.WriteString(`<dhResp>2025-08-14T10:00:00-03:00</dhResp>`)
	if ultNSU != "" {
		fmt.Fprintf(&b, `<ultNSU>%s</ultNSU>`, ultNSU)
	}
	if maxNSU != "" {
		fmt.Fprintf(&b, `<maxNSU>%s</maxNSU>`, maxNSU)
	}
	if len(docs) > 0 {
		b.WriteString(`<loteDistDFeInt>`)
		for _, d := range docs {
			payload := d.Payload
			if payload == "" {
				payload = GzipBase64(d.XML)
			}
			fmt.Fprintf(&b, `<docZip NSU="%s" schema="%s">%s</docZip>`, d.NSU, d.Schema, payload)
		}
		b.WriteString(`</loteDistDFeInt>`)
	}
	b.WriteString(`</retDistDFeInt></nfeDistDFeInteresseResult></nfeDistDFeInteresseResponse>`)
	b.WriteString(`</soap:Body></soap:Envelope>`)
	return []byte(b.String())
}

// NSU formata um número como NSU de 15 dígitos
func NSU(n int) string {
	return fmt.Sprintf("%015d", n)
}

// Key gera uma chave de 44 dígitos da UF informada com número sequencial
func Key(uf string, n int) string {
	return fmt.Sprintf("%s25083468389100014065022%09d%010d", uf, n, n)
}
