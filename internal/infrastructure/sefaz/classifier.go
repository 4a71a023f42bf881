package sefaz

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
)

// rejectionCodes são as rejeições documentadas do serviço de distribuição
// e as falhas de certificado/assinatura comuns a todos os webservices.
var rejectionCodes = map[string]string{
	"214": "Tamanho da mensagem excedeu o limite estabelecido",
	"215": "Falha no schema XML",
	"225": "Falha no Schema XML do lote de NFe",
	"236": "Chave de Acesso com dígito verificador inválido",
	"238": "Cabeçalho - Versão do arquivo XML superior a Versão vigente",
	"239": "Cabeçalho - Versão do arquivo XML não suportada",
	"252": "Ambiente informado diverge do Ambiente de recebimento",
	"402": "XML da área de dados com codificação diferente de UTF-8",
	"404": "Uso de prefixo de namespace não permitido",
	"489": "CNPJ informado inválido (DV ou zeros)",
	"490": "CPF informado inválido (DV ou zeros)",
	"589": "Número do NSU informado superior ao maior NSU da base de dados",
	"593": "CNPJ-Base consultado difere do CNPJ-Base do Certificado Digital",
	"632": "Solicitação fora de prazo, a NF-e não está mais disponível para download",
	"640": "CNPJ/CPF do interessado não possui permissão para consultar esta NF-e",
	"653": "NF-e cancelada, arquivo indisponível para download",
	"654": "NF-e denegada, arquivo indisponível para download",
	"999": "Erro não catalogado",
}

// IsRejectionCode indica se o cStat pertence à tabela de rejeições conhecidas
func IsRejectionCode(code string) bool {
	if _, ok := rejectionCodes[code]; ok {
		return true
	}
	// 280 a 298: certificado de transmissão ou assinatura
	return len(code) == 3 && code >= "280" && code <= "298"
}

// Classify interpreta a resposta da SEFAZ. Nunca falha: respostas ilegíveis
// ou sem cStat viram OutcomeUnrecognized com o corpo preservado.
func Classify(raw []byte) dfe.ClassifiedResponse {
	resp := dfe.ClassifiedResponse{Raw: raw}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil || doc.Root() == nil {
		resp.Kind = dfe.OutcomeUnrecognized
		resp.Status = dfe.Status{Reason: fmt.Sprintf("resposta não é um XML válido: %v", err)}
		return resp
	}

	ret := findElement(doc.Root(), NamespaceNFe, "retDistDFeInt")
	if ret == nil {
		ret = doc.Root()
	}

	code := findText(ret, NamespaceNFe, "cStat")
	if code == "" {
		resp.Kind = dfe.OutcomeUnrecognized
		resp.Status = dfe.Status{Reason: faultReason(doc.Root())}
		return resp
	}

	resp.Status = dfe.Status{Code: code, Reason: findText(ret, NamespaceNFe, "xMotivo")}
	resp.LastNSU = parseOptionalCursor(findText(ret, NamespaceNFe, "ultNSU"))
	resp.MaxNSU = parseOptionalCursor(findText(ret, NamespaceNFe, "maxNSU"))

	switch {
	case code == dfe.StatusDocsFound:
		resp.Kind = dfe.OutcomeSuccess
		resp.Entries = batchEntries(ret)
	case code == dfe.StatusNoDocuments:
		resp.Kind = dfe.OutcomeEndOfStream
	case code == dfe.StatusRateExceeded:
		resp.Kind = dfe.OutcomeRateLimited
	case IsRejectionCode(code):
		resp.Kind = dfe.OutcomeRejected
	default:
		resp.Kind = dfe.OutcomeUnrecognized
	}
	return resp
}

// Err converte um desfecho terminal no erro tipado correspondente
func Err(resp dfe.ClassifiedResponse) error {
	switch resp.Kind {
	case dfe.OutcomeRejected:
		return &dfe.RejectedError{Status: resp.Status}
	case dfe.OutcomeUnrecognized:
		return &dfe.UnrecognizedError{Status: resp.Status, Raw: resp.Raw}
	}
	return nil
}

func batchEntries(ret *etree.Element) []dfe.BatchEntry {
	lote := findElement(ret, NamespaceNFe, "loteDistDFeInt")
	if lote == nil {
		return nil
	}

	var entries []dfe.BatchEntry
	for _, el := range findAll(lote, "docZip") {
		// NSU malformado fica vazio e é reportado pelo decodificador
		nsu, _ := dfe.ParseCursor(el.SelectAttrValue("NSU", ""))
		if el.SelectAttr("NSU") == nil {
			nsu = ""
		}
		entries = append(entries, dfe.BatchEntry{
			NSU:     nsu,
			Schema:  el.SelectAttrValue("schema", ""),
			Payload: strings.TrimSpace(el.Text()),
		})
	}
	return entries
}

// faultReason extrai o texto de um SOAP Fault (1.1 ou 1.2)
func faultReason(root *etree.Element) string {
	fault := findElement(root, NamespaceSOAP12, "Fault")
	if fault == nil {
		fault = findElement(root, NamespaceSOAP11, "Fault")
	}
	if fault == nil {
		return "resposta sem cStat"
	}
	if text := findText(fault, NamespaceSOAP12, "Text"); text != "" {
		return "SOAP Fault: " + text
	}
	if text := findText(fault, "", "faultstring"); text != "" {
		return "SOAP Fault: " + text
	}
	return "SOAP Fault sem descrição"
}

func parseOptionalCursor(raw string) dfe.Cursor {
	if raw == "" {
		return ""
	}
	c, err := dfe.ParseCursor(raw)
	if err != nil {
		return ""
	}
	return c
}
