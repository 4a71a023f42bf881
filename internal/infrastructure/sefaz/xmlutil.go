package sefaz

import (
	"strings"

	"github.com/beevik/etree"
)

// Namespaces usados pelo serviço de distribuição
const (
	NamespaceNFe    = "http://www.portalfiscal.inf.br/nfe"
	NamespaceWSDL   = "http://www.portalfiscal.inf.br/nfe/wsdl/NFeDistribuicaoDFe"
	NamespaceDSig   = "http://www.w3.org/2000/09/xmldsig#"
	NamespaceSOAP11 = "http://schemas.xmlsoap.org/soap/envelope/"
	NamespaceSOAP12 = "http://www.w3.org/2003/05/soap-envelope"
)

// findElement procura o elemento pelo namespace e, se não encontrar, apenas pelo nome local.
// Os gateways das SEFAZ nem sempre declaram (ou declaram errado) o namespace.
func findElement(root *etree.Element, space, tag string) *etree.Element {
	if root == nil {
		return nil
	}
	if el := walk(root, func(e *etree.Element) bool {
		return e.Tag == tag && e.NamespaceURI() == space
	}); el != nil {
		return el
	}
	return walk(root, func(e *etree.Element) bool {
		return e.Tag == tag
	})
}

// findAll retorna todos os elementos com o nome local informado, em ordem de documento
func findAll(root *etree.Element, tag string) []*etree.Element {
	var found []*etree.Element
	if root == nil {
		return found
	}
	var visit func(e *etree.Element)
	visit = func(e *etree.Element) {
		if e.Tag == tag {
			found = append(found, e)
		}
		for _, child := range e.ChildElements() {
			visit(child)
		}
	}
	visit(root)
	return found
}

// findText retorna o texto do elemento sem espaços, ou vazio quando ausente
func findText(root *etree.Element, space, tag string) string {
	el := findElement(root, space, tag)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

func walk(e *etree.Element, match func(*etree.Element) bool) *etree.Element {
	if match(e) {
		return e
	}
	for _, child := range e.ChildElements() {
		if found := walk(child, match); found != nil {
			return found
		}
	}
	return nil
}
