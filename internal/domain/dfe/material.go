package dfe

import (
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"time"
)

// SigningMaterial reúne o certificado A1 e a chave privada usados na assinatura
// e na autenticação mútua. É somente leitura durante toda a execução.
type SigningMaterial struct {
	Certificate *x509.Certificate
	PrivateKey  *rsa.PrivateKey
	Chain       []*x509.Certificate
}

// NewSigningMaterial valida o par certificado/chave
func NewSigningMaterial(cert *x509.Certificate, key *rsa.PrivateKey, chain []*x509.Certificate) (*SigningMaterial, error) {
	if cert == nil {
		return nil, errors.New("certificado é obrigatório")
	}
	if key == nil {
		return nil, errors.New("chave privada é obrigatória")
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("certificado não contém chave pública RSA")
	}
	if pub.N.Cmp(key.PublicKey.N) != 0 || pub.E != key.PublicKey.E {
		return nil, errors.New("chave privada não corresponde ao certificado")
	}
	return &SigningMaterial{Certificate: cert, PrivateKey: key, Chain: chain}, nil
}

// TLSCertificate monta a identidade de cliente para o TLS mútuo
func (m *SigningMaterial) TLSCertificate() tls.Certificate {
	chain := [][]byte{m.Certificate.Raw}
	for _, c := range m.Chain {
		chain = append(chain, c.Raw)
	}
	return tls.Certificate{
		Certificate: chain,
		PrivateKey:  m.PrivateKey,
		Leaf:        m.Certificate,
	}
}

// IsExpired verifica se o certificado está expirado
func (m *SigningMaterial) IsExpired(now time.Time) bool {
	return now.After(m.Certificate.NotAfter)
}

// ExpiresWithin indica se o certificado vence dentro do intervalo informado
func (m *SigningMaterial) ExpiresWithin(now time.Time, d time.Duration) bool {
	return now.Add(d).After(m.Certificate.NotAfter)
}

// Subject retorna o titular do certificado
func (m *SigningMaterial) Subject() string {
	return m.Certificate.Subject.String()
}
