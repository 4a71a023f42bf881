// Package testutil gera certificados descartáveis para os testes
package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
	"software.sslmate.com/src/go-pkcs12"
)

// Identity é um par certificado/chave autoassinado
type Identity struct {
	Certificate *x509.Certificate
	PrivateKey  *rsa.PrivateKey
}

var (
	once     sync.Once
	shared   Identity
	sharedOK bool
)

// NewIdentity gera um certificado RSA autoassinado válido por um ano
func NewIdentity(t testing.TB, commonName string) Identity {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("erro ao gerar chave: %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			CommonName:   commonName,
			Organization: []string{"EMPRESA TESTE LTDA"},
			Country:      []string{"BR"},
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
		DNSNames:              []string{"localhost"},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("erro ao criar certificado: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("erro ao ler certificado: %v", err)
	}
	return Identity{Certificate: cert, PrivateKey: key}
}

// SharedIdentity reaproveita uma única identidade por binário de teste
func SharedIdentity(t testing.TB) Identity {
	t.Helper()
	once.Do(func() {
		shared = NewIdentity(t, "EMPRESA TESTE LTDA:34683891000140")
		sharedOK = true
	})
	if !sharedOK {
		t.Fatal("identidade compartilhada indisponível")
	}
	return shared
}

// SigningMaterial retorna o material de assinatura da identidade compartilhada
func SigningMaterial(t testing.TB) *dfe.SigningMaterial {
	t.Helper()
	id := SharedIdentity(t)
	material, err := dfe.NewSigningMaterial(id.Certificate, id.PrivateKey, nil)
	if err != nil {
		t.Fatalf("erro ao montar material de assinatura: %v", err)
	}
	return material
}

// PFX codifica a identidade em um contêiner PKCS#12 protegido por senha
func PFX(t testing.TB, id Identity, password string) []byte {
	t.Helper()
	data, err := pkcs12.Modern.Encode(id.PrivateKey, id.Certificate, nil, password)
	if err != nil {
		t.Fatalf("erro ao gerar PFX: %v", err)
	}
	return data
}

// PEM codifica certificado e chave (PKCS#1) em PEM
func PEM(id Identity) (certPEM, keyPEM []byte) {
	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: id.Certificate.Raw})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(id.PrivateKey)})
	return certPEM, keyPEM
}
