package pkcs12

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
	"software.sslmate.com/src/go-pkcs12"
)

// ErrNotRSA indica um certificado A1 cuja chave não é RSA
var ErrNotRSA = errors.New("a chave privada do certificado não é RSA")

// PEMPair é o resultado da conversão de um PFX: certificado do titular e chave privada
type PEMPair struct {
	Certificate []byte
	PrivateKey  []byte
}

// Load decodifica um certificado A1 (PKCS#12) e monta o material de assinatura
func Load(pfxData []byte, password string) (*dfe.SigningMaterial, error) {
	privateKey, certificate, caCerts, err := pkcs12.DecodeChain(pfxData, password)
	if err != nil {
		return nil, fmt.Errorf("erro ao decodificar certificado PKCS12: %w", err)
	}

	key, ok := privateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrNotRSA
	}

	return dfe.NewSigningMaterial(certificate, key, caCerts)
}

// LoadFile lê e decodifica um arquivo .pfx/.p12
func LoadFile(path, password string) (*dfe.SigningMaterial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler certificado %s: %w", path, err)
	}
	return Load(data, password)
}

// LoadPEM monta o material de assinatura a partir de certificado e chave já convertidos
func LoadPEM(certPEM, keyPEM []byte) (*dfe.SigningMaterial, error) {
	var certs []*x509.Certificate
	for rest := certPEM; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler certificado PEM: %w", err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, errors.New("nenhum certificado encontrado no arquivo PEM")
	}

	key, err := parsePrivateKey(keyPEM)
	if err != nil {
		return nil, err
	}

	return dfe.NewSigningMaterial(certs[0], key, certs[1:])
}

// LoadPEMFiles lê certificado e chave de arquivos PEM separados
func LoadPEMFiles(certPath, keyPath string) (*dfe.SigningMaterial, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler certificado %s: %w", certPath, err)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler chave privada %s: %w", keyPath, err)
	}
	return LoadPEM(certPEM, keyPEM)
}

// ToPEM converte um certificado PKCS12 para PEM.
// Apenas o certificado do titular é exportado; a cadeia de CAs é descartada.
func ToPEM(pfxData []byte, password string) (*PEMPair, error) {
	// certificados emitidos por ACs brasileiras costumam trazer a cadeia junto
	privateKey, certificate, _, err := pkcs12.DecodeChain(pfxData, password)
	if err != nil {
		return nil, fmt.Errorf("erro ao decodificar certificado PKCS12: %w", err)
	}

	pkData, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("erro ao serializar chave privada: %w", err)
	}

	return &PEMPair{
		Certificate: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certificate.Raw}),
		PrivateKey:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkData}),
	}, nil
}

func parsePrivateKey(keyPEM []byte) (*rsa.PrivateKey, error) {
	for rest := keyPEM; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, errors.New("nenhuma chave privada encontrada no arquivo PEM")
		}

		switch block.Type {
		case "RSA PRIVATE KEY":
			key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("erro ao ler chave privada: %w", err)
			}
			return key, nil
		case "PRIVATE KEY":
			parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("erro ao ler chave privada: %w", err)
			}
			key, ok := parsed.(*rsa.PrivateKey)
			if !ok {
				return nil, ErrNotRSA
			}
			return key, nil
		}
	}
}
