package sefaz

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
	"github.com/hugohenrick/nfe-distribuicao/pkg/logger"
)

const (
	maxResponseSize = 64 << 20
	maxDetailSize   = 512
)

// TransportConfig configura o cliente HTTPS
type TransportConfig struct {
	Timeout time.Duration
	// InsecureSkipVerify desliga a validação da cadeia do servidor. A cadeia ICP-Brasil
	// raramente está nos repositórios de confiança do sistema, por isso o padrão é true.
	InsecureSkipVerify bool
	RootCAs            *x509.CertPool
	UserAgent          string
}

// DefaultTransportConfig retorna a configuração padrão
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Timeout:            30 * time.Second,
		InsecureSkipVerify: true,
		UserAgent:          "nfe-distribuicao/1.0",
	}
}

// Client envia as requisições assinadas com autenticação TLS mútua
type Client struct {
	http   *http.Client
	config TransportConfig
	logger logger.Logger
}

// NewClient cria o cliente usando o certificado do material de assinatura como identidade
func NewClient(material *dfe.SigningMaterial, config TransportConfig, log logger.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTransportConfig().Timeout
	}
	if log == nil {
		log = logger.NewNop()
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		RootCAs:            config.RootCAs,
		InsecureSkipVerify: config.InsecureSkipVerify,
		Renegotiation:      tls.RenegotiateOnceAsClient,
	}
	if material != nil {
		tlsConfig.Certificates = []tls.Certificate{material.TLSCertificate()}
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     tlsConfig,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 1,
	}

	if config.InsecureSkipVerify {
		log.Warn("validação do certificado do servidor desativada")
	}

	return &Client{
		http:   &http.Client{Transport: transport},
		config: config,
		logger: log,
	}
}

// Send executa o POST do envelope. Não há novas tentativas aqui: a repetição
// é decidida pelo driver de paginação.
func (c *Client) Send(ctx context.Context, endpoint string, req SignedRequest) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, endpoint, bytes.NewReader(req.Envelope))
	if err != nil {
		return nil, &dfe.TransportError{Kind: dfe.TransportNetwork, Detail: "requisição inválida", Err: err}
	}
	httpReq.Header.Set("Content-Type", req.ContentType)
	if strings.HasPrefix(req.ContentType, "text/xml") {
		httpReq.Header.Set("SOAPAction", fmt.Sprintf("%q", req.SOAPAction))
	}
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.classifyError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, c.classifyError(ctx, err)
	}

	c.logger.Debug("resposta recebida",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duracao", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &dfe.TransportError{
			Kind:       dfe.TransportNetwork,
			StatusCode: resp.StatusCode,
			Detail:     snippet(body),
		}
	}
	return body, nil
}

// classifyError separa cancelamento, timeout e falha de rede
func (c *Client) classifyError(parent context.Context, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return parent.Err()
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &dfe.TransportError{
			Kind:   dfe.TransportTimeout,
			Detail: fmt.Sprintf("sem resposta em %s", c.config.Timeout),
			Err:    err,
		}
	}
	return &dfe.TransportError{Kind: dfe.TransportNetwork, Err: err}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxDetailSize {
		return s[:maxDetailSize] + "..."
	}
	return s
}
