// Package config carrega a configuração do serviço de distribuição a partir
// do ambiente e de um arquivo YAML opcional
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hugohenrick/nfe-distribuicao/internal/domain/dfe"
)

// Backends de armazenamento suportados
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// CertificateConfig aponta para o certificado A1, em PFX ou em PEM
type CertificateConfig struct {
	PFXPath  string `mapstructure:"pfx_path"`
	Password string `mapstructure:"password"`
	CertPEM  string `mapstructure:"cert_pem_path"`
	KeyPEM   string `mapstructure:"key_pem_path"`
}

// HasPFX indica que o certificado será lido de um arquivo .pfx/.p12
func (c CertificateConfig) HasPFX() bool {
	return c.PFXPath != ""
}

// PolicyConfig contém os intervalos e limites da paginação
type PolicyConfig struct {
	InterRequestDelay time.Duration `mapstructure:"inter_request_delay"`
	RateLimitCooldown time.Duration `mapstructure:"rate_limit_cooldown"`
	RateLimitRetries  int           `mapstructure:"rate_limit_retries"`
	PageSize          int           `mapstructure:"page_size"`
}

// ServerConfig contém as configurações da API HTTP
type ServerConfig struct {
	Port               string `mapstructure:"port"`
	JWTSecret          string `mapstructure:"jwt_secret"`
	JWTExpirationHours int    `mapstructure:"jwt_expiration_hours"`
	APIUser            string `mapstructure:"api_user"`
	APIPasswordHash    string `mapstructure:"api_password_hash"`
	CORSOrigins        string `mapstructure:"cors_origins"`
}

// Config é a configuração completa da aplicação
type Config struct {
	Certificate CertificateConfig `mapstructure:"certificate"`
	CNPJ        string            `mapstructure:"cnpj"`
	UFAutor     string            `mapstructure:"uf_autor"`
	Ambiente    string            `mapstructure:"ambiente"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	TLSInsecure bool              `mapstructure:"tls_insecure"`
	SOAPVersion string            `mapstructure:"soap_version"`
	OutputDir   string            `mapstructure:"output_dir"`
	CursorFile  string            `mapstructure:"cursor_file"`
	Storage     string            `mapstructure:"storage"`
	DatabaseURL string            `mapstructure:"database_url"`
	LogLevel    string            `mapstructure:"log_level"`
	LogFormat   string            `mapstructure:"log_format"`
	Policy      PolicyConfig      `mapstructure:"policy"`
	Server      ServerConfig      `mapstructure:"server"`
	// Endpoints substitui a URL do serviço por UF (código ou sigla)
	Endpoints map[string]string `mapstructure:"endpoints"`
}

// envBindings associa cada chave de configuração à variável de ambiente
var envBindings = map[string]string{
	"certificate.pfx_path":        "DFE_CERT_PFX_PATH",
	"certificate.password":        "DFE_CERT_PASSWORD",
	"certificate.cert_pem_path":   "DFE_CERT_PEM_PATH",
	"certificate.key_pem_path":    "DFE_KEY_PEM_PATH",
	"cnpj":                        "DFE_CNPJ",
	"uf_autor":                    "DFE_UF_AUTOR",
	"ambiente":                    "DFE_AMBIENTE",
	"timeout":                     "DFE_TIMEOUT",
	"tls_insecure":                "DFE_TLS_INSECURE",
	"soap_version":                "DFE_SOAP_VERSION",
	"output_dir":                  "DFE_OUTPUT_DIR",
	"cursor_file":                 "DFE_CURSOR_FILE",
	"storage":                     "DFE_STORAGE",
	"database_url":                "DATABASE_URL",
	"log_level":                   "LOG_LEVEL",
	"log_format":                  "LOG_FORMAT",
	"policy.inter_request_delay":  "DFE_INTER_REQUEST_DELAY",
	"policy.rate_limit_cooldown":  "DFE_RATE_LIMIT_COOLDOWN",
	"policy.rate_limit_retries":   "DFE_RATE_LIMIT_RETRIES",
	"policy.page_size":            "DFE_PAGE_SIZE",
	"server.port":                 "SERVER_PORT",
	"server.jwt_secret":           "JWT_SECRET_KEY",
	"server.jwt_expiration_hours": "JWT_EXPIRATION_HOURS",
	"server.api_user":             "API_USER",
	"server.api_password_hash":    "API_PASSWORD_HASH",
	"server.cors_origins":         "CORS_ORIGINS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ambiente", "producao")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("tls_insecure", true)
	v.SetDefault("soap_version", "1.2")
	v.SetDefault("output_dir", "xml_nfe")
	v.SetDefault("cursor_file", "ultimo_nsu.txt")
	v.SetDefault("storage", StorageFile)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("policy.inter_request_delay", 6*time.Second)
	v.SetDefault("policy.rate_limit_cooldown", time.Hour)
	v.SetDefault("policy.rate_limit_retries", 3)
	v.SetDefault("policy.page_size", 50)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.jwt_expiration_hours", 24)
	v.SetDefault("server.cors_origins", "*")
}

// Load lê a configuração. O arquivo YAML é opcional; variáveis de ambiente
// têm precedência sobre ele.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("erro ao associar variável %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("erro ao ler arquivo de configuração %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("erro ao interpretar configuração: %w", err)
	}
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	return cfg, nil
}

// PartyID retorna o CNPJ/CPF do interessado já validado
func (c *Config) PartyID() (dfe.PartyID, error) {
	return dfe.ParsePartyID(c.CNPJ)
}

// Environment retorna o ambiente configurado
func (c *Config) Environment() (dfe.Environment, error) {
	return dfe.ParseEnvironment(c.Ambiente)
}

// AuthorityCode retorna a UF autora usada na consulta por NSU
func (c *Config) AuthorityCode() (dfe.AuthorityCode, error) {
	return dfe.ParseAuthorityCode(strings.ToUpper(strings.TrimSpace(c.UFAutor)))
}

// Validate confere a configuração necessária antes de qualquer acesso à rede
func (c *Config) Validate() error {
	var errs []error

	switch {
	case c.Certificate.HasPFX():
	case c.Certificate.CertPEM != "" && c.Certificate.KeyPEM != "":
	default:
		errs = append(errs, errors.New("informe DFE_CERT_PFX_PATH ou DFE_CERT_PEM_PATH e DFE_KEY_PEM_PATH"))
	}

	if c.CNPJ == "" {
		errs = append(errs, errors.New("DFE_CNPJ não configurado"))
	} else if _, err := c.PartyID(); err != nil {
		errs = append(errs, err)
	}
	if c.UFAutor == "" {
		errs = append(errs, errors.New("DFE_UF_AUTOR não configurado"))
	} else if _, err := c.AuthorityCode(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Environment(); err != nil {
		errs = append(errs, err)
	}

	switch c.Storage {
	case StorageFile:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL é obrigatória com DFE_STORAGE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DFE_STORAGE inválido: %q", c.Storage))
	}

	if c.Timeout <= 0 {
		errs = append(errs, errors.New("DFE_TIMEOUT deve ser positivo"))
	}

	return errors.Join(errs...)
}

// ValidateServer confere as configurações exigidas pela API HTTP
func (c *Config) ValidateServer() error {
	var errs []error
	if c.Server.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY não configurada"))
	}
	if c.Server.APIUser == "" || c.Server.APIPasswordHash == "" {
		errs = append(errs, errors.New("API_USER e API_PASSWORD_HASH são obrigatórios"))
	}
	return errors.Join(errs...)
}
