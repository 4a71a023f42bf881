// Package cli implementa a linha de comando dfe
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hugohenrick/nfe-distribuicao/internal/app"
	"github.com/hugohenrick/nfe-distribuicao/internal/config"
	"github.com/hugohenrick/nfe-distribuicao/pkg/logger"
)

// options são as flags globais e o estado compartilhado entre os comandos
type options struct {
	configPath string
	envFile    string
	jsonOutput bool
	verbose    bool

	cfg    *config.Config
	logger logger.Logger
}

// NewRootCommand monta a árvore de comandos
func NewRootCommand(version string) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "dfe",
		Short: "Cliente do serviço NFeDistribuicaoDFe da SEFAZ",
		Long: `dfe consulta o serviço de distribuição de documentos fiscais eletrônicos
(NF-e e NFC-e) da SEFAZ usando o certificado A1 do interessado.

A consulta por chave baixa um documento específico; a consulta por NSU
percorre a fila de documentos do CNPJ a partir do último NSU salvo.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", os.Getenv("DFE_CONFIG"), "arquivo de configuração YAML")
	flags.StringVar(&opts.envFile, "env-file", ".env", "arquivo .env com as variáveis de ambiente")
	flags.BoolVar(&opts.jsonOutput, "json", false, "imprime o resultado em JSON")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log detalhado")

	rootCmd.AddCommand(
		newKeyCommand(opts),
		newBulkCommand(opts),
		newScanCommand(opts),
		newHistoryCommand(opts),
		newConvertCommand(opts),
		newMigrateCommand(opts),
		newVersionCommand(version),
	)
	return rootCmd
}

// Execute executa a linha de comando; Ctrl+C cancela a consulta em andamento
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Erro:", err)
		return err
	}
	return nil
}

// load lê o .env e a configuração antes de qualquer comando
func (o *options) load() error {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("erro ao ler %s: %w", o.envFile, err)
		}
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.cfg = cfg

	level := cfg.LogLevel
	if o.verbose {
		level = "debug"
	}
	o.logger = logger.New(logger.Options{Level: level, Format: cfg.LogFormat, Output: os.Stderr})
	return nil
}

// newApp monta o serviço de distribuição a partir da configuração carregada
func (o *options) newApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, o.cfg, o.logger)
}

// printJSON imprime o valor indentado
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
