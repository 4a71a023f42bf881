package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hugohenrick/nfe-distribuicao/pkg/pkcs12"
)

func newConvertCommand(opts *options) *cobra.Command {
	var (
		pfxPath  string
		password string
		outDir   string
	)

	cmd := &cobra.Command{
		Use:   "converter",
		Short: "Converte o certificado PFX em cert.pem e key.pem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pfxPath == "" {
				pfxPath = opts.cfg.Certificate.PFXPath
			}
			if password == "" {
				password = opts.cfg.Certificate.Password
			}
			if pfxPath == "" {
				return fmt.Errorf("informe o certificado com --pfx ou DFE_CERT_PFX_PATH")
			}

			certPath, keyPath, err := convertPFX(pfxPath, password, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Certificado: %s\nChave privada: %s\n", certPath, keyPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&pfxPath, "pfx", "", "arquivo .pfx/.p12 (padrão: DFE_CERT_PFX_PATH)")
	cmd.Flags().StringVar(&password, "senha", "", "senha do certificado (padrão: DFE_CERT_PASSWORD)")
	cmd.Flags().StringVar(&outDir, "saida", ".", "diretório onde os arquivos PEM serão gravados")
	return cmd
}

// convertPFX grava cert.pem (somente o certificado do titular) e key.pem
func convertPFX(pfxPath, password, outDir string) (string, string, error) {
	data, err := os.ReadFile(pfxPath)
	if err != nil {
		return "", "", fmt.Errorf("erro ao ler %s: %w", pfxPath, err)
	}
	pair, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return "", "", fmt.Errorf("erro ao converter certificado: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", "", fmt.Errorf("erro ao criar diretório %s: %w", outDir, err)
	}
	certPath := filepath.Join(outDir, "cert.pem")
	keyPath := filepath.Join(outDir, "key.pem")
	if err := os.WriteFile(certPath, pair.Certificate, 0o644); err != nil {
		return "", "", fmt.Errorf("erro ao gravar %s: %w", certPath, err)
	}
	if err := os.WriteFile(keyPath, pair.PrivateKey, 0o600); err != nil {
		return "", "", fmt.Errorf("erro ao gravar %s: %w", keyPath, err)
	}
	return certPath, keyPath, nil
}
