package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/api/dto"
	"github.com/hugohenrick/nfe-distribuicao/internal/service/distribution"
)

func newBulkCommand(opts *options) *cobra.Command {
	var keysFile string

	cmd := &cobra.Command{
		Use:   "lote [chaves...]",
		Short: "Baixa várias chaves de acesso, uma consulta por chave",
		Long: `Baixa cada chave informada na linha de comando ou no arquivo (uma por linha;
linhas em branco e iniciadas por # são ignoradas), respeitando o intervalo
entre consultas. Chaves inválidas são contadas e não geram requisição.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := append([]string{}, args...)
			if keysFile != "" {
				fromFile, err := readKeysFile(keysFile)
				if err != nil {
					return err
				}
				keys = append(keys, fromFile...)
			}
			if len(keys) == 0 {
				return fmt.Errorf("informe as chaves ou o arquivo com --arquivo")
			}

			a, err := opts.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			report, runErr := a.FetchKeys(cmd.Context(), keys)
			if report == nil {
				return runErr
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				if err := printJSON(out, dto.ToBulkResponse(report)); err != nil {
					return err
				}
				return runErr
			}
			printBulkReport(cmd, report)
			return runErr
		},
	}

	cmd.Flags().StringVarP(&keysFile, "arquivo", "a", "", "arquivo com uma chave por linha")
	return cmd
}

func readKeysFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir %s: %w", path, err)
	}
	defer f.Close()
	return distribution.ReadKeys(f)
}

func printBulkReport(cmd *cobra.Command, report *distribution.BulkReport) {
	out := cmd.OutOrStdout()
	for _, item := range report.Items {
		line := fmt.Sprintf("  %-44s  %-14s", item.Key, item.Status)
		if item.CStat != "" {
			line += "  cStat=" + item.CStat
		}
		if item.Reason != "" {
			line += "  " + item.Reason
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "\nTotal: %d | salvos: %d | não encontrados: %d | falhas: %d | inválidas: %d\n",
		report.Total(), report.Saved, report.NotFound, report.Failed, report.Invalid)
}
