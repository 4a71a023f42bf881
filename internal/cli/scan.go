package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/api/dto"
	"github.com/hugohenrick/nfe-distribuicao/internal/app"
	"github.com/hugohenrick/nfe-distribuicao/internal/service/distribution"
)

func newScanCommand(opts *options) *cobra.Command {
	var (
		targets []string
		reset   bool
	)

	cmd := &cobra.Command{
		Use:   "nsu",
		Short: "Percorre a fila de documentos a partir do último NSU",
		Long: `Consulta a fila de documentos do interessado (distNSU) a partir do último NSU
salvo, até esvaziá-la ou encontrar todas as chaves informadas em --alvo.
Sem --alvo, todos os documentos recebidos são gravados.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result, runErr := a.Scan(cmd.Context(), app.ScanOptions{Targets: targets, Reset: reset})
			if result == nil {
				return runErr
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				if err := printJSON(out, dto.ToScanResponse(result)); err != nil {
					return err
				}
				return runErr
			}
			printScanResult(cmd, result)
			return runErr
		},
	}

	cmd.Flags().StringSliceVar(&targets, "alvo", nil, "chave procurada (pode ser repetida)")
	cmd.Flags().BoolVar(&reset, "reset", false, "volta o NSU para zero antes da consulta")
	return cmd
}

func printScanResult(cmd *cobra.Command, result *distribution.ScanResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Estado: %s\n", result.State)
	if result.Status.Code != "" {
		fmt.Fprintf(out, "Último retorno: cStat=%s %s\n", result.Status.Code, result.Status.Reason)
	}
	fmt.Fprintf(out, "NSU: %s -> %s (%d consultas)\n", result.StartCursor, result.FinalCursor, result.Requests)
	fmt.Fprintf(out, "Documentos gravados: %d\n", len(result.Matched))
	if result.DecodeFailures > 0 {
		fmt.Fprintf(out, "Documentos com falha de leitura: %d\n", result.DecodeFailures)
	}
	for _, key := range result.Missing {
		fmt.Fprintf(out, "Não encontrada: %s\n", key)
	}
}
