package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/api/dto"
)

func newHistoryCommand(opts *options) *cobra.Command {
	var (
		limit int
		key   string
	)

	cmd := &cobra.Command{
		Use:   "historico",
		Short: "Lista as últimas execuções ou os documentos gravados de uma chave",
		Long: `Consulta o histórico gravado no banco de dados (DFE_STORAGE=postgres).
Sem --chave lista as últimas execuções; com --chave lista os documentos
já recebidos para a chave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if key != "" {
				docs, err := a.StoredDocuments(cmd.Context(), key)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printJSON(out, dto.ToStoredDocumentResponses(docs, false))
				}
				for _, d := range docs {
					fmt.Fprintf(out, "%s  %-16s  %s\n", d.NSU, d.Schema, d.CreatedAt.Format("2006-01-02 15:04:05"))
				}
				return nil
			}

			runs, err := a.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(out, dto.ToRunListResponse(runs))
			}
			for _, r := range runs {
				fmt.Fprintf(out, "%s  %-10s  %-13s  cStat=%-3s  %s -> %s  %d consultas\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), r.Mode, r.State, r.Status.Code,
					r.StartCursor, r.FinalCursor, r.Requests)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limite", "n", 20, "quantidade de execuções")
	cmd.Flags().StringVar(&key, "chave", "", "lista os documentos gravados da chave")
	return cmd
}
