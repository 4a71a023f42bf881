package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugohenrick/nfe-distribuicao/internal/adapter/api/dto"
)

func newKeyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "chave <chave>",
		Short: "Consulta um documento pela chave de acesso",
		Long:  "Consulta a NF-e/NFC-e pela chave de acesso (consChNFe) e grava o XML em <saida>/<chave>.xml.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.FetchKey(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, dto.ToKeyResponse(result))
			}
			if !result.Found {
				fmt.Fprintf(out, "Documento não localizado: cStat=%s %s\n", result.Status.Code, result.Status.Reason)
				return nil
			}
			fmt.Fprintf(out, "Documento salvo: %s (%s)\n", result.Key, result.Document.Schema)
			return nil
		},
	}
}
