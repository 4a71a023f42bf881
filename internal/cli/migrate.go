package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugohenrick/nfe-distribuicao/internal/infrastructure/database"
)

func newMigrateCommand(opts *options) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica as migrações do banco de dados (DFE_STORAGE=postgres)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL não configurada")
			}
			if down {
				return database.RollbackMigration(opts.cfg.DatabaseURL, opts.logger)
			}
			if err := database.RunMigrations(opts.cfg.DatabaseURL, opts.logger); err != nil {
				return err
			}
			status, err := database.CurrentMigration(opts.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Versão do banco de dados: %d\n", status.Version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "desfaz a última migração")
	return cmd
}
