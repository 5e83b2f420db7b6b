package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"reservationsystem/internal/config"
	"reservationsystem/internal/repository"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.EnvFile)
			if err != nil {
				return err
			}
			if cfg.StoreDriver == repository.DriverMemory {
				return fmt.Errorf("store driver %q has no schema to migrate", cfg.StoreDriver)
			}

			sqlDB, err := repository.OpenDB(cmd.Context(), cfg.StoreDriver, cfg.DSN())
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			applied, err := repository.Migrate(cmd.Context(), sqlDB, cfg.StoreDriver)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "schema is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(out, "applied %s\n", name)
			}
			return nil
		},
	}
}
