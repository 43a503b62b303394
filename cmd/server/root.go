package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/restopos/internal/auth"
	"github.com/mamadbah2/restopos/internal/config"
	"github.com/mamadbah2/restopos/internal/repository/statefile"
	"github.com/mamadbah2/restopos/pkg/logger"
)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "restopos",
		Short:         "Live state server for restaurant point of sale terminals",
		Long:          `restopos keeps the authoritative restaurant state (menu, orders, staff, promotions, revenue) in one process and pushes every change to connected terminals over websockets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment (default .env)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the websocket and HTTP server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), envFile)
			},
		},
		newMigrateCmd(&envFile),
		newHashPasswordCmd(),
	)
	return root
}

func newMigrateCmd(envFile *string) *cobra.Command {
	var stateFile string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade the state file to the current schema version and rewrite it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := config.LoadStorage(*envFile)
			if err != nil {
				return err
			}
			if stateFile != "" {
				storage.StateFile = stateFile
			}

			log := logger.Must(logger.New("info"))
			defer func() { _ = log.Sync() }()

			repo := statefile.NewRepository(storage.StateFile, storage.BackupDir, log.Named("repo.statefile"))
			state, err := repo.Load()
			if err != nil {
				return err
			}
			if err := repo.Save(state); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is at schema version %d\n", repo.Path(), state.Version)
			return nil
		},
	}
	cmd.Flags().StringVar(&stateFile, "state-file", "", "state file to migrate (default $STATE_FILE)")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash for ADMIN_PASSWORD_HASH",
		Long:  "Print the bcrypt hash of the password given as argument, or of the first line read from stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}

			hash, err := auth.Bcrypt{Cost: cost}.Hash(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", 0, "bcrypt cost (default 10)")
	return cmd
}
