package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "reservationd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "reservationd",
		Short:         "Restaurant table reservation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCommand(), newMigrateCommand(), newManagerCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	cfg := serveConfig{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reservation HTTP and gRPC APIs",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadServeConfig(cmd)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
	addServeFlags(cmd.Flags())
	return cmd
}

func newMigrateCommand() *cobra.Command {
	cfg := storageConfig{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadCommandStorageConfig(cmd)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrate(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
	addStorageFlags(cmd.Flags())
	return cmd
}

func newManagerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manager",
		Short: "Manage manager accounts",
	}
	cmd.AddCommand(newManagerAddCommand())
	return cmd
}

func newManagerAddCommand() *cobra.Command {
	cfg := storageConfig{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a manager login (password from --password or the first line of stdin)",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadCommandStorageConfig(cmd)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			loginID, _ := cmd.Flags().GetString(flagLoginID)
			password, _ := cmd.Flags().GetString(flagPassword)
			created, err := runManagerAdd(cmd.Context(), cfg, loginID, password, cmd.InOrStdin())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "manager %s created\n", created)
			return nil
		},
	}
	addStorageFlags(cmd.Flags())
	cmd.Flags().String(flagLoginID, "", "manager login id (required)")
	cmd.Flags().String(flagPassword, "", "manager password; read from stdin when empty")
	return cmd
}

func loadCommandStorageConfig(cmd *cobra.Command) (storageConfig, error) {
	v, err := newViper(cmd)
	if err != nil {
		return storageConfig{}, err
	}
	return loadStorageConfig(v)
}
