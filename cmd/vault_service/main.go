package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vault_client/internal/domain/entity"
	"vault_client/internal/infrastructure/restapi"
	"vault_client/internal/infrastructure/walletloader"
	"vault_client/internal/pkg/utils"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultConfigPath = "config/config.yml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "vault_service",
		Short:         "Aggregates on-chain vault state, strategies and liquidity positions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", utils.GetEnv("CONFIG_PATH", defaultConfigPath), "path to the YAML configuration file")

	root.AddCommand(
		newServeCmd(&configPath),
		newVaultCmd(&configPath),
		newUserCmd(&configPath),
		newUsersCmd(&configPath),
		newStrategiesCmd(&configPath),
	)
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(ctx, *configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			vaultHandler := restapi.NewVaultHandler(app.vaults, app.readers, app.chains, app.log)
			strategyHandler := restapi.NewStrategyHandler(app.strategies, app.log)
			var gatherer prometheus.Gatherer
			if app.cfg.Metrics.Enabled {
				gatherer = app.registry
			}
			router := restapi.SetupRouter(vaultHandler, strategyHandler, gatherer, app.log)

			srv := &http.Server{
				Addr:         app.cfg.Server.Port,
				Handler:      router,
				ReadTimeout:  time.Duration(app.cfg.Server.ReadTimeout) * time.Second,
				WriteTimeout: time.Duration(app.cfg.Server.WriteTimeout) * time.Second,
				IdleTimeout:  time.Duration(app.cfg.Server.IdleTimeout) * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				app.log.Info("Сервер запускается", "port", app.cfg.Server.Port, "metrics", app.cfg.Metrics.Enabled)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("failed to start server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			app.log.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			app.log.Info("Server exiting")
			return nil
		},
	}
}

func newVaultCmd(configPath *string) *cobra.Command {
	var chain string
	cmd := &cobra.Command{
		Use:   "vault <address>",
		Short: "Aggregate a single vault and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			chainID, reader, err := app.resolveChain(chain)
			if err != nil {
				return err
			}
			res := app.vaults.GetVaultData(cmd.Context(), args[0], reader, chainID)
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return errors.New(res.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&chain, "chain", "1337", "chain ID or identifier")
	return cmd
}

func newUserCmd(configPath *string) *cobra.Command {
	var chain string
	cmd := &cobra.Command{
		Use:   "user <address>",
		Short: "Aggregate every vault and position of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			chainID, reader, err := app.resolveChain(chain)
			if err != nil {
				return err
			}
			res := app.vaults.GetAllUserVaultData(cmd.Context(), args[0], reader, chainID)
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return errors.New(res.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&chain, "chain", "1337", "chain ID or identifier")
	return cmd
}

func newUsersCmd(configPath *string) *cobra.Command {
	var chain, walletsPath string
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Aggregate every user listed in a wallet file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApplication(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			chainID, reader, err := app.resolveChain(chain)
			if err != nil {
				return err
			}
			wallets, err := walletloader.NewWalletFileLoader(walletsPath, app.log.Info).GetWallets()
			if err != nil {
				return err
			}

			type userResult struct {
				User   string                     `json:"user"`
				Result entity.UserVaultDataResult `json:"result"`
			}
			results := make([]userResult, len(wallets))
			failed := 0

			g, gctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(app.cfg.Performance.MaxConcurrentVaults)
			for i, user := range wallets {
				i, user := i, user
				g.Go(func() error {
					res := app.vaults.GetAllUserVaultData(gctx, user, reader, chainID)
					results[i] = userResult{User: user, Result: res}
					return nil
				})
			}
			_ = g.Wait()
			for _, r := range results {
				if !r.Result.Success {
					failed++
				}
			}

			app.log.Info("Batch run finished", "users", len(wallets), "chain_id", chainID, "failed", failed)
			return printJSON(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVar(&chain, "chain", "1337", "chain ID or identifier")
	cmd.Flags().StringVar(&walletsPath, "wallets", "data/wallets.txt", "file with one user address per line")
	return cmd
}

func newStrategiesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "Print the available strategy schemas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApplication(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer app.Close()
			return printJSON(cmd.OutOrStdout(), app.strategies.ListAvailableStrategies())
		},
	}
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
