// cmd/bi-agent/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"founder-bi-agent/internal/common/camunda"
	"founder-bi-agent/internal/common/config"
	"founder-bi-agent/internal/models"
	"founder-bi-agent/internal/server"
	aq "founder-bi-agent/internal/workers/bi-agent/answer-query"
	rs "founder-bi-agent/internal/workers/bi-agent/route-sources"
	"founder-bi-agent/pkg/registry"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "bi-agent",
		Short:         "Founder business-intelligence query agent",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP query API (and the workflow worker when a broker is configured)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			checks := map[string]server.ReadinessCheck{}
			if a.redis != nil {
				checks["redis"] = a.redis.Ping
			}

			if a.cfg.Camunda.Enabled() {
				zc, w, err := a.startWorker()
				if err != nil {
					return err
				}
				defer zc.Close()
				defer w.Stop()
				checks["zeebe"] = zc.HealthCheck
			}

			srv := server.New(server.Options{
				Address:         a.cfg.Server.Address,
				ReadTimeout:     config.GetDuration(a.cfg.Server.ReadTimeout),
				WriteTimeout:    config.GetDuration(a.cfg.Server.WriteTimeout),
				ShutdownTimeout: config.GetDuration(a.cfg.Server.ShutdownTimeout),
				Checks:          checks,
			}, a.orchestrator, a.log)
			return srv.ListenAndServe(ctx)
		},
	}

	var sessionID string
	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question and print the JSON response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			resp, err := a.orchestrator.Answer(cmd.Context(), models.QueryRequest{
				Query:     args[0],
				SessionID: sessionID,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	askCmd.Flags().StringVarP(&sessionID, "session", "s", "", "session identifier (random when empty)")

	workerCmd := &cobra.Command{
		Use:   "worker",
		Short: "Run only the workflow job worker for " + aq.TaskType,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if !a.cfg.Camunda.Enabled() {
				return fmt.Errorf("camunda.broker_address is not configured")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			zc, w, err := a.startWorker()
			if err != nil {
				return err
			}
			defer zc.Close()
			defer w.Stop()

			<-ctx.Done()
			a.log.Info("shutdown signal received, stopping worker", nil)
			return nil
		},
	}

	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect, validate or export the source shape registry",
	}

	registryCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective registry and the resolved routing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, reg, err := loadRegistry(configPath)
			if err != nil {
				return err
			}
			routes, err := rs.Resolve(cfg.Sources, reg)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{
				"registry": reg,
				"routes":   routes.Descriptors,
				"warnings": cfg.Warnings,
			})
		},
	})

	registryCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the effective registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, err := loadRegistry(configPath)
			if err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d shapes.\n", len(reg.Shapes))
			return nil
		},
	})

	var exportPath string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the effective registry to a JSON file for editing",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, err := loadRegistry(configPath)
			if err != nil {
				return err
			}
			if err := registry.SaveRegistry(reg, exportPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry written to %s\n", exportPath)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&exportPath, "out", "o", "configs/source-registry.json", "output path")
	registryCmd.AddCommand(exportCmd)

	rootCmd.AddCommand(serveCmd, askCmd, workerCmd, registryCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadRegistry returns the built-in registry overlaid with sources.registry_path.
func loadRegistry(configPath string) (*config.Config, *registry.SourceRegistry, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Sources.RegistryPath == "" {
		return cfg, registry.Default(), nil
	}
	reg, err := registry.LoadRegistry(cfg.Sources.RegistryPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, reg, nil
}

func (a *app) startWorker() (*camunda.Client, *camunda.CamundaWorker, error) {
	zc, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
		GatewayAddress:         a.cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("zeebe client: %w", err)
	}

	w := camunda.NewWorker(zc.GetClient(), camunda.WorkerConfig{
		TaskType:      aq.TaskType,
		MaxJobsActive: a.cfg.Camunda.MaxJobsActive,
		Timeout:       config.GetDuration(a.cfg.Camunda.Timeout),
	}, a.answerQueryHandler(), a.log)
	return zc, w, nil
}
