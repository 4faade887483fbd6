package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/diillson/cloud-price-comparator/pkg/version"

	"github.com/diillson/cloud-price-comparator/internal/application/usecase"
	"github.com/diillson/cloud-price-comparator/internal/domain/repository"
	"github.com/diillson/cloud-price-comparator/internal/shared/types"
	"github.com/spf13/cobra"
)

// DashboardFactory builds the dashboard for a resolved configuration. The
// returned cleanup function runs after the command finishes.
type DashboardFactory func(cfg *types.Config) (*usecase.DashboardUseCase, func() error, error)

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd    *cobra.Command
	factory    DashboardFactory
	configRepo repository.ConfigRepository
	version    string
}

// NewCLIApp cria uma nova aplicação CLI.
func NewCLIApp(versionStr string) *CLIApp {
	app := &CLIApp{
		version: versionStr,
	}

	// Obtem a versão formatada
	formattedVersion := version.FormatVersion()

	rootCmd := &cobra.Command{
		Use:           "cloud-compare",
		Short:         "Compare compute instance prices across AWS, Azure and GCP",
		Version:       formattedVersion,
		RunE:          app.runCompare,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{printf "Cloud Price Comparator version: %s\n" .Version}}`)

	// Flags globais
	rootCmd.PersistentFlags().StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	rootCmd.PersistentFlags().StringP("scope", "s", "", "Account scope: AWS profile or Azure subscription id")
	rootCmd.PersistentFlags().StringSlice("providers", nil, "Providers to query (comma-separated): aws, azure, gcp")
	rootCmd.PersistentFlags().Bool("offline", false, "Use built-in sample catalogs and prices instead of provider APIs")
	rootCmd.PersistentFlags().Int("timeout", 0, "Per-provider timeout in seconds (default 30)")
	rootCmd.PersistentFlags().String("redis-url", "", "Redis URL used to cache prices and catalogs, e.g. redis://localhost:6379")
	rootCmd.PersistentFlags().String("metrics-textfile", "", "Write fetch metrics to this file in Prometheus text format")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare on-demand, spot and reserved prices for an instance type in a region",
		RunE:  app.runCompare,
	}
	addCompareFlags(rootCmd)
	addCompareFlags(compareCmd)

	regionsCmd := &cobra.Command{
		Use:   "regions",
		Short: "List the regions offered by the configured providers",
		RunE:  app.runListRegions,
	}

	instanceTypesCmd := &cobra.Command{
		Use:     "instance-types",
		Aliases: []string{"types"},
		Short:   "List the instance types offered by the configured providers",
		RunE:    app.runListInstanceTypes,
	}

	scopesCmd := &cobra.Command{
		Use:   "scopes",
		Short: "List AWS profiles and Azure subscriptions, flagging disabled ones",
		RunE:  app.runListScopes,
	}

	rootCmd.AddCommand(compareCmd, regionsCmd, instanceTypesCmd, scopesCmd)

	app.rootCmd = rootCmd
	return app
}

func addCompareFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("instance-type", "i", "", "Instance type to compare, e.g. t2.micro, Standard_B1s, n1-standard-1")
	cmd.Flags().StringP("region", "r", "", "Region to compare, e.g. us-east-1, eastus, us-central1")
	cmd.Flags().StringP("report-name", "n", "", "Specify the base name for the report file (without extension)")
	cmd.Flags().StringSliceP("report-type", "y", []string{"csv"}, "Specify report types: csv, json, pdf")
	cmd.Flags().StringP("dir", "d", "", "Directory to save the report files (default: current directory)")
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	return app.rootCmd.Execute()
}

// SetDashboardFactory sets the factory used to build the dashboard use case.
func (app *CLIApp) SetDashboardFactory(factory DashboardFactory) {
	app.factory = factory
}

// SetConfigRepository sets the repository used to load config files and the environment.
func (app *CLIApp) SetConfigRepository(repo repository.ConfigRepository) {
	app.configRepo = repo
}

// parseArgs lê apenas as flags alteradas, para não sobrescrever o arquivo de configuração.
func parseArgs(cmd *cobra.Command) (*types.CLIArgs, error) {
	flags := cmd.Flags()
	args := &types.CLIArgs{}

	args.ConfigFile, _ = flags.GetString("config-file")
	if flags.Changed("providers") {
		args.Providers, _ = flags.GetStringSlice("providers")
	}
	args.Scope, _ = flags.GetString("scope")
	args.Offline, _ = flags.GetBool("offline")
	args.TimeoutSeconds, _ = flags.GetInt("timeout")
	args.RedisURL, _ = flags.GetString("redis-url")
	args.MetricsTextfile, _ = flags.GetString("metrics-textfile")

	if flags.Lookup("instance-type") != nil {
		args.InstanceType, _ = flags.GetString("instance-type")
		args.Region, _ = flags.GetString("region")
		args.ReportName, _ = flags.GetString("report-name")
		if flags.Changed("report-type") {
			args.ReportType, _ = flags.GetStringSlice("report-type")
		}
		args.Dir, _ = flags.GetString("dir")
	}

	if args.TimeoutSeconds < 0 {
		return nil, fmt.Errorf("--timeout must not be negative")
	}

	if args.Dir != "" {
		absDir, err := filepath.Abs(args.Dir)
		if err != nil {
			return nil, err
		}
		args.Dir = absDir
	}

	return args, nil
}

// resolveConfig aplica, em ordem: padrões, arquivo, ambiente e flags.
func (app *CLIApp) resolveConfig(cmd *cobra.Command) (*types.Config, error) {
	cliArgs, err := parseArgs(cmd)
	if err != nil {
		return nil, err
	}

	cfg := types.DefaultConfig()

	if cliArgs.ConfigFile != "" {
		if app.configRepo == nil {
			return nil, fmt.Errorf("no configuration repository available to read %s", cliArgs.ConfigFile)
		}
		fileCfg, err := app.configRepo.LoadConfigFile(cliArgs.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg.Merge(fileCfg)
	}

	if app.configRepo != nil {
		if err := app.configRepo.LoadEnvironment(cfg); err != nil {
			return nil, err
		}
	}

	cfg.Merge(cliArgs.Config())
	return cfg, nil
}

// withDashboard resolve a configuração, monta o caso de uso e executa run.
func (app *CLIApp) withDashboard(cmd *cobra.Command, run func(context.Context, *types.Config, *usecase.DashboardUseCase) error) (err error) {
	if app.factory == nil {
		return fmt.Errorf("dashboard is not configured")
	}

	cfg, err := app.resolveConfig(cmd)
	if err != nil {
		return err
	}

	dashboard, cleanup, err := app.factory(cfg)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer func() {
			if cerr := cleanup(); cerr != nil && err == nil {
				err = cerr
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, dashboard)
}

// runCompare é o ponto de entrada principal para o comando CLI.
func (app *CLIApp) runCompare(cmd *cobra.Command, args []string) error {
	displayWelcomeBanner(app.version)

	// Verifica a versão mais recente disponível
	go version.CheckLatestVersion(app.version)

	return app.withDashboard(cmd, func(ctx context.Context, cfg *types.Config, d *usecase.DashboardUseCase) error {
		if cfg.InstanceType == "" && cfg.Region == "" {
			return cmd.Help()
		}
		return d.RunComparison(ctx, cfg)
	})
}

func (app *CLIApp) runListRegions(cmd *cobra.Command, args []string) error {
	return app.withDashboard(cmd, func(ctx context.Context, cfg *types.Config, d *usecase.DashboardUseCase) error {
		return d.RunListRegions(ctx, cfg.Scope)
	})
}

func (app *CLIApp) runListInstanceTypes(cmd *cobra.Command, args []string) error {
	return app.withDashboard(cmd, func(ctx context.Context, cfg *types.Config, d *usecase.DashboardUseCase) error {
		return d.RunListInstanceTypes(ctx, cfg.Scope)
	})
}

func (app *CLIApp) runListScopes(cmd *cobra.Command, args []string) error {
	return app.withDashboard(cmd, func(ctx context.Context, cfg *types.Config, d *usecase.DashboardUseCase) error {
		return d.RunListScopes(ctx)
	})
}
