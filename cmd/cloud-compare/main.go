package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/diillson/cloud-price-comparator/internal/adapter/driven/aws"
	"github.com/diillson/cloud-price-comparator/internal/adapter/driven/azure"
	"github.com/diillson/cloud-price-comparator/internal/adapter/driven/cache"
	"github.com/diillson/cloud-price-comparator/internal/adapter/driven/config"
	"github.com/diillson/cloud-price-comparator/internal/adapter/driven/export"
	"github.com/diillson/cloud-price-comparator/internal/adapter/driven/gcp"
	"github.com/diillson/cloud-price-comparator/internal/adapter/driven/metrics"
	"github.com/diillson/cloud-price-comparator/internal/adapter/driven/static"
	"github.com/diillson/cloud-price-comparator/internal/adapter/driving/cli"
	"github.com/diillson/cloud-price-comparator/internal/application/usecase"
	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
	"github.com/diillson/cloud-price-comparator/internal/domain/repository"
	"github.com/diillson/cloud-price-comparator/internal/shared/types"
	"github.com/diillson/cloud-price-comparator/pkg/console"
	"github.com/diillson/cloud-price-comparator/pkg/version"
)

func main() {
	// Inicializa o aplicativo CLI
	app := cli.NewCLIApp(version.Version)

	// Inicializa os repositórios
	exportRepo := export.NewExportRepository()
	configRepo := config.NewConfigRepository()
	consoleImpl := console.NewConsole()

	app.SetConfigRepository(configRepo)
	app.SetDashboardFactory(func(cfg *types.Config) (*usecase.DashboardUseCase, func() error, error) {
		return buildDashboard(cfg, exportRepo, consoleImpl)
	})

	// Executa o aplicativo
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildDashboard monta as fontes de preço conforme a configuração resolvida.
func buildDashboard(
	cfg *types.Config,
	exportRepo repository.ExportRepository,
	consoleImpl types.ConsoleInterface,
) (*usecase.DashboardUseCase, func() error, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	sources, scopes, err := buildSources(cfg, timeout, consoleImpl)
	if err != nil {
		return nil, nil, err
	}

	var closers []func() error

	if cfg.RedisURL != "" {
		client, err := cache.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, client.Close)

		priceTTL := time.Duration(cfg.PriceCacheTTL) * time.Second
		catalogTTL := time.Duration(cfg.CatalogCacheTTL) * time.Second
		for i, src := range sources {
			sources[i] = cache.NewCachedSource(src, client, priceTTL, catalogTTL, consoleImpl)
		}
	}

	recorder := metrics.NewRecorder()
	if cfg.MetricsTextfile != "" {
		path := cfg.MetricsTextfile
		closers = append(closers, func() error { return recorder.WriteTextfile(path) })
	}

	resolver := usecase.NewCatalogResolver(sources, scopes, consoleImpl, timeout)
	comparison := usecase.NewComparisonUseCase(resolver, sources, recorder, timeout)
	session := usecase.NewComparisonSession(comparison)

	dashboard := usecase.NewDashboardUseCase(resolver, session, exportRepo, consoleImpl)

	cleanup := func() error {
		var errs []error
		for _, c := range closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	return dashboard, cleanup, nil
}

// buildSources cria uma fonte por provedor (sem repetição). No modo offline as
// fontes estáticas também listam escopos de exemplo.
func buildSources(
	cfg *types.Config,
	timeout time.Duration,
	consoleImpl types.ConsoleInterface,
) ([]repository.PriceSource, []repository.ScopeRepository, error) {
	var sources []repository.PriceSource
	var scopes []repository.ScopeRepository
	seen := make(map[entity.Provider]bool)

	for _, name := range cfg.Providers {
		provider, err := entity.ParseProvider(name)
		if err != nil {
			return nil, nil, err
		}
		if seen[provider] {
			continue
		}
		seen[provider] = true

		if cfg.Offline {
			src := static.NewSource(provider)
			sources = append(sources, src)
			scopes = append(scopes, src)
			continue
		}

		switch provider {
		case entity.ProviderAWS:
			repo := aws.NewAWSRepository(cfg.AWSProfile)
			sources = append(sources, repo)
			scopes = append(scopes, repo)
		case entity.ProviderAzure:
			client := azure.NewClient(timeout, azure.WithAccessToken(cfg.AzureToken))
			sources = append(sources, client)
			scopes = append(scopes, client)
		case entity.ProviderGCP:
			if cfg.GCPAPIKey == "" {
				consoleImpl.LogWarning("GCP_API_KEY is not set; using sample GCP prices")
				sources = append(sources, static.NewSource(provider))
				continue
			}
			sources = append(sources, gcp.NewClient("", cfg.GCPAPIKey, timeout))
		}
	}

	if len(sources) == 0 {
		return nil, nil, types.ErrNoSources
	}

	return sources, scopes, nil
}
