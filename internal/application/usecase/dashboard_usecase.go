package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
	"github.com/diillson/cloud-price-comparator/internal/domain/repository"
	"github.com/diillson/cloud-price-comparator/internal/shared/types"
	"github.com/pterm/pterm"
)

// DashboardUseCase drives the interactive commands: comparison table, chart,
// catalog listings and report export.
type DashboardUseCase struct {
	resolver   *CatalogResolver
	session    *ComparisonSession
	exportRepo repository.ExportRepository
	console    types.ConsoleInterface
}

// NewDashboardUseCase creates a new dashboard use case.
func NewDashboardUseCase(
	resolver *CatalogResolver,
	session *ComparisonSession,
	exportRepo repository.ExportRepository,
	console types.ConsoleInterface,
) *DashboardUseCase {
	return &DashboardUseCase{
		resolver:   resolver,
		session:    session,
		exportRepo: exportRepo,
		console:    console,
	}
}

// InitializeSelection builds the selection from the configuration. When no
// scope was given and exactly one account scope exists, it is selected.
func (uc *DashboardUseCase) InitializeSelection(ctx context.Context, cfg *types.Config) (entity.Selection, error) {
	sel := entity.Selection{
		InstanceType: cfg.InstanceType,
		Region:       cfg.Region,
		Scope:        cfg.Scope,
	}.Normalize()

	if sel.InstanceType == "" {
		return sel, &types.SelectionError{Field: "instance_type"}
	}
	if sel.Region == "" {
		return sel, &types.SelectionError{Field: "region"}
	}

	scopes, err := uc.resolver.ListScopes(ctx)
	if err != nil {
		return sel, err
	}

	if sel.Scope == "" {
		if len(scopes) == 1 {
			sel.Scope = scopes[0].ID
			uc.console.LogInfo("Using the only available scope: %s (%s)", scopes[0].DisplayName, scopes[0].ID)
		}
		return sel, nil
	}

	// Escopos desabilitados continuam selecionáveis, apenas sinalizados
	for _, s := range scopes {
		if s.ID == sel.Scope && s.Disabled() {
			uc.console.LogWarning("Scope %s (%s) is %s; prices may not reflect an active account", s.DisplayName, s.ID, s.State)
		}
	}
	return sel, nil
}

// RunComparison compares the selected instance across providers and renders
// the savings table, the on-demand chart and the requested reports.
func (uc *DashboardUseCase) RunComparison(ctx context.Context, cfg *types.Config) error {
	sel, err := uc.InitializeSelection(ctx, cfg)
	if err != nil {
		return err
	}

	status := uc.console.Status(fmt.Sprintf("Comparing %s...", sel))
	result, err := uc.session.Select(ctx, sel)
	status.Stop()
	if err != nil {
		var aggErr *types.AggregationError
		if errors.As(err, &aggErr) && aggErr.Retryable() {
			uc.console.LogError("No provider could be reached for %s; try again later", sel)
		}
		return err
	}

	for _, f := range result.Failures {
		uc.console.LogWarning("Provider %s %s: %s", f.Provider, failureVerb(f.Kind), f.Reason)
	}
	for _, r := range result.Rejected {
		uc.console.LogWarning("Discarded invalid price from %s: %s", r.Provider, r.Reason)
	}

	if result.Empty() {
		uc.console.LogWarning("No provider lists %s", sel)
		return nil
	}

	rows := SavingsTable(result)
	table := uc.createComparisonTable()
	for _, row := range rows {
		uc.addRowToTable(table, row)
	}
	uc.console.Print(table.Render())

	if result.Partial {
		uc.console.LogInfo("Partial result: %s", strings.Join(failedProviders(result), ", "))
	}

	bars := make([]types.PriceBar, 0, len(rows))
	for _, row := range rows {
		bars = append(bars, types.PriceBar{
			Label: fmt.Sprintf("%s %s", strings.ToUpper(string(row.Provider)), row.InstanceType),
			Price: row.OnDemandPrice,
		})
	}
	uc.console.DisplayPriceBars(fmt.Sprintf("On-Demand Price: %s", sel.Region), bars)

	uc.exportReports(cfg, result, rows)
	return nil
}

func failureVerb(kind entity.FailureKind) string {
	if kind == entity.FailureTimeout {
		return "timed out"
	}
	return "is unavailable"
}

func failedProviders(result entity.ComparisonResult) []string {
	names := make([]string, 0, len(result.Failures))
	for _, f := range result.Failures {
		names = append(names, fmt.Sprintf("%s %s", f.Provider, f.Kind))
	}
	return names
}

// createComparisonTable cria a tabela com uma coluna por tier.
func (uc *DashboardUseCase) createComparisonTable() types.TableInterface {
	table := uc.console.CreateTable()
	table.AddColumn("Provider")
	table.AddColumn("Instance Type")
	table.AddColumn("Region")
	table.AddColumn(string(entity.TierOnDemand))
	for _, tier := range entity.OptionalTiers() {
		table.AddColumn(string(tier))
	}
	return table
}

func (uc *DashboardUseCase) addRowToTable(table types.TableInterface, row entity.SavingsRow) {
	cells := []interface{}{
		pterm.FgMagenta.Sprint(strings.ToUpper(string(row.Provider))),
		row.InstanceType,
		row.Region,
		entity.Price(row.OnDemandPrice).Format(),
	}
	for _, cell := range row.Tiers {
		cells = append(cells, formatTierCell(cell))
	}
	table.AddRow(cells...)
}

func formatTierCell(cell entity.TierCell) string {
	if !cell.Price.Present {
		return pterm.FgGray.Sprint("N/A")
	}
	label := cell.SavingsLabel()
	switch {
	case cell.Status != entity.SavingsAvailable:
		label = pterm.FgYellow.Sprint(label)
	case cell.Savings < 0:
		label = pterm.FgRed.Sprint(label)
	default:
		label = pterm.FgGreen.Sprint(label)
	}
	return fmt.Sprintf("%s\n%s", cell.Price.Format(), label)
}

// exportReports exporta o resultado em cada formato solicitado.
func (uc *DashboardUseCase) exportReports(cfg *types.Config, result entity.ComparisonResult, rows []entity.SavingsRow) {
	if cfg.ReportName == "" || len(cfg.ReportType) == 0 {
		return
	}

	for _, reportType := range cfg.ReportType {
		switch strings.ToLower(reportType) {
		case "csv":
			csvPath, err := uc.exportRepo.ExportComparisonToCSV(result, rows, cfg.ReportName, cfg.Dir)
			if err != nil {
				uc.console.LogError("Failed to export to CSV: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported to CSV: %s", csvPath)
			}
		case "json":
			jsonPath, err := uc.exportRepo.ExportComparisonToJSON(result, rows, cfg.ReportName, cfg.Dir)
			if err != nil {
				uc.console.LogError("Failed to export to JSON: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported to JSON: %s", jsonPath)
			}
		case "pdf":
			pdfPath, err := uc.exportRepo.ExportComparisonToPDF(result, rows, cfg.ReportName, cfg.Dir)
			if err != nil {
				uc.console.LogError("Failed to export to PDF: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported to PDF: %s", pdfPath)
			}
		default:
			uc.console.LogWarning("%s: %s", types.ErrUnsupportedType, reportType)
		}
	}
}

// RunListRegions prints the region catalog for the scope.
func (uc *DashboardUseCase) RunListRegions(ctx context.Context, scope string) error {
	entries, err := uc.resolver.Regions(ctx, strings.TrimSpace(scope))
	if err != nil {
		return err
	}
	uc.printCatalog("Region", entries)
	return nil
}

// RunListInstanceTypes prints the instance-type catalog for the scope.
func (uc *DashboardUseCase) RunListInstanceTypes(ctx context.Context, scope string) error {
	entries, err := uc.resolver.InstanceTypes(ctx, strings.TrimSpace(scope))
	if err != nil {
		return err
	}
	uc.printCatalog("Instance Type", entries)
	return nil
}

func (uc *DashboardUseCase) printCatalog(title string, entries []entity.CatalogEntry) {
	if len(entries) == 0 {
		uc.console.LogWarning("No %s entries available", strings.ToLower(title))
		return
	}

	table := uc.console.CreateTable()
	table.AddColumn("Provider")
	table.AddColumn(title)
	table.AddColumn("Name")

	for _, e := range entries {
		provider := string(e.Provider)
		if provider == "" {
			provider = "any"
		}
		table.AddRow(pterm.FgMagenta.Sprint(provider), e.ID, e.DisplayName)
	}
	uc.console.Print(table.Render())
}

// RunListScopes prints every account scope, flagging disabled ones.
func (uc *DashboardUseCase) RunListScopes(ctx context.Context) error {
	scopes, err := uc.resolver.ListScopes(ctx)
	if err != nil {
		return err
	}
	if len(scopes) == 0 {
		uc.console.LogWarning("No account scopes found")
		return nil
	}

	table := uc.console.CreateTable()
	table.AddColumn("Provider")
	table.AddColumn("Scope ID")
	table.AddColumn("Name")
	table.AddColumn("State")

	disabled := 0
	for _, s := range scopes {
		state := pterm.FgGreen.Sprint(s.State)
		if s.Disabled() {
			state = pterm.FgRed.Sprint(s.State)
			disabled++
		}
		table.AddRow(pterm.FgMagenta.Sprint(string(s.Provider)), s.ID, s.DisplayName, state)
	}
	uc.console.Print(table.Render())

	if disabled > 0 {
		uc.console.LogWarning("%d scope(s) are not enabled", disabled)
	}
	return nil
}
