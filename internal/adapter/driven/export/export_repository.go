package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
	"github.com/diillson/cloud-price-comparator/internal/domain/repository"
	"github.com/jung-kurt/gofpdf"
)

// ExportRepositoryImpl implementa o ExportRepository.
type ExportRepositoryImpl struct {
	now func() time.Time
}

// NewExportRepository cria uma nova implementação do ExportRepository.
func NewExportRepository() repository.ExportRepository {
	return &ExportRepositoryImpl{now: time.Now}
}

// --- Funções de Exportação da Comparação ---

func (r *ExportRepositoryImpl) ExportComparisonToCSV(result entity.ComparisonResult, rows []entity.SavingsRow, filename, outputDir string) (string, error) {
	outputFilename, err := r.generateFilename(filename, outputDir, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	headers := []string{"Provider", "Instance Type", "Region", "On-Demand ($/hr)"}
	for _, tier := range entity.OptionalTiers() {
		headers = append(headers, fmt.Sprintf("%s ($/hr)", tier), fmt.Sprintf("%s Savings", tier))
	}
	if err := writer.Write(headers); err != nil {
		return "", fmt.Errorf("error writing CSV header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			string(row.Provider),
			row.InstanceType,
			row.Region,
			fmt.Sprintf("%.4f", row.OnDemandPrice),
		}
		for _, cell := range row.Tiers {
			price := "N/A"
			if cell.Price.Present {
				price = fmt.Sprintf("%.4f", cell.Price.Value)
			}
			record = append(record, price, cell.SavingsLabel())
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("error writing CSV row: %w", err)
		}
	}

	// Falhas parciais vão no fim do arquivo para não quebrar a tabela
	for _, f := range result.Failures {
		record := make([]string, len(headers))
		record[0] = string(f.Provider)
		record[4] = fmt.Sprintf("failed (%s): %s", f.Kind, cleanRichTags(f.Reason))
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("error writing CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("error flushing CSV file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

type comparisonDocument struct {
	Selection   entity.Selection         `json:"selection"`
	GeneratedAt string                   `json:"generated_at"`
	Partial     bool                     `json:"partial"`
	Rows        []entity.SavingsRow      `json:"rows"`
	Failures    []entity.ProviderFailure `json:"failures,omitempty"`
	Rejected    []entity.RejectedRecord  `json:"rejected,omitempty"`
}

func (r *ExportRepositoryImpl) ExportComparisonToJSON(result entity.ComparisonResult, rows []entity.SavingsRow, filename, outputDir string) (string, error) {
	outputFilename, err := r.generateFilename(filename, outputDir, "json")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating JSON file: %w", err)
	}
	defer file.Close()

	if rows == nil {
		rows = []entity.SavingsRow{}
	}
	doc := comparisonDocument{
		Selection:   result.Selection,
		GeneratedAt: r.now().UTC().Format(time.RFC3339),
		Partial:     result.Partial,
		Rows:        rows,
		Failures:    result.Failures,
		Rejected:    result.Rejected,
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}

	return filepath.Abs(outputFilename)
}

func (r *ExportRepositoryImpl) ExportComparisonToPDF(result entity.ComparisonResult, rows []entity.SavingsRow, filename, outputDir string) (string, error) {
	outputFilename, err := r.generateFilename(filename, outputDir, "pdf")
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	headerColor := [3]int{40, 40, 40}
	headerTextColor := [3]int{255, 255, 255}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}

	pdf.AddPage()

	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr(fmt.Sprintf("  Compute Price Comparison: %s", result.Selection)), "", 1, "L", true, 0, "")
	pdf.Ln(6)

	widths := []float64{25, 45, 35, 30}
	headers := []string{"Provider", "Instance Type", "Region", "On-Demand"}
	for _, tier := range entity.OptionalTiers() {
		widths = append(widths, 47)
		headers = append(headers, string(tier))
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
	pdf.SetFillColor(240, 240, 240)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		cells := []string{
			strings.ToUpper(string(row.Provider)),
			row.InstanceType,
			row.Region,
			entity.Price(row.OnDemandPrice).Format(),
		}
		for _, cell := range row.Tiers {
			if cell.Price.Present {
				cells = append(cells, fmt.Sprintf("%s (%s)", cell.Price.Format(), cell.SavingsLabel()))
			} else {
				cells = append(cells, "N/A")
			}
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 7, tr(c), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(rows) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 8, tr("No provider lists this instance type in this region."), "", 1, "L", false, 0, "")
	}

	if len(result.Failures) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 8, "Partial result")
		pdf.Ln(7)
		pdf.SetFont("Arial", "", 9)
		for _, f := range result.Failures {
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("%s (%s): %s", f.Provider, f.Kind, cleanRichTags(f.Reason))), "", "L", false)
		}
	}

	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	footerText := fmt.Sprintf("Generated by Cloud Price Comparator | %s", r.now().Format("2006-01-02"))
	pdf.CellFormat(0, 10, tr(footerText), "", 0, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(outputFilename); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

func (r *ExportRepositoryImpl) generateFilename(base, dir, ext string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	timestamp := r.now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.%s", base, timestamp, ext)
	return filepath.Join(dir, filename), nil
}

// Regex para limpar formatação pterm (rich tags) e sequências ANSI de cor/estilo.
var richTagRegex = regexp.MustCompile(`\[/?([a-zA-Z]+|#[0-9a-fA-F]{6})\]`)
var ansiRegex = regexp.MustCompile(`\x1B\[[0-9;]*[A-Za-z]`)

// cleanRichTags remove tags de formatação do pterm e sequências ANSI.
func cleanRichTags(text string) string {
	text = richTagRegex.ReplaceAllString(text, "")
	text = ansiRegex.ReplaceAllString(text, "")
	return text
}
