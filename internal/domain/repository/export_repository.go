package repository

import (
	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
)

type ExportRepository interface {
	ExportComparisonToCSV(result entity.ComparisonResult, rows []entity.SavingsRow, filename, outputDir string) (string, error)
	ExportComparisonToJSON(result entity.ComparisonResult, rows []entity.SavingsRow, filename, outputDir string) (string, error)
	ExportComparisonToPDF(result entity.ComparisonResult, rows []entity.SavingsRow, filename, outputDir string) (string, error)
}
