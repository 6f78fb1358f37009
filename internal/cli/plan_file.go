package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/carelink/benefitlimits/internal/domain"
	"github.com/carelink/benefitlimits/internal/ingestion"
)

// planFormat picks the import format from a file extension.
func planFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ingestion.FormatPlanYAML
	default:
		return ingestion.FormatPlanJSON
	}
}

func loadPlanFile(path string) (*domain.PlanDocument, []*domain.LimitNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read plan file: %w", err)
	}
	if planFormat(path) == ingestion.FormatPlanYAML {
		return ingestion.ParsePlanYAML(data)
	}
	return ingestion.ParsePlanJSON(data)
}
