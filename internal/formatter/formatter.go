// package formatter provides functions to export price history to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/farewatch/internal/models"
	"github.com/desertthunder/farewatch/internal/shared"
)

// PriceHistoryExport bundles a tracking request with its recorded prices for export.
type PriceHistoryExport struct {
	Request *models.TrackingRequest
	Points  []*models.PricePoint
}

// ExportToCSV converts a PriceHistoryExport to CSV format with columns: ID, Price, Currency, BookingURL, CheckedAt
func ExportToCSV(export *PriceHistoryExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Price", "Currency", "BookingURL", "CheckedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, point := range export.Points {
		record := []string{
			point.ID(),
			fmt.Sprintf("%.2f", point.Price()),
			point.Currency(),
			point.BookingURL(),
			point.CheckedAt().Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PriceHistoryExport to Markdown format with a summary and price table
func ExportToMarkdown(export *PriceHistoryExport) ([]byte, error) {
	var buf bytes.Buffer
	req := export.Request

	buf.WriteString(fmt.Sprintf("# %s\n\n", req.Route()))

	buf.WriteString(fmt.Sprintf("**Departure**: %s\n", req.DepartureDate().Format("2006-01-02")))
	if ret := req.ReturnDate(); ret != nil {
		buf.WriteString(fmt.Sprintf("**Return**: %s\n", ret.Format("2006-01-02")))
	}
	if baseline := req.BaselinePrice(); baseline != nil {
		buf.WriteString(fmt.Sprintf("**Baseline**: %s\n", shared.FormatPrice(*baseline, req.Currency())))
	}
	if current := req.CurrentPrice(); current != nil {
		buf.WriteString(fmt.Sprintf("**Current**: %s\n", shared.FormatPrice(*current, req.Currency())))
	}
	buf.WriteString(fmt.Sprintf("**Threshold**: %.1f%%\n", req.Threshold()))
	buf.WriteString(fmt.Sprintf("**Checks**: %d\n\n", len(export.Points)))

	buf.WriteString("## Price History\n\n")
	buf.WriteString("| Checked At | Price | Change |\n")
	buf.WriteString("|---|---|---|\n")

	var previous *float64
	for i := len(export.Points) - 1; i >= 0; i-- {
		point := export.Points[i]
		change := ""
		if previous != nil && *previous > 0 {
			change = fmt.Sprintf("%+.1f%%", (point.Price()-*previous) / *previous*100)
		}
		buf.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
			point.CheckedAt().Format("2006-01-02 15:04"),
			shared.FormatPrice(point.Price(), point.Currency()),
			change,
		))
		price := point.Price()
		previous = &price
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PriceHistoryExport to plain text format
func ExportToText(export *PriceHistoryExport) ([]byte, error) {
	var buf bytes.Buffer
	req := export.Request

	buf.WriteString(fmt.Sprintf("Route: %s\n", req.Route()))
	buf.WriteString(fmt.Sprintf("Departure: %s\n", req.DepartureDate().Format("2006-01-02")))
	if current := req.CurrentPrice(); current != nil {
		buf.WriteString(fmt.Sprintf("Current: %s\n", shared.FormatPrice(*current, req.Currency())))
	}
	buf.WriteString(fmt.Sprintf("Checks: %d\n\n", len(export.Points)))

	for i, point := range export.Points {
		buf.WriteString(fmt.Sprintf("%d. %s  %s\n", i+1,
			point.CheckedAt().Format("2006-01-02 15:04"),
			shared.FormatPrice(point.Price(), point.Currency()),
		))
	}

	return buf.Bytes(), nil
}

// requestMetadata is the JSON shape written alongside CSV exports.
type requestMetadata struct {
	ID            string   `json:"id"`
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	DepartureDate string   `json:"departure_date"`
	ReturnDate    *string  `json:"return_date,omitempty"`
	BaselinePrice *float64 `json:"baseline_price,omitempty"`
	CurrentPrice  *float64 `json:"current_price,omitempty"`
	Threshold     float64  `json:"threshold"`
	Currency      string   `json:"currency"`
	Active        bool     `json:"active"`
	ExpiresAt     string   `json:"expires_at"`
}

// ToMetadataJSON generates a JSON representation of the tracking request (without history)
func ToMetadataJSON(req *models.TrackingRequest) ([]byte, error) {
	meta := requestMetadata{
		ID:            req.ID(),
		Origin:        req.Origin(),
		Destination:   req.Destination(),
		DepartureDate: req.DepartureDate().Format("2006-01-02"),
		BaselinePrice: req.BaselinePrice(),
		CurrentPrice:  req.CurrentPrice(),
		Threshold:     req.Threshold(),
		Currency:      req.Currency(),
		Active:        req.Active(),
		ExpiresAt:     req.ExpiresAt().Format("2006-01-02 15:04:05"),
	}
	if ret := req.ReturnDate(); ret != nil {
		s := ret.Format("2006-01-02")
		meta.ReturnDate = &s
	}
	return shared.MarshalJSON(meta, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	PricesFile   string
	MetadataFile string
}

// WriteCSVExport exports price history to CSV format with accompanying metadata JSON file.
//
// Defaults to the request ID as the base filename & creates {base}_prices.csv and {base}_metadata.json
func WriteCSVExport(export *PriceHistoryExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Request.ID()
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	pricesFile := baseFilepath + "_prices.csv"
	if err := os.WriteFile(pricesFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Request)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		PricesFile:   pricesFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport exports price history to Markdown format in a dedicated directory.
//
// Directory name defaults to the request ID. Creates {dir}/README.md.
func WriteMarkdownExport(export *PriceHistoryExport, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = export.Request.ID()
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return mdFile, nil
}

// bulkManifest is the JSON envelope written alongside bulk exports.
type bulkManifest struct {
	Format      string `json:"format"`
	GeneratedAt string `json:"generated_at"`
	Export      any    `json:"export"`
}

// WriteBulkExportManifest writes a JSON summary of a bulk export run.
//
// The result is embedded as-is under "export" so callers control its shape.
func WriteBulkExportManifest(result any, format, manifestPath string) error {
	manifest := bulkManifest{
		Format:      format,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Export:      result,
	}

	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to generate manifest JSON: %w", err)
	}

	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}

	return nil
}

// WriteTextExport exports price history to plain text format.
//
// Defaults to {request.ID}_prices.txt as the filename.
func WriteTextExport(export *PriceHistoryExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_prices.txt", export.Request.ID())
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
