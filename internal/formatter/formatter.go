// package formatter provides functions to export album listings to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/castctl/castctl/internal/models"
	"github.com/castctl/castctl/internal/shared"
)

// AlbumExport pairs an album with its full episode listing for export.
type AlbumExport struct {
	Album    models.Album
	Episodes []models.Episode
}

// ToCSV converts an album export to CSV with columns: ID, Title, Duration, SortOrder, CreatedAt
func ToCSV(export *AlbumExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Duration", "SortOrder", "CreatedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, ep := range export.Episodes {
		record := []string{
			strconv.Itoa(ep.ID),
			ep.Title,
			strconv.Itoa(ep.Duration),
			strconv.Itoa(ep.SortOrder),
			ep.CreatedAt,
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

// ToMarkdown converts an album export to a Markdown episode listing.
func ToMarkdown(export *AlbumExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Album.Title))

	if export.Album.Description != nil && *export.Album.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", *export.Album.Description))
	}

	buf.WriteString(fmt.Sprintf("**Episodes**: %d\n\n", len(export.Episodes)))

	buf.WriteString("## Episodes\n\n")
	for i, ep := range export.Episodes {
		duration := shared.FormatDuration(ep.Duration)
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, ep.Title, duration))
	}

	return buf.Bytes(), nil
}

// ToText converts an album export to plain text.
func ToText(export *AlbumExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Album: %s\n", export.Album.Title))
	if export.Album.Description != nil && *export.Album.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", *export.Album.Description))
	}
	buf.WriteString(fmt.Sprintf("Episodes: %d\n\n", len(export.Episodes)))

	for i, ep := range export.Episodes {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, ep.Title))
	}

	return buf.Bytes(), nil
}

// Export renders an album export in the requested format: csv, markdown, or txt.
func Export(export *AlbumExport, format string) ([]byte, error) {
	switch format {
	case "csv":
		return ToCSV(export)
	case "markdown", "md":
		return ToMarkdown(export)
	case "txt", "text":
		return ToText(export)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}
