package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"

	"github.com/rs/zerolog"
)

// ExportService renders admin reports.
type ExportService interface {
	UsersCSV(ctx context.Context) ([]byte, error)
}

type exportService struct {
	progress ProgressService
	logger   zerolog.Logger
}

// NewExportService constructs the export service.
func NewExportService(progress ProgressService, logger zerolog.Logger) ExportService {
	return &exportService{
		progress: progress,
		logger:   logger.With().Str("component", "export_service").Logger(),
	}
}

func (s *exportService) UsersCSV(ctx context.Context) ([]byte, error) {
	users, err := s.progress.CalculateAll(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(users)+1)
	rows = append(rows, []string{"username", "email", "role", "progress"})
	for _, user := range users {
		rows = append(rows, []string{csvCell(user.Name), csvCell(user.Email), csvCell(user.Role), strconv.Itoa(user.Progress)})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}

	s.logger.Debug().Int("rows", len(users)).Msg("exported user progress")
	return buf.Bytes(), nil
}

// csvCell prefixes values a spreadsheet would evaluate as a formula with a quote.
func csvCell(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + value
	}
	return value
}
