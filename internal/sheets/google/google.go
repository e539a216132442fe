package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client exports monthly summaries to one sheet per year, named
// "<year> <base>". Each row holds one (user, month).
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	summaryBase   string
}

// Ensure interface conformance
var _ ports.SummaryExporter = (*Client)(nil)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	SummarySheet    string // base name, default "Summaries"
	CredentialsJSON []byte
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	base := strings.TrimSpace(cfg.SummarySheet)
	if base == "" {
		base = "Summaries"
	}

	svc, err := newSheetsService(ctx, cfg.CredentialsJSON)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		summaryBase:   base,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, credentialsJSON []byte) (*gsheet.Service, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteSummary updates the row of (user, month) in the year's sheet or
// appends it after the last row. An empty sheet gets a header first.
func (c *Client) WriteSummary(ctx context.Context, s core.MonthlySummary) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := s.Period().Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	sheet := c.sheetName(s.Year)
	keys, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, fmt.Sprintf("%s!A:B", sheet)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to read keys of %s: %w", sheet, err)
	}

	row := findSummaryRow(keys.Values, s.UserID, s.Month)
	if row == 0 {
		if len(keys.Values) == 0 {
			if err := c.update(ctx, fmt.Sprintf("%s!A1:%s1", sheet, lastColumn), headerRow()); err != nil {
				return "", fmt.Errorf("failed to write header of %s: %w", sheet, err)
			}
			row = 2
		} else {
			row = len(keys.Values) + 1
		}
	}

	ref := fmt.Sprintf("%s!A%d:%s%d", sheet, row, lastColumn, row)
	if err := c.update(ctx, ref, summaryRow(s)); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", ref, err)
	}

	slog.InfoContext(ctx, "Summary exported",
		"user_id", s.UserID,
		"month", s.Month,
		"year", s.Year,
		"ref", ref)
	return ref, nil
}

// ReadYear parses the exported rows of userID in the year's sheet.
func (c *Client) ReadYear(ctx context.Context, userID string, year int) ([]core.MonthlySummary, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:%s", c.sheetName(year), lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	var out []core.MonthlySummary
	for _, row := range resp.Values {
		s, ok := parseSummaryRow(row, year)
		if !ok || s.UserID != userID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *Client) update(ctx context.Context, rng string, values []any) error {
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

func (c *Client) sheetName(year int) string {
	return yearPrefixedName(c.summaryBase, year)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
