// Package gsheets implements store.Store on top of the Google Sheets API.
package gsheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/planeta/qualitycheck/internal/model"
	"github.com/planeta/qualitycheck/internal/retry"
	"github.com/planeta/qualitycheck/internal/store"
)

// ErrNoSpreadsheet is returned when no spreadsheet id is given.
var ErrNoSpreadsheet = errors.New("spreadsheet id is required")

// valueInputOption makes the API parse written values as if typed into
// the UI, so formulas are evaluated.
const valueInputOption = "USER_ENTERED"

// Client is a store.Store backed by one Google spreadsheet.
type Client struct {
	service       *sheets.Service
	spreadsheetID string
	policy        retry.Policy
	logger        *slog.Logger
}

// Option configures a Client.
type Option func(*config)

type config struct {
	clientOptions []option.ClientOption
	policy        retry.Policy
	logger        *slog.Logger
}

// WithCredentialsFile authenticates with a service account JSON key.
func WithCredentialsFile(path string) Option {
	return func(c *config) {
		if path != "" {
			c.clientOptions = append(c.clientOptions, option.WithCredentialsFile(path))
		}
	}
}

// WithClientOptions passes raw options to the API client, for example an
// endpoint for tests.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *config) {
		c.clientOptions = append(c.clientOptions, opts...)
	}
}

// WithRetry sets the backoff applied to every API call.
func WithRetry(p retry.Policy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client for spreadsheetID.
func New(ctx context.Context, spreadsheetID string, opts ...Option) (*Client, error) {
	if spreadsheetID == "" {
		return nil, ErrNoSpreadsheet
	}
	cfg := &config{
		policy: retry.DefaultPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	clientOptions := append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, cfg.clientOptions...)
	service, err := sheets.NewService(ctx, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service:       service,
		spreadsheetID: spreadsheetID,
		policy:        cfg.policy,
		logger:        cfg.logger,
	}, nil
}

// Read implements store.Store.
func (c *Client) Read(ctx context.Context, sheet, rng string, mode store.RenderMode) ([]model.Row, error) {
	a1 := qualify(sheet, rng)

	var resp *sheets.ValueRange
	err := retry.Do(ctx, c.policy, "values.get", c.logger, func(ctx context.Context) error {
		var err error
		resp, err = c.service.Spreadsheets.Values.Get(c.spreadsheetID, a1).
			ValueRenderOption(mode.String()).
			Context(ctx).
			Do()
		return err
	})
	if isMissingRange(err) {
		return nil, fmt.Errorf("%w: %s", store.ErrSheetNotFound, sheet)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", a1, err)
	}

	rows := make([]model.Row, len(resp.Values))
	for i, values := range resp.Values {
		row := make(model.Row, len(values))
		for j, v := range values {
			row[j] = model.FromAny(v)
		}
		rows[i] = row
	}
	c.logger.Debug("sheet read", "range", a1, "rows", len(rows))
	return rows, nil
}

// ClearThenWrite implements store.Store. A missing tab is created.
func (c *Client) ClearThenWrite(ctx context.Context, sheet string, rows [][]any) error {
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return err
	}
	a1 := qualify(sheet, "")

	err := retry.Do(ctx, c.policy, "values.clear", c.logger, func(ctx context.Context) error {
		_, err := c.service.Spreadsheets.Values.Clear(c.spreadsheetID, a1, &sheets.ClearValuesRequest{}).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", a1, err)
	}
	if len(rows) == 0 {
		return nil
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = row
	}
	body := &sheets.ValueRange{Values: values}
	err = retry.Do(ctx, c.policy, "values.update", c.logger, func(ctx context.Context) error {
		_, err := c.service.Spreadsheets.Values.Update(c.spreadsheetID, a1, body).
			ValueInputOption(valueInputOption).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", a1, err)
	}
	c.logger.Debug("sheet written", "sheet", sheet, "rows", len(rows))
	return nil
}

// ensureSheet adds the tab when the spreadsheet has none of that name.
func (c *Client) ensureSheet(ctx context.Context, sheet string) error {
	_, ok, err := c.SheetID(ctx, sheet)
	if err != nil || ok {
		return err
	}

	body := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheet}}},
		},
	}
	err = retry.Do(ctx, c.policy, "spreadsheets.batchUpdate", c.logger, func(ctx context.Context) error {
		_, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, body).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	c.logger.Info("sheet created", "sheet", sheet)
	return nil
}

// SheetID implements store.Store.
func (c *Client) SheetID(ctx context.Context, name string) (int64, bool, error) {
	var resp *sheets.Spreadsheet
	err := retry.Do(ctx, c.policy, "spreadsheets.get", c.logger, func(ctx context.Context) error {
		var err error
		resp, err = c.service.Spreadsheets.Get(c.spreadsheetID).
			Fields("sheets.properties(sheetId,title)").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to list sheets: %w", err)
	}

	for _, s := range resp.Sheets {
		if s.Properties != nil && s.Properties.Title == name {
			return s.Properties.SheetId, true, nil
		}
	}
	return 0, false, nil
}

// FormatTaskSheet implements store.Formatter. It freezes the header row,
// hides the id column and turns the manual column into checkboxes.
func (c *Client) FormatTaskSheet(ctx context.Context, sheet string) error {
	id, ok, err := c.SheetID(ctx, sheet)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrSheetNotFound, sheet)
	}

	body := &sheets.BatchUpdateSpreadsheetRequest{Requests: taskSheetRequests(id)}
	err = retry.Do(ctx, c.policy, "spreadsheets.batchUpdate", c.logger, func(ctx context.Context) error {
		_, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, body).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to format %s: %w", sheet, err)
	}
	return nil
}

// taskSheetRequests builds the formatting requests for the tab with the
// given id. Zero values are force-sent: tab id 0 and index 0 are valid.
func taskSheetRequests(sheetID int64) []*sheets.Request {
	return []*sheets.Request{
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:         sheetID,
					GridProperties:  &sheets.GridProperties{FrozenRowCount: 1},
					ForceSendFields: []string{"SheetId"},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
		{
			UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
				Range: &sheets.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "COLUMNS",
					StartIndex:      0,
					EndIndex:        1,
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
				Properties: &sheets.DimensionProperties{HiddenByUser: true},
				Fields:     "hiddenByUser",
			},
		},
		{
			SetDataValidation: &sheets.SetDataValidationRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1,
					StartColumnIndex: 1,
					EndColumnIndex:   2,
					ForceSendFields:  []string{"SheetId"},
				},
				Rule: &sheets.DataValidationRule{
					Condition:    &sheets.BooleanCondition{Type: "BOOLEAN"},
					ShowCustomUi: true,
				},
			},
		},
	}
}

// isMissingRange reports whether the API rejected a range because its tab
// does not exist.
func isMissingRange(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) &&
		apiErr.Code == http.StatusBadRequest &&
		strings.Contains(apiErr.Message, "Unable to parse range")
}

// qualify prefixes rng with the quoted sheet name.
func qualify(sheet, rng string) string {
	quoted := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	if rng == "" {
		return quoted
	}
	return quoted + "!" + rng
}
