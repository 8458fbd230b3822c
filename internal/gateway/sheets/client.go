package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client wraps the spreadsheet REST API. Every method is one remote call:
// no buffering, no caching and no internal retries live here.
type Client struct {
	baseURL       *url.URL
	spreadsheetID string
	token         string
	httpClient    *http.Client
}

// Config carries the store coordinates. Missing credentials are not a
// construction error: the client is built anyway and every call degrades to
// ErrUnavailable, so one unconfigured deployment cannot crash the process.
type Config struct {
	APIURL         string
	SpreadsheetID  string
	APIToken       string
	TimeoutSeconds int
}

const defaultAPIURL = "https://sheets.googleapis.com/v4/spreadsheets"

// readRange spans every column the layout can address.
const readRange = "A:Z"

func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.APIURL)
	if raw == "" {
		raw = defaultAPIURL
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing sheets api_url failed: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:       parsed,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		token:         strings.TrimSpace(cfg.APIToken),
		httpClient:    &http.Client{Timeout: timeout},
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

type valueRange struct {
	Range  string     `json:"range,omitempty"`
	Values [][]string `json:"values"`
}

// ReadAll fetches every row currently in the table.
func (c *Client) ReadAll(ctx context.Context) ([][]string, error) {
	var out valueRange
	path := fmt.Sprintf("/values/%s", readRange)
	if err := c.doRequest(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Values, nil
}

// ReadColumn fetches a single 0-based column top to bottom.
func (c *Client) ReadColumn(ctx context.Context, col int) ([]string, error) {
	letter := ColumnLetter(col)
	if letter == "" {
		return nil, fmt.Errorf("invalid column index %d", col)
	}
	var out valueRange
	path := fmt.Sprintf("/values/%s:%s", letter, letter)
	if err := c.doRequest(ctx, http.MethodGet, path, "majorDimension=COLUMNS", nil, &out); err != nil {
		return nil, err
	}
	if len(out.Values) == 0 {
		return nil, nil
	}
	return out.Values[0], nil
}

// WriteCell sets one cell addressed by 1-based row and 0-based column.
func (c *Client) WriteCell(ctx context.Context, row, col int, value string) error {
	cell := CellRef(col, row)
	return c.writeValues(ctx, cell, [][]string{{value}})
}

// WriteRange writes a block of rows starting at an A1 cell ("A5").
func (c *Client) WriteRange(ctx context.Context, startCell string, rows [][]string) error {
	startCell = strings.TrimSpace(startCell)
	if startCell == "" {
		return fmt.Errorf("write range requires a start cell")
	}
	return c.writeValues(ctx, startCell, rows)
}

func (c *Client) writeValues(ctx context.Context, ref string, values [][]string) error {
	path := fmt.Sprintf("/values/%s", ref)
	payload := valueRange{Values: values}
	return c.doRequest(ctx, http.MethodPut, path, "valueInputOption=RAW", payload, nil)
}

func (c *Client) doRequest(ctx context.Context, method, path, query string, payload any, out any) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("%w: client not initialized", ErrUnavailable)
	}
	if c.spreadsheetID == "" || c.token == "" {
		return fmt.Errorf("%w: store credentials not configured", ErrUnavailable)
	}

	endpoint := *c.baseURL
	endpoint.Path = strings.TrimSuffix(endpoint.Path, "/") + "/" + c.spreadsheetID + path
	endpoint.RawQuery = query

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding sheet request failed: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("building sheet request failed: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", ErrRateLimited, resp.Status)
	}
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if len(data) == 0 {
			return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
		}
		return fmt.Errorf("%w: %s: %s", ErrUnavailable, resp.Status, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding sheet response failed: %w", err)
	}
	return nil
}
