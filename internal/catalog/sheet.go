package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/Proton-105/parfum-bot/internal/errors"
)

// DefaultSheetURL is the published perfume name sheet.
const DefaultSheetURL = "https://docs.google.com/spreadsheets/d/1P4BO2jswz3xcngKspWrJeEm70MqalEN7P_BUMBSH7Ns/gviz/tq?tqx=out:json&gid=0"

// DefaultFetchTimeout bounds a single catalog request.
const DefaultFetchTimeout = 10 * time.Second

const maxSheetBody = 8 << 20

// SheetSource reads the catalog from a published Google Sheets gviz endpoint.
type SheetSource struct {
	url    string
	client *http.Client
	log    *slog.Logger
}

// NewSheetSource creates a SheetSource. A nil client gets a default one with
// the given timeout.
func NewSheetSource(url string, client *http.Client, timeout time.Duration, log *slog.Logger) *SheetSource {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if log == nil {
		log = slog.Default()
	}

	return &SheetSource{url: url, client: client, log: log}
}

type gvizCell struct {
	V any `json:"v"`
}

type gvizResponse struct {
	Table struct {
		Rows []struct {
			C []*gvizCell `json:"c"`
		} `json:"rows"`
	} `json:"table"`
}

// Fetch downloads and decodes the sheet. Transport failures and 5xx responses
// are retried.
func (s *SheetSource) Fetch(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := apperrors.WithRetry(ctx, func() error {
		var fetchErr error
		entries, fetchErr = s.fetchOnce(ctx)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *SheetSource) fetchOnce(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, apperrors.NewCatalogFetchError(fmt.Errorf("build request: %w", err), false)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewCatalogFetchError(err, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewCatalogFetchError(
			fmt.Errorf("unexpected status %d", resp.StatusCode),
			resp.StatusCode >= http.StatusInternalServerError,
		)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSheetBody))
	if err != nil {
		return nil, apperrors.NewCatalogFetchError(fmt.Errorf("read body: %w", err), true)
	}

	entries, err := ParseGviz(body)
	if err != nil {
		return nil, apperrors.NewCatalogFetchError(err, false)
	}

	s.log.Debug("catalog fetched", slog.Int("entries", len(entries)))
	return entries, nil
}

// ParseGviz strips the setResponse wrapper and decodes name/category rows.
// Rows without a name are skipped.
func ParseGviz(body []byte) ([]Entry, error) {
	start := bytes.IndexByte(body, '{')
	end := bytes.LastIndexByte(body, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("gviz payload has no JSON object")
	}

	var payload gvizResponse
	if err := json.Unmarshal(body[start:end+1], &payload); err != nil {
		return nil, fmt.Errorf("decode gviz payload: %w", err)
	}

	entries := make([]Entry, 0, len(payload.Table.Rows))
	for _, row := range payload.Table.Rows {
		name := cellString(row.C, 0)
		if name == "" {
			continue
		}
		entries = append(entries, Entry{
			Name:     name,
			Category: normalizeCategory(cellString(row.C, 1)),
		})
	}
	return entries, nil
}

func cellString(cells []*gvizCell, idx int) string {
	if idx >= len(cells) || cells[idx] == nil || cells[idx].V == nil {
		return ""
	}

	switch v := cells[idx].V.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	default:
		return ""
	}
}
