// Package csvsource reads the medallists and medal-totals CSV tables from a
// local directory or an HTTP base URL.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/medal-flow-etl/internal/domain"
)

// Source reads the medallists and medal-totals tables from a directory or an
// HTTP base URL. It implements pipeline.Extractor.
type Source struct {
	location       string
	medallistsFile string
	totalsFile     string
	httpClient     *http.Client
	logger         *slog.Logger
}

// NewSource creates a Source. location is either a filesystem directory or an
// http(s) URL under which both files are served.
func NewSource(location, medallistsFile, totalsFile string, timeout time.Duration, logger *slog.Logger) *Source {
	return &Source{
		location:       location,
		medallistsFile: medallistsFile,
		totalsFile:     totalsFile,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logger,
	}
}

// IsRemote reports whether the location is an HTTP base URL.
func (s *Source) IsRemote() bool {
	return isHTTP(s.location)
}

// Paths returns the local file paths of both tables, or nil for a remote
// location.
func (s *Source) Paths() []string {
	if s.IsRemote() {
		return nil
	}
	return []string{
		filepath.Join(s.location, s.medallistsFile),
		filepath.Join(s.location, s.totalsFile),
	}
}

// Extract reads and parses both tables. Any read failure fails the whole
// cycle; malformed rows are skipped by the domain parsers.
func (s *Source) Extract(ctx context.Context) (domain.Tables, error) {
	medallists, err := s.readTable(ctx, domain.TableMedallists, s.medallistsFile)
	if err != nil {
		return domain.Tables{}, err
	}
	totals, err := s.readTable(ctx, domain.TableMedalsTotal, s.totalsFile)
	if err != nil {
		return domain.Tables{}, err
	}

	tables, err := domain.ParseTables(medallists, totals)
	if err != nil {
		return domain.Tables{}, err
	}
	s.logger.Debug("tables extracted",
		"medallists", len(tables.Medallists),
		"totals", len(tables.Totals),
		"skipped_medallists", tables.SkippedRows[domain.TableMedallists],
		"skipped_totals", tables.SkippedRows[domain.TableMedalsTotal],
	)
	return tables, nil
}

func (s *Source) readTable(ctx context.Context, name, file string) (domain.Table, error) {
	rc, err := s.open(ctx, file)
	if err != nil {
		return domain.Table{}, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	table, err := ReadTable(rc, name)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read %s: %w", name, err)
	}
	return table, nil
}

func (s *Source) open(ctx context.Context, file string) (io.ReadCloser, error) {
	if !s.IsRemote() {
		return os.Open(filepath.Join(s.location, file))
	}

	u, err := url.JoinPath(s.location, file)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d: %s", u, resp.StatusCode, body)
	}
	return resp.Body, nil
}

// ReadTable reads a header-plus-rows CSV. Rows may be shorter or longer than
// the header; column lookup happens later by name.
func ReadTable(r io.Reader, name string) (domain.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return domain.Table{}, errors.New("empty file")
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("read header: %w", err)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return domain.Table{}, fmt.Errorf("read rows: %w", err)
	}
	return domain.Table{Name: name, Header: header, Rows: rows}, nil
}

func isHTTP(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
