package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MedalTier is the classification of a medal result.
type MedalTier string

const (
	TierGold    MedalTier = "Gold Medal"
	TierSilver  MedalTier = "Silver Medal"
	TierBronze  MedalTier = "Bronze Medal"
	TierUnknown MedalTier = ""
)

// Tiers lists the medal tiers in display order.
var Tiers = []MedalTier{TierGold, TierSilver, TierBronze}

// ParseMedalTier maps a medal_type cell to a tier. Unrecognized values
// return TierUnknown.
func ParseMedalTier(s string) MedalTier {
	switch MedalTier(strings.TrimSpace(s)) {
	case TierGold:
		return TierGold
	case TierSilver:
		return TierSilver
	case TierBronze:
		return TierBronze
	default:
		return TierUnknown
	}
}

// Score weights a tier for the age/performance scatter.
func (t MedalTier) Score() int {
	switch t {
	case TierGold:
		return 3
	case TierSilver:
		return 2
	case TierBronze:
		return 1
	default:
		return 0
	}
}

// MedalRecord is one medallists.csv row: one medal awarded to one athlete.
type MedalRecord struct {
	CountryCode string    `json:"country_code"`
	Discipline  string    `json:"discipline"`
	Event       string    `json:"event"`
	Tier        MedalTier `json:"medal_type"`
	Name        string    `json:"name"`
	BirthDate   string    `json:"birth_date"`
	Gender      string    `json:"gender"`
}

// CountryTotal is one medals_total.csv row.
type CountryTotal struct {
	CountryCode string `json:"country_code"`
	Country     string `json:"country,omitempty"`
	Gold        int    `json:"gold,omitempty"`
	Silver      int    `json:"silver,omitempty"`
	Bronze      int    `json:"bronze,omitempty"`
	Total       int    `json:"total"`
}

// Table names, used as metric labels and default file stems.
const (
	TableMedallists  = "medallists"
	TableMedalsTotal = "medals_total"
)

// Table is a header-plus-rows text table as read from a CSV resource.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Tables bundles the two inputs of a render cycle.
type Tables struct {
	Medallists  []MedalRecord
	Totals      []CountryTotal
	SkippedRows map[string]int // table name -> rows excluded by parsing
}

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing required column")

// columnIndex maps header names to positions, stripping a UTF-8 BOM and
// surrounding whitespace.
type columnIndex map[string]int

func newColumnIndex(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func (c columnIndex) require(table string, cols ...string) error {
	for _, col := range cols {
		if _, ok := c[col]; !ok {
			return fmt.Errorf("%s: %w %q", table, ErrMissingColumn, col)
		}
	}
	return nil
}

func (c columnIndex) get(row []string, col string) string {
	i, ok := c[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseMedalRecords converts a medallists table. Rows without a country code
// or discipline are skipped and counted; the only error is a missing column.
func ParseMedalRecords(t Table) ([]MedalRecord, int, error) {
	idx := newColumnIndex(t.Header)
	if err := idx.require(t.Name, "country_code", "discipline", "event", "medal_type"); err != nil {
		return nil, 0, err
	}

	records := make([]MedalRecord, 0, len(t.Rows))
	skipped := 0
	for _, row := range t.Rows {
		rec := MedalRecord{
			CountryCode: idx.get(row, "country_code"),
			Discipline:  idx.get(row, "discipline"),
			Event:       idx.get(row, "event"),
			Tier:        ParseMedalTier(idx.get(row, "medal_type")),
			Name:        idx.get(row, "name"),
			BirthDate:   idx.get(row, "birth_date"),
			Gender:      idx.get(row, "gender"),
		}
		if rec.CountryCode == "" || rec.Discipline == "" {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

// ParseCountryTotals converts a medals_total table, keeping file order.
// Rows with a missing country code or a non-integer Total are skipped.
func ParseCountryTotals(t Table) ([]CountryTotal, int, error) {
	idx := newColumnIndex(t.Header)
	if err := idx.require(t.Name, "country_code", "Total"); err != nil {
		return nil, 0, err
	}

	totals := make([]CountryTotal, 0, len(t.Rows))
	skipped := 0
	for _, row := range t.Rows {
		code := idx.get(row, "country_code")
		total, err := strconv.Atoi(idx.get(row, "Total"))
		if code == "" || err != nil {
			skipped++
			continue
		}
		totals = append(totals, CountryTotal{
			CountryCode: code,
			Country:     idx.get(row, "country"),
			Gold:        atoiOrZero(idx.get(row, "Gold Medal")),
			Silver:      atoiOrZero(idx.get(row, "Silver Medal")),
			Bronze:      atoiOrZero(idx.get(row, "Bronze Medal")),
			Total:       total,
		})
	}
	return totals, skipped, nil
}

// ParseTables parses both inputs of a render cycle.
func ParseTables(medallists, totals Table) (Tables, error) {
	records, skippedRecords, err := ParseMedalRecords(medallists)
	if err != nil {
		return Tables{}, fmt.Errorf("parse medallists: %w", err)
	}
	countryTotals, skippedTotals, err := ParseCountryTotals(totals)
	if err != nil {
		return Tables{}, fmt.Errorf("parse medal totals: %w", err)
	}
	return Tables{
		Medallists: records,
		Totals:     countryTotals,
		SkippedRows: map[string]int{
			TableMedallists:  skippedRecords,
			TableMedalsTotal: skippedTotals,
		},
	}, nil
}

func atoiOrZero(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
