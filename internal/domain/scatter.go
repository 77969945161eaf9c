package domain

import (
	"strconv"
	"strings"
	"time"
)

// DefaultReferenceYear is the year ages are computed against.
const DefaultReferenceYear = 2024

// ScatterCountries is the default country filter of the age/performance scatter.
var ScatterCountries = []string{"GBR", "USA", "CHN", "AUS", "JPN", "FRA", "NED", "KOR"}

// ScatterDisciplines is the default discipline filter of the scatter.
var ScatterDisciplines = []string{"Swimming"}

// AthletePoint is one athlete in the scatter.
type AthletePoint struct {
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
	Discipline  string `json:"discipline"`
	Gender      string `json:"gender"`
	Age         int    `json:"age"`
	Score       int    `json:"score"`
	Medals      int    `json:"medals"`
}

// Domain is a closed numeric axis range.
type Domain struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Scatter is the age/performance document.
type Scatter struct {
	Points      []AthletePoint `json:"points"`
	AgeDomain   Domain         `json:"age_domain"`
	ScoreDomain Domain         `json:"score_domain"`
	Dropped     int            `json:"dropped"` // athletes without a usable birth year
}

// ScatterOptions selects the athletes that appear in the scatter.
type ScatterOptions struct {
	Countries     []string
	Disciplines   []string
	ReferenceYear int
}

// DefaultScatterOptions returns the swimming configuration for eight countries.
func DefaultScatterOptions() ScatterOptions {
	return ScatterOptions{
		Countries:     ScatterCountries,
		Disciplines:   ScatterDisciplines,
		ReferenceYear: DefaultReferenceYear,
	}
}

// ClusterAthletes reduces medallist rows to one point per athlete name.
// Attributes come from the athlete's first row; the score sums every row.
// Athletes whose birth year cannot be read are counted in Dropped.
func ClusterAthletes(records []MedalRecord, opts ScatterOptions) Scatter {
	countries := toSet(opts.Countries)
	disciplines := toSet(opts.Disciplines)

	var order []string
	byName := make(map[string]*AthletePoint)
	firstBirthDate := make(map[string]string)
	for _, r := range records {
		if _, ok := countries[r.CountryCode]; !ok {
			continue
		}
		if _, ok := disciplines[r.Discipline]; !ok {
			continue
		}
		p, ok := byName[r.Name]
		if !ok {
			p = &AthletePoint{
				Name:        r.Name,
				CountryCode: r.CountryCode,
				Discipline:  r.Discipline,
				Gender:      r.Gender,
			}
			byName[r.Name] = p
			firstBirthDate[r.Name] = r.BirthDate
			order = append(order, r.Name)
		}
		p.Score += r.Tier.Score()
		p.Medals++
	}

	out := Scatter{Points: make([]AthletePoint, 0, len(order))}
	for _, name := range order {
		year, ok := parseBirthYear(firstBirthDate[name])
		if !ok {
			out.Dropped++
			continue
		}
		p := byName[name]
		p.Age = opts.ReferenceYear - year
		out.Points = append(out.Points, *p)
	}
	out.AgeDomain, out.ScoreDomain = scatterDomains(out.Points)
	return out
}

// scatterDomains pads the age axis by two years each side and the score axis
// by one point at the top.
func scatterDomains(points []AthletePoint) (Domain, Domain) {
	if len(points) == 0 {
		return Domain{}, Domain{}
	}
	minAge, maxAge, maxScore := points[0].Age, points[0].Age, points[0].Score
	for _, p := range points[1:] {
		minAge = min(minAge, p.Age)
		maxAge = max(maxAge, p.Age)
		maxScore = max(maxScore, p.Score)
	}
	return Domain{Min: minAge - 2, Max: maxAge + 2}, Domain{Min: 0, Max: maxScore + 1}
}

var birthDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseBirthYear extracts the year from a birth_date cell.
func parseBirthYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), true
		}
	}
	if len(s) == 4 {
		if y, err := strconv.Atoi(s); err == nil && y > 0 {
			return y, true
		}
	}
	return 0, false
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
