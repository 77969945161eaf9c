package domain

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSwimming  = "Swimming"
	testWaterPolo = "Water Polo"
	testDiving    = "Diving"
)

func medal(country, discipline, event string, tier MedalTier, athlete string) MedalRecord {
	return MedalRecord{
		CountryCode: country,
		Discipline:  discipline,
		Event:       event,
		Tier:        tier,
		Name:        athlete,
		BirthDate:   "2000-01-01",
		Gender:      "Female",
	}
}

func totalsFor(codes ...string) []CountryTotal {
	out := make([]CountryTotal, len(codes))
	for i, c := range codes {
		out[i] = CountryTotal{CountryCode: c, Total: 100 - i}
	}
	return out
}

// namedEdge is an edge with indices resolved to names, for comparisons that
// must not depend on node creation order.
type namedEdge struct {
	Source string
	Target string
	Value  int
}

func namedEdges(g FlowGraph) []namedEdge {
	out := make([]namedEdge, len(g.Links))
	for i, l := range g.Links {
		out[i] = namedEdge{Source: g.Nodes[l.Source].Name, Target: g.Nodes[l.Target].Name, Value: l.Value}
	}
	return out
}

func nodeNames(g FlowGraph) []string {
	out := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = n.Name
	}
	return out
}

func assertWellFormed(t *testing.T, g FlowGraph) {
	t.Helper()
	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		assert.False(t, seen[n.Name], "duplicate node %q", n.Name)
		seen[n.Name] = true
	}
	for _, l := range g.Links {
		assert.GreaterOrEqual(t, l.Source, 0)
		assert.Less(t, l.Source, len(g.Nodes))
		assert.GreaterOrEqual(t, l.Target, 0)
		assert.Less(t, l.Target, len(g.Nodes))
		assert.Positive(t, l.Value, "zero-weight edge emitted")
	}
}

func TestAggregateFlow_SingleTierSwimming(t *testing.T) {
	records := []MedalRecord{
		medal("USA", testSwimming, "Men's 100m Freestyle", TierGold, "A"),
		medal("USA", testSwimming, "Women's 200m Butterfly", TierGold, "B"),
		medal("USA", testSwimming, "Women's 800m Freestyle", TierGold, "C"),
	}

	g := AggregateFlow(records, totalsFor("USA"), DefaultFlowOptions())

	assertWellFormed(t, g)
	assert.Equal(t, []string{"USA", testSwimming, string(TierGold)}, nodeNames(g))
	assert.Equal(t, []namedEdge{
		{Source: "USA", Target: testSwimming, Value: 3},
		{Source: testSwimming, Target: string(TierGold), Value: 3},
	}, namedEdges(g))
}

func TestAggregateFlow_TeamEventCountsOnce(t *testing.T) {
	relay := "Men's 4 x 100m Freestyle Relay"
	records := []MedalRecord{
		medal("AUS", testSwimming, relay, TierSilver, "A"),
		medal("AUS", testSwimming, relay, TierSilver, "B"),
		medal("AUS", testSwimming, relay, TierSilver, "C"),
		medal("AUS", testSwimming, relay, TierSilver, "D"),
	}

	g := AggregateFlow(records, totalsFor("AUS"), DefaultFlowOptions())

	assert.Equal(t, []namedEdge{
		{Source: "AUS", Target: testSwimming, Value: 1},
		{Source: testSwimming, Target: string(TierSilver), Value: 1},
	}, namedEdges(g))
}

func TestAggregateFlow_SameEventDifferentTiersAreDistinct(t *testing.T) {
	// Two athletes of one country on the podium of the same event.
	records := []MedalRecord{
		medal("CHN", testDiving, "Women's 10m Platform", TierGold, "A"),
		medal("CHN", testDiving, "Women's 10m Platform", TierSilver, "B"),
	}

	g := AggregateFlow(records, totalsFor("CHN"), DefaultFlowOptions())

	assert.Equal(t, []namedEdge{
		{Source: "CHN", Target: testDiving, Value: 2},
		{Source: testDiving, Target: string(TierGold), Value: 1},
		{Source: testDiving, Target: string(TierSilver), Value: 1},
	}, namedEdges(g))
}

func TestAggregateFlow_CountryWithoutAquaticMedalsIsAbsent(t *testing.T) {
	records := []MedalRecord{
		medal("USA", testSwimming, "Men's 100m Freestyle", TierGold, "A"),
		medal("FRA", "Judo", "Mixed Team", TierGold, "B"),
	}

	g := AggregateFlow(records, totalsFor("USA", "FRA"), DefaultFlowOptions())

	assertWellFormed(t, g)
	assert.NotContains(t, nodeNames(g), "FRA")
	assert.NotContains(t, nodeNames(g), "Judo")
	for _, e := range namedEdges(g) {
		assert.NotEqual(t, "FRA", e.Source)
	}
}

func TestAggregateFlow_OnlyTopCountries(t *testing.T) {
	codes := make([]string, 10)
	var records []MedalRecord
	for i := range codes {
		codes[i] = fmt.Sprintf("C%02d", i)
		records = append(records, medal(codes[i], testSwimming, "Event", TierBronze, codes[i]))
	}

	g := AggregateFlow(records, totalsFor(codes...), DefaultFlowOptions())

	names := nodeNames(g)
	for i, c := range codes {
		if i < DefaultTopCountries {
			assert.Contains(t, names, c)
		} else {
			assert.NotContains(t, names, c)
		}
	}
	// The shared discipline and tier nodes are created once.
	assert.Len(t, g.Nodes, DefaultTopCountries+2)
	assert.Len(t, g.Links, 2*DefaultTopCountries)
}

func TestAggregateFlow_TopIsPrefixNotSort(t *testing.T) {
	records := []MedalRecord{
		medal("AAA", testSwimming, "E1", TierGold, "a"),
		medal("ZZZ", testSwimming, "E1", TierSilver, "z"),
	}
	// ZZZ has the larger total but comes second: the aggregator must not sort.
	totals := []CountryTotal{{CountryCode: "AAA", Total: 1}, {CountryCode: "ZZZ", Total: 50}}

	g := AggregateFlow(records, totals, FlowOptions{TopCountries: 1, Disciplines: AquaticDisciplines})

	assert.Contains(t, nodeNames(g), "AAA")
	assert.NotContains(t, nodeNames(g), "ZZZ")
}

func TestAggregateFlow_IgnoresDisciplinesOutsideAllowList(t *testing.T) {
	records := []MedalRecord{
		medal("GBR", "Rowing", "Men's Eight", TierGold, "A"),
		medal("GBR", testWaterPolo, "Women", TierBronze, "B"),
	}

	g := AggregateFlow(records, totalsFor("GBR"), DefaultFlowOptions())

	assert.Equal(t, []namedEdge{
		{Source: "GBR", Target: testWaterPolo, Value: 1},
		{Source: testWaterPolo, Target: string(TierBronze), Value: 1},
	}, namedEdges(g))
}

func TestAggregateFlow_IgnoresUnknownTier(t *testing.T) {
	records := []MedalRecord{
		medal("USA", testSwimming, "E1", TierUnknown, "A"),
	}

	g := AggregateFlow(records, totalsFor("USA"), DefaultFlowOptions())

	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Links)
}

func TestAggregateFlow_UnknownTierExcludedFromCountryWeight(t *testing.T) {
	records := []MedalRecord{
		medal("USA", testSwimming, "E1", TierGold, "A"),
		medal("USA", testSwimming, "E2", TierSilver, "B"),
		medal("USA", testSwimming, "E3", TierUnknown, "C"),
	}

	g := AggregateFlow(records, totalsFor("USA"), DefaultFlowOptions())

	assertWellFormed(t, g)
	assert.Equal(t, []namedEdge{
		{Source: "USA", Target: testSwimming, Value: 2},
		{Source: testSwimming, Target: string(TierGold), Value: 1},
		{Source: testSwimming, Target: string(TierSilver), Value: 1},
	}, namedEdges(g))
}

func TestAggregateFlow_EmitsTiersInOrder(t *testing.T) {
	records := []MedalRecord{
		medal("USA", testSwimming, "E3", TierBronze, "A"),
		medal("USA", testSwimming, "E2", TierSilver, "B"),
		medal("USA", testSwimming, "E1", TierGold, "C"),
		medal("USA", testSwimming, "E4", TierGold, "D"),
	}

	g := AggregateFlow(records, totalsFor("USA"), DefaultFlowOptions())

	assert.Equal(t, []namedEdge{
		{Source: "USA", Target: testSwimming, Value: 4},
		{Source: testSwimming, Target: string(TierGold), Value: 2},
		{Source: testSwimming, Target: string(TierSilver), Value: 1},
		{Source: testSwimming, Target: string(TierBronze), Value: 1},
	}, namedEdges(g))
}

func TestAggregateFlow_SharedDisciplineNodeAcrossCountries(t *testing.T) {
	records := []MedalRecord{
		medal("USA", testSwimming, "E1", TierGold, "A"),
		medal("CHN", testSwimming, "E2", TierGold, "B"),
	}

	g := AggregateFlow(records, totalsFor("USA", "CHN"), DefaultFlowOptions())

	assertWellFormed(t, g)
	assert.Equal(t, []string{"USA", testSwimming, string(TierGold), "CHN"}, nodeNames(g))
	// Per-country tier links stay separate; the layout sums parallel links.
	assert.Equal(t, []namedEdge{
		{Source: "USA", Target: testSwimming, Value: 1},
		{Source: testSwimming, Target: string(TierGold), Value: 1},
		{Source: "CHN", Target: testSwimming, Value: 1},
		{Source: testSwimming, Target: string(TierGold), Value: 1},
	}, namedEdges(g))
}

func TestAggregateFlow_EmptyInputs(t *testing.T) {
	g := AggregateFlow(nil, nil, DefaultFlowOptions())
	assert.NotNil(t, g.Nodes)
	assert.NotNil(t, g.Links)
	assert.Empty(t, g.Nodes)

	g = AggregateFlow(nil, totalsFor("USA"), FlowOptions{TopCountries: -1})
	assert.Empty(t, g.Links)
}

func TestAggregateFlow_Idempotent(t *testing.T) {
	records := []MedalRecord{
		medal("USA", testSwimming, "E1", TierGold, "A"),
		medal("USA", testDiving, "E2", TierBronze, "B"),
		medal("CHN", testDiving, "E3", TierGold, "C"),
		medal("CHN", testDiving, "E3", TierGold, "D"),
		medal("AUS", testWaterPolo, "E4", TierSilver, "E"),
	}
	totals := totalsFor("USA", "CHN", "AUS")

	first := AggregateFlow(records, totals, DefaultFlowOptions())
	// Reordering medallist rows may change nothing but index assignment.
	reversed := make([]MedalRecord, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}
	second := AggregateFlow(reversed, totals, DefaultFlowOptions())

	require.Len(t, second.Nodes, len(first.Nodes))
	if diff := cmp.Diff(namedEdges(first), namedEdges(second)); diff != "" {
		t.Fatalf("graphs differ under relabeling (-first +second):\n%s", diff)
	}
	assertWellFormed(t, first)
	assertWellFormed(t, second)
}
