package domain

// DefaultTopCountries is how many leading rows of the totals table feed the
// flow graph.
const DefaultTopCountries = 8

// AquaticDisciplines is the flow graph's default discipline allow-list, in
// emission order.
var AquaticDisciplines = []string{
	"Swimming",
	"Water Polo",
	"Diving",
	"Artistic Swimming",
	"Marathon Swimming",
}

// FlowNode is a named vertex of the flow graph. Its name is its identity.
type FlowNode struct {
	Name string `json:"name"`
}

// FlowEdge is a directed weighted link between two node indices.
type FlowEdge struct {
	Source int `json:"source"`
	Target int `json:"target"`
	Value  int `json:"value"`
}

// FlowGraph is the node/link document consumed by a Sankey layout.
type FlowGraph struct {
	Nodes []FlowNode `json:"nodes"`
	Links []FlowEdge `json:"links"`
}

// FlowOptions selects which countries and disciplines feed the graph.
type FlowOptions struct {
	TopCountries int
	Disciplines  []string
}

// DefaultFlowOptions returns the top-8 aquatic configuration.
func DefaultFlowOptions() FlowOptions {
	return FlowOptions{
		TopCountries: DefaultTopCountries,
		Disciplines:  AquaticDisciplines,
	}
}

// flowBuilder assigns node indices on first reference. It is owned by a
// single AggregateFlow call.
type flowBuilder struct {
	graph FlowGraph
	index map[string]int
}

func newFlowBuilder() *flowBuilder {
	return &flowBuilder{
		graph: FlowGraph{Nodes: []FlowNode{}, Links: []FlowEdge{}},
		index: make(map[string]int),
	}
}

func (b *flowBuilder) node(name string) int {
	if i, ok := b.index[name]; ok {
		return i
	}
	i := len(b.graph.Nodes)
	b.index[name] = i
	b.graph.Nodes = append(b.graph.Nodes, FlowNode{Name: name})
	return i
}

// link records source -> target. Non-positive weights are dropped, so an
// endpoint is only ever created for an edge that is actually emitted.
func (b *flowBuilder) link(source, target string, value int) {
	if value <= 0 {
		return
	}
	b.graph.Links = append(b.graph.Links, FlowEdge{
		Source: b.node(source),
		Target: b.node(target),
		Value:  value,
	})
}

// resultKey identifies one distinct medal result. Team members share it.
type resultKey struct {
	event string
	tier  MedalTier
}

// AggregateFlow builds the country -> discipline -> tier graph.
//
// Countries are the first opts.TopCountries rows of totals, which must already
// be sorted by total descending. Weights count distinct (event, tier) results,
// not medallist rows. A country or discipline with no qualifying results
// contributes no edges and therefore no nodes.
func AggregateFlow(records []MedalRecord, totals []CountryTotal, opts FlowOptions) FlowGraph {
	top := opts.TopCountries
	if top > len(totals) {
		top = len(totals)
	}
	if top < 0 {
		top = 0
	}

	// country -> discipline -> distinct results
	results := make(map[string]map[string]map[resultKey]struct{}, top)
	for _, t := range totals[:top] {
		results[t.CountryCode] = make(map[string]map[resultKey]struct{})
	}
	for _, r := range records {
		// Unknown tiers are dropped here, not at the tier step, so a
		// discipline's inflow always equals its outflow.
		byDiscipline, ok := results[r.CountryCode]
		if !ok || r.Tier == TierUnknown {
			continue
		}
		set, ok := byDiscipline[r.Discipline]
		if !ok {
			set = make(map[resultKey]struct{})
			byDiscipline[r.Discipline] = set
		}
		set[resultKey{event: r.Event, tier: r.Tier}] = struct{}{}
	}

	b := newFlowBuilder()
	for _, t := range totals[:top] {
		for _, discipline := range opts.Disciplines {
			set := results[t.CountryCode][discipline]
			if len(set) == 0 {
				continue
			}
			b.link(t.CountryCode, discipline, len(set))

			perTier := make(map[MedalTier]int, len(Tiers))
			for k := range set {
				perTier[k.tier]++
			}
			for _, tier := range Tiers {
				b.link(discipline, string(tier), perTier[tier])
			}
		}
	}
	return b.graph
}
