// Command validate checks a rendered flow.json against the medal CSV files it
// was produced from. It verifies the graph is well formed, that every node is
// allowed by the chart configuration, and that recomputing the graph from the
// CSVs yields the same named edges.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -data-dir data \
//	  -flow-json out/flow.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/medal-flow-etl/internal/adapter/csvsource"
	"github.com/couchcryptid/medal-flow-etl/internal/config"
	"github.com/couchcryptid/medal-flow-etl/internal/domain"
	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "", "directory containing medallists.csv and medals_total.csv")
	flowJSON := flag.String("flow-json", "", "path to a rendered flow.json")
	chartConfig := flag.String("chart-config", "", "optional YAML chart-config used for the render")
	flag.Parse()

	if *dataDir == "" || *flowJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*dataDir, *flowJSON, *chartConfig))
}

func run(dataDir, flowJSONPath, chartConfigPath string) int {
	fmt.Println("=== Medal Flow Validation ===")
	fmt.Println()

	charts := config.DefaultCharts()
	if chartConfigPath != "" {
		var err error
		if charts, err = config.LoadCharts(chartConfigPath); err != nil {
			color.Red("FATAL: %v", err)
			return 1
		}
	}
	opts := charts.Options(domain.DefaultReferenceYear).Flow

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := csvsource.NewSource(dataDir, "medallists.csv", "medals_total.csv", 10*time.Second, logger)
	tables, err := src.Extract(context.Background())
	if err != nil {
		color.Red("FATAL: load CSVs: %v", err)
		return 1
	}

	rendered, err := loadFlow(flowJSONPath)
	if err != nil {
		color.Red("FATAL: load flow JSON: %v", err)
		return 1
	}
	expected := domain.AggregateFlow(tables.Medallists, tables.Totals, opts)

	phases := []*phase{
		validateReferences(rendered),
		validateUniqueNames(rendered),
		validateWeights(rendered),
		validateAllowedNodes(rendered, tables.Totals, opts),
		validateConservation(rendered),
		validateRecomputation(rendered, expected),
	}

	fmt.Println()
	allPassed := report(phases)

	fmt.Println()
	fmt.Printf("Input: %d medallist rows, %d countries; flow: %d nodes, %d links\n",
		len(tables.Medallists), len(tables.Totals), len(rendered.Nodes), len(rendered.Links))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		color.Green("\nAll validations passed.")
		return 0
	}
	color.Red("\nValidation FAILED.")
	return 1
}

func report(phases []*phase) bool {
	pass := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintfFunc()

	allPassed := true
	for _, p := range phases {
		status := pass("PASS")
		if !p.passed() {
			status = fail("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}
	return allPassed
}

func loadFlow(path string) (domain.FlowGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.FlowGraph{}, err
	}
	var g domain.FlowGraph
	if err := json.Unmarshal(data, &g); err != nil {
		return domain.FlowGraph{}, err
	}
	return g, nil
}

// ── Phase 1: Referential integrity ──

func validateReferences(g domain.FlowGraph) *phase {
	p := &phase{name: "Phase 1: Referential integrity"}
	for i, l := range g.Links {
		if l.Source < 0 || l.Source >= len(g.Nodes) {
			p.errorf("link %d: source %d out of range [0, %d)", i, l.Source, len(g.Nodes))
		}
		if l.Target < 0 || l.Target >= len(g.Nodes) {
			p.errorf("link %d: target %d out of range [0, %d)", i, l.Target, len(g.Nodes))
		}
		if l.Source == l.Target {
			p.errorf("link %d: self loop on node %d", i, l.Source)
		}
	}
	return p
}

// ── Phase 2: Unique node names ──

func validateUniqueNames(g domain.FlowGraph) *phase {
	p := &phase{name: "Phase 2: Unique node names"}
	seen := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.Name == "" {
			p.errorf("node %d: empty name", i)
			continue
		}
		if first, dup := seen[n.Name]; dup {
			p.errorf("node %d: name %q already used by node %d", i, n.Name, first)
			continue
		}
		seen[n.Name] = i
	}
	return p
}

// ── Phase 3: Positive weights ──

func validateWeights(g domain.FlowGraph) *phase {
	p := &phase{name: "Phase 3: Positive weights"}
	for i, l := range g.Links {
		if l.Value <= 0 {
			p.errorf("link %d: weight %d", i, l.Value)
		}
	}
	return p
}

// ── Phase 4: Allowed nodes ──
// Every node must be a top-N country, an allowed discipline, or a medal tier.

func validateAllowedNodes(g domain.FlowGraph, totals []domain.CountryTotal, opts domain.FlowOptions) *phase {
	p := &phase{name: "Phase 4: Allowed nodes (top countries, disciplines)"}

	allowed := make(map[string]bool)
	for i, t := range totals {
		if i >= opts.TopCountries {
			break
		}
		allowed[t.CountryCode] = true
	}
	for _, d := range opts.Disciplines {
		allowed[d] = true
	}
	for _, tier := range domain.Tiers {
		allowed[string(tier)] = true
	}

	for i, n := range g.Nodes {
		if !allowed[n.Name] {
			p.errorf("node %d: %q is not a top-%d country, allowed discipline, or medal tier", i, n.Name, opts.TopCountries)
		}
	}
	return p
}

// ── Phase 5: Flow conservation ──
// Weight entering a discipline node equals the weight leaving it.

func validateConservation(g domain.FlowGraph) *phase {
	p := &phase{name: "Phase 5: Flow conservation"}
	in := make(map[int]int)
	out := make(map[int]int)
	for _, l := range g.Links {
		out[l.Source] += l.Value
		in[l.Target] += l.Value
	}
	for i := range g.Nodes {
		if in[i] > 0 && out[i] > 0 && in[i] != out[i] {
			p.errorf("node %q: inflow %d, outflow %d", g.Nodes[i].Name, in[i], out[i])
		}
	}
	return p
}

// ── Phase 6: Recomputation ──
// Compares edges by endpoint names, so node order does not matter.

type namedEdge struct {
	Source string
	Target string
	Value  int
}

func namedEdges(g domain.FlowGraph) []namedEdge {
	edges := make([]namedEdge, 0, len(g.Links))
	for _, l := range g.Links {
		if l.Source < 0 || l.Source >= len(g.Nodes) || l.Target < 0 || l.Target >= len(g.Nodes) {
			continue
		}
		edges = append(edges, namedEdge{g.Nodes[l.Source].Name, g.Nodes[l.Target].Name, l.Value})
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Value < b.Value
	})
	return edges
}

func validateRecomputation(rendered, expected domain.FlowGraph) *phase {
	p := &phase{name: "Phase 6: Recomputation from CSVs"}
	if diff := cmp.Diff(namedEdges(expected), namedEdges(rendered)); diff != "" {
		p.errorf("edges differ (-expected +rendered):\n%s", diff)
	}
	return p
}
