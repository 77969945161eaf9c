// Command render reads the medal CSV files once and writes the three chart
// documents (flow.json, map.json, scatter.json) to a directory. It uses the
// same domain package as the service, so the files match what the service
// publishes for the same input.
//
// Usage:
//
//	go run ./cmd/render \
//	  -data-dir data \
//	  -out-dir out \
//	  -chart-config charts.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/medal-flow-etl/internal/adapter/csvsource"
	"github.com/couchcryptid/medal-flow-etl/internal/config"
	"github.com/couchcryptid/medal-flow-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dataDir := flag.String("data-dir", "", "directory containing medallists.csv and medals_total.csv")
	outDir := flag.String("out-dir", "", "output directory for chart JSON files")
	chartConfig := flag.String("chart-config", "", "optional YAML chart-config overrides")
	referenceYear := flag.Int("reference-year", domain.DefaultReferenceYear, "year used to derive athlete ages")
	generatedAt := flag.String("generated-at", "2024-08-11T00:00:00Z", "fixed render timestamp (RFC3339)")
	flag.Parse()

	if *dataDir == "" || *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -data-dir, -out-dir")
	}

	ts, err := time.Parse(time.RFC3339, *generatedAt)
	if err != nil {
		return fmt.Errorf("invalid -generated-at: %w", err)
	}
	// Set a fixed clock for reproducible output.
	domain.SetClock(clockwork.NewFakeClockAt(ts))
	defer domain.SetClock(nil)

	charts := config.DefaultCharts()
	if *chartConfig != "" {
		if charts, err = config.LoadCharts(*chartConfig); err != nil {
			return err
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := csvsource.NewSource(*dataDir, "medallists.csv", "medals_total.csv", 10*time.Second, logger)
	tables, err := src.Extract(context.Background())
	if err != nil {
		return err
	}
	log.Printf("medallists: %d rows (%d skipped)", len(tables.Medallists), tables.SkippedRows[domain.TableMedallists])
	log.Printf("medals_total: %d rows (%d skipped)", len(tables.Totals), tables.SkippedRows[domain.TableMedalsTotal])

	d := domain.Build(tables, charts.Options(*referenceYear))

	for _, name := range []string{domain.ChartFlow, domain.ChartMap, domain.ChartScatter} {
		doc, _ := d.Chart(name)
		path := filepath.Join(*outDir, name+".json")
		if err := writeJSON(path, doc); err != nil {
			return fmt.Errorf("writing %s chart: %w", name, err)
		}
		log.Printf("wrote %s", path)
	}

	printStats(d)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

type nameCount struct {
	name  string
	count int
}

func printStats(d domain.Dashboard) {
	fmt.Println("\n=== Render summary ===")
	fmt.Printf("Flow: %d nodes, %d links\n", len(d.Flow.Nodes), len(d.Flow.Links))
	printOutflow(d.Flow)
	printMapBuckets(d.Map)
	fmt.Printf("\nScatter: %d athletes (%d dropped for unparseable birth dates)\n", len(d.Scatter.Points), d.Scatter.Dropped)
	fmt.Printf("  age domain [%d, %d], score domain [%d, %d]\n",
		d.Scatter.AgeDomain.Min, d.Scatter.AgeDomain.Max, d.Scatter.ScoreDomain.Min, d.Scatter.ScoreDomain.Max)
}

// printOutflow lists each node's total outgoing weight, largest first.
func printOutflow(g domain.FlowGraph) {
	out := make(map[int]int)
	for _, l := range g.Links {
		out[l.Source] += l.Value
	}
	counts := make([]nameCount, 0, len(out))
	for i, v := range out {
		counts = append(counts, nameCount{g.Nodes[i].Name, v})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].name < counts[j].name
	})
	for _, c := range counts {
		fmt.Printf("  %-20s %d\n", c.name, c.count)
	}
}

func printMapBuckets(c domain.Choropleth) {
	perColor := make(map[string]int)
	for _, s := range c.Shades {
		perColor[s.Color]++
	}
	fmt.Printf("\nMap: %d countries, %d features\n", len(c.Shades), len(c.Features))
	for _, e := range c.Legend {
		fmt.Printf("  %-8s %s %d\n", e.Label, e.Color, perColor[e.Color])
	}
}
