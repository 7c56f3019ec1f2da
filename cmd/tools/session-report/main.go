// Command session-report renders recorded classifications as an HTML report:
// per-window processing time over time plus label counts.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/strideworks/streampose/internal/db"
)

var (
	dbPath  = flag.String("db", "streampose.db", "Path to the sqlite database")
	outPath = flag.String("out", "session-report.html", "Output HTML file")
	limit   = flag.Int("limit", 2000, "Maximum classifications to include")
)

func main() {
	flag.Parse()

	store, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	events, err := store.RecentClassifications(*limit)
	if err != nil {
		log.Fatalf("failed to list classifications: %v", err)
	}
	if len(events) == 0 {
		log.Fatal("no classifications recorded")
	}

	// RecentClassifications returns newest first; plot oldest first.
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })

	timestamps := make([]string, 0, len(events))
	processing := make([]opts.LineData, 0, len(events))
	labelCounts := make(map[string]int)
	for _, e := range events {
		timestamps = append(timestamps, e.CreatedAt.Format("15:04:05"))
		processing = append(processing, opts.LineData{Value: e.ProcessingSec * 1000})
		labelCounts[e.Label]++
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Window processing time (ms)"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	line.SetXAxis(timestamps).AddSeries("processing_ms", processing)

	labels := make([]string, 0, len(labelCounts))
	for label := range labelCounts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	counts := make([]opts.BarData, 0, len(labels))
	for _, label := range labels {
		counts = append(counts, opts.BarData{Value: labelCounts[label]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Classifications by label"}))
	bar.SetXAxis(labels).AddSeries("count", counts)

	page := components.NewPage()
	page.AddCharts(line, bar)

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("failed to create output file: %v", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		log.Fatalf("failed to render report: %v", err)
	}
	fmt.Printf("wrote %s (%d classifications)\n", *outPath, len(events))
}
