// Package main печатает отчет о стратегии и темпе гонки по файлу сессии
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/Tejasvaidya10/laplens/internal/analytics"
	"github.com/Tejasvaidya10/laplens/internal/models"
	"github.com/Tejasvaidya10/laplens/internal/report"
	"github.com/Tejasvaidya10/laplens/internal/source"
)

func main() {
	file := flag.String("file", "", "path to a session JSON file")
	drivers := flag.String("drivers", "", "comma separated driver codes, empty for all")
	workers := flag.Int("workers", runtime.NumCPU(), "pace analyzer workers")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	session, err := source.ReadSessionFile(*file)
	if err != nil {
		log.Fatalf("Failed to read session: %v", err)
	}
	for i := range session.Laps {
		session.Laps[i].Compound = models.NormalizeCompound(string(session.Laps[i].Compound))
	}

	analyzer := analytics.NewPaceAnalyzer(*workers)
	analyzer.Start(*workers)
	defer analyzer.Stop()

	strategy, pace, err := report.Analyze(context.Background(), analyzer, session.Laps, parseDrivers(*drivers))
	if err != nil {
		log.Fatalf("Failed to analyze session: %v", err)
	}

	report.Write(os.Stdout, strategy, pace)
}

func parseDrivers(raw string) []string {
	out := make([]string, 0)
	for _, d := range strings.Split(raw, ",") {
		if d = strings.ToUpper(strings.TrimSpace(d)); d != "" {
			out = append(out, d)
		}
	}
	return out
}
