// Command analyze runs a one-shot analysis for a single symbol and prints
// the finished report. It shares the server's configuration and writes the
// same report artifact.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"finsight-api/internal/config"
	"finsight-api/internal/report"
	"finsight-api/internal/svc"
)

func main() {
	configFile := flag.String("f", "etc/finsight.yaml", "the config file")
	symbol := flag.String("symbol", "", "stock symbol to analyze")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall analysis timeout")
	flag.Parse()

	if *symbol == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze -symbol AAPL [-f etc/finsight.yaml]")
		os.Exit(2)
	}

	cfg := config.MustLoad(*configFile)
	ctx := svc.NewServiceContext(*cfg)

	runCtx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := ctx.Runner.Run(runCtx, *symbol)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	writer, err := report.NewWriter(cfg.ReportsDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "report writer: %v\n", err)
		os.Exit(1)
	}
	path, err := writer.Write(result.Symbol, result.Report, result.CompletedAt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "persist report: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(result.Report)
	fmt.Printf("\nreport written to %s\n", path)
}
