package main

import (
	"flag"
	"fmt"
	"os"
)

// Flags holds all command line options
type Flags struct {
	// Required (one of)
	Domain       string
	InputDomains string

	// Input/Output
	Config    string
	Output    string
	Format    string
	Gzip      bool
	Relations string

	// Crawl behavior
	IsNS      bool
	Resolvers string
	Workers   int

	// Record printing
	PrintRecords string

	// Control Options
	Verbose  bool
	Progress bool

	// Utility
	CreateConfig bool
	ShowVersion  bool
}

func parseFlags() *Flags {
	f := &Flags{}

	// Custom usage function
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `dnsgraph - DNS delegation graph crawler

Usage:
  dnsgraph -d <domain> [options]
  dnsgraph -input <file> [options]

Examples:
  # Crawl one domain, print the dependency record to stdout
  dnsgraph -d example.com

  # Crawl a list of domains, one JSON line each, gzip-compressed
  dnsgraph -input domains.txt -f jsonl -o deps.jsonl.gz -gzip

  # Also emit the node/edge export for graph-database ingestion
  dnsgraph -d example.com -relations relations.json.gz -gzip

  # Dump the raw records seen during the crawl as zone-file lines
  dnsgraph -d example.com -print-records text

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Output Formats:
  json    One document with metadata and all results (default)
  jsonl   One dependency record per line, for batch pipelines

Record Printing:
  text    name ttl class type data lines, in collection order
  json    JSON array of record objects
`)
	}

	// Required flags (one of)
	flag.StringVar(&f.Domain, "d", "", "Domain to crawl (required unless -input)")
	flag.StringVar(&f.InputDomains, "input", "", "File with one domain per line")

	// Input/Output flags
	flag.StringVar(&f.Config, "c", "", "Configuration file path")
	flag.StringVar(&f.Output, "o", "", "Output file path (empty for stdout)")
	flag.StringVar(&f.Format, "f", "json", "Output format (json, jsonl)")
	flag.BoolVar(&f.Gzip, "gzip", false, "Gzip-compress file output")
	flag.StringVar(&f.Relations, "relations", "", "Write node/edge export to this file")

	// Crawl flags
	flag.BoolVar(&f.IsNS, "ns", false, "Treat the queried domain as a nameserver hostname")
	flag.StringVar(&f.Resolvers, "r", "", "Comma-separated resolver list (overrides config)")
	flag.IntVar(&f.Workers, "workers", 0, "Concurrent root crawls for batch input")

	// Record printing
	flag.StringVar(&f.PrintRecords, "print-records", "", "Print collected records (text, json)")

	// Control flags
	flag.BoolVar(&f.Verbose, "v", false, "Verbose (debug) output")
	flag.BoolVar(&f.Progress, "progress", false, "Show progress bar for batch crawls")

	// Utility flags
	flag.BoolVar(&f.CreateConfig, "init", false, "Create default config file")
	flag.BoolVar(&f.ShowVersion, "version", false, "Print version and exit")

	flag.Parse()

	return f
}
