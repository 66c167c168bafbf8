package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/resistanceisuseless/dnsgraph/internal/config"
	"github.com/resistanceisuseless/dnsgraph/internal/crawl"
	"github.com/resistanceisuseless/dnsgraph/internal/dnsclient"
	"github.com/resistanceisuseless/dnsgraph/internal/output"
	"github.com/resistanceisuseless/dnsgraph/internal/progress"
	"github.com/resistanceisuseless/dnsgraph/internal/relation"
	"github.com/resistanceisuseless/dnsgraph/internal/zonefile"
)

type DNSGraph struct {
	config *config.Config
	log    *logrus.Logger
}

func NewDNSGraph(cfg *config.Config, log *logrus.Logger) *DNSGraph {
	return &DNSGraph{
		config: cfg,
		log:    log,
	}
}

func (g *DNSGraph) Run(ctx context.Context, domains []string, flags *Flags) error {
	client := dnsclient.New(g.config, g.log)
	defer client.Close()
	engine := crawl.New(client, g.config, g.log)
	writer := output.New(g.config)

	wantRecords := flags.Relations != "" || flags.PrintRecords != ""
	if wantRecords && len(domains) != 1 {
		return fmt.Errorf("-relations and -print-records need exactly one domain")
	}

	// Single-domain path keeps the record stream for the relation builder
	// and the zone printer.
	if len(domains) == 1 {
		result, records, err := engine.DomainDict(ctx, domains[0],
			crawl.Options{IsNS: flags.IsNS, WithRecords: wantRecords})
		if err != nil {
			if result == nil {
				return err
			}
			g.log.WithError(err).Warn("crawl deadline elapsed, writing partial result")
		}

		if err := writer.WriteResults([]*crawl.Result{result}); err != nil {
			return err
		}
		if flags.Relations != "" {
			if err := writer.WriteRelations(relation.Build(records)); err != nil {
				return err
			}
		}
		switch flags.PrintRecords {
		case "":
		case "text":
			fmt.Print(zonefile.FormatLines(records))
		case "json":
			encoded, err := zonefile.FormatJSON(records)
			if err != nil {
				return err
			}
			fmt.Println(encoded)
		default:
			return fmt.Errorf("unsupported record print format: %s", flags.PrintRecords)
		}
		return nil
	}

	// Batch path: bounded worker pool over the domain list, one JSON record
	// per domain.
	tracker := progress.New(flags.Progress && !g.config.Verbose, len(domains))

	workers := g.config.Crawl.Workers
	if flags.Workers > 0 {
		workers = flags.Workers
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string, len(domains))
	crawled := make(chan *crawl.Result, len(domains))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for domain := range jobs {
				result, _, err := engine.DomainDict(ctx, domain, crawl.Options{IsNS: flags.IsNS})
				if err != nil {
					if result == nil {
						g.log.WithField("domain", domain).WithError(err).Error("skipping domain")
						continue
					}
					g.log.WithField("domain", domain).WithError(err).Warn("partial result")
				}
				tracker.Crawled(len(result.HazardousDomains))
				crawled <- result
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, domain := range domains {
			jobs <- domain
		}
	}()

	go func() {
		wg.Wait()
		close(crawled)
	}()

	var results []*crawl.Result
	for result := range crawled {
		results = append(results, result)
	}
	tracker.Done()

	return writer.WriteResults(results)
}

// loadDomains reads one domain per line, skipping blanks and # comments.
func loadDomains(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open domain list: %w", err)
	}
	defer file.Close()

	var domains []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read domain list: %w", err)
	}
	return domains, nil
}

func main() {
	flags := parseFlags()

	if flags.ShowVersion {
		fmt.Printf("dnsgraph %s\n", GetVersionInfo())
		return
	}

	if flags.CreateConfig {
		if err := config.CreateDefault(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if flags.Domain == "" && flags.InputDomains == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(flags.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Override config with command line flags
	cfg.Target.Domain = flags.Domain
	cfg.Verbose = flags.Verbose
	if flags.Output != "" {
		cfg.Output.File = flags.Output
	}
	if flags.Format != "" {
		cfg.Output.Format = flags.Format
	}
	if flags.Gzip {
		cfg.Output.Gzip = true
	}
	if flags.Relations != "" {
		cfg.Output.Relations = flags.Relations
	}
	if flags.Resolvers != "" {
		cfg.Resolvers = strings.Split(flags.Resolvers, ",")
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if cfg.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	var domains []string
	if flags.InputDomains != "" {
		domains, err = loadDomains(flags.InputDomains)
		if err != nil {
			log.Fatalf("Failed to load domains: %v", err)
		}
	}
	if flags.Domain != "" {
		domains = append(domains, flags.Domain)
	}
	if len(domains) == 0 {
		log.Fatal("No domains to crawl")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := NewDNSGraph(cfg, log)
	if err := app.Run(ctx, domains, flags); err != nil {
		log.Fatalf("Crawl failed: %v", err)
	}
}
