// Package crawl walks the DNS delegation graph rooted at a hostname. It
// discovers nameservers and their addresses recursively, classifies every
// name it touches, and flags delegation targets that cannot be resolved. One
// crawl produces one aggregated Result; all state is session-scoped.
package crawl

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/resistanceisuseless/dnsgraph/internal/classify"
	"github.com/resistanceisuseless/dnsgraph/internal/config"
	"github.com/resistanceisuseless/dnsgraph/internal/dnsclient"
)

// Querier issues a single-type DNS query. Satisfied by *dnsclient.Client;
// tests substitute a fake.
type Querier interface {
	Query(ctx context.Context, name string, qtype uint16) ([]dnsclient.DomainRecord, error)
}

// Engine orchestrates recursive NS-chain traversal with cycle protection,
// parent-zone fallback for deep nameserver names, and hazard detection.
type Engine struct {
	client      Querier
	log         *logrus.Logger
	deadline    time.Duration
	maxInflight int
}

func New(client Querier, cfg *config.Config, log *logrus.Logger) *Engine {
	deadline := time.Duration(cfg.Crawl.DeadlineSec) * time.Second
	if deadline <= 0 {
		deadline = 2 * time.Minute
	}
	return &Engine{
		client:      client,
		log:         log,
		deadline:    deadline,
		maxInflight: cfg.Crawl.MaxInflight,
	}
}

// nodeOpts carries the per-node traversal flags down the recursion tree.
type nodeOpts struct {
	// isNS marks a name that was reached as the value of an NS record
	// somewhere up the chain, as opposed to the original query target.
	isNS bool
	// delegated marks a name reached as a direct delegation target of the
	// node being expanded; only such names can become hazardous.
	delegated bool
	// ps marks a subtree whose records were obtained through parent-zone
	// fallback or public-suffix resolution; everything it yields lands in
	// the ps_* fields.
	ps bool
}

// Options adjusts a single root crawl: treat the root as a nameserver
// hostname, and/or capture the observed record stream for the relation
// builder and the zone formatter.
type Options struct {
	IsNS        bool
	WithRecords bool
}

// DomainDict crawls the delegation graph rooted at domain and returns the
// aggregated dependency record, plus the raw records observed when
// Options.WithRecords is set (in collection order, never re-queried). The
// only hard failure is a malformed root domain; when the crawl-wide deadline
// elapses the partial aggregate is returned together with the context error.
func (e *Engine) DomainDict(ctx context.Context, domain string, opts Options) (*Result, []dnsclient.DomainRecord, error) {
	normalized := classify.Normalize(domain)
	if _, err := classify.Split(normalized); err != nil {
		return nil, nil, err
	}

	s := newSession(e.client, e.maxInflight, opts.WithRecords)
	cctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	start := time.Now()
	e.crawlNode(cctx, s, normalized, nodeOpts{isNS: opts.IsNS})
	e.log.WithFields(logrus.Fields{
		"domain":   normalized,
		"visited":  s.visited.Count(),
		"queries":  s.cache.Count(),
		"duration": time.Since(start),
	}).Debug("crawl finished")

	result := s.agg.finalize(normalized)
	var records []dnsclient.DomainRecord
	if opts.WithRecords {
		records = s.observed()
	}
	if err := cctx.Err(); err != nil {
		// Deadline elapsed mid-crawl; the aggregate is partial but valid
		return result, records, err
	}
	return result, records, nil
}

// crawlNode expands a single domain node. State machine per node:
// Unvisited -> Querying -> {Resolved, Hazardous}; a second visit
// short-circuits via the visited set and contributes nothing.
func (e *Engine) crawlNode(ctx context.Context, s *session, name string, opts nodeOpts) {
	if !s.tryMark(name) {
		return
	}

	ps := opts.ps || classify.IsPublicSuffix(name)
	comps, err := classify.Split(name)
	if err != nil {
		e.log.WithField("name", name).WithError(err).Debug("unclassifiable name")
	}

	nsRecords, nsErr := s.getOrFetch(ctx, name, dns.TypeNS)
	if nsErr == nil && len(nsRecords) > 0 {
		s.agg.addTLD(ps, comps.TLD)
		s.agg.addSLD(ps, comps.SLD)
		if opts.isNS {
			s.agg.addNS(ps, name)
			e.resolveAddrs(ctx, s, name, ps)
		}
		e.expandDelegation(ctx, s, nsRecords, ps)
		return
	}

	// No NS records. A nameserver hostname four or more labels deep is
	// treated as under-delegated: its records live in the parent zone, so
	// repeat resolution one label up and keep everything under ps_*.
	if opts.isNS && dns.CountLabel(name) >= 4 {
		e.parentFallback(ctx, s, name, comps, opts)
		return
	}

	s.agg.addTLD(ps, comps.TLD)
	s.agg.addSLD(ps, comps.SLD)
	found := e.resolveAddrs(ctx, s, name, ps)
	switch {
	case found && opts.isNS:
		s.agg.addNS(ps, name)
	case !found && opts.delegated:
		// Referenced as a delegation target but nothing answers for it:
		// the dangling-delegation signal.
		s.agg.addHazard(name)
		e.log.WithField("name", name).Debug("hazardous delegation target")
	case !found && !opts.isNS:
		// Root query target that doesn't resolve at all is an ordinary
		// resolution failure, not a hazard.
		e.log.WithField("name", name).Warn("root domain did not resolve")
	}
}

// expandDelegation fans out over the distinct NS targets of one domain,
// pre-warming each target's address lookups while its node crawl runs. The
// target's own crawl does all the aggregating: which side of the ps_* split
// an address belongs to is only known once the node has decided whether it
// needs parent-zone fallback.
func (e *Engine) expandDelegation(ctx context.Context, s *session, nsRecords []dnsclient.DomainRecord, ps bool) {
	targets := make(map[string]struct{})
	for _, record := range nsRecords {
		if record.Type != "NS" {
			continue
		}
		targets[classify.Normalize(record.Data)] = struct{}{}
	}

	var wg sync.WaitGroup
	for target := range targets {
		wg.Add(2)
		go func(target string) {
			defer wg.Done()
			s.prewarm(ctx, target)
		}(target)
		go func(target string) {
			defer wg.Done()
			e.crawlNode(ctx, s, target, nodeOpts{isNS: true, delegated: true, ps: ps})
		}(target)
	}
	wg.Wait()
}

// parentFallback handles an under-delegated nameserver name: resolve the
// name's addresses and the parent zone's NS chain, recording everything
// under the ps_* aggregate keys.
func (e *Engine) parentFallback(ctx context.Context, s *session, name string, comps classify.Components, opts nodeOpts) {
	parent := stripLeftLabel(name)
	e.log.WithFields(logrus.Fields{"name": name, "parent": parent}).Debug("parent-zone fallback")

	s.agg.addTLD(true, comps.TLD)
	s.agg.addSLD(true, comps.SLD)

	var wg sync.WaitGroup
	var found bool
	wg.Add(1)
	go func() {
		defer wg.Done()
		found = e.resolveAddrs(ctx, s, name, true)
	}()
	e.crawlNode(ctx, s, parent, nodeOpts{ps: true})
	wg.Wait()

	if found {
		s.agg.addNS(true, name)
	} else if opts.delegated {
		s.agg.addHazard(name)
		e.log.WithField("name", name).Debug("hazardous delegation target")
	}
}

// resolveAddrs fetches A and AAAA records for a name concurrently through
// the session cache and merges the addresses into the aggregate. Returns
// whether any address was found.
func (e *Engine) resolveAddrs(ctx context.Context, s *session, name string, ps bool) bool {
	var wg sync.WaitGroup
	var found atomic.Bool
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		wg.Add(1)
		go func(qtype uint16) {
			defer wg.Done()
			records, err := s.getOrFetch(ctx, name, qtype)
			if err != nil {
				return
			}
			for _, record := range records {
				switch record.Type {
				case "A":
					s.agg.addIPv4(ps, record.Data)
					found.Store(true)
				case "AAAA":
					s.agg.addIPv6(ps, record.Data)
					found.Store(true)
				}
			}
		}(qtype)
	}
	wg.Wait()
	return found.Load()
}

// stripLeftLabel removes the left-most label of a normalized name. The root
// is its own parent.
func stripLeftLabel(name string) string {
	labels := dns.SplitDomainName(name)
	if len(labels) < 2 {
		return "."
	}
	return dns.Fqdn(strings.Join(labels[1:], "."))
}
