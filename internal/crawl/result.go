package crawl

import (
	"sort"
	"sync"
)

// Result is the aggregated dependency record for one root crawl. Every field
// is a deduplicated, sorted set rendered as a JSON array; empty sets encode
// as [] rather than null. The key set is a compatibility contract for
// downstream consumers and must not change.
type Result struct {
	Query            string   `json:"query"`
	HazardousDomains []string `json:"hazardous_domains"`
	NS               []string `json:"ns"`
	IPv4             []string `json:"ipv4"`
	IPv6             []string `json:"ipv6"`
	TLD              []string `json:"tld"`
	SLD              []string `json:"sld"`
	PSNS             []string `json:"ps_ns"`
	PSIPv4           []string `json:"ps_ipv4"`
	PSIPv6           []string `json:"ps_ipv6"`
	PSTLD            []string `json:"ps_tld"`
	PSSLD            []string `json:"ps_sld"`
}

// aggregate collects set members from concurrent sub-crawls. The ps variants
// hold records discovered through parent-zone fallback rather than a name's
// own delegation; they stay separate even when values coincide.
type aggregate struct {
	mu        sync.Mutex
	ns        map[string]struct{}
	ipv4      map[string]struct{}
	ipv6      map[string]struct{}
	tld       map[string]struct{}
	sld       map[string]struct{}
	psNS      map[string]struct{}
	psIPv4    map[string]struct{}
	psIPv6    map[string]struct{}
	psTLD     map[string]struct{}
	psSLD     map[string]struct{}
	hazardous map[string]struct{}
}

func newAggregate() *aggregate {
	return &aggregate{
		ns:        make(map[string]struct{}),
		ipv4:      make(map[string]struct{}),
		ipv6:      make(map[string]struct{}),
		tld:       make(map[string]struct{}),
		sld:       make(map[string]struct{}),
		psNS:      make(map[string]struct{}),
		psIPv4:    make(map[string]struct{}),
		psIPv6:    make(map[string]struct{}),
		psTLD:     make(map[string]struct{}),
		psSLD:     make(map[string]struct{}),
		hazardous: make(map[string]struct{}),
	}
}

func (a *aggregate) addNS(ps bool, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ps {
		a.psNS[name] = struct{}{}
		return
	}
	a.ns[name] = struct{}{}
	// A name that resolved is not hazardous, whichever was recorded first
	delete(a.hazardous, name)
}

func (a *aggregate) addIPv4(ps bool, addr string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ps {
		a.psIPv4[addr] = struct{}{}
	} else {
		a.ipv4[addr] = struct{}{}
	}
}

func (a *aggregate) addIPv6(ps bool, addr string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ps {
		a.psIPv6[addr] = struct{}{}
	} else {
		a.ipv6[addr] = struct{}{}
	}
}

func (a *aggregate) addTLD(ps bool, name string) {
	if name == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if ps {
		a.psTLD[name] = struct{}{}
	} else {
		a.tld[name] = struct{}{}
	}
}

func (a *aggregate) addSLD(ps bool, name string) {
	if name == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if ps {
		a.psSLD[name] = struct{}{}
	} else {
		a.sld[name] = struct{}{}
	}
}

// addHazard records a dangling delegation target. A name that already made
// it into the ns set resolved at some point and is not hazardous.
func (a *aggregate) addHazard(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.ns[name]; ok {
		return
	}
	a.hazardous[name] = struct{}{}
}

// finalize renders the aggregate as a Result with sorted, never-nil slices.
func (a *aggregate) finalize(query string) *Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return &Result{
		Query:            query,
		HazardousDomains: sortedKeys(a.hazardous),
		NS:               sortedKeys(a.ns),
		IPv4:             sortedKeys(a.ipv4),
		IPv6:             sortedKeys(a.ipv6),
		TLD:              sortedKeys(a.tld),
		SLD:              sortedKeys(a.sld),
		PSNS:             sortedKeys(a.psNS),
		PSIPv4:           sortedKeys(a.psIPv4),
		PSIPv6:           sortedKeys(a.psIPv6),
		PSTLD:            sortedKeys(a.psTLD),
		PSSLD:            sortedKeys(a.psSLD),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
