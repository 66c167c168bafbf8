package crawl

import (
	"context"
	"sync"

	"github.com/miekg/dns"
	cmap "github.com/orcaman/concurrent-map/v2"
	"golang.org/x/sync/singleflight"

	"github.com/resistanceisuseless/dnsgraph/internal/dnsclient"
)

// cacheEntry is the memoized outcome of one (name, type) lookup. Failures
// are cached too, so a name that timed out once is not hammered again within
// the same crawl.
type cacheEntry struct {
	records []dnsclient.DomainRecord
	err     error
}

// session holds all state shared by the concurrent sub-crawls of a single
// root crawl: the resolution cache, the visited set and the in-flight query
// limiter. A session is created per DomainDict call and discarded with it;
// independent root crawls never share one.
type session struct {
	client  Querier
	cache   cmap.ConcurrentMap[string, cacheEntry]
	flight  singleflight.Group
	visited cmap.ConcurrentMap[string, struct{}]
	queries chan struct{}
	agg     *aggregate

	// observation stream for the relation builder, nil unless requested
	obsMu        sync.Mutex
	observations []dnsclient.DomainRecord
	wantObs      bool
}

func newSession(client Querier, maxInflight int, wantObs bool) *session {
	if maxInflight <= 0 {
		maxInflight = 20
	}
	return &session{
		client:  client,
		cache:   cmap.New[cacheEntry](),
		visited: cmap.New[struct{}](),
		queries: make(chan struct{}, maxInflight),
		agg:     newAggregate(),
		wantObs: wantObs,
	}
}

// tryMark atomically marks a normalized name as submitted for NS-chain
// expansion. Returns false when the name was already marked; the caller must
// not expand it again. This is the cycle breaker.
func (s *session) tryMark(name string) bool {
	return s.visited.SetIfAbsent(name, struct{}{})
}

// getOrFetch memoizes one (name, type) lookup per crawl. Concurrent callers
// for the same key share a single in-flight query; later callers get the
// cached outcome without touching the network.
func (s *session) getOrFetch(ctx context.Context, name string, qtype uint16) ([]dnsclient.DomainRecord, error) {
	key := name + "|" + dns.TypeToString[qtype]
	if entry, ok := s.cache.Get(key); ok {
		return entry.records, entry.err
	}

	v, _, _ := s.flight.Do(key, func() (interface{}, error) {
		if entry, ok := s.cache.Get(key); ok {
			return entry, nil
		}
		records, err := s.query(ctx, name, qtype)
		entry := cacheEntry{records: records, err: err}
		s.cache.Set(key, entry)
		if err == nil {
			s.observe(records)
		}
		return entry, nil
	})
	entry := v.(cacheEntry)
	return entry.records, entry.err
}

// prewarm fetches a name's A and AAAA records into the cache without
// touching the aggregate; the node that owns the name records them once its
// place in the ps_* split is known.
func (s *session) prewarm(ctx context.Context, name string) {
	var wg sync.WaitGroup
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		wg.Add(1)
		go func(qtype uint16) {
			defer wg.Done()
			_, _ = s.getOrFetch(ctx, name, qtype)
		}(qtype)
	}
	wg.Wait()
}

// query performs the actual network fetch under the in-flight limiter.
func (s *session) query(ctx context.Context, name string, qtype uint16) ([]dnsclient.DomainRecord, error) {
	select {
	case s.queries <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.queries }()
	return s.client.Query(ctx, name, qtype)
}

func (s *session) observe(records []dnsclient.DomainRecord) {
	if !s.wantObs {
		return
	}
	s.obsMu.Lock()
	s.observations = append(s.observations, records...)
	s.obsMu.Unlock()
}

func (s *session) observed() []dnsclient.DomainRecord {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	out := make([]dnsclient.DomainRecord, len(s.observations))
	copy(out, s.observations)
	return out
}
