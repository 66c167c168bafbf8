package dnsclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/resistanceisuseless/dnsgraph/internal/config"
)

// DomainRecord is a single resource record as observed on the wire. Records
// are immutable once fetched; only the query client produces them.
type DomainRecord struct {
	Name  string `json:"name"`
	TTL   uint32 `json:"ttl"`
	Class string `json:"class"`
	Type  string `json:"type"`
	Data  string `json:"data"`
}

// Client issues single-record-type queries (NS, A, AAAA) against the
// configured resolvers. Transient failures are retried with a doubling
// per-attempt timeout; authoritative negative answers are returned
// immediately. The client holds no per-crawl state.
type Client struct {
	resolvers   []string
	retries     int
	timeout     time.Duration
	next        atomic.Uint32
	rateLimiter chan struct{}
	stop        chan struct{}
	log         *logrus.Logger
}

func New(cfg *config.Config, log *logrus.Logger) *Client {
	timeout := time.Duration(cfg.Query.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	rateLimit := cfg.RateLimit.Global
	if rateLimit <= 0 {
		rateLimit = 50 // Default 50 requests per second
	}

	// Create rate limiter channel, prefilled so the first burst does not
	// stall waiting for the first tick
	rateLimiter := make(chan struct{}, rateLimit)
	for i := 0; i < rateLimit; i++ {
		rateLimiter <- struct{}{}
	}
	stop := make(chan struct{})

	// Refill the limiter at the configured rate
	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(rateLimit))
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case rateLimiter <- struct{}{}:
				default:
					// Channel full, skip this tick
				}
			case <-stop:
				return
			}
		}
	}()

	return &Client{
		resolvers:   resolverAddrs(cfg.Resolvers),
		retries:     cfg.Query.Retries,
		timeout:     timeout,
		rateLimiter: rateLimiter,
		stop:        stop,
		log:         log,
	}
}

// Close stops the rate limiter goroutine.
func (c *Client) Close() {
	close(c.stop)
}

// resolverAddrs normalizes the configured resolver list to ip:port. An empty
// list falls back to /etc/resolv.conf, then to well-known public resolvers.
func resolverAddrs(configured []string) []string {
	servers := configured
	if len(servers) == 0 {
		if conf, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil {
			servers = conf.Servers
		}
	}
	if len(servers) == 0 {
		servers = []string{"8.8.8.8", "1.1.1.1", "8.8.4.4", "1.0.0.1"}
	}

	addrs := make([]string, 0, len(servers))
	for _, s := range servers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			if strings.Contains(s, ":") {
				s = "[" + s + "]:53" // bare IPv6 address
			} else {
				s = s + ":53"
			}
		}
		addrs = append(addrs, s)
	}
	return addrs
}

// Query resolves name for the given record type (NS, A or AAAA) and returns
// the answers in wire order. Failures come back as *QueryError; terminal
// negative answers (NXDOMAIN, NODATA) are never retried.
func (c *Client) Query(ctx context.Context, name string, qtype uint16) ([]DomainRecord, error) {
	switch qtype {
	case dns.TypeNS, dns.TypeA, dns.TypeAAAA:
	default:
		return nil, fmt.Errorf("unsupported record type %s", dns.TypeToString[qtype])
	}
	if _, ok := dns.IsDomainName(name); !ok {
		return nil, fmt.Errorf("invalid domain name %q", name)
	}
	fqdn := dns.Fqdn(strings.ToLower(name))

	timeout := c.timeout
	var lastErr *QueryError
	for attempt := 0; attempt <= c.retries; attempt++ {
		if err := c.waitRate(ctx); err != nil {
			return nil, &QueryError{Name: fqdn, Qtype: qtype, Kind: FailureTimeout, Err: err}
		}

		records, qerr := c.exchange(ctx, fqdn, qtype, timeout)
		if qerr == nil {
			return records, nil
		}
		c.log.WithFields(logrus.Fields{
			"name":    fqdn,
			"type":    dns.TypeToString[qtype],
			"kind":    qerr.Kind.String(),
			"attempt": attempt + 1,
		}).Debug("query attempt failed")

		if !qerr.Kind.Transient() {
			return nil, qerr
		}
		lastErr = qerr
		// Back off by doubling the per-attempt timeout
		timeout *= 2
	}
	return nil, lastErr
}

func (c *Client) waitRate(ctx context.Context) error {
	select {
	case <-c.rateLimiter:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) exchange(ctx context.Context, fqdn string, qtype uint16, timeout time.Duration) ([]DomainRecord, *QueryError) {
	msg := &dns.Msg{}
	msg.SetQuestion(fqdn, qtype)

	server := c.pickResolver()
	client := &dns.Client{Net: "udp", Timeout: timeout}

	resp, _, err := client.ExchangeContext(ctx, msg, server)
	if err != nil {
		if isTimeout(err) {
			return nil, &QueryError{Name: fqdn, Qtype: qtype, Kind: FailureTimeout, Err: err}
		}
		return nil, &QueryError{Name: fqdn, Qtype: qtype, Kind: FailureMalformed, Err: err}
	}

	// Retry over TCP when the answer was truncated
	if resp.Truncated {
		tcp := &dns.Client{Net: "tcp", Timeout: timeout}
		resp, _, err = tcp.ExchangeContext(ctx, msg, server)
		if err != nil {
			if isTimeout(err) {
				return nil, &QueryError{Name: fqdn, Qtype: qtype, Kind: FailureTimeout, Err: err}
			}
			return nil, &QueryError{Name: fqdn, Qtype: qtype, Kind: FailureMalformed, Err: err}
		}
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, &QueryError{Name: fqdn, Qtype: qtype, Kind: FailureNameError}
	default:
		return nil, &QueryError{Name: fqdn, Qtype: qtype, Kind: FailureServer,
			Err: fmt.Errorf("rcode %s from %s", dns.RcodeToString[resp.Rcode], server)}
	}

	records := collectRecords(resp, qtype)
	if len(records) == 0 {
		return nil, &QueryError{Name: fqdn, Qtype: qtype, Kind: FailureNoData}
	}
	return records, nil
}

func (c *Client) pickResolver() string {
	n := c.next.Add(1)
	return c.resolvers[int(n-1)%len(c.resolvers)]
}

// collectRecords pulls answers of the requested type out of a response. For
// NS queries a delegation may arrive in the authority section instead of the
// answer section, so that is checked as a fallback.
func collectRecords(resp *dns.Msg, qtype uint16) []DomainRecord {
	records := parseSection(resp.Answer, qtype)
	if len(records) == 0 && qtype == dns.TypeNS {
		records = parseSection(resp.Ns, qtype)
	}
	return records
}

func parseSection(rrs []dns.RR, qtype uint16) []DomainRecord {
	var records []DomainRecord
	for _, rr := range rrs {
		hdr := rr.Header()
		if hdr.Rrtype != qtype {
			continue
		}
		var data string
		switch t := rr.(type) {
		case *dns.NS:
			data = strings.ToLower(t.Ns)
		case *dns.A:
			data = t.A.String()
		case *dns.AAAA:
			data = t.AAAA.String()
		default:
			continue
		}
		records = append(records, DomainRecord{
			Name:  strings.ToLower(hdr.Name),
			TTL:   hdr.Ttl,
			Class: dns.ClassToString[hdr.Class],
			Type:  dns.TypeToString[hdr.Rrtype],
			Data:  data,
		})
	}
	return records
}

func isTimeout(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "timeout")
}
