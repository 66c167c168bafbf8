// Package classify splits fully-qualified domain names into their top- and
// second-level components using the public suffix list, so that multi-label
// suffixes such as co.uk count as a single unit.
package classify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/publicsuffix"
)

// ErrInvalidDomainName is wrapped by every validation failure from Split.
var ErrInvalidDomainName = errors.New("invalid domain name")

// Components holds the public-suffix-aware split of a hostname. Both fields
// are normalized to lower case with a trailing root label. SLD is empty when
// the name itself is a public suffix with a single label.
type Components struct {
	TLD string
	SLD string
}

// Normalize lower-cases a name and ensures the trailing root label.
func Normalize(name string) string {
	return dns.Fqdn(strings.ToLower(strings.TrimSpace(name)))
}

// Split classifies a hostname into its TLD and SLD. The TLD is the public
// suffix; the SLD is the suffix plus the one label immediately left of it.
// Pure, deterministic, no I/O.
func Split(name string) (Components, error) {
	normalized := Normalize(name)
	if normalized == "." {
		return Components{}, fmt.Errorf("%w: empty name", ErrInvalidDomainName)
	}
	if _, ok := dns.IsDomainName(normalized); !ok {
		return Components{}, fmt.Errorf("%w: %q", ErrInvalidDomainName, name)
	}

	host := strings.TrimSuffix(normalized, ".")
	labels := dns.SplitDomainName(normalized)
	for _, label := range labels {
		if label == "" {
			return Components{}, fmt.Errorf("%w: empty label in %q", ErrInvalidDomainName, name)
		}
	}

	suffix, _ := publicsuffix.PublicSuffix(host)
	if suffix == host {
		// The name is itself a public suffix. A multi-label suffix still
		// yields an SLD (the name) and a TLD one label up; a single label is
		// a plain TLD.
		if len(labels) > 1 {
			return Components{
				TLD: dns.Fqdn(strings.Join(labels[1:], ".")),
				SLD: normalized,
			}, nil
		}
		return Components{TLD: normalized}, nil
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return Components{}, fmt.Errorf("%w: %q: %v", ErrInvalidDomainName, name, err)
	}
	return Components{
		TLD: dns.Fqdn(suffix),
		SLD: dns.Fqdn(registrable),
	}, nil
}

// IsPublicSuffix reports whether a normalized name is itself a public suffix
// (including plain TLDs).
func IsPublicSuffix(name string) bool {
	host := strings.TrimSuffix(Normalize(name), ".")
	if host == "" {
		return false
	}
	suffix, _ := publicsuffix.PublicSuffix(host)
	return suffix == host
}
