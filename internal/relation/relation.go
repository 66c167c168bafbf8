// Package relation converts the records observed during one crawl into node
// and edge rows for graph-database ingestion. It never issues queries of its
// own; the observation stream is the only input.
package relation

import (
	"net"
	"strings"

	"github.com/miekg/dns"

	"github.com/resistanceisuseless/dnsgraph/internal/dnsclient"
)

// Node types and their id prefixes.
const (
	TypeDomain = "domain"
	TypeNS     = "ns"
	TypeIPv4   = "ipv4"
	TypeIPv6   = "ipv6"
	TypeTLD    = "tld"
)

var typePrefix = map[string]string{
	TypeDomain: "DMN",
	TypeNS:     "NSR",
	TypeIPv4:   "IP4",
	TypeIPv6:   "IP6",
	TypeTLD:    "TLD",
}

// Node is one distinct domain or address value seen during a crawl.
type Node struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Edge is one (source, record-type, target) observation. Duplicate
// observations collapse to a single edge.
type Edge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

// Graph is the relation export for one crawl.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build derives the node/edge representation from the observed records, in
// observation order, deduplicating nodes by id and edges by
// (from, to, relation).
func Build(records []dnsclient.DomainRecord) *Graph {
	graph := &Graph{Nodes: []Node{}, Edges: []Edge{}}

	// Names that appear as NS record values are nameserver hosts even where
	// they also own A/AAAA records.
	nsNames := make(map[string]struct{})
	for _, record := range records {
		if record.Type == "NS" {
			nsNames[dns.Fqdn(strings.ToLower(record.Data))] = struct{}{}
		}
	}

	seenNodes := make(map[string]struct{})
	seenEdges := make(map[Edge]struct{})
	addNode := func(name, nodeType string) string {
		id := typePrefix[nodeType] + "$" + name
		if _, ok := seenNodes[id]; !ok {
			seenNodes[id] = struct{}{}
			graph.Nodes = append(graph.Nodes, Node{ID: id, Name: name, Type: nodeType})
		}
		return id
	}

	for _, record := range records {
		owner := dns.Fqdn(strings.ToLower(record.Name))
		var value, valueType string
		switch record.Type {
		case "NS":
			value = dns.Fqdn(strings.ToLower(record.Data))
			valueType = TypeNS
		case "A":
			value = record.Data
			valueType = TypeIPv4
		case "AAAA":
			value = record.Data
			valueType = TypeIPv6
		default:
			continue
		}

		fromID := addNode(owner, inferType(owner, nsNames))
		toID := addNode(value, valueType)
		edge := Edge{From: fromID, To: toID, Relation: record.Type}
		if _, ok := seenEdges[edge]; !ok {
			seenEdges[edge] = struct{}{}
			graph.Edges = append(graph.Edges, edge)
		}
	}
	return graph
}

// inferType guesses the node type of a record owner name.
func inferType(name string, nsNames map[string]struct{}) string {
	if ip := net.ParseIP(strings.TrimSuffix(name, ".")); ip != nil {
		if ip.To4() != nil {
			return TypeIPv4
		}
		return TypeIPv6
	}
	if _, ok := nsNames[name]; ok {
		return TypeNS
	}
	if dns.CountLabel(name) == 1 {
		return TypeTLD
	}
	return TypeDomain
}
