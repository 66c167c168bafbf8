package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resistanceisuseless/dnsgraph/internal/dnsclient"
)

func record(name, rtype, data string) dnsclient.DomainRecord {
	return dnsclient.DomainRecord{Name: name, TTL: 300, Class: "IN", Type: rtype, Data: data}
}

func TestBuild(t *testing.T) {
	records := []dnsclient.DomainRecord{
		record("example.com.", "NS", "ns1.example.com."),
		record("example.com.", "NS", "ns2.example.com."),
		record("ns1.example.com.", "A", "192.0.2.1"),
		record("ns1.example.com.", "AAAA", "2001:db8::1"),
		record("ns2.example.com.", "A", "192.0.2.2"),
	}

	graph := Build(records)

	nodesByID := make(map[string]Node)
	for _, node := range graph.Nodes {
		nodesByID[node.ID] = node
	}
	require.Len(t, nodesByID, 6)

	assert.Equal(t, TypeDomain, nodesByID["DMN$example.com."].Type)
	assert.Equal(t, TypeNS, nodesByID["NSR$ns1.example.com."].Type)
	assert.Equal(t, TypeNS, nodesByID["NSR$ns2.example.com."].Type)
	assert.Equal(t, TypeIPv4, nodesByID["IP4$192.0.2.1"].Type)
	assert.Equal(t, TypeIPv4, nodesByID["IP4$192.0.2.2"].Type)
	assert.Equal(t, TypeIPv6, nodesByID["IP6$2001:db8::1"].Type)

	assert.Len(t, graph.Edges, 5)
	assert.Contains(t, graph.Edges, Edge{From: "DMN$example.com.", To: "NSR$ns1.example.com.", Relation: "NS"})
	assert.Contains(t, graph.Edges, Edge{From: "NSR$ns1.example.com.", To: "IP4$192.0.2.1", Relation: "A"})
	assert.Contains(t, graph.Edges, Edge{From: "NSR$ns1.example.com.", To: "IP6$2001:db8::1", Relation: "AAAA"})
}

func TestBuild_NSOwnerClassifiedAsNameserver(t *testing.T) {
	// A name that appears as an NS value stays a nameserver node even when
	// it also owns address records.
	records := []dnsclient.DomainRecord{
		record("zone.example.", "NS", "self.example."),
		record("self.example.", "A", "192.0.2.9"),
	}
	graph := Build(records)

	for _, node := range graph.Nodes {
		if node.Name == "self.example." {
			assert.Equal(t, TypeNS, node.Type)
		}
	}
}

func TestBuild_DeduplicatesEdges(t *testing.T) {
	records := []dnsclient.DomainRecord{
		record("example.com.", "NS", "ns1.example.com."),
		record("example.com.", "NS", "ns1.example.com."),
	}
	graph := Build(records)
	assert.Len(t, graph.Edges, 1)
	assert.Len(t, graph.Nodes, 2)
}

func TestBuild_TLDOwner(t *testing.T) {
	records := []dnsclient.DomainRecord{
		record("com.", "NS", "a.gtld-servers.net."),
	}
	graph := Build(records)

	require.NotEmpty(t, graph.Nodes)
	assert.Equal(t, "TLD$com.", graph.Nodes[0].ID)
	assert.Equal(t, TypeTLD, graph.Nodes[0].Type)
}

func TestBuild_SkipsUnknownTypes(t *testing.T) {
	records := []dnsclient.DomainRecord{
		record("example.com.", "TXT", "v=spf1 -all"),
	}
	graph := Build(records)
	assert.Empty(t, graph.Nodes)
	assert.Empty(t, graph.Edges)
}

func TestBuild_EmptyInput(t *testing.T) {
	graph := Build(nil)
	assert.NotNil(t, graph.Nodes)
	assert.NotNil(t, graph.Edges)
	assert.Empty(t, graph.Nodes)
}
