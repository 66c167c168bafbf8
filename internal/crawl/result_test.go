package crawl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_HazardThenResolution(t *testing.T) {
	agg := newAggregate()
	agg.addHazard("ns.flaky.example.")
	agg.addNS(false, "ns.flaky.example.")

	result := agg.finalize("flaky.example.")
	assert.Empty(t, result.HazardousDomains)
	assert.Equal(t, []string{"ns.flaky.example."}, result.NS)
}

func TestAggregate_ResolutionThenHazard(t *testing.T) {
	agg := newAggregate()
	agg.addNS(false, "ns.flaky.example.")
	agg.addHazard("ns.flaky.example.")

	result := agg.finalize("flaky.example.")
	assert.Empty(t, result.HazardousDomains)
}

func TestAggregate_PSResolutionDoesNotClearHazard(t *testing.T) {
	// A parent-fallback resolution lands in ps_ns and says nothing about
	// the name's own delegation.
	agg := newAggregate()
	agg.addHazard("ns.deep.zone.example.")
	agg.addNS(true, "ns.deep.zone.example.")

	result := agg.finalize("zone.example.")
	assert.Equal(t, []string{"ns.deep.zone.example."}, result.HazardousDomains)
	assert.Equal(t, []string{"ns.deep.zone.example."}, result.PSNS)
	assert.Empty(t, result.NS)
}

func TestAggregate_SortedAndDeduplicated(t *testing.T) {
	agg := newAggregate()
	agg.addIPv4(false, "192.0.2.9")
	agg.addIPv4(false, "192.0.2.1")
	agg.addIPv4(false, "192.0.2.9")
	agg.addTLD(false, "com.")
	agg.addTLD(false, "")
	agg.addSLD(false, "")

	result := agg.finalize("example.com.")
	assert.Equal(t, []string{"192.0.2.1", "192.0.2.9"}, result.IPv4)
	assert.Equal(t, []string{"com."}, result.TLD)
	assert.Empty(t, result.SLD)
}

func TestResult_JSONKeySet(t *testing.T) {
	result := newAggregate().finalize("example.com.")

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	expected := []string{
		"query", "hazardous_domains", "ns", "ipv4", "ipv6", "tld", "sld",
		"ps_ns", "ps_ipv4", "ps_ipv6", "ps_tld", "ps_sld",
	}
	assert.Len(t, decoded, len(expected))
	for _, key := range expected {
		assert.Contains(t, decoded, key)
	}

	// Empty sets are [], never null
	for key, value := range decoded {
		if key == "query" {
			continue
		}
		assert.IsType(t, []interface{}{}, value, "field %s", key)
	}
}
