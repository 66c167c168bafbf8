package output

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resistanceisuseless/dnsgraph/internal/config"
	"github.com/resistanceisuseless/dnsgraph/internal/crawl"
	"github.com/resistanceisuseless/dnsgraph/internal/relation"
)

func sampleResults() []*crawl.Result {
	return []*crawl.Result{
		{
			Query:            "example.com.",
			NS:               []string{"ns1.example.com."},
			IPv4:             []string{"192.0.2.1"},
			HazardousDomains: []string{},
		},
		{
			Query:            "example.org.",
			NS:               []string{},
			IPv4:             []string{},
			HazardousDomains: []string{"ns.dead.example."},
		},
	}
}

func TestWriteResults_JSON(t *testing.T) {
	cfg, _ := config.Load("")
	cfg.Target.Domain = "example.com"
	cfg.Output.File = filepath.Join(t.TempDir(), "out.json")

	require.NoError(t, New(cfg).WriteResults(sampleResults()))

	data, err := os.ReadFile(cfg.Output.File)
	require.NoError(t, err)

	var report CrawlReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "dnsgraph", report.Metadata.Tool.Name)
	assert.Equal(t, "example.com", report.Metadata.Target)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "example.com.", report.Results[0].Query)
}

func TestWriteResults_JSONL(t *testing.T) {
	cfg, _ := config.Load("")
	cfg.Output.Format = "jsonl"
	cfg.Output.File = filepath.Join(t.TempDir(), "out.jsonl")

	require.NoError(t, New(cfg).WriteResults(sampleResults()))

	file, err := os.Open(cfg.Output.File)
	require.NoError(t, err)
	defer file.Close()

	var lines []crawl.Result
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var result crawl.Result
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &result))
		lines = append(lines, result)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "example.org.", lines[1].Query)
	assert.Equal(t, []string{"ns.dead.example."}, lines[1].HazardousDomains)
}

func TestWriteResults_Gzip(t *testing.T) {
	cfg, _ := config.Load("")
	cfg.Output.Format = "jsonl"
	cfg.Output.Gzip = true
	cfg.Output.File = filepath.Join(t.TempDir(), "out.jsonl.gz")

	require.NoError(t, New(cfg).WriteResults(sampleResults()))

	file, err := os.Open(cfg.Output.File)
	require.NoError(t, err)
	defer file.Close()

	gz, err := gzip.NewReader(file)
	require.NoError(t, err)
	defer gz.Close()

	var result crawl.Result
	require.NoError(t, json.NewDecoder(gz).Decode(&result))
	assert.Equal(t, "example.com.", result.Query)
}

func TestWriteResults_UnsupportedFormat(t *testing.T) {
	cfg, _ := config.Load("")
	cfg.Output.Format = "xml"
	cfg.Output.File = filepath.Join(t.TempDir(), "out")

	assert.Error(t, New(cfg).WriteResults(sampleResults()))
}

func TestWriteRelations(t *testing.T) {
	cfg, _ := config.Load("")
	cfg.Output.Relations = filepath.Join(t.TempDir(), "relations.json")

	graph := &relation.Graph{
		Nodes: []relation.Node{{ID: "DMN$example.com.", Name: "example.com.", Type: relation.TypeDomain}},
		Edges: []relation.Edge{},
	}
	require.NoError(t, New(cfg).WriteRelations(graph))

	data, err := os.ReadFile(cfg.Output.Relations)
	require.NoError(t, err)

	var decoded relation.Graph
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Nodes, 1)
	assert.Equal(t, "DMN$example.com.", decoded.Nodes[0].ID)
}

func TestWriteRelations_Disabled(t *testing.T) {
	cfg, _ := config.Load("")
	assert.NoError(t, New(cfg).WriteRelations(&relation.Graph{}))
}
