package output

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/resistanceisuseless/dnsgraph/internal/config"
	"github.com/resistanceisuseless/dnsgraph/internal/crawl"
	"github.com/resistanceisuseless/dnsgraph/internal/relation"
)

// CrawlReport wraps a batch of crawl results with run metadata for the
// single-document JSON format.
type CrawlReport struct {
	Metadata Metadata        `json:"metadata"`
	Results  []*crawl.Result `json:"results"`
}

type Metadata struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Tool      ToolInfo  `json:"tool"`
	Target    string    `json:"target"`
}

type ToolInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Writer struct {
	config *config.Config
}

func New(config *config.Config) *Writer {
	return &Writer{
		config: config,
	}
}

// WriteResults writes the crawl results in the configured format: "json"
// (one document with metadata) or "jsonl" (one result object per line, the
// batch-crawl interchange format). An empty output file means stdout.
func (w *Writer) WriteResults(results []*crawl.Result) error {
	out, closeFn, err := w.open(w.config.Output.File)
	if err != nil {
		return err
	}
	defer closeFn()

	switch w.config.Output.Format {
	case "json":
		return w.writeJSON(out, results)
	case "jsonl":
		return w.writeJSONL(out, results)
	default:
		return fmt.Errorf("unsupported output format: %s", w.config.Output.Format)
	}
}

// WriteRelations writes the node/edge export for one crawl. The export is
// gzip-compressed when the config asks for it, ready for handoff to the
// graph-database loader.
func (w *Writer) WriteRelations(graph *relation.Graph) error {
	if w.config.Output.Relations == "" {
		return nil
	}
	out, closeFn, err := w.open(w.config.Output.Relations)
	if err != nil {
		return err
	}
	defer closeFn()

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(graph); err != nil {
		return fmt.Errorf("failed to encode relations: %w", err)
	}
	return nil
}

// open returns the destination writer, wrapping it in gzip when configured.
// The returned func flushes and closes everything that needs it.
func (w *Writer) open(path string) (io.Writer, func(), error) {
	var out io.Writer = os.Stdout
	var file *os.File
	if path != "" {
		var err error
		file, err = os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		out = file
	}

	if w.config.Output.Gzip && file != nil {
		gz := gzip.NewWriter(file)
		return gz, func() {
			gz.Close()
			file.Close()
		}, nil
	}
	if file != nil {
		return out, func() { file.Close() }, nil
	}
	return out, func() {}, nil
}

func (w *Writer) writeJSON(out io.Writer, results []*crawl.Result) error {
	report := CrawlReport{
		Metadata: Metadata{
			Version:   "1.0",
			Timestamp: time.Now(),
			Tool: ToolInfo{
				Name:    "dnsgraph",
				Version: "0.1.0",
			},
			Target: w.config.Target.Domain,
		},
		Results: results,
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func (w *Writer) writeJSONL(out io.Writer, results []*crawl.Result) error {
	encoder := json.NewEncoder(out)
	for _, result := range results {
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result for %s: %w", result.Query, err)
		}
	}
	return nil
}
