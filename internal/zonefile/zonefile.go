// Package zonefile renders already-collected records as zone-file-style
// lines or structured JSON, in the order the records were collected. Pure
// formatting: no network access, no classification.
package zonefile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/resistanceisuseless/dnsgraph/internal/dnsclient"
)

// FormatLines renders records as "name ttl class type data" lines.
func FormatLines(records []dnsclient.DomainRecord) string {
	var b strings.Builder
	for _, record := range records {
		fmt.Fprintf(&b, "%s\t%d\t%s\t%s\t%s\n",
			record.Name, record.TTL, record.Class, record.Type, record.Data)
	}
	return b.String()
}

// FormatJSON renders records as a JSON array of record objects.
func FormatJSON(records []dnsclient.DomainRecord) (string, error) {
	if records == nil {
		records = []dnsclient.DomainRecord{}
	}
	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode records: %w", err)
	}
	return string(out), nil
}
