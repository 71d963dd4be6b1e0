package ingest

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
)

// recordID reads only the Id of a raw record, so a record with an off-type
// field is still identified. A record that is not an object has no Id.
func recordID(raw json.RawMessage) string {
	var head struct {
		ID quickbooks.Text `json:"Id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	return strings.TrimSpace(string(head.ID))
}

// parseDate parses a YYYY-MM-DD date as midnight UTC. Empty or malformed
// input yields nil.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil
	}
	return &t
}

// parseTimestamp parses an RFC 3339 timestamp ("Z" or an explicit offset)
// and normalises it to UTC. Empty or malformed input yields nil.
func parseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
