package search

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/ragmesh/querycore/internal/vectorstore"
)

// fingerprintPayload is the stable JSON shape hashed for the cache lookup:
// SHA-256(JSON({text, context, filters})) in hex. This runs over the raw
// query, before parsing, and is distinct from query.Fingerprint, which
// hashes the *parsed* query's canonical form and is not used as a cache
// key here.
type fingerprintPayload struct {
	Text    string                 `json:"text"`
	Context map[string]interface{} `json:"context"`
	Filters []vectorstore.Filter   `json:"filters"`
}

func fingerprint(text string, context map[string]interface{}, filters []vectorstore.Filter) string {
	sorted := make([]vectorstore.Filter, len(filters))
	copy(sorted, filters)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Field != sorted[j].Field {
			return sorted[i].Field < sorted[j].Field
		}
		return sorted[i].Operator < sorted[j].Operator
	})

	data, _ := json.Marshal(fingerprintPayload{Text: text, Context: context, Filters: sorted})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
