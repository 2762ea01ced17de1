package cache

import "fmt"

// Key grammar:
//   query:<64-hex>
//   embedding:<provider>:<model>:<base36>
//   content:<content-id>

// QueryKey builds the cache key for a query result given its hex fingerprint.
func QueryKey(fingerprintHex string) string {
	return fmt.Sprintf("query:%s", fingerprintHex)
}

// EmbeddingKey builds the cache key for a cached embedding.
func EmbeddingKey(provider, model, textHashBase36 string) string {
	return fmt.Sprintf("embedding:%s:%s:%s", provider, model, textHashBase36)
}

// ContentKey builds the cache key for processed content.
func ContentKey(contentID string) string {
	return fmt.Sprintf("content:%s", contentID)
}
