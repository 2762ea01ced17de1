package embedding

import (
	"strconv"
)

// hashText computes a stable non-cryptographic 32-bit FNV-1a hash of text,
// rendered in base36, matching the cache key grammar's hash segment.
func hashText(text string) string {
	const offset32 = 2166136261
	const prime32 = 16777619

	h := uint32(offset32)
	for i := 0; i < len(text); i++ {
		h ^= uint32(text[i])
		h *= prime32
	}
	return strconv.FormatUint(uint64(h), 36)
}
