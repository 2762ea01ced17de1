package cache

import (
	"strconv"
	"strings"
)

// parseUsedMemory extracts used_memory from a redis INFO memory section.
func parseUsedMemory(info string) int64 {
	return parseInfoInt(info, "used_memory:")
}

// parseEvictedKeys extracts evicted_keys from a redis INFO stats section.
func parseEvictedKeys(info string) int64 {
	return parseInfoInt(info, "evicted_keys:")
}

func parseInfoInt(info, field string) int64 {
	for _, line := range strings.Split(info, "\r\n") {
		if strings.HasPrefix(line, field) {
			v := strings.TrimPrefix(line, field)
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err == nil {
				return n
			}
		}
	}
	return 0
}
