package cache

import (
	"encoding/json"
)

// SizeEstimator computes the logical byte size of a value.
//
// The second return value reports whether the estimate is grounded in the
// value's actual shape; false means the fallback constant was charged.
// Estimates are accounting hints, not allocator truth: a wrong estimate
// biases eviction priority but never blocks an insert.
type SizeEstimator func(value any) (uint64, bool)

// DefaultEstimator estimates sizes by payload kind:
//
//   - string: 2 bytes per byte of content, matching the UTF-16 accounting
//     the client runtime charges for string storage
//   - []byte: its length
//   - anything JSON-serializable: its serialized length
//   - otherwise: FallbackEntrySize
func DefaultEstimator(value any) (uint64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, true
	case string:
		return uint64(len(v)) * 2, true
	case []byte:
		return uint64(len(v)), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		return 8, true
	default:
		if data, err := json.Marshal(value); err == nil {
			return uint64(len(data)), true
		}
		return FallbackEntrySize, false
	}
}
