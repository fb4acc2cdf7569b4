package copier

import (
	"fmt"

	"agencyctl/internal/core/domain"
)

// DeepCopy clones the JSON-shaped values this codebase passes around. Stores
// hand out snapshots of their collections, and fallback/cache records must be
// isolated from whatever the caller does to its copy.
func DeepCopy[T any](src T) (T, error) {
	var zero T

	copied := deepCopyValue(any(src))
	if result, ok := copied.(T); ok {
		return result, nil
	}

	return zero, fmt.Errorf("deep copy failed: expected %T, got %T", zero, copied)
}

func deepCopyValue(src any) any {
	if src == nil {
		return nil
	}

	switch v := src.(type) {
	case domain.Record:
		if v == nil {
			return domain.Record(nil)
		}
		dst := make(domain.Record, len(v))
		for key, val := range v {
			dst[key] = deepCopyValue(val)
		}
		return dst

	case map[string]any:
		if v == nil {
			return map[string]any(nil)
		}
		dst := make(map[string]any, len(v))
		for key, val := range v {
			dst[key] = deepCopyValue(val)
		}
		return dst

	case []domain.Record:
		if v == nil {
			return []domain.Record(nil)
		}
		dst := make([]domain.Record, len(v))
		for i, record := range v {
			dst[i] = deepCopyValue(record).(domain.Record)
		}
		return dst

	case []string:
		if v == nil {
			return []string(nil)
		}
		dst := make([]string, len(v))
		copy(dst, v)
		return dst

	case []any:
		if v == nil {
			return []any(nil)
		}
		dst := make([]any, len(v))
		for i, val := range v {
			dst[i] = deepCopyValue(val)
		}
		return dst

	// staged attachments are treated as immutable once created
	case *domain.Attachment:
		return v

	case string, int, int64, float64, bool, int32, float32:
		return v

	default:
		// anything else is assumed to be an immutable scalar
		return v
	}
}
