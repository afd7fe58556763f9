// Where: internal/definitions/buckets.go
// What: Canonical upload-bucket resolution.
// Why: One resolution order shared by configuration, targets and pipper.
package definitions

// MatchingBucket resolves an upload bucket from a `bucket`/`buckets`
// document value. The value may be a literal bucket name, a map keyed by
// account ID, or a map keyed by account ID whose values are maps keyed
// by region. When nothing matches, fallback is returned.
func MatchingBucket(value any, accountID string, region string, fallback string) string {
	switch typed := value.(type) {
	case string:
		if typed != "" {
			return typed
		}
	case map[string]any:
		entry, ok := typed[accountID]
		if !ok {
			break
		}
		switch nested := entry.(type) {
		case string:
			if nested != "" {
				return nested
			}
		case map[string]any:
			if name, ok := nested[region].(string); ok && name != "" {
				return name
			}
		}
	}
	return fallback
}
