// internal/app/system/limits/limits.go
package limits

// Request body size limits.
const (
	// MaxJSONBody caps every decoded JSON request body.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxRecordAttributes caps the number of top-level keys in a record's
	// attributes document.
	MaxRecordAttributes = 200
)
