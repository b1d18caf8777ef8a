package whiteboard

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Serialization helpers for converting between documents and Redis hashes.
//
// The shape set is stored as a single JSON field. Shapes are always read and
// written as a whole, so splitting them across fields would buy nothing.

// DocumentToHash converts a Document to a Redis hash. Transient shape fields are
// stripped.
func DocumentToHash(doc *Document) (map[string]interface{}, error) {
	contentJSON, err := json.Marshal(StripTransient(doc.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal content: %w", err)
	}

	hash := map[string]interface{}{
		"id":            doc.ID,
		"content":       string(contentJSON),
		"updated_at_ms": doc.UpdatedAtMs,
	}

	return hash, nil
}

// HashToDocument converts a Redis hash back to a Document.
func HashToDocument(hash map[string]string) (*Document, error) {
	var content Set
	if contentJSON := hash["content"]; contentJSON != "" {
		if err := json.Unmarshal([]byte(contentJSON), &content); err != nil {
			return nil, fmt.Errorf("failed to unmarshal content: %w", err)
		}
	}

	// Ensure we have an empty set instead of nil for consistency
	if content == nil {
		content = Set{}
	}

	updatedAtMs, _ := strconv.ParseInt(hash["updated_at_ms"], 10, 64)

	return &Document{
		ID:          hash["id"],
		Content:     content,
		UpdatedAtMs: updatedAtMs,
	}, nil
}
