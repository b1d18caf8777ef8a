package whiteboard

import (
	"fmt"
	"strings"
)

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by instance name so several
// Slate deployments can share one Redis server.
//
// Key pattern: slate:{instance_name}:board:{document_id}
// Channel pattern: slate:{instance_name}:board:{document_id}:events

// DocumentKey returns the Redis key for a board document hash.
// Pattern: slate:{instance_name}:board:{document_id}
func DocumentKey(instanceName, documentID string) string {
	return fmt.Sprintf("slate:%s:board:%s", instanceName, documentID)
}

// DocumentKeyPattern returns the SCAN pattern matching every board of an instance.
func DocumentKeyPattern(instanceName string) string {
	return fmt.Sprintf("slate:%s:board:*", instanceName)
}

// DocumentIDFromKey extracts the document id from a board key.
// Returns false for keys that are not board documents of this instance.
func DocumentIDFromKey(instanceName, key string) (string, bool) {
	prefix := fmt.Sprintf("slate:%s:board:", instanceName)
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	id := strings.TrimPrefix(key, prefix)
	if id == "" || strings.Contains(id, ":") {
		return "", false
	}
	return id, true
}

// BoardEventsChannel returns the Pub/Sub channel name for a board.
// Pattern: slate:{instance_name}:board:{document_id}:events
func BoardEventsChannel(instanceName, documentID string) string {
	return fmt.Sprintf("slate:%s:board:%s:events", instanceName, documentID)
}
