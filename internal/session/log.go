package session

import (
	"encoding/json"
	"log"
	"time"
)

// logEvent logs a structured event in JSON format. Events carrying an "error"
// field are logged at error level.
func logEvent(documentID, eventType string, data map[string]interface{}) {
	if data == nil {
		data = make(map[string]interface{})
	}
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	if _, failed := data["error"]; failed {
		data["level"] = "error"
	}
	data["component"] = "session"
	data["event_type"] = eventType
	data["document"] = documentID

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Session] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
