package response

import (
	"encoding/json"
	"net/http"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteAccepted acknowledges a command that is queued rather than executed
// inline.
func WriteAccepted(w http.ResponseWriter, action string) {
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "action": action})
}
