// Package audit records state-mutating dashboard actions.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/supportdesk/internal/models"
	"github.com/fentz26/supportdesk/internal/store"
)

// Recorder writes audit entries for every mutation the API performs.
type Recorder struct {
	store *store.Store
}

// NewRecorder creates a new audit recorder.
func NewRecorder(s *store.Store) *Recorder {
	return &Recorder{store: s}
}

// Record writes an audit entry for a state-mutating action.
func (r *Recorder) Record(action string, inputs interface{}, outcome, taskID, details string) (*models.AuditEntry, error) {
	return r.store.WriteAudit(action, HashInputs(inputs), outcome, taskID, details)
}

// HashInputs returns the hex SHA256 of the JSON encoding of inputs.
func HashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
