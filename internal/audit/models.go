package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a lifecycle change worth recording.
type EventType string

const (
	EventSignatureVerified EventType = "signature_verified"
	EventSheetsPrinted     EventType = "sheets_printed"
	EventSheetAdvanced     EventType = "sheet_advanced"
	EventSheetClosed       EventType = "sheet_closed"
	EventBatchCreated      EventType = "batch_created"
	EventSheetAddedToBatch EventType = "sheet_added_to_batch"
	EventBatchClosed       EventType = "batch_closed"
	EventBatchShipped      EventType = "batch_shipped"
	EventBatchDelivered    EventType = "batch_delivered"
	EventBatchCompleted    EventType = "batch_completed"
	EventLookupRefreshed   EventType = "lookup_refreshed"
)

// Event is emitted after a lifecycle change commits. It stays
// transport-agnostic so sinks can fan out.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Actor     string            `json:"actor,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	SheetID   int64             `json:"sheet_id,omitempty"`
	BatchID   int64             `json:"batch_id,omitempty"`
	From      string            `json:"from,omitempty"`
	To        string            `json:"to,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// Key returns the partition key: the batch when set, otherwise the sheet, so
// events for one entity stay ordered.
func (e Event) Key() string {
	switch {
	case e.BatchID != 0:
		return "batch-" + itoa(e.BatchID)
	case e.SheetID != 0:
		return "sheet-" + itoa(e.SheetID)
	default:
		return string(e.Type)
	}
}
