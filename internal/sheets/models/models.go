// Package models defines petition sheets, their lifecycle and derived statistics.
package models

import (
	"time"

	"sowell/pkg/domain"
	dErrors "sowell/pkg/domain-errors"
)

// RowsPerSheet is the number of signature lines on a printed sheet.
const RowsPerSheet = 12

// Status is a sheet lifecycle stage.
type Status string

const (
	StatusPrinted      Status = "Printed"
	StatusSigning      Status = "Signing"
	StatusSummarizing  Status = "Summarizing"
	StatusClosed       Status = "Closed"
	StatusPreShipment  Status = "Pre-shipment"
	StatusShipped      Status = "Shipped"
	StatusVerification Status = "Verification"
	StatusComplete     Status = "Complete"
)

// Statuses lists every sheet status in lifecycle order.
var Statuses = []Status{
	StatusPrinted,
	StatusSigning,
	StatusSummarizing,
	StatusClosed,
	StatusPreShipment,
	StatusShipped,
	StatusVerification,
	StatusComplete,
}

// advances is the client-invoked transition table. Every other change happens
// through Close or a batch operation.
var advances = map[Status]Status{
	StatusPrinted: StatusSigning,
	StatusSigning: StatusSummarizing,
}

// ParseStatus returns the status named s.
//
// Errors: CodeValidation when s is not a sheet status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown sheet status %q", s)
	}
	return st, nil
}

func (s Status) IsValid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// CanAdvanceTo reports whether a caller may move a sheet directly from s to next.
func (s Status) CanAdvanceTo(next Status) bool {
	to, ok := advances[s]
	return ok && to == next
}

// AcceptsSignatures reports whether rows may still be entered or corrected.
func (s Status) AcceptsSignatures() bool {
	switch s {
	case StatusPrinted, StatusSigning, StatusSummarizing:
		return true
	default:
		return false
	}
}

// Sheet is one physical petition form.
type Sheet struct {
	ID            int64       `json:"id"`
	CollectorID   *int64      `json:"collector_id,omitempty"`
	CollectorName string      `json:"collector_name,omitempty"`
	NotaryID      *int64      `json:"notary_id,omitempty"`
	NotarizedOn   domain.Date `json:"notarized_on"`
	BatchID       *int64      `json:"batch_id,omitempty"`
	Status        Status      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Closing is the summary stamped onto a sheet when it is closed.
type Closing struct {
	CollectorID int64       `json:"collector_id"`
	NotaryID    int64       `json:"notary_id"`
	NotarizedOn domain.Date `json:"notarized_on"`
}

// Validate requires every closing field.
func (c Closing) Validate() error {
	switch {
	case c.CollectorID <= 0:
		return dErrors.New(dErrors.CodeValidation, "collector_id is required")
	case c.NotaryID <= 0:
		return dErrors.New(dErrors.CodeValidation, "notary_id is required")
	case c.NotarizedOn.IsZero():
		return dErrors.New(dErrors.CodeValidation, "notarized_on is required")
	}
	return nil
}

// Tally is the raw signature count for one sheet.
type Tally struct {
	Total         int64
	Matched       int64
	LastCollected *time.Time
}

// ValidRate returns matched as a percentage of total, or 0 for an empty sheet.
func ValidRate(total, matched int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(matched) * 100 / float64(total)
}

// Stats are the derived statistics of one sheet.
type Stats struct {
	SheetID   int64   `json:"sheet_id"`
	Total     int64   `json:"total"`
	Matched   int64   `json:"matched"`
	ValidRate float64 `json:"valid_rate"`
}

// NewStats derives Stats from a tally.
func NewStats(sheetID int64, t Tally) Stats {
	return Stats{
		SheetID:   sheetID,
		Total:     t.Total,
		Matched:   t.Matched,
		ValidRate: ValidRate(t.Total, t.Matched),
	}
}

// StatusCount is the number of sheets in one status.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int64  `json:"count"`
}

// CatalogKind names one of the status catalogs.
type CatalogKind string

const (
	CatalogSheet     CatalogKind = "sheet"
	CatalogBatch     CatalogKind = "batch"
	CatalogSignature CatalogKind = "signature"
)

// StatusDefinition describes a status for display. Order is for UI sorting only.
type StatusDefinition struct {
	Status      string `json:"status"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// Circulator is a person who collects signatures.
type Circulator struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Address1 string `json:"address_1"`
	Address2 string `json:"address_2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
}

// Notary is a commissioned notary public.
type Notary struct {
	ID                   int64       `json:"id"`
	FullName             string      `json:"full_name"`
	RegistrationNumber   string      `json:"registration_number"`
	CommissionExpiration domain.Date `json:"commission_expiration"`
	CommissionState      string      `json:"commission_state"`
}

// PrintRow is one line of the print view. Lines never entered are blank.
type PrintRow struct {
	RowNumber     int         `json:"row"`
	VoterID       *int64      `json:"voter_id"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	Address       string      `json:"address"`
	Apartment     string      `json:"apartment"`
	City          string      `json:"city"`
	State         string      `json:"state"`
	Zip           string      `json:"zip"`
	DateCollected domain.Date `json:"date_collected"`
	Last4         string      `json:"last_4"`
}

// Printout is the printable form of a sheet.
type Printout struct {
	Sheet      Sheet       `json:"sheet"`
	Circulator *Circulator `json:"circulator,omitempty"`
	Notary     *Notary     `json:"notary,omitempty"`
	Rows       []PrintRow  `json:"rows"`
}

// PadRows returns exactly RowsPerSheet rows ordered by row number, filling
// missing lines with blanks. Rows outside 1..RowsPerSheet are dropped.
func PadRows(rows []PrintRow) []PrintRow {
	out := make([]PrintRow, RowsPerSheet)
	for i := range out {
		out[i] = PrintRow{RowNumber: i + 1}
	}
	for _, r := range rows {
		if r.RowNumber >= 1 && r.RowNumber <= RowsPerSheet {
			out[r.RowNumber-1] = r
		}
	}
	return out
}
