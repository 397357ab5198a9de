// Package models defines shipment batches, their lifecycle and aggregated statistics.
package models

import (
	"strings"
	"time"

	sheets "sowell/internal/sheets/models"
	"sowell/pkg/domain"
	dErrors "sowell/pkg/domain-errors"
)

// Status is a batch lifecycle stage.
type Status string

const (
	StatusBuilding     Status = "Building"
	StatusPreShipment  Status = "Pre-shipment"
	StatusShipped      Status = "Shipped"
	StatusVerification Status = "Verification"
	StatusComplete     Status = "Complete"
)

// Statuses lists every batch status in lifecycle order.
var Statuses = []Status{
	StatusBuilding,
	StatusPreShipment,
	StatusShipped,
	StatusVerification,
	StatusComplete,
}

// Step is one batch transition and the sheet cascade that goes with it.
// Member sheets whose status is in SheetsFrom move to SheetsTo; others are
// left as they are.
type Step struct {
	Name       string
	From       Status
	To         Status
	SheetsFrom []sheets.Status
	SheetsTo   sheets.Status
}

var (
	StepClose = Step{
		Name:       "close",
		From:       StatusBuilding,
		To:         StatusPreShipment,
		SheetsFrom: []sheets.Status{sheets.StatusClosed},
		SheetsTo:   sheets.StatusPreShipment,
	}
	StepShip = Step{
		Name:       "ship",
		From:       StatusPreShipment,
		To:         StatusShipped,
		SheetsFrom: []sheets.Status{sheets.StatusPreShipment},
		SheetsTo:   sheets.StatusShipped,
	}
	StepDeliver = Step{
		Name:       "deliver",
		From:       StatusShipped,
		To:         StatusVerification,
		SheetsFrom: []sheets.Status{sheets.StatusShipped},
		SheetsTo:   sheets.StatusVerification,
	}
	StepComplete = Step{
		Name:       "complete",
		From:       StatusVerification,
		To:         StatusComplete,
		SheetsFrom: []sheets.Status{sheets.StatusVerification},
		SheetsTo:   sheets.StatusComplete,
	}
)

// Batch is a shipment of closed sheets to the verifying authority.
type Batch struct {
	ID             int64       `json:"id"`
	Carrier        string      `json:"carrier,omitempty"`
	TrackingNumber string      `json:"tracking_number,omitempty"`
	ShipDate       domain.Date `json:"ship_date"`
	ArrivalDate    domain.Date `json:"arrival_date"`
	Status         Status      `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Shipment is what a carrier hands back when a batch leaves.
type Shipment struct {
	Carrier        string      `json:"carrier"`
	TrackingNumber string      `json:"tracking_number"`
	ShipDate       domain.Date `json:"ship_date"`
}

// Normalize trims the free-text fields.
func (s Shipment) Normalize() Shipment {
	s.Carrier = strings.TrimSpace(s.Carrier)
	s.TrackingNumber = strings.TrimSpace(s.TrackingNumber)
	return s
}

// Validate requires every shipping field.
func (s Shipment) Validate() error {
	switch {
	case s.Carrier == "":
		return dErrors.New(dErrors.CodeValidation, "carrier is required")
	case s.TrackingNumber == "":
		return dErrors.New(dErrors.CodeValidation, "tracking_number is required")
	case s.ShipDate.IsZero():
		return dErrors.New(dErrors.CodeValidation, "ship_date is required")
	}
	return nil
}

// Update carries the fields a transition stamps onto the batch. Zero fields
// are left unchanged.
type Update struct {
	Shipment    *Shipment
	ArrivalDate domain.Date
}

// SheetStats is one row of a batch breakdown.
type SheetStats struct {
	SheetID       int64         `json:"sheet_id"`
	CollectorName string        `json:"collector_name"`
	Status        sheets.Status `json:"status"`
	Total         int64         `json:"total"`
	Matched       int64         `json:"matched"`
	ValidRate     float64       `json:"valid_rate"`
	LastCollected *time.Time    `json:"last_collected,omitempty"`
}

// Totals aggregate every sheet of a batch. ValidRate is recomputed from the
// summed counts rather than averaged.
type Totals struct {
	Sheets    int     `json:"sheets"`
	Total     int64   `json:"total"`
	Matched   int64   `json:"matched"`
	ValidRate float64 `json:"valid_rate"`
}

// Stats is the statistics view of one batch.
type Stats struct {
	Batch  Batch        `json:"batch"`
	Sheets []SheetStats `json:"sheets"`
	Totals Totals       `json:"totals"`
}

// NewStats combines member sheets with their signature tallies. Sheets keep
// the order given.
func NewStats(b Batch, members []sheets.Sheet, tallies map[int64]sheets.Tally) Stats {
	out := Stats{Batch: b, Sheets: make([]SheetStats, 0, len(members))}
	for _, sh := range members {
		t := tallies[sh.ID]
		out.Sheets = append(out.Sheets, SheetStats{
			SheetID:       sh.ID,
			CollectorName: sh.CollectorName,
			Status:        sh.Status,
			Total:         t.Total,
			Matched:       t.Matched,
			ValidRate:     sheets.ValidRate(t.Total, t.Matched),
			LastCollected: t.LastCollected,
		})
		out.Totals.Total += t.Total
		out.Totals.Matched += t.Matched
	}
	out.Totals.Sheets = len(members)
	out.Totals.ValidRate = sheets.ValidRate(out.Totals.Total, out.Totals.Matched)
	return out
}

// Overview is the intake dashboard: closed sheets not yet batched and the
// batch currently being built.
type Overview struct {
	Awaiting []sheets.Sheet `json:"awaiting"`
	Building *Stats         `json:"building,omitempty"`
}
