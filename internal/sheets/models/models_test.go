package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sowell/pkg/domain-errors"
)

func TestCanAdvanceTo(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusPrinted, StatusSigning}:     true,
		{StatusSigning, StatusSummarizing}: true,
	}
	for _, from := range Statuses {
		for _, to := range Statuses {
			t.Run(fmt.Sprintf("%s to %s", from, to), func(t *testing.T) {
				assert.Equal(t, allowed[[2]Status{from, to}], from.CanAdvanceTo(to))
			})
		}
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("Pre-shipment")
	require.NoError(t, err)
	assert.Equal(t, StatusPreShipment, st)

	_, err = ParseStatus("signing")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestValidRate(t *testing.T) {
	assert.Equal(t, 0.0, ValidRate(0, 0))
	assert.Equal(t, 40.0, ValidRate(10, 4))
	assert.Equal(t, 100.0, ValidRate(3, 3))
}

func TestAcceptsSignatures(t *testing.T) {
	open := map[Status]bool{StatusPrinted: true, StatusSigning: true, StatusSummarizing: true}
	for _, st := range Statuses {
		assert.Equal(t, open[st], st.AcceptsSignatures(), st)
	}
}

func TestPadRows(t *testing.T) {
	rows := PadRows([]PrintRow{
		{RowNumber: 3, LastName: "Smith"},
		{RowNumber: 12, LastName: "Jones"},
		{RowNumber: 13, LastName: "Ignored"},
	})
	require.Len(t, rows, RowsPerSheet)
	for i, r := range rows {
		assert.Equal(t, i+1, r.RowNumber)
	}
	assert.Equal(t, "Smith", rows[2].LastName)
	assert.Equal(t, "Jones", rows[11].LastName)
	assert.Empty(t, rows[0].LastName)
}

func TestClosingValidate(t *testing.T) {
	assert.True(t, dErrors.HasCode(Closing{NotaryID: 1}.Validate(), dErrors.CodeValidation))
	assert.True(t, dErrors.HasCode(Closing{CollectorID: 1}.Validate(), dErrors.CodeValidation))
	assert.True(t, dErrors.HasCode(Closing{CollectorID: 1, NotaryID: 1}.Validate(), dErrors.CodeValidation))
}
