package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"founder-bi-agent/internal/models"
)

func TestNormalizeSector(t *testing.T) {
	assert.Equal(t, "finance", NormalizeSector(" Finance "))
	assert.Equal(t, "unknown", NormalizeSector(""))
	assert.Equal(t, "unknown", NormalizeSector("   "))
	assert.Equal(t, "mining & energy", NormalizeSector("Mining & Energy"))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name     string
		raw      interface{}
		expected float64
	}{
		{"currency and separators", "$1,000.50", 1000.5},
		{"garbage", "garbage", 0},
		{"nil", nil, 0},
		{"empty", "", 0},
		{"plain text number", "42", 42},
		{"explicit zero text", "0", 0},
		{"float", 12.5, 12.5},
		{"int", 7, 7},
		{"negative clamps to zero", "-250", 0},
		{"not a number", "NaN", 0},
		{"infinity", "Inf", 0},
		{"rupee symbol", "₹2,50,000", 250000},
		{"unsupported type", []string{"1"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseNumber(tt.raw))
		})
	}
}

func TestParseDate(t *testing.T) {
	got := ParseDate("2024-03-15")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *got)

	got = ParseDate("2024-03-15T10:30:00Z")
	require.NotNil(t, got)
	assert.Equal(t, 10, got.Hour())

	got = ParseDate("2024-03-15 08:00:00")
	require.NotNil(t, got)
	assert.Equal(t, time.March, got.Month())

	assert.Nil(t, ParseDate(""))
	assert.Nil(t, ParseDate(nil))
	assert.Nil(t, ParseDate("15/03/2024"))
	assert.Nil(t, ParseDate("next quarter"))
	assert.Nil(t, ParseDate(12345))

	ref := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	got = ParseDate(ref)
	require.NotNil(t, got)
	assert.True(t, ref.Equal(*got))
}

func liveDealColumns() ColumnMap {
	return ColumnMap{
		FieldName:      "name",
		FieldSector:    "sector",
		FieldAmount:    "amount",
		FieldCloseDate: "close_date",
	}
}

func TestNormalizer_Deal(t *testing.T) {
	n := New(liveDealColumns())

	deal, note := n.Deal(RawRecord{
		"name":       "Acme Renewal",
		"sector":     " Finance ",
		"amount":     "$1,000.50",
		"close_date": "2024-05-01",
	})
	assert.Empty(t, note)
	assert.Equal(t, "Acme Renewal", deal.Name)
	assert.Equal(t, "finance", deal.Sector)
	assert.Equal(t, 1000.5, deal.Amount)
	require.True(t, deal.HasCloseDate())
	assert.Equal(t, time.May, deal.CloseDate.Month())
}

func TestNormalizer_Deal_MissingVersusExplicitZero(t *testing.T) {
	n := New(liveDealColumns())

	deals, notes := n.Deals([]RawRecord{
		{"name": "No Amount", "sector": "Energy"},
		{"name": "Zero Amount", "sector": "Energy", "amount": "0"},
		{"name": "Blank Amount", "amount": "  "},
	})

	require.Len(t, deals, 3)
	assert.Equal(t, 0.0, deals[0].Amount)
	assert.Equal(t, 0.0, deals[1].Amount)
	assert.Equal(t, models.UnknownSector, deals[2].Sector)

	require.Len(t, notes, 2)
	assert.Equal(t, "Deal 'No Amount' missing amount; treated as 0.", notes[0])
	assert.Equal(t, "Deal 'Blank Amount' missing amount; treated as 0.", notes[1])
}

func TestNormalizer_Deal_UnparseableAmountPresent(t *testing.T) {
	n := New(liveDealColumns())
	deal, note := n.Deal(RawRecord{"name": "Messy", "amount": "TBD"})
	assert.Equal(t, 0.0, deal.Amount)
	assert.Empty(t, note)
	assert.Nil(t, deal.CloseDate)
}

func TestNormalizer_Deal_SpreadsheetHeaders(t *testing.T) {
	n := New(ColumnMap{
		FieldName:      "Deal Name",
		FieldSector:    "Sector/service",
		FieldAmount:    "Masked Deal value",
		FieldCloseDate: "Close Date (A)",
	})

	deal, note := n.Deal(RawRecord{
		"Deal Name":         "Sakura",
		"Sector/service":    "Mining",
		"Masked Deal value": "2,500",
		"Close Date (A)":    "2024-11-30",
	})
	assert.Empty(t, note)
	assert.Equal(t, "mining", deal.Sector)
	assert.Equal(t, 2500.0, deal.Amount)
	assert.NotNil(t, deal.CloseDate)

	_, note = n.Deal(RawRecord{"Deal Name": ""})
	assert.Equal(t, "Deal '(unnamed)' missing amount; treated as 0.", note)
}

func TestNormalizer_WorkOrder(t *testing.T) {
	n := New(ColumnMap{FieldName: "name", FieldStatus: "status", FieldCustomer: "customer"})

	wos := n.WorkOrders([]RawRecord{
		{"name": "WO-1", "status": "Completed", "customer": "Acme"},
		{"name": "WO-2", "status": nil},
		{"name": "WO-3", "status": "  ", "customer": "Beta"},
	})

	require.Len(t, wos, 3)
	assert.Equal(t, models.WorkOrder{Name: "WO-1", Status: "Completed", Customer: "Acme"}, wos[0])
	assert.Equal(t, models.WorkOrder{Name: "WO-2", Status: "N/A", Customer: "N/A"}, wos[1])
	assert.Equal(t, models.WorkOrder{Name: "WO-3", Status: "N/A", Customer: "Beta"}, wos[2])
}

func TestNormalizer_UnmappedFieldFallsBackToCanonicalKey(t *testing.T) {
	n := New(ColumnMap{})
	deal, _ := n.Deal(RawRecord{"name": "Direct", "amount": 10.0, "sector": "Retail"})
	assert.Equal(t, "Direct", deal.Name)
	assert.Equal(t, 10.0, deal.Amount)
	assert.Equal(t, "retail", deal.Sector)
}
