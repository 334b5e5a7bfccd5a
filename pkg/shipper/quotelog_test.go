package shipper_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/cartbridge/fulfillment/pkg/shipper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQuoteLog_Record(t *testing.T) {
	log := shipper.NewMemoryQuoteLog(10)

	err := log.Record(context.Background(), shipper.QuoteLogEntry{
		Token:   "tok-1",
		Invoice: "INV-001",
		Rates:   []shipper.Rate{{Cost: 9.5, Description: "Ground"}},
	})
	require.NoError(t, err)

	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "INV-001", entries[0].Invoice)
	assert.False(t, entries[0].CreatedAt.IsZero(), "timestamp is filled in when absent")
}

func TestMemoryQuoteLog_EvictsOldest(t *testing.T) {
	log := shipper.NewMemoryQuoteLog(3)

	for i := 0; i < 5; i++ {
		require.NoError(t, log.Record(context.Background(), shipper.QuoteLogEntry{
			Invoice: fmt.Sprintf("INV-%d", i),
		}))
	}

	entries := log.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "INV-2", entries[0].Invoice)
	assert.Equal(t, "INV-4", entries[2].Invoice)
}
