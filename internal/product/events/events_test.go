package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ProductChangedEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	product := map[string]any{"id": "p1", "name": "Phone"}

	testCases := []struct {
		name            string
		event           ProductChangedEvent
		expectedSubject string
		expectedPayload string
	}{
		{
			name:            "created",
			event:           Created("p1", product, at),
			expectedSubject: ProductCreatedSubject,
			expectedPayload: `{"type":"created","product_id":"p1","product":{"id":"p1","name":"Phone"},"occurred_at":"2024-05-01T12:00:00Z"}`,
		},
		{
			name:            "updated",
			event:           Updated("p1", product, at),
			expectedSubject: ProductUpdatedSubject,
			expectedPayload: `{"type":"updated","product_id":"p1","product":{"id":"p1","name":"Phone"},"occurred_at":"2024-05-01T12:00:00Z"}`,
		},
		{
			name:            "deleted omits the product",
			event:           Deleted("p1", at),
			expectedSubject: ProductDeletedSubject,
			expectedPayload: `{"type":"deleted","product_id":"p1","occurred_at":"2024-05-01T12:00:00Z"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			payload, err := tc.event.Payload()
			// then
			require.NoError(t, err)
			assert.Equal(t, tc.expectedSubject, tc.event.Subject())
			assert.JSONEq(t, tc.expectedPayload, string(payload))
		})
	}
}
