package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcStatus(t *testing.T) {
	tests := []struct {
		name        string
		roll        int
		wantOK      bool
		wantRefusal Refusal
		wantReason  string
	}{
		{name: "success", roll: 10, wantOK: true},
		{name: "success at edge", roll: 94, wantOK: true},
		{name: "unknown at threshold", roll: 95, wantReason: "unknown reason"},
		{name: "insufficient funds", roll: 96, wantRefusal: RefusalInsufficientFunds},
		{name: "fraud suspected", roll: 99, wantRefusal: RefusalFraudSuspected},
		{name: "beyond known reasons", roll: 101, wantReason: "unknown reason"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, refusal, reason := calcStatus(tt.roll, 95)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantRefusal, refusal)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestSimulator_Capture(t *testing.T) {
	s := NewSimulator(1)
	c, err := s.Capture(context.Background(), CaptureRequest{Reference: "ref-1", Amount: decimal.NewFromInt(250), Currency: "SEK"})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, c.Status)
	assert.Equal(t, "ref-1", c.Reference)
	assert.Equal(t, "250", c.Amount.String())
	assert.NotEmpty(t, c.ID)
}

func TestSimulator_Refuses(t *testing.T) {
	s := NewSimulator(0.5)
	s.roll = func() int { return 52 }

	_, err := s.Capture(context.Background(), CaptureRequest{Reference: "ref-1"})
	var capErr *CaptureError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, RefusalCardDeclined, capErr.Refusal)
	assert.Contains(t, capErr.Error(), "card declined")
}

func TestSimulator_ZeroRateAlwaysFails(t *testing.T) {
	s := NewSimulator(0)
	for i := 0; i < 20; i++ {
		_, err := s.Capture(context.Background(), CaptureRequest{Reference: "ref"})
		assert.Error(t, err)
	}
}

func TestSimulator_MissingReference(t *testing.T) {
	_, err := NewSimulator(1).Capture(context.Background(), CaptureRequest{})
	var capErr *CaptureError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "missing payment reference", capErr.Reason)
}

func TestSimulator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSimulator(1).Capture(ctx, CaptureRequest{Reference: "ref"})
	assert.ErrorIs(t, err, context.Canceled)
}
