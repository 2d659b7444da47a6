package payment

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Simulator approves a configurable share of captures and refuses the rest
// with a spread of reasons.
type Simulator struct {
	successRate int
	roll        func() int
}

// NewSimulator takes the success rate as a fraction between 0 and 1.
func NewSimulator(successRate float64) *Simulator {
	rate := int(successRate * 100)
	rate = max(0, min(rate, 100))
	return &Simulator{
		successRate: rate,
		roll:        func() int { return rand.Intn(100) },
	}
}

func (s *Simulator) Capture(ctx context.Context, req CaptureRequest) (*Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CaptureError{Reference: req.Reference, Err: err}
	}
	if req.Reference == "" {
		return nil, &CaptureError{Reason: "missing payment reference"}
	}

	ok, refusal, reason := calcStatus(s.roll(), s.successRate)
	if !ok {
		return nil, &CaptureError{
			Reference: req.Reference,
			Status:    "DECLINED",
			Refusal:   refusal,
			Reason:    reason,
		}
	}
	return &Capture{
		ID:         fmt.Sprintf("SIM-%s", uuid.NewString()),
		Reference:  req.Reference,
		Status:     StatusCompleted,
		Amount:     req.Amount,
		Currency:   req.Currency,
		CapturedAt: time.Now().UTC(),
	}, nil
}

// calcStatus maps a roll in [0,100) to an outcome. Rolls just above the
// success threshold pick a known refusal, the rest are unexplained.
func calcStatus(roll, successRate int) (bool, Refusal, string) {
	if roll < successRate {
		return true, RefusalUnknown, ""
	}
	other := roll - successRate
	if other == 0 || other > int(RefusalLimitExceeded) {
		return false, RefusalUnknown, "unknown reason"
	}
	return false, Refusal(other), ""
}
