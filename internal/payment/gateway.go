package payment

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/courtside/pos-go-app/internal/models"
)

// ChargeRequest is the single call the register makes per checkout attempt.
// No retries: a decline or error ends the attempt.
type ChargeRequest struct {
	Method models.PaymentMethod `json:"method"`
	Amount float64              `json:"amount"`
	Total  float64              `json:"total"`
}

// ChargeResult reports the gateway's decision
type ChargeResult struct {
	Approved  bool   `json:"approved"`
	Reference string `json:"reference,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Gateway is the external card processor. Implementations must return a
// declined ChargeResult for expected declines and reserve errors for
// transport-level failures.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// SimulatedGateway stands in for a real processor. It waits a configurable
// latency and declines a configurable fraction of charges. The roll function
// is injectable so tests stay deterministic.
type SimulatedGateway struct {
	declineRate float64
	latency     time.Duration
	roll        func() float64
}

// NewSimulatedGateway creates a gateway declining declineRate of charges
func NewSimulatedGateway(declineRate float64, latency time.Duration) *SimulatedGateway {
	return &SimulatedGateway{
		declineRate: declineRate,
		latency:     latency,
		roll:        rand.Float64,
	}
}

// WithRoll overrides the random source, for tests
func (g *SimulatedGateway) WithRoll(roll func() float64) *SimulatedGateway {
	g.roll = roll
	return g
}

// Charge simulates one gateway round trip
func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if g.latency > 0 {
		timer := time.NewTimer(g.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ChargeResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	if g.roll() < g.declineRate {
		log.Printf("[PAYMENT] Simulated decline: method=%s amount=%.2f", req.Method, req.Amount)
		return ChargeResult{Approved: false, Reason: "card declined by issuer"}, nil
	}

	return ChargeResult{
		Approved:  true,
		Reference: time.Now().UTC().Format("20060102150405.000000"),
	}, nil
}
