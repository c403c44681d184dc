package common

import (
	"ets/src/db"
	"ets/src/models"
	"ets/src/types"
	"math"
	"time"
)

type EventCandidate struct {
	EventID  uint    `json:"event_id"`
	Title    string  `json:"title"`
	Qty      uint    `json:"qty"`
	Residual float64 `json:"residual"`
}

// MatchEventsByAmount ranks published upcoming events whose unit price
// divides the amount cleanly. Amount-based guessing is inherently ambiguous,
// so candidates only ever feed the manual-review queue and never a booking
// against capacity-limited inventory.
func MatchEventsByAmount(amount float64, now time.Time) ([]EventCandidate, error) {
	d := db.GetDb()
	var events []models.Event
	err := d.
		Model(&models.Event{}).
		Where("status = ?", types.EVENT_PUBLISHED).
		Where("date_time > ?", now).
		Order("date_time asc").
		Limit(50).
		Find(&events).
		Error
	if err != nil {
		return nil, err
	}

	candidates := []EventCandidate{}
	for _, e := range events {
		qty, err := InferQuantity(amount, e.UnitPrice)
		if err != nil {
			continue
		}
		candidates = append(candidates, EventCandidate{
			EventID:  e.ID,
			Title:    e.Title,
			Qty:      qty,
			Residual: math.Abs(amount - float64(qty)*e.UnitPrice),
		})
	}
	return candidates, nil
}

// FlagUnmatchedPayment records a payment whose event could not be determined,
// together with the matcher's ranked candidates, for operator review.
func FlagUnmatchedPayment(txnID string, orderID string, amount float64, candidates []EventCandidate) error {
	d := db.GetDb()
	ranked := make([]any, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, map[string]any{
			"event_id": c.EventID,
			"title":    c.Title,
			"qty":      c.Qty,
			"residual": c.Residual,
		})
	}
	flag := models.ReviewFlag{
		Kind: types.FLAG_UNMATCHED_PAYMENT,
		Details: types.JSONB{
			"txn_id":     txnID,
			"order_id":   orderID,
			"amount":     amount,
			"candidates": ranked,
		},
	}
	return d.Create(&flag).Error
}
