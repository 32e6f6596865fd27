package booking

import "fmt"

// CancellationDeductionPercent is the share of the price kept on cancellation.
const CancellationDeductionPercent = 20

// RefundQuote is the money split computed for a cancellation.
type RefundQuote struct {
	Price     int64 `json:"price"`
	Deduction int64 `json:"deduction"`
	Refund    int64 `json:"refund"`
}

// CancellationPolicy computes the refund for a booking price.
type CancellationPolicy interface {
	Quote(price int64) (RefundQuote, error)
}

// StandardCancellationPolicy keeps a flat percentage of the price.
type StandardCancellationPolicy struct{}

// NewStandardCancellationPolicy creates a new StandardCancellationPolicy.
func NewStandardCancellationPolicy() *StandardCancellationPolicy {
	return &StandardCancellationPolicy{}
}

// Quote returns deduction = floor(price * 20%) and refund = price - deduction.
func (p *StandardCancellationPolicy) Quote(price int64) (RefundQuote, error) {
	if price < 0 {
		return RefundQuote{}, fmt.Errorf("price cannot be negative")
	}
	deduction := price * CancellationDeductionPercent / 100
	return RefundQuote{
		Price:     price,
		Deduction: deduction,
		Refund:    price - deduction,
	}, nil
}
