package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/eventflow/payment-engine/billing"
)

// Policies are stored as JSON columns. They are validated at plan-creation
// time (factory), so decoding here trusts the stored shape.

func encodePolicies(plan *billing.PaymentPlan) (string, any, error) {
	discountJSON, err := json.Marshal(plan.DiscountPolicy)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode discount policy: %w", err)
	}

	var lateFeeJSON any
	if plan.LateFeePolicy != nil {
		b, err := json.Marshal(plan.LateFeePolicy)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode late fee policy: %w", err)
		}
		lateFeeJSON = string(b)
	}
	return string(discountJSON), lateFeeJSON, nil
}

func decodePolicies(plan *billing.PaymentPlan, discountJSON, lateFeeJSON string) error {
	if discountJSON != "" {
		if err := json.Unmarshal([]byte(discountJSON), &plan.DiscountPolicy); err != nil {
			return fmt.Errorf("failed to decode discount policy: %w", err)
		}
	}
	if lateFeeJSON != "" {
		var policy billing.LateFeePolicy
		if err := json.Unmarshal([]byte(lateFeeJSON), &policy); err != nil {
			return fmt.Errorf("failed to decode late fee policy: %w", err)
		}
		plan.LateFeePolicy = &policy
	}
	return nil
}
