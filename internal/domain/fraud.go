package domain

import "context"

type FraudStatus string

const (
	FraudUnknown        FraudStatus = "UNKNOWN"
	FraudRejected       FraudStatus = "REJECTED"
	FraudApproved       FraudStatus = "APPROVED"
	FraudStepUpLevel1   FraudStatus = "STEP_UP_LEVEL1"
	FraudStepUpLevel2   FraudStatus = "STEP_UP_LEVEL2"
	FraudStepUpLevel3   FraudStatus = "STEP_UP_LEVEL3"
	FraudStepUpLevel4   FraudStatus = "STEP_UP_LEVEL4"
	FraudManualApproval FraudStatus = "MANUAL_APPROVAL"
)

// IsStepUp reports whether the status requires an elevated approval
// challenge before the transaction can proceed.
func (s FraudStatus) IsStepUp() bool {
	switch s {
	case FraudStepUpLevel1, FraudStepUpLevel2, FraudStepUpLevel3, FraudStepUpLevel4:
		return true
	}
	return false
}

// FraudService risk-scores a transaction exactly once: it fails when the
// transaction's fraud status is already set away from UNKNOWN.
type FraudService interface {
	DetermineFraudStatus(ctx context.Context, tx *Transaction) (FraudStatus, error)
}
