package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-transaction-manager/internal/domain"
	"payment-transaction-manager/internal/errors"
)

func TestReserveAmountFailed_RevertsFeeAndFails(t *testing.T) {
	repo := newFakeRepo()
	fees := &fakeFees{}
	events := &recordingEvents{}
	uc := NewReserveAmountFailed(repo, events, fees, testLogger())

	tx := pendingTransaction(domain.StatusPending)
	repo.put(tx)

	err := uc.Invoke(context.Background(), &domain.ReserveTransactionRequest{
		TransactionID: tx.ID,
		PostingID:     uuid.New(),
	})
	require.NoError(t, err)

	stored := repo.stored(tx.ID)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.True(t, stored.CustomerFee.IsZero())
	assert.True(t, stored.VendorFee.IsZero())
	assert.Equal(t, domain.PostingFailed, stored.PostingDetails.Status)

	// The original fee was reverted exactly once.
	require.Len(t, fees.reverted, 1)
	assert.Equal(t, "fee-1", fees.reverted[0].ID)
	assert.Equal(t, []string{"failed"}, events.names())
}

func TestReserveAmountFailed_RevertFailureLeavesTransactionUntouched(t *testing.T) {
	repo := newFakeRepo()
	fees := &fakeFees{revertErr: errCollaboratorDown}
	events := &recordingEvents{}
	uc := NewReserveAmountFailed(repo, events, fees, testLogger())

	tx := pendingTransaction(domain.StatusPending)
	repo.put(tx)

	err := uc.Invoke(context.Background(), &domain.ReserveTransactionRequest{
		TransactionID: tx.ID,
		PostingID:     uuid.New(),
	})
	assert.ErrorIs(t, err, errCollaboratorDown)

	stored := repo.stored(tx.ID)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Equal(t, "fee-1", stored.CustomerFee.ID)
	assert.Empty(t, events.names())
}

func TestReserveAmountFailed_WrongStatus(t *testing.T) {
	repo := newFakeRepo()
	uc := NewReserveAmountFailed(repo, &recordingEvents{}, &fakeFees{}, testLogger())

	tx := pendingTransaction(domain.StatusFailed)
	repo.put(tx)

	err := uc.Invoke(context.Background(), &domain.ReserveTransactionRequest{
		TransactionID: tx.ID,
		PostingID:     uuid.New(),
	})

	var validation *errors.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{
		"Transaction (" + tx.ID.String() + ") Status should be pending",
	}, validation.Violations)
}

func TestReserveAmountFailed_BothViolationsReported(t *testing.T) {
	repo := newFakeRepo()
	uc := NewReserveAmountFailed(repo, &recordingEvents{}, &fakeFees{}, testLogger())

	tx := pendingTransaction(domain.StatusFailed)
	tx.PostingDetails = nil
	repo.put(tx)

	err := uc.Invoke(context.Background(), &domain.ReserveTransactionRequest{
		TransactionID: tx.ID,
		PostingID:     uuid.New(),
	})

	var validation *errors.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{
		"Transaction (" + tx.ID.String() + ") Status should be pending",
		"Transaction (" + tx.ID.String() + ") posting details should not be null",
	}, validation.Violations)
}
