package domain_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/nikolayk812/ecart-demo/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPartialFailureError(t *testing.T) {
	cause := errors.Join(domain.ErrCommitUnknown, errors.New("conn reset"))
	err := error(&domain.PartialFailureError{
		OrderID:      uuid.New(),
		ClearOutcome: domain.ClearOutcomeUnknown,
		Err:          cause,
	})

	assert.ErrorIs(t, err, domain.ErrPartialFailure)
	assert.ErrorIs(t, err, domain.ErrCommitUnknown)
	assert.NotErrorIs(t, err, domain.ErrDataUnavailable)

	var pf *domain.PartialFailureError
	assert.True(t, errors.As(err, &pf))
	assert.Equal(t, domain.ClearOutcomeUnknown, pf.ClearOutcome)
}
