package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorHints(t *testing.T) {
	t.Run("next and fallback steps are read from detail", func(t *testing.T) {
		err := NewAPIError(KindClientError, &ErrorDetail{
			NextStep:     StepPtr(StepBankIDFourthline),
			FallbackStep: StepPtr(StepFourthline),
		})

		next, ok := err.NextStep()
		require.True(t, ok)
		assert.Equal(t, StepBankIDFourthline, next)

		fallback, ok := err.FallbackStep()
		require.True(t, ok)
		assert.Equal(t, StepFourthline, fallback)
	})

	t.Run("unspecified hints are ignored", func(t *testing.T) {
		err := NewAPIError(KindClientError, &ErrorDetail{NextStep: StepPtr(StepUnspecified)})
		_, ok := err.NextStep()
		assert.False(t, ok)
		_, ok = err.FallbackStep()
		assert.False(t, ok)
	})
}

func TestAPIErrorMatching(t *testing.T) {
	wrapped := fmt.Errorf("bank flow: %w", UnsupportedResponse())

	assert.True(t, errors.Is(wrapped, ErrUnsupportedResponse))
	assert.False(t, errors.Is(wrapped, ErrIdentificationNotPossible))
	assert.Equal(t, KindUnsupportedResponse, KindOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("socket closed")))
	assert.Nil(t, AsAPIError(nil))
}

func TestModulesNotFoundMessage(t *testing.T) {
	err := ModulesNotFound([]string{"fourthline", "qes"})
	assert.Equal(t, "modules_not_found [fourthline qes]", err.Error())
}

func TestKindForStatus(t *testing.T) {
	cases := map[int]ErrorKind{
		400: KindBadRequest,
		401: KindUnauthorized,
		403: KindForbidden,
		404: KindNotFound,
		409: KindConflict,
		412: KindPreconditionFailed,
		422: KindUnprocessableEntity,
		500: KindServerError,
		503: KindServerError,
		418: KindUnknown,
	}
	for status, kind := range cases {
		assert.Equal(t, kind, KindForStatus(status), "status %d", status)
	}
}

func TestParseIdentificationStep(t *testing.T) {
	assert.Equal(t, StepBankIDIBAN, ParseIdentificationStep("bank_id/iban"))
	assert.Equal(t, StepUnspecified, ParseIdentificationStep("video_ident"))
	assert.True(t, StepBankQES.IsQESStep())
	assert.True(t, StepBankQES.IsBankStep())
	assert.True(t, StepFourthlineSigning.IsFourthlineStep())
	assert.False(t, StepPartnerFallback.IsBankStep())
	assert.Equal(t, "unspecified", StepUnspecified.String())
}

func TestRequiredScanSteps(t *testing.T) {
	assert.Len(t, DocumentPassport.RequiredScanSteps(), 2)
	steps := DocumentIDCard.RequiredScanSteps()
	require.Len(t, steps, 4)
	assert.Equal(t, "back_angled", steps[3].Key())
	assert.Nil(t, DocumentType("library_card").RequiredScanSteps())
}
