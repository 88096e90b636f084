package serrors_test

import (
	"errors"
	"fmt"
	"leadintake/pkg/serrors"
	"testing"

	"github.com/stretchr/testify/require"
)

type customError struct{ msg string }

func (e customError) Error() string { return e.msg }

func TestDefaultKindsDistinct(t *testing.T) {
	kinds := []serrors.Kind{
		serrors.ErrValidation,
		serrors.ErrConfiguration,
		serrors.ErrDelivery,
		serrors.ErrTimeout,
		serrors.ErrInternal,
	}
	seen := map[serrors.Kind]bool{}
	for i, k := range kinds {
		require.NotNil(t, k, "kind at index %d is nil", i)
		require.False(t, seen[k], "kind at index %d is duplicate: %v", i, k)
		seen[k] = true
	}
}

func TestErrorFormatting(t *testing.T) {
	base := errors.New("535 authentication failed")

	e1 := serrors.With(serrors.ErrValidation, "Missing required fields")
	require.Equal(t, "Missing required fields", e1.Error())

	e2 := serrors.Wrap(serrors.ErrDelivery, base, "could not send mail")
	require.Equal(t, "could not send mail: 535 authentication failed", e2.Error())

	e3 := serrors.KindOnly(serrors.ErrTimeout)
	require.Equal(t, "TIMEOUT", e3.Error())

	e4 := serrors.Wrap(serrors.ErrDelivery, base, "")
	require.Equal(t, "535 authentication failed", e4.Error(), "upstream text should pass through verbatim")
}

func TestIsMatchesKindAndWrapped(t *testing.T) {
	base := customError{"root cause"}
	e := serrors.Wrap(serrors.ErrDelivery, base, "posting page")

	require.ErrorIs(t, e, serrors.ErrDelivery)
	require.ErrorIs(t, e, base)
	require.NotErrorIs(t, e, serrors.ErrValidation)
}

func TestAsMatchesKindAndWrapped(t *testing.T) {
	base := &customError{"root cause"}
	e := serrors.Wrap(serrors.ErrConfiguration, base, "reading")

	var k serrors.Kind
	require.ErrorAs(t, e, &k)
	require.Equal(t, serrors.ErrConfiguration, k)

	var ce *customError
	require.ErrorAs(t, e, &ce)
	require.Equal(t, base, ce)
}

func TestAccessors(t *testing.T) {
	base := errors.New("boom")
	e := serrors.Wrap(serrors.ErrDelivery, base, "no luck")
	require.Equal(t, serrors.ErrDelivery, e.Kind())
	require.Equal(t, "no luck", e.Message())
	require.Equal(t, base, e.Cause())
}

func TestKindOf(t *testing.T) {
	require.Nil(t, serrors.KindOf(nil))
	require.Equal(t, serrors.ErrInternal, serrors.KindOf(errors.New("plain")))
	require.Equal(t, serrors.ErrTimeout, serrors.KindOf(serrors.ErrTimeout))

	wrapped := fmt.Errorf("outer: %w", serrors.With(serrors.ErrValidation, "Invalid email"))
	require.Equal(t, serrors.ErrValidation, serrors.KindOf(wrapped))
}

func TestMessageOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", serrors.With(serrors.ErrValidation, "Invalid email"))
	require.Equal(t, "Invalid email", serrors.MessageOf(wrapped, "fallback"))
	require.Equal(t, "fallback", serrors.MessageOf(errors.New("plain"), "fallback"))
	require.Equal(t, "fallback", serrors.MessageOf(serrors.KindOnly(serrors.ErrInternal), "fallback"))
}
