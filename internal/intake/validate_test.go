package intake_test

import (
	"errors"
	"leadintake/internal/intake"
	"leadintake/pkg/domain"
	"leadintake/pkg/serrors"
	"testing"

	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T, checkEmail bool) *intake.Validator {
	t.Helper()

	v, err := intake.NewValidator(checkEmail)
	require.NoError(t, err)

	return v
}

func TestValidator_Validate_trims(t *testing.T) {
	var answers domain.Answers
	answers.Set(" q1_invest ", " yes ")

	got, err := newValidator(t, true).Validate(domain.Submission{
		Name:    "  Ann ",
		Company: "\tAcme\n",
		Email:   " ann@acme.com ",
		Profile: " CTO ",
		Answers: answers,
	})
	require.NoError(t, err)

	require.Equal(t, "Ann", got.Name)
	require.Equal(t, "Acme", got.Company)
	require.Equal(t, "ann@acme.com", got.Email)
	require.Equal(t, "CTO", got.Profile)
	require.Equal(t, domain.Answers{{Key: "q1_invest", Value: "yes"}}, got.Answers)
}

func TestValidator_Validate_missingFields(t *testing.T) {
	for name, sub := range map[string]domain.Submission{
		"all empty":       {},
		"blank name":      {Name: "   ", Company: "Acme", Email: "ann@acme.com"},
		"missing company": {Name: "Ann", Email: "ann@acme.com"},
		"missing email":   {Name: "Ann", Company: "Acme"},
		"missing and bad": {Company: "Acme", Email: "not-an-email"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := newValidator(t, true).Validate(sub)
			require.ErrorIs(t, err, serrors.ErrValidation)
			require.Equal(t, intake.MsgMissingFields, serrors.MessageOf(err, ""))
		})
	}
}

func TestValidator_Validate_fieldErrors(t *testing.T) {
	_, err := newValidator(t, true).Validate(domain.Submission{Email: "ann@acme.com"})

	var fields intake.FieldErrors
	require.True(t, errors.As(err, &fields))
	require.Equal(t, intake.FieldErrors{
		"name":    "name is a required field",
		"company": "company is a required field",
	}, fields)
}

func TestValidator_Validate_email(t *testing.T) {
	v := newValidator(t, true)

	for _, email := range []string{"ann", "ann@acme", "ann @acme.com", "@acme.com", "ann@.com x"} {
		_, err := v.Validate(domain.Submission{Name: "Ann", Company: "Acme", Email: email})
		require.ErrorIs(t, err, serrors.ErrValidation, email)
		require.Equal(t, intake.MsgInvalidEmail, serrors.MessageOf(err, ""), email)

		var fields intake.FieldErrors
		require.True(t, errors.As(err, &fields))
		require.Equal(t, "email must be a valid email address", fields["email"])
	}

	for _, email := range []string{"ann@acme.com", "a.b+c@sub.acme.co.uk"} {
		_, err := v.Validate(domain.Submission{Name: "Ann", Company: "Acme", Email: email})
		require.NoError(t, err, email)
	}
}

func TestValidator_Validate_emailPolicyOff(t *testing.T) {
	v := newValidator(t, false)

	_, err := v.Validate(domain.Submission{Name: "Ann", Company: "Acme", Email: "ann"})
	require.NoError(t, err)

	_, err = v.Validate(domain.Submission{Name: "Ann", Company: "Acme"})
	require.ErrorIs(t, err, serrors.ErrValidation, "presence is still required")
}

func TestValidator_Validate_controlCharacters(t *testing.T) {
	for _, checkEmail := range []bool{true, false} {
		v := newValidator(t, checkEmail)

		for name, sub := range map[string]domain.Submission{
			"email":   {Name: "Ann", Company: "Acme", Email: "a@b.c\r\nX-Injected: yes"},
			"name":    {Name: "Ann\nBcc: x@y.z", Company: "Acme", Email: "ann@acme.com"},
			"company": {Name: "Ann", Company: "Acme\x00", Email: "ann@acme.com"},
			"profile": {Name: "Ann", Company: "Acme", Email: "ann@acme.com", Profile: "CTO\rx"},
		} {
			_, err := v.Validate(sub)
			require.ErrorIs(t, err, serrors.ErrValidation, name)
			require.Equal(t, intake.MsgInvalidCharacters, serrors.MessageOf(err, ""), name)

			var fields intake.FieldErrors
			require.True(t, errors.As(err, &fields))
			require.Equal(t, name+" must not contain control characters", fields[name])
		}
	}

	// missing fields win over bad characters
	_, err := newValidator(t, true).Validate(domain.Submission{Company: "Acme\n1", Email: "ann@acme.com"})
	require.Equal(t, intake.MsgMissingFields, serrors.MessageOf(err, ""))

	// surrounding whitespace is trimmed, not rejected
	_, err = newValidator(t, true).Validate(domain.Submission{Name: "Ann\n", Company: "\tAcme", Email: "ann@acme.com\r\n"})
	require.NoError(t, err)
}
