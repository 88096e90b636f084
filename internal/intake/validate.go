package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"leadintake/pkg/domain"
	"leadintake/pkg/serrors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// Validation messages returned to the caller.
const (
	MsgMissingFields     = "Missing required fields"
	MsgInvalidCharacters = "Invalid characters"
	MsgInvalidEmail      = "Invalid email"
)

const (
	emailTag      = "leademail"
	singleLineTag = "singleline"
)

var reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ErrTranslatorNotFound indicates the English translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// FieldErrors maps the json name of every invalid field to a readable message.
type FieldErrors map[string]string

// Error implements the error interface.
func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(map[string]string(fe))
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}

	return string(b)
}

// Validator checks required fields and the email format of a submission.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator constructs a Validator with English messages. The email format
// is only checked when checkEmail is set; presence is always required.
func NewValidator(checkEmail bool) (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	enTrans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, fmt.Errorf("could not register translations: %w", err)
	}

	// control characters are rejected whatever the email policy, the fields
	// end up in mail headers
	custom := []struct {
		tag, text string
		fn        validator.Func
	}{
		{
			tag:  singleLineTag,
			text: "{0} must not contain control characters",
			fn: func(fl validator.FieldLevel) bool {
				return strings.IndexFunc(fl.Field().String(), unicode.IsControl) < 0
			},
		},
		{
			tag:  emailTag,
			text: "{0} must be a valid email address",
			fn: func(fl validator.FieldLevel) bool {
				return !checkEmail || reEmail.MatchString(fl.Field().String())
			},
		},
	}
	for _, c := range custom {
		if err := validate.RegisterValidation(c.tag, c.fn); err != nil {
			return nil, fmt.Errorf("could not register %s validation: %w", c.tag, err)
		}
		if err := validate.RegisterTranslation(c.tag, enTrans,
			func(ut ut.Translator) error {
				return ut.Add(c.tag, c.text, false)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T(fe.Tag(), fe.Field())

				return t
			},
		); err != nil {
			return nil, fmt.Errorf("could not register %s translation: %w", c.tag, err)
		}
	}

	return &Validator{
		validate:   validate,
		translator: enTrans,
	}, nil
}

// Validate returns sub with all strings trimmed, or an ErrValidation error
// wrapping FieldErrors. Missing fields take precedence over control
// characters, which take precedence over a bad email.
func (v *Validator) Validate(sub domain.Submission) (domain.Submission, error) {
	sub = trim(sub)

	err := v.validate.Struct(sub)
	if err == nil {
		return sub, nil
	}

	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return sub, fmt.Errorf("could not validate submission: %w", err)
	}

	msg := MsgInvalidEmail
	fields := make(FieldErrors, len(validateErrs))
	for _, fe := range validateErrs {
		fields[fe.Field()] = fe.Translate(v.translator)
		switch {
		case fe.Tag() == "required":
			msg = MsgMissingFields
		case fe.Tag() == singleLineTag && msg != MsgMissingFields:
			msg = MsgInvalidCharacters
		}
	}

	return sub, serrors.Wrap(serrors.ErrValidation, fields, msg)
}

func trim(sub domain.Submission) domain.Submission {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Company = strings.TrimSpace(sub.Company)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Profile = strings.TrimSpace(sub.Profile)

	if sub.Answers != nil {
		answers := make(domain.Answers, 0, len(sub.Answers))
		for _, a := range sub.Answers {
			answers.Set(strings.TrimSpace(a.Key), strings.TrimSpace(a.Value))
		}
		sub.Answers = answers
	}

	return sub
}
