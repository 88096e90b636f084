package leadhandler

import (
	"bytes"
	"errors"
	"fmt"
	"leadintake/pkg/domain"
	"strconv"

	"github.com/go-faster/jx"
)

var errNotObject = errors.New("request body is not a JSON object")

// decodeSubmission reads a submission from a JSON object. An empty body is
// an empty submission. Answers keep the order of the object keys; duplicate
// keys keep their first position with the last value.
func decodeSubmission(body []byte) (domain.Submission, error) {
	var sub domain.Submission

	if len(bytes.TrimSpace(body)) == 0 {
		return sub, nil
	}
	if !jx.Valid(body) {
		return sub, errNotObject
	}

	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return sub, errNotObject
	}

	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "name":
			sub.Name, err = scalar(d)
		case "company":
			sub.Company, err = scalar(d)
		case "email":
			sub.Email, err = scalar(d)
		case "profile":
			sub.Profile, err = scalar(d)
		case "answers":
			sub.Answers, err = answers(d)
		default:
			err = d.Skip()
		}

		return err
	}); err != nil {
		return sub, fmt.Errorf("could not decode submission: %w", err)
	}

	return sub, nil
}

// answers accepts an object or null; anything else is rejected.
func answers(d *jx.Decoder) (domain.Answers, error) {
	switch d.Next() {
	case jx.Object:
	case jx.Null:
		return nil, d.Null() //nolint: wrapcheck
	default:
		return nil, errNotObject
	}

	out := domain.Answers{}
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		v, err := scalar(d)
		if err != nil {
			return err
		}
		out.Set(string(key), v)

		return nil
	})

	return out, err //nolint: wrapcheck
}

// scalar returns strings as is, null as empty string and any other value as
// its JSON text.
func scalar(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str() //nolint: wrapcheck
	case jx.Null:
		return "", d.Null() //nolint: wrapcheck
	case jx.Bool:
		b, err := d.Bool()

		return strconv.FormatBool(b), err //nolint: wrapcheck
	case jx.Number:
		n, err := d.Num()

		return n.String(), err //nolint: wrapcheck
	default:
		raw, err := d.Raw()

		return raw.String(), err //nolint: wrapcheck
	}
}
