package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// DecodeJSON decodes a single JSON object from body into v. Unknown fields
// are rejected. v may carry defaults; fields absent from the body keep them.
func DecodeJSON(body io.Reader, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain a single JSON object")
	}
	return nil
}

func ValidationDetails(errs validator.ValidationErrors) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	details := make(map[string]string, len(errs))
	for _, err := range errs {
		details[err.Field()] = err.Tag()
	}
	return details
}

// QueryList reads a list parameter given either repeated (?k=a&k=b) or
// comma separated (?k=a,b). Blank entries are dropped.
func QueryList(values url.Values, key string) []string {
	raw := values[key]
	if len(raw) == 0 {
		return nil
	}
	var out []string
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
