package ingesthttp

import (
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"tradelog/internal/pkg/convert"
)

var errBadBody = errors.New("request body is neither JSON nor form encoded")

// fields reads string values out of a request body without trusting the
// Content-Type header. Terminal clients post form bodies labelled as
// JSON and vice versa, so the body bytes decide: valid JSON goes
// through gjson, anything else is tried as a form, and the query string
// fills remaining gaps.
type fields struct {
	json  gjson.Result
	form  url.Values
	query url.Values
}

func parseFields(c *gin.Context) (fields, error) {
	f := fields{query: c.Request.URL.Query()}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return fields{}, err
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return f, nil
	}
	if gjson.Valid(trimmed) && (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) {
		f.json = gjson.Parse(trimmed)
		return f, nil
	}
	form, err := url.ParseQuery(trimmed)
	if err != nil {
		return fields{}, errBadBody
	}
	f.form = form
	return f, nil
}

// Get returns the first non-empty value for any of the given keys.
func (f fields) Get(keys ...string) string {
	for _, key := range keys {
		if f.json.Exists() {
			if v := f.json.Get(key); v.Exists() {
				if s := strings.TrimSpace(v.String()); s != "" {
					return s
				}
			}
		}
		if v := strings.TrimSpace(f.form.Get(key)); v != "" {
			return v
		}
		if v := strings.TrimSpace(f.query.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

// GetFloat parses a numeric field, tolerating comma decimals and
// thousands separators.
func (f fields) GetFloat(keys ...string) float64 {
	return convert.Parse(f.Get(keys...))
}

// normalizePrice maps the colon decimal separator some terminals emit
// onto a dot. Prices are otherwise recorded as received.
func normalizePrice(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ":", ".")
}
