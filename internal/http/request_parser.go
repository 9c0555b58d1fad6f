// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing request bodies. Handlers accept
// both JSON (API clients) and form-encoded data (HTMX forms) through the same
// parser, so the entity builders below only deal with string values.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budgetboard/internal/core"
)

// errMalformedBody is returned for bodies that are neither JSON nor form data.
var errMalformedBody = errors.New("malformed request body")

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(r.Body)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(strings.TrimSpace(string(p.body))) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = errMalformedBody
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	if p.err != nil {
		p.err = errMalformedBody
	}
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetInt64 returns key as an integer, 0 when missing or malformed.
func (p *RequestBodyParser) GetInt64(key string) int64 {
	v, err := strconv.ParseInt(p.Get(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// GetMoney parses key as an amount. A missing amount yields zero, which
// entity validation rejects.
func (p *RequestBodyParser) GetMoney(key string) (core.Money, error) {
	s := p.Get(key)
	if s == "" {
		return core.Money{}, nil
	}
	return core.ParseMoney(s)
}

func (p *RequestBodyParser) GetDate(key string) (core.Date, error) {
	return core.ParseDate(p.Get(key))
}

// GetRaw returns the raw body bytes.
func (p *RequestBodyParser) GetRaw() []byte {
	return p.body
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseBody reads and parses the request body, replying 400 on failure.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, errMalformedBody.Error())
		return nil, false
	}
	return p, true
}

func projectFromBody(p *RequestBodyParser) core.Project {
	return core.Project{Name: p.Get("name")}
}

func managerFromBody(p *RequestBodyParser) core.Manager {
	return core.Manager{Name: p.Get("name")}
}

func categoryFromBody(p *RequestBodyParser) core.Category {
	return core.Category{Name: p.Get("name"), Color: p.Get("color")}
}

func budgetFromBody(p *RequestBodyParser) (core.Budget, error) {
	amount, err := p.GetMoney("totalamount")
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		Name:        p.Get("name"),
		TotalAmount: amount,
		ProjectID:   p.GetInt64("projectid"),
		CategoryID:  p.GetInt64("categoryid"),
	}, nil
}

func expenseFromBody(p *RequestBodyParser) (core.Expense, error) {
	amount, err := p.GetMoney("amount")
	if err != nil {
		return core.Expense{}, err
	}
	date, err := p.GetDate("date")
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		Amount:      amount,
		Description: p.Get("description"),
		Date:        date,
		BudgetID:    p.GetInt64("budgetid"),
		CategoryID:  p.GetInt64("categoryid"),
	}, nil
}
