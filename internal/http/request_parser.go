// Package http provides the JSON API server and its handlers.
//
// This file implements request decoding: JSON bodies checked with struct
// tags, path periods, list filters and pagination.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"fintrack/internal/core"
)

const (
	maxBodyBytes = 64 << 10
	defaultLimit = 50
	maxLimit     = 200
)

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// decodeJSON reads a single JSON object into dst and validates its tags.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, core.ErrValidation) {
			return err
		}
		return fmt.Errorf("%w: malformed JSON body: %v", core.ErrValidation, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", core.ErrValidation)
	}
	return s.validate.Struct(dst)
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. Calendar dates
// are read in loc.
func parseDate(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, core.ErrInvalidDate
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD or RFC 3339", core.ErrValidation, v)
	}
	return t, nil
}

func parseOptionalDate(v *string, loc *time.Location) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	t, err := parseDate(*v, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func atoi(name, v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", core.ErrValidation, name)
	}
	return n, nil
}

// pathPeriod reads {year} and {month} from the route.
func pathPeriod(r *http.Request) (core.Period, error) {
	year, err := atoi("year", r.PathValue("year"))
	if err != nil {
		return core.Period{}, err
	}
	month, err := atoi("month", r.PathValue("month"))
	if err != nil {
		return core.Period{}, err
	}
	return core.NewPeriod(month, year)
}

// queryPeriod reads the optional month and year query parameters. Both or
// neither must be present.
func queryPeriod(q url.Values) (*core.Period, error) {
	mv, yv := strings.TrimSpace(q.Get("month")), strings.TrimSpace(q.Get("year"))
	if mv == "" && yv == "" {
		return nil, nil
	}
	if mv == "" || yv == "" {
		return nil, fmt.Errorf("%w: month and year must be given together", core.ErrValidation)
	}
	month, err := atoi("month", mv)
	if err != nil {
		return nil, err
	}
	year, err := atoi("year", yv)
	if err != nil {
		return nil, err
	}
	p, err := core.NewPeriod(month, year)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Pagination is the page/limit pair of list endpoints; pages start at 1.
type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

func parsePagination(q url.Values) (Pagination, error) {
	p := Pagination{Page: 1, Limit: defaultLimit}
	if v := q.Get("page"); v != "" {
		n, err := atoi("page", v)
		if err != nil {
			return p, err
		}
		if n < 1 {
			return p, fmt.Errorf("%w: page must be at least 1", core.ErrValidation)
		}
		p.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := atoi("limit", v)
		if err != nil {
			return p, err
		}
		if n < 1 || n > maxLimit {
			return p, fmt.Errorf("%w: limit must be between 1 and %d", core.ErrValidation, maxLimit)
		}
		p.Limit = n
	}
	return p, nil
}

// parseListFilter builds the income/expense filter from the query string.
func parseListFilter(userID string, q url.Values) (core.ListFilter, Pagination, error) {
	page, err := parsePagination(q)
	if err != nil {
		return core.ListFilter{}, page, err
	}
	f := core.ListFilter{
		UserID:     userID,
		CustomerID: strings.TrimSpace(q.Get("customer")),
		Limit:      page.Limit,
		Offset:     page.Offset(),
	}
	p, err := queryPeriod(q)
	if err != nil {
		return core.ListFilter{}, page, err
	}
	if p != nil {
		f = f.InPeriod(*p)
	}
	return f, page, nil
}
