package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrValidation marks user input the console refuses to forward.
var ErrValidation = errors.New("validation failed")

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every invalid field of one submission.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ValidatePercentage checks that p lies in 0..100.
func ValidatePercentage(field string, p float64) error {
	if p < 0 || p > 100 {
		return &ValidationError{Fields: []FieldError{{Field: field, Message: fmt.Sprintf("must be between 0 and 100, got %g", p)}}}
	}
	return nil
}

// percentageSuffixes name the requirement keys holding percentages.
var percentageSuffixes = []string{"_ratio", "_percentage", "_percent", "_rate"}

// Validate checks a campaign before it is submitted: title present,
// positive budget and target count, parseable dates in order, and any
// percentage inside requirements within 0..100.
func (c Campaign) Validate(loc *time.Location) error {
	v := &ValidationError{}
	if strings.TrimSpace(c.Title) == "" {
		v.add("title", "required")
	}
	if c.Budget <= 0 {
		v.add("budget", "must be greater than 0")
	}
	if c.TargetCount <= 0 {
		v.add("target_count", "must be greater than 0")
	}

	start, startErr := ParseDate(c.StartDate, loc)
	if startErr != nil {
		v.add("start_date", "invalid date")
	}
	end, endErr := ParseDate(c.EndDate, loc)
	if endErr != nil {
		v.add("end_date", "invalid date")
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		v.add("end_date", "must not be before start_date")
	}

	if len(c.Requirements) > 0 {
		var req any
		if err := json.Unmarshal(c.Requirements, &req); err != nil {
			v.add("requirements", "must be a JSON document")
		} else {
			checkPercentages(v, "requirements", req)
		}
	}
	return v.orNil()
}

func checkPercentages(v *ValidationError, path string, node any) {
	switch n := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p := path + "." + k
			if f, ok := n[k].(float64); ok && isPercentageKey(k) {
				if f < 0 || f > 100 {
					v.add(p, fmt.Sprintf("must be between 0 and 100, got %g", f))
				}
				continue
			}
			checkPercentages(v, p, n[k])
		}
	case []any:
		for i, item := range n {
			checkPercentages(v, fmt.Sprintf("%s[%d]", path, i), item)
		}
	}
}

func isPercentageKey(k string) bool {
	k = strings.ToLower(k)
	for _, s := range percentageSuffixes {
		if strings.HasSuffix(k, s) {
			return true
		}
	}
	return false
}
