package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// listKeys are the envelope keys list endpoints wrap their records in.
var listKeys = []string{"items", "campaigns", "data", "partners", "agencies", "customers", "notifications", "settlements", "payments", "records"}

// Meta is the pagination metadata some list endpoints return.
type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Page is a normalized list response.
type Page struct {
	Items []json.RawMessage
	// Meta is nil when the backend returned no pagination metadata.
	Meta *Meta
}

// Normalize accepts a bare array or an object wrapping the array under one of
// the known envelope keys, possibly nested one level inside "data".
func Normalize(raw json.RawMessage) (Page, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Page{}, nil
	}
	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return Page{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Page{Items: items}, nil
	case '{':
		return normalizeObject(raw, 0)
	default:
		return Page{}, fmt.Errorf("%w: expected array or object", ErrMalformed)
	}
}

func normalizeObject(raw json.RawMessage, depth int) (Page, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	meta := metaFrom(obj)
	for _, key := range listKeys {
		v, ok := obj[key]
		if !ok {
			continue
		}
		v = bytes.TrimSpace(v)
		if len(v) == 0 || bytes.Equal(v, []byte("null")) {
			return Page{Meta: meta}, nil
		}
		switch v[0] {
		case '[':
			var items []json.RawMessage
			if err := json.Unmarshal(v, &items); err != nil {
				return Page{}, fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
			}
			return Page{Items: items, Meta: meta}, nil
		case '{':
			if depth > 0 {
				continue
			}
			p, err := normalizeObject(v, depth+1)
			if err != nil {
				return Page{}, err
			}
			if p.Meta == nil {
				p.Meta = meta
			}
			return p, nil
		}
	}
	return Page{}, fmt.Errorf("%w: no list field in response", ErrMalformed)
}

// metaFrom reads pagination either from the top level or a "pagination" object.
func metaFrom(obj map[string]json.RawMessage) *Meta {
	if p, ok := obj["pagination"]; ok {
		var m struct {
			Total      int `json:"total"`
			TotalItems int `json:"totalItems"`
			Page       int `json:"page"`
			Current    int `json:"currentPage"`
			Limit      int `json:"limit"`
		}
		if err := json.Unmarshal(p, &m); err == nil {
			out := &Meta{Total: m.Total, Page: m.Page, Limit: m.Limit}
			if out.Total == 0 {
				out.Total = m.TotalItems
			}
			if out.Page == 0 {
				out.Page = m.Current
			}
			return out
		}
	}
	_, hasTotal := obj["total"]
	_, hasPage := obj["page"]
	if !hasTotal && !hasPage {
		return nil
	}
	var m Meta
	for key, dst := range map[string]*int{"total": &m.Total, "page": &m.Page, "limit": &m.Limit} {
		if v, ok := obj[key]; ok {
			_ = json.Unmarshal(v, dst)
		}
	}
	return &m
}

// DecodeList normalizes raw and decodes each record into T.
func DecodeList[T any](raw json.RawMessage) ([]T, *Meta, error) {
	page, err := Normalize(raw)
	if err != nil {
		return nil, nil, err
	}
	out := make([]T, 0, len(page.Items))
	for i, item := range page.Items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, nil, fmt.Errorf("%w: record %d: %v", ErrMalformed, i, err)
		}
		out = append(out, v)
	}
	return out, page.Meta, nil
}

// objectKeys are the envelope keys single-record endpoints use.
var objectKeys = []string{"data", "campaign", "partner", "settlement", "payment", "notification", "stats"}

// DecodeObject decodes a single record that may be wrapped in an envelope.
func DecodeObject[T any](raw json.RawMessage) (T, error) {
	var zero T
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return zero, fmt.Errorf("%w: expected object", ErrMalformed)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for _, key := range objectKeys {
		if v, ok := obj[key]; ok {
			if v = bytes.TrimSpace(v); len(v) > 0 && v[0] == '{' {
				raw = v
				break
			}
		}
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return out, nil
}
