package backend

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/troyconsole/internal/models"
)

func TestNormalizeShapes(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantIDs  []models.ID
		wantMeta *Meta
	}{
		{"bare array", `[{"id":1},{"id":"2"}]`, []models.ID{"1", "2"}, nil},
		{"items", `{"items":[{"id":1}]}`, []models.ID{"1"}, nil},
		{"campaigns", `{"success":true,"campaigns":[{"id":7}]}`, []models.ID{"7"}, nil},
		{"data array with meta", `{"data":[{"id":1}],"total":31,"page":2,"limit":10}`, []models.ID{"1"}, &Meta{Total: 31, Page: 2, Limit: 10}},
		{"nested data", `{"data":{"settlements":[{"id":"SETTLE-001"}],"pagination":{"totalItems":1,"currentPage":1,"limit":20}}}`, []models.ID{"SETTLE-001"}, &Meta{Total: 1, Page: 1, Limit: 20}},
		{"null list", `{"notifications":null}`, []models.ID{}, nil},
		{"null body", `null`, []models.ID{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, meta, err := DecodeList[models.Campaign](json.RawMessage(tt.raw))
			require.NoError(t, err)
			ids := make([]models.ID, 0, len(items))
			for _, it := range items {
				ids = append(ids, it.ID)
			}
			if diff := cmp.Diff(tt.wantIDs, ids); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantMeta, meta); diff != "" {
				t.Errorf("meta mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeMalformed(t *testing.T) {
	for _, raw := range []string{`"hello"`, `{"message":"ok"}`, `{"items":{"a":1}}`, `{"items":[1,`} {
		_, err := Normalize(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrMalformed, raw)
	}

	_, _, err := DecodeList[models.Campaign](json.RawMessage(`[{"id":{"x":1}}]`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeObjectUnwraps(t *testing.T) {
	p, err := DecodeObject[models.Organization](json.RawMessage(`{"success":true,"partner":{"id":3,"company_name":"리뷰랩","approval_status":"approved"}}`))
	require.NoError(t, err)
	assert.Equal(t, models.ID("3"), p.ID)
	assert.Equal(t, "리뷰랩", p.DisplayName())

	s, err := DecodeObject[ProgressStats](json.RawMessage(`{"total_campaigns":4,"active_campaigns":"2","average_progress":37.5}`))
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.Active.Float())
	assert.Equal(t, 37.5, s.Average.Float())

	_, err = DecodeObject[ProgressStats](json.RawMessage(`[1]`))
	assert.ErrorIs(t, err, ErrMalformed)
}
