package backend

import (
	"errors"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAllWalksPages(t *testing.T) {
	const total = 25
	var pages []string
	fetch := func(q url.Values) ([]int, *Meta, error) {
		pages = append(pages, q.Get("page")+"/"+q.Get("limit"))
		assert.Equal(t, "active", q.Get("status"))
		page, _ := strconv.Atoi(q.Get("page"))
		limit, _ := strconv.Atoi(q.Get("limit"))
		var out []int
		for i := (page - 1) * limit; i < page*limit && i < total; i++ {
			out = append(out, i)
		}
		return out, &Meta{Total: total, Page: page, Limit: limit}, nil
	}

	got, err := FetchAll(url.Values{"status": {"active"}, "page": {"3"}}, 10, fetch)
	require.NoError(t, err)
	assert.Len(t, got, total)
	assert.Equal(t, []string{"1/10", "2/10", "3/10"}, pages)
	assert.Equal(t, 24, got[24])
}

func TestFetchAllWithoutMeta(t *testing.T) {
	calls := 0
	got, err := FetchAll(nil, 10, func(url.Values) ([]int, *Meta, error) {
		calls++
		return []int{1, 2, 3}, nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 1, calls)
}

func TestFetchAllShortBackend(t *testing.T) {
	got, err := FetchAll(nil, 10, func(q url.Values) ([]int, *Meta, error) {
		if q.Get("page") == "1" {
			return []int{1, 2}, &Meta{Total: 5, Page: 1, Limit: 10}, nil
		}
		return nil, &Meta{Total: 5, Page: 2, Limit: 10}, nil
	})
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, []int{1, 2}, got)
}

func TestFetchAllError(t *testing.T) {
	boom := errors.New("down")
	_, err := FetchAll(nil, 10, func(url.Values) ([]int, *Meta, error) { return nil, nil, boom })
	assert.ErrorIs(t, err, boom)
}
