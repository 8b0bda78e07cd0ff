package progress

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/troyconsole/internal/models"
)

func sample(n int) []models.ProgressRecord {
	out := make([]models.ProgressRecord, n)
	for i := range out {
		out[i] = models.ProgressRecord{
			ID:                 models.ID(fmt.Sprint(i + 1)),
			Title:              fmt.Sprintf("campaign %d", i+1),
			Status:             models.CampaignActive,
			ProgressPercentage: models.Number(i * 10 % 100),
			StartDate:          fmt.Sprintf("2024-06-%02d", i%28+1),
		}
	}
	return out
}

func TestFilterProgressDataIdentity(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	for _, n := range []int{0, 1, 5, 40} {
		data := sample(n)
		got := FilterProgressData(data, Filter{Campaign: "all", Range: "all"}, now)
		if diff := cmp.Diff(data, got); diff != "" {
			t.Fatalf("n=%d (-want +got):\n%s", n, diff)
		}
	}
}

func TestFilterProgressDataByCampaignAndRange(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	data := []models.ProgressRecord{
		{ID: "p1", CampaignID: "10", StartDate: "2024-06-28"},
		{ID: "p2", CampaignID: "11", StartDate: "2024-06-01"},
		{ID: "p3", CampaignID: "12", StartDate: "2024-03-01"},
		{ID: "p4", CampaignID: "13", StartDate: ""},
	}

	got := FilterProgressData(data, Filter{Campaign: "11", Range: "all"}, now)
	require.Len(t, got, 1)
	assert.Equal(t, models.ID("p2"), got[0].ID)

	got = FilterProgressData(data, Filter{Campaign: "all", Range: "7d"}, now)
	require.Len(t, got, 1)
	assert.Equal(t, models.ID("p1"), got[0].ID)

	got = FilterProgressData(data, Filter{Range: "30d"}, now)
	assert.Len(t, got, 2)

	got = FilterProgressData(data, Filter{Campaign: "12", Range: "90d"}, now)
	assert.Empty(t, got)
}

func TestProgressClassBoundaries(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{0, ClassLow},
		{24.999, ClassLow},
		{25, ClassMedium},
		{50, ClassMedium},
		{74.999, ClassMedium},
		{75, ClassHigh},
		{100, ClassHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ProgressClass(tt.p), "p=%v", tt.p)
	}

	// every value in [0,100] lands in exactly one bucket
	for i := 0; i <= 1000; i++ {
		p := float64(i) / 10
		c := ProgressClass(p)
		assert.Equal(t, p < 25, c == ClassLow)
		assert.Equal(t, p >= 25 && p < 75, c == ClassMedium)
		assert.Equal(t, p >= 75, c == ClassHigh)
	}
}

func TestCalculateProgressStatsEmpty(t *testing.T) {
	assert.Equal(t, Stats{Active: 0, Completed: 0, Average: 0}, CalculateProgressStats(nil))
	assert.Equal(t, Stats{}, CalculateProgressStats([]models.ProgressRecord{}))
}

func TestCalculateProgressStatsScenario(t *testing.T) {
	data := []models.ProgressRecord{
		{ID: "1", Status: models.CampaignCompleted, ProgressPercentage: 100},
		{ID: "2", Status: models.CampaignPending, ProgressPercentage: 0},
	}
	assert.Equal(t, Stats{Active: 0, Completed: 1, Average: 50}, CalculateProgressStats(data))
}

func TestPaginateProgressDataReconstructs(t *testing.T) {
	data := sample(23)
	for limit := 1; limit <= 25; limit++ {
		var joined []models.ProgressRecord
		for page := 1; ; page++ {
			items := PaginateProgressData(data, page, limit)
			if len(items) == 0 {
				break
			}
			joined = append(joined, items...)
		}
		if diff := cmp.Diff(data, joined); diff != "" {
			t.Fatalf("limit=%d (-want +got):\n%s", limit, diff)
		}
	}
}

func TestGenerateCampaignCodeByUserType(t *testing.T) {
	for i := 0; i < 3; i++ {
		code, err := GenerateCampaignCodeByUserType("agency", "2024-06-01")
		require.NoError(t, err)
		assert.Equal(t, "AC-0601", code)
	}

	code, err := GenerateCampaignCodeByUserType("Partner", "2024-12-25")
	require.NoError(t, err)
	assert.Equal(t, "PC-1225", code)

	code, err = GenerateCampaignCodeByUserType("reseller", "2024-01-09")
	require.NoError(t, err)
	assert.Equal(t, "CP-0109", code)

	_, err = GenerateCampaignCodeByUserType("agency", "someday")
	assert.ErrorIs(t, err, models.ErrInvalidDate)
}

func TestMergeOverrides(t *testing.T) {
	data := []models.ProgressRecord{
		{ID: "p1", CampaignID: "10", ProgressPercentage: 20},
		{ID: "p2", CampaignID: "11", ProgressPercentage: 30},
	}
	got := MergeOverrides(data, map[string]float64{"11": 150})
	assert.Equal(t, 100.0, got[1].ProgressPercentage.Float())
	assert.Equal(t, 20.0, got[0].ProgressPercentage.Float())
	assert.Equal(t, 30.0, data[1].ProgressPercentage.Float(), "input untouched")
}
