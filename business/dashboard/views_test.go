package dashboard

import (
	"testing"

	"insuranceInsights/business/dataset"
	"insuranceInsights/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applicant(insAge, bmi float64, product string, response int) domain.Applicant {
	return dataset.NewApplicant(insAge, bmi, 0.5, product, response)
}

// sampleRows spans several categories, groups, products and scores.
func sampleRows() []domain.Applicant {
	return []domain.Applicant{
		applicant(0.0, 0.10, "A1", 1), // age 18, bmi 19
		applicant(0.1, 0.30, "A1", 2), // age 25, bmi 27
		applicant(0.3, 0.30, "D3", 8), // age 40, bmi 27
		applicant(0.5, 0.50, "D3", 5), // age 54, bmi 35
		applicant(0.5, 0.45, "B2", 5), // age 54, bmi 33
		applicant(0.7, 0.70, "D3", 6), // age 68, bmi 43
		applicant(1.0, 0.20, "A1", 8), // age 90, bmi 23
		applicant(0.9, 0.05, "E1", 3), // age 83, bmi 17
	}
}

func TestApplyFilters_Commutative(t *testing.T) {
	rows := sampleRows()
	byProduct := domain.Filters{ProductCode: "D3"}
	byCategory := domain.Filters{BMICategory: domain.BMIOverweight}
	both := domain.Filters{ProductCode: "D3", BMICategory: domain.BMIOverweight}

	a := ApplyFilters(ApplyFilters(rows, byProduct), byCategory)
	b := ApplyFilters(ApplyFilters(rows, byCategory), byProduct)
	c := ApplyFilters(rows, both)

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
	require.Len(t, c, 1)
	assert.Equal(t, 8, c[0].Response)
}

func TestApplyFilters_AllIsNoop(t *testing.T) {
	rows := sampleRows()
	f, err := domain.ParseFilters("All", "", "all", "All")
	require.NoError(t, err)

	assert.Equal(t, rows, ApplyFilters(rows, f))
}

func TestApplyFilters_DoesNotMutateInput(t *testing.T) {
	rows := sampleRows()
	before := append([]domain.Applicant(nil), rows...)

	out := ApplyFilters(rows, domain.Filters{ResponseScore: 5})
	require.Len(t, out, 2)
	out[0].Response = 1

	assert.Equal(t, before, rows)
}

func TestComputeViews_ProportionsSumTo100(t *testing.T) {
	views := ComputeViews(sampleRows())

	var total float64
	for _, v := range views.ResponseProportion {
		total += v.Value
	}
	assert.InDelta(t, 100.0, total, 0.05)

	total = 0
	for _, v := range views.BMICategoryProportion {
		if v.Value.Valid {
			total += v.Value.Value
		}
	}
	assert.InDelta(t, 100.0, total, 0.05)
}

func TestComputeViews_ResponseProportion(t *testing.T) {
	views := ComputeViews(sampleRows())

	assert.Equal(t, []domain.ScoreValue{
		{Score: 1, Value: 12.5},
		{Score: 2, Value: 12.5},
		{Score: 3, Value: 12.5},
		{Score: 5, Value: 25},
		{Score: 6, Value: 12.5},
		{Score: 8, Value: 25},
	}, views.ResponseProportion)
}

func TestComputeViews_MissingIsNotZero(t *testing.T) {
	rows := ApplyFilters(sampleRows(), domain.Filters{ProductCode: "A1"})
	views := ComputeViews(rows)

	require.Len(t, views.BMICategoryProportion, 6)
	byCategory := make(map[domain.BMICategory]domain.NullFloat)
	for _, v := range views.BMICategoryProportion {
		byCategory[v.Category] = v.Value
	}
	assert.False(t, byCategory[domain.BMIUnderweight].Valid)
	assert.False(t, byCategory[domain.BMIObeseClassIII].Valid)
	assert.InDelta(t, 66.67, byCategory[domain.BMINormal].Value, 1e-9)
	assert.InDelta(t, 33.33, byCategory[domain.BMIOverweight].Value, 1e-9)

	heat := views.ResponseHeatmap
	require.Len(t, heat.Cells, 6)
	assert.True(t, heat.Cells[1][0].Valid)
	assert.Equal(t, 1.0, heat.Cells[1][0].Value)
	assert.False(t, heat.Cells[0][0].Valid)
}

func TestComputeViews_LineAndBarIdentical(t *testing.T) {
	filters := []domain.Filters{
		{},
		{ProductCode: "D3"},
		{AgeGroup: domain.Age46To55},
		{BMICategory: domain.BMIObeseClassIII, ResponseScore: 6},
	}

	for _, f := range filters {
		views := ComputeViews(ApplyFilters(sampleRows(), f))
		assert.Equal(t, views.MeanBMIByAgeLine, views.MeanBMIByAgeBar, "filters %s", f.Key())
	}
}

func TestComputeViews_MeanBMIByAge(t *testing.T) {
	views := ComputeViews(sampleRows())

	require.Len(t, views.MeanBMIByAgeLine, 6)
	mid := views.MeanBMIByAgeLine[2]
	assert.Equal(t, domain.Age46To55, mid.AgeGroup)
	assert.True(t, mid.Value.Valid)
	assert.InDelta(t, 34.0, mid.Value.Value, 1e-9)

	older := views.MeanBMIByAgeLine[3]
	assert.Equal(t, domain.Age56To65, older.AgeGroup)
	assert.False(t, older.Value.Valid)
}

func TestComputeViews_CountsAndProducts(t *testing.T) {
	views := ComputeViews(sampleRows())

	assert.Equal(t, []domain.AgeGroupCount{
		{AgeGroup: domain.Age25To35, Count: 2},
		{AgeGroup: domain.Age36To45, Count: 1},
		{AgeGroup: domain.Age46To55, Count: 2},
		{AgeGroup: domain.Age66To75, Count: 1},
		{AgeGroup: domain.Age76Plus, Count: 2},
	}, views.AgeGroupCounts)

	assert.Equal(t, []domain.ProductCount{
		{ProductCode: "A1", Count: 3},
		{ProductCode: "B2", Count: 1},
		{ProductCode: "D3", Count: 3},
		{ProductCode: "E1", Count: 1},
	}, views.ProductCodeCounts)

	require.Len(t, views.MeanResponseByProduct, 4)
	assert.Equal(t, "A1", views.MeanResponseByProduct[0].ProductCode)
	assert.InDelta(t, 11.0/3.0, views.MeanResponseByProduct[0].Value, 1e-9)
	assert.InDelta(t, 19.0/3.0, views.MeanResponseByProduct[2].Value, 1e-9)
}

func TestComputeViews_Boxes(t *testing.T) {
	views := ComputeViews(sampleRows())

	require.Len(t, views.BMIByResponse, 6)
	five := views.BMIByResponse[3]
	assert.Equal(t, 5, five.Score)
	assert.Equal(t, 2, five.Box.Count)
	assert.Equal(t, 33.0, five.Box.Min)
	assert.Equal(t, 35.0, five.Box.Max)
	assert.Equal(t, 34.0, five.Box.Median)

	require.Len(t, views.ResponseByBMICategory, 6)
	overweight := views.ResponseByBMICategory[2]
	assert.Equal(t, domain.BMIOverweight, overweight.Category)
	assert.Equal(t, 2, overweight.Box.Count)
	assert.Equal(t, 5.0, overweight.Box.Median)
}

func TestComputeViews_EmptySelection(t *testing.T) {
	rows := ApplyFilters(sampleRows(), domain.Filters{ProductCode: "ZZ"})
	require.Empty(t, rows)

	views := ComputeViews(rows)

	assert.Empty(t, views.ResponseProportion)
	assert.Empty(t, views.BMICategoryProportion)
	assert.Empty(t, views.AgeGroupCounts)
	assert.Empty(t, views.MeanResponseByProduct)
	assert.Empty(t, views.ProductCodeCounts)
	assert.Empty(t, views.MeanBMIByAgeBar)
	assert.Empty(t, views.BMIByResponse)
	assert.Empty(t, views.ResponseByBMICategory)

	require.Len(t, views.MeanBMIByAgeLine, 6)
	for _, v := range views.MeanBMIByAgeLine {
		assert.False(t, v.Value.Valid)
	}
	for _, row := range views.ResponseHeatmap.Cells {
		for _, cell := range row {
			assert.False(t, cell.Valid)
		}
	}
}

func TestComputeViews_EndToEndAgeGroups(t *testing.T) {
	rows := []domain.Applicant{
		applicant(0, 0, "A1", 1),
		applicant(0.5, 0.5, "A1", 1),
		applicant(1, 1, "A1", 1),
	}

	views := ComputeViews(rows)

	assert.Equal(t, []domain.AgeGroupCount{
		{AgeGroup: domain.Age25To35, Count: 1},
		{AgeGroup: domain.Age46To55, Count: 1},
		{AgeGroup: domain.Age76Plus, Count: 1},
	}, views.AgeGroupCounts)
}

func TestBoxSummary_Whiskers(t *testing.T) {
	box := boxSummary([]float64{1, 2, 3, 4, 100})

	assert.Equal(t, 5, box.Count)
	assert.Equal(t, 2.0, box.Q1)
	assert.Equal(t, 3.0, box.Median)
	assert.Equal(t, 4.0, box.Q3)
	assert.Equal(t, 1.0, box.WhiskerLow)
	assert.Equal(t, 4.0, box.WhiskerHigh)
	assert.Equal(t, 1, box.Outliers)
	assert.Equal(t, 100.0, box.Max)
}

func TestQuantile_Interpolates(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	assert.Equal(t, 1.75, quantile(sorted, 0.25))
	assert.Equal(t, 2.5, quantile(sorted, 0.5))
	assert.Equal(t, 3.25, quantile(sorted, 0.75))
	assert.Equal(t, 0.0, quantile(nil, 0.5))
}
