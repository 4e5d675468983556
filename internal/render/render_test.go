package render

import (
	"bytes"
	"testing"
	"time"

	"insuranceInsights/business/dashboard"
	"insuranceInsights/business/dataset"
	"insuranceInsights/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func sampleRows() []domain.Applicant {
	rows := []domain.Applicant{
		dataset.NewApplicant(0.0, 0.10, 0.5, "A1", 1),
		dataset.NewApplicant(0.5, 0.50, 0.5, "D3", 5),
		dataset.NewApplicant(1.0, 0.20, 0.5, "A1", 8),
	}
	rows[0].Extra = map[string]string{"Id": "10"}
	return rows
}

func TestRenderChart_BarAndLineViews(t *testing.T) {
	views := dashboard.ComputeViews(sampleRows())

	for _, view := range []string{
		domain.ViewResponseProportion,
		domain.ViewBMICategoryProportion,
		domain.ViewAgeGroupCounts,
		domain.ViewMeanResponseByProduct,
		domain.ViewMeanBMIByAgeLine,
		domain.ViewProductCodeCounts,
		domain.ViewMeanBMIByAgeBar,
	} {
		var buf bytes.Buffer
		require.NoError(t, RenderChart(view, views, &buf), view)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic), view)
	}
}

func TestRenderChart_SinglePointLine(t *testing.T) {
	views := dashboard.ComputeViews(sampleRows()[:1])

	var buf bytes.Buffer
	require.NoError(t, RenderChart(domain.ViewMeanBMIByAgeLine, views, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderChart_Errors(t *testing.T) {
	views := dashboard.ComputeViews(sampleRows())
	empty := dashboard.ComputeViews(nil)

	var buf bytes.Buffer
	assert.ErrorIs(t, RenderChart(domain.ViewResponseHeatmap, views, &buf), domain.ErrUnsupportedChart)
	assert.ErrorIs(t, RenderChart(domain.ViewBMIByResponse, views, &buf), domain.ErrUnsupportedChart)
	assert.ErrorIs(t, RenderChart("nope", views, &buf), domain.ErrNotFound)
	assert.ErrorIs(t, RenderChart(domain.ViewAgeGroupCounts, empty, &buf), domain.ErrNoData)
	assert.ErrorIs(t, RenderChart(domain.ViewMeanBMIByAgeLine, empty, &buf), domain.ErrNoData)
}

func TestWriteWorkbook(t *testing.T) {
	rows := sampleRows()
	d := &domain.Dashboard{
		DatasetHash: "abc",
		Filters:     domain.Filters{}.Selection(),
		RowCount:    len(rows),
		Views:       dashboard.ComputeViews(rows),
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(d, rows, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Len(t, sheets, 12)
	assert.Equal(t, SheetSummary, sheets[0])
	assert.Equal(t, SheetData, sheets[len(sheets)-1])

	data, err := f.GetRows(SheetData)
	require.NoError(t, err)
	require.Len(t, data, 4)
	assert.Equal(t, "Id", data[0][10])
	assert.Equal(t, "10", data[1][10])
	assert.Equal(t, "Normal", data[1][8])

	heat, err := f.GetRows("Response Heatmap")
	require.NoError(t, err)
	require.Len(t, heat, 7)
	assert.Equal(t, "76+", heat[0][6])

	counts, err := f.GetRows("Age Group Counts")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Age Group", "Count"}, {"25–35", "1"}, {"46–55", "1"}, {"76+", "1"}}, counts)
}
