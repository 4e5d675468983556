package render

import (
	"fmt"
	"io"
	"sort"

	"insuranceInsights/domain"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary = "Summary"
	SheetData    = "Data"
)

// WriteWorkbook writes an XLSX with a summary sheet, one sheet per view and
// the filtered rows.
func WriteWorkbook(d *domain.Dashboard, rows []domain.Applicant, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}

	summary := [][]any{
		{"Dataset", d.DatasetHash},
		{"BMI Category", d.Filters.BMICategory},
		{"Age Group", d.Filters.AgeGroup},
		{"Product Code", d.Filters.ProductCode},
		{"Response", d.Filters.ResponseScore},
		{"Rows", d.RowCount},
		{"Generated At", d.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return err
	}

	for _, s := range viewSheets(d.Views) {
		if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := writeRows(f, s.name, s.rows); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetData); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetData, err)
	}
	if err := writeRows(f, SheetData, dataRows(rows)); err != nil {
		return err
	}

	return f.Write(w)
}

type sheet struct {
	name string
	rows [][]any
}

// nullable leaves undefined values as empty cells.
func nullable(v domain.NullFloat) any {
	if !v.Valid {
		return nil
	}
	return v.Value
}

func boxHeader(key string) []any {
	return []any{key, "Count", "Min", "Q1", "Median", "Q3", "Max", "Whisker Low", "Whisker High", "Outliers"}
}

func boxRow(key any, b domain.BoxSummary) []any {
	return []any{key, b.Count, b.Min, b.Q1, b.Median, b.Q3, b.Max, b.WhiskerLow, b.WhiskerHigh, b.Outliers}
}

func viewSheets(v domain.Views) []sheet {
	responseProportion := [][]any{{"Response", "Percent"}}
	for _, r := range v.ResponseProportion {
		responseProportion = append(responseProportion, []any{r.Score, r.Value})
	}

	bmiProportion := [][]any{{"BMI Category", "Percent"}}
	for _, r := range v.BMICategoryProportion {
		bmiProportion = append(bmiProportion, []any{r.Category.String(), nullable(r.Value)})
	}

	bmiByResponse := [][]any{boxHeader("Response")}
	for _, r := range v.BMIByResponse {
		bmiByResponse = append(bmiByResponse, boxRow(r.Score, r.Box))
	}

	ageCounts := [][]any{{"Age Group", "Count"}}
	for _, r := range v.AgeGroupCounts {
		ageCounts = append(ageCounts, []any{r.AgeGroup.String(), r.Count})
	}

	meanResponse := [][]any{{"Product Code", "Mean Response"}}
	for _, r := range v.MeanResponseByProduct {
		meanResponse = append(meanResponse, []any{r.ProductCode, r.Value})
	}

	meanBMILine := [][]any{{"Age Group", "Mean BMI"}}
	for _, r := range v.MeanBMIByAgeLine {
		meanBMILine = append(meanBMILine, []any{r.AgeGroup.String(), nullable(r.Value)})
	}

	responseByBMI := [][]any{boxHeader("BMI Category")}
	for _, r := range v.ResponseByBMICategory {
		responseByBMI = append(responseByBMI, boxRow(r.Category.String(), r.Box))
	}

	productCounts := [][]any{{"Product Code", "Count"}}
	for _, r := range v.ProductCodeCounts {
		productCounts = append(productCounts, []any{r.ProductCode, r.Count})
	}

	meanBMIBar := [][]any{{"Age Group", "Mean BMI"}}
	for _, r := range v.MeanBMIByAgeBar {
		meanBMIBar = append(meanBMIBar, []any{r.AgeGroup.String(), nullable(r.Value)})
	}

	header := []any{"BMI Category"}
	for _, g := range v.ResponseHeatmap.Columns {
		header = append(header, g.String())
	}
	heatmap := [][]any{header}
	for i, c := range v.ResponseHeatmap.Rows {
		row := []any{c.String()}
		for _, cell := range v.ResponseHeatmap.Cells[i] {
			row = append(row, nullable(cell))
		}
		heatmap = append(heatmap, row)
	}

	return []sheet{
		{"Response Proportion", responseProportion},
		{"BMI Category Proportion", bmiProportion},
		{"BMI by Response", bmiByResponse},
		{"Age Group Counts", ageCounts},
		{"Mean Response by Product", meanResponse},
		{"Mean BMI by Age (Line)", meanBMILine},
		{"Response by BMI Category", responseByBMI},
		{"Product Code Counts", productCounts},
		{"Mean BMI by Age (Bar)", meanBMIBar},
		{"Response Heatmap", heatmap},
	}
}

func dataRows(rows []domain.Applicant) [][]any {
	extraSet := make(map[string]struct{})
	for _, r := range rows {
		for k := range r.Extra {
			extraSet[k] = struct{}{}
		}
	}
	extras := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extras = append(extras, k)
	}
	sort.Strings(extras)

	header := []any{
		domain.ColInsAge, domain.ColBMI, domain.ColWt, domain.ColProductCode, domain.ColResponse,
		"Actual_Age", "Actual_BMI", "Actual_Weight", "BMI_Category", "Age_Group",
	}
	for _, k := range extras {
		header = append(header, k)
	}

	out := make([][]any, 0, len(rows)+1)
	out = append(out, header)
	for _, r := range rows {
		row := []any{
			r.InsAge, r.BMI, r.Wt, r.ProductCode, r.Response,
			r.ActualAge, r.ActualBMI, r.ActualWeight, r.BMICategory.String(), r.AgeGroup.String(),
		}
		for _, k := range extras {
			row = append(row, r.Extra[k])
		}
		out = append(out, row)
	}
	return out
}

func writeRows(f *excelize.File, sheetName string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheetName, i+1, err)
		}
	}
	return nil
}
