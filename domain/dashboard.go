package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// NullFloat is a number that may be undefined. Undefined is not zero.
type NullFloat struct {
	Value float64
	Valid bool
}

func Float(v float64) NullFloat { return NullFloat{Value: v, Valid: true} }

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

func (n *NullFloat) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}

type ScoreValue struct {
	Score int     `json:"score"`
	Value float64 `json:"value"`
}

type CategoryValue struct {
	Category BMICategory `json:"category"`
	Value    NullFloat   `json:"value"`
}

type AgeGroupValue struct {
	AgeGroup AgeGroup  `json:"age_group"`
	Value    NullFloat `json:"value"`
}

type AgeGroupCount struct {
	AgeGroup AgeGroup `json:"age_group"`
	Count    int      `json:"count"`
}

type ProductValue struct {
	ProductCode string  `json:"product_code"`
	Value       float64 `json:"value"`
}

type ProductCount struct {
	ProductCode string `json:"product_code"`
	Count       int    `json:"count"`
}

// BoxSummary is the five-number summary behind a box plot. Whiskers follow
// the 1.5*IQR rule; Outliers counts points beyond them.
type BoxSummary struct {
	Count       int     `json:"count"`
	Min         float64 `json:"min"`
	Q1          float64 `json:"q1"`
	Median      float64 `json:"median"`
	Q3          float64 `json:"q3"`
	Max         float64 `json:"max"`
	WhiskerLow  float64 `json:"whisker_low"`
	WhiskerHigh float64 `json:"whisker_high"`
	Outliers    int     `json:"outliers"`
}

type ScoreBox struct {
	Score int        `json:"score"`
	Box   BoxSummary `json:"box"`
}

type CategoryBox struct {
	Category BMICategory `json:"category"`
	Box      BoxSummary  `json:"box"`
}

// Heatmap cells are indexed [row][column] following Rows and Columns.
type Heatmap struct {
	Rows    []BMICategory `json:"rows"`
	Columns []AgeGroup    `json:"columns"`
	Cells   [][]NullFloat `json:"cells"`
}

// Views are the ten dashboard aggregates, in display order.
type Views struct {
	ResponseProportion    []ScoreValue    `json:"response_proportion"`
	BMICategoryProportion []CategoryValue `json:"bmi_category_proportion"`
	BMIByResponse         []ScoreBox      `json:"bmi_by_response"`
	AgeGroupCounts        []AgeGroupCount `json:"age_group_counts"`
	MeanResponseByProduct []ProductValue  `json:"mean_response_by_product"`
	MeanBMIByAgeLine      []AgeGroupValue `json:"mean_bmi_by_age_line"`
	ResponseByBMICategory []CategoryBox   `json:"response_by_bmi_category"`
	ProductCodeCounts     []ProductCount  `json:"product_code_counts"`
	MeanBMIByAgeBar       []AgeGroupValue `json:"mean_bmi_by_age_bar"`
	ResponseHeatmap       Heatmap         `json:"response_heatmap"`
}

// View names as exposed by the chart endpoint.
const (
	ViewResponseProportion    = "response_proportion"
	ViewBMICategoryProportion = "bmi_category_proportion"
	ViewBMIByResponse         = "bmi_by_response"
	ViewAgeGroupCounts        = "age_group_counts"
	ViewMeanResponseByProduct = "mean_response_by_product"
	ViewMeanBMIByAgeLine      = "mean_bmi_by_age_line"
	ViewResponseByBMICategory = "response_by_bmi_category"
	ViewProductCodeCounts     = "product_code_counts"
	ViewMeanBMIByAgeBar       = "mean_bmi_by_age_bar"
	ViewResponseHeatmap       = "response_heatmap"
)

// ViewNames lists every view in display order.
var ViewNames = []string{
	ViewResponseProportion,
	ViewBMICategoryProportion,
	ViewBMIByResponse,
	ViewAgeGroupCounts,
	ViewMeanResponseByProduct,
	ViewMeanBMIByAgeLine,
	ViewResponseByBMICategory,
	ViewProductCodeCounts,
	ViewMeanBMIByAgeBar,
	ViewResponseHeatmap,
}

type Dashboard struct {
	DatasetHash string          `json:"dataset_hash"`
	Filters     FilterSelection `json:"filters"`
	RowCount    int             `json:"row_count"`
	NoData      bool            `json:"no_data"`
	Views       Views           `json:"views"`
	Preview     []Applicant     `json:"preview,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// FilterOptions are the selectable values for each filter, "All" first.
type FilterOptions struct {
	BMICategories  []string `json:"bmi_categories"`
	AgeGroups      []string `json:"age_groups"`
	ProductCodes   []string `json:"product_codes"`
	ResponseScores []string `json:"response_scores"`
}
