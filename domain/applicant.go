package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Source columns every dataset must carry.
const (
	ColInsAge      = "Ins_Age"
	ColBMI         = "BMI"
	ColWt          = "Wt"
	ColProductCode = "Product_Info_2"
	ColResponse    = "Response"
)

// RequiredColumns lists the source columns the preparation step depends on.
var RequiredColumns = []string{ColInsAge, ColBMI, ColWt, ColProductCode, ColResponse}

// Applicant is one prepared row: normalized inputs, derived fields and any
// other source column carried through untouched in Extra.
type Applicant struct {
	InsAge      float64 `json:"Ins_Age"`
	BMI         float64 `json:"BMI"`
	Wt          float64 `json:"Wt"`
	ProductCode string  `json:"Product_Info_2"`
	Response    int     `json:"Response"`

	ActualAge    float64     `json:"Actual_Age"`
	ActualBMI    float64     `json:"Actual_BMI"`
	ActualWeight float64     `json:"Actual_Weight"`
	BMICategory  BMICategory `json:"BMI_Category"`
	AgeGroup     AgeGroup    `json:"Age_Group"`

	Extra map[string]string `json:"extra,omitempty"`
}

// SourceInfo identifies the file a Dataset was prepared from.
type SourceInfo struct {
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
	ContentHash string    `json:"content_hash"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// Dataset is the prepared table. It is never mutated after preparation.
type Dataset struct {
	Source  SourceInfo
	Columns []string
	Rows    []Applicant
}

type DatasetInfo struct {
	Source   SourceInfo `json:"source"`
	RowCount int        `json:"row_count"`
	Columns  []string   `json:"columns"`
}

// FilterAll is the selector value meaning "no restriction".
const FilterAll = "All"

// Filters holds the four selectors. Zero values mean "All".
type Filters struct {
	BMICategory   BMICategory
	AgeGroup      AgeGroup
	ProductCode   string
	ResponseScore int
}

// FilterSelection is the string form of Filters used on the wire.
type FilterSelection struct {
	BMICategory   string `json:"bmi_category"`
	AgeGroup      string `json:"age_group"`
	ProductCode   string `json:"product_code"`
	ResponseScore string `json:"response"`
}

// ParseFilters maps selector strings to Filters; empty or "All" leaves a
// selector unrestricted.
func ParseFilters(bmiCategory, ageGroup, productCode, response string) (Filters, error) {
	var f Filters
	if !isAll(bmiCategory) {
		c, err := ParseBMICategory(bmiCategory)
		if err != nil {
			return Filters{}, err
		}
		f.BMICategory = c
	}
	if !isAll(ageGroup) {
		g, err := ParseAgeGroup(ageGroup)
		if err != nil {
			return Filters{}, err
		}
		f.AgeGroup = g
	}
	if !isAll(productCode) {
		f.ProductCode = strings.TrimSpace(productCode)
	}
	if !isAll(response) {
		score, err := strconv.Atoi(strings.TrimSpace(response))
		if err != nil || score < 1 {
			return Filters{}, fmt.Errorf("%w: response score %q", ErrInvalidFilter, response)
		}
		f.ResponseScore = score
	}
	return f, nil
}

func isAll(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, FilterAll)
}

func (f Filters) Selection() FilterSelection {
	sel := FilterSelection{
		BMICategory:   FilterAll,
		AgeGroup:      FilterAll,
		ProductCode:   FilterAll,
		ResponseScore: FilterAll,
	}
	if f.BMICategory.Valid() {
		sel.BMICategory = f.BMICategory.String()
	}
	if f.AgeGroup.Valid() {
		sel.AgeGroup = f.AgeGroup.String()
	}
	if f.ProductCode != "" {
		sel.ProductCode = f.ProductCode
	}
	if f.ResponseScore != 0 {
		sel.ResponseScore = strconv.Itoa(f.ResponseScore)
	}
	return sel
}

// Key is a stable cache key for the selection.
func (f Filters) Key() string {
	s := f.Selection()
	return fmt.Sprintf("bmi=%s|age=%s|product=%s|response=%s",
		s.BMICategory, s.AgeGroup, s.ProductCode, s.ResponseScore)
}
