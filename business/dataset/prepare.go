package dataset

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"math"
	"os"
	"strings"
	"time"

	"insuranceInsights/domain"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Denormalization constants: value*scale + offset.
const (
	ageScale     = 72
	ageOffset    = 18
	bmiScale     = 40
	bmiOffset    = 15
	weightScale  = 80
	weightOffset = 40
)

// Denormalize recovers age in years, BMI and weight from their normalized
// [0,1] values. Age is rounded to a whole year, BMI and weight to one decimal.
func Denormalize(insAge, bmi, wt float64) (age, actualBMI, weight float64) {
	age = roundTo(insAge*ageScale+ageOffset, 0)
	actualBMI = roundTo(bmi*bmiScale+bmiOffset, 1)
	weight = roundTo(wt*weightScale+weightOffset, 1)
	return age, actualBMI, weight
}

// roundTo rounds half to even at the given number of decimals.
func roundTo(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.RoundToEven(x*p) / p
}

// BMICategoryOf buckets a BMI. Lower bounds are inclusive: 25.0 is Overweight.
func BMICategoryOf(bmi float64) domain.BMICategory {
	switch {
	case bmi < 18.5:
		return domain.BMIUnderweight
	case bmi < 25:
		return domain.BMINormal
	case bmi < 30:
		return domain.BMIOverweight
	case bmi < 35:
		return domain.BMIObeseClassI
	case bmi < 40:
		return domain.BMIObeseClassII
	default:
		return domain.BMIObeseClassIII
	}
}

// AgeGroupOf buckets an age. Upper bounds are inclusive: 35 is 25–35.
func AgeGroupOf(age float64) domain.AgeGroup {
	switch {
	case age <= 35:
		return domain.Age25To35
	case age <= 45:
		return domain.Age36To45
	case age <= 55:
		return domain.Age46To55
	case age <= 65:
		return domain.Age56To65
	case age <= 75:
		return domain.Age66To75
	default:
		return domain.Age76Plus
	}
}

// NewApplicant derives every computed field from the normalized inputs.
func NewApplicant(insAge, bmi, wt float64, productCode string, response int) domain.Applicant {
	age, actualBMI, weight := Denormalize(insAge, bmi, wt)
	return domain.Applicant{
		InsAge:       insAge,
		BMI:          bmi,
		Wt:           wt,
		ProductCode:  productCode,
		Response:     response,
		ActualAge:    age,
		ActualBMI:    actualBMI,
		ActualWeight: weight,
		BMICategory:  BMICategoryOf(actualBMI),
		AgeGroup:     AgeGroupOf(age),
	}
}

var requiredTypes = map[string]series.Type{
	domain.ColInsAge:      series.Float,
	domain.ColBMI:         series.Float,
	domain.ColWt:          series.Float,
	domain.ColProductCode: series.String,
	domain.ColResponse:    series.Int,
}

// LoadAndPrepare reads the whole file and returns the prepared dataset.
// Every failure is a *domain.DataLoadError.
func LoadAndPrepare(path string) (*domain.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, statError(path, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, statError(path, err)
	}

	ds, err := Prepare(path, raw)
	if err != nil {
		return nil, err
	}

	ds.Source.Size = info.Size()
	ds.Source.ModTime = info.ModTime()
	return ds, nil
}

func statError(path string, err error) error {
	reason := "file unreadable"
	if errors.Is(err, fs.ErrNotExist) {
		reason = "file not found"
	}
	return &domain.DataLoadError{Path: path, Reason: reason, Err: err}
}

// Prepare parses raw delimited text. path is only used for reporting.
func Prepare(path string, raw []byte) (*domain.Dataset, error) {
	sum := sha256.Sum256(raw)
	source := domain.SourceInfo{
		Path:        path,
		Size:        int64(len(raw)),
		ContentHash: hex.EncodeToString(sum[:]),
		LoadedAt:    time.Now(),
	}
	delim := sniffDelimiter(raw)

	// gota rejects a frame without records; a bare header is an empty dataset.
	if header, ok := headerOnly(raw, delim); ok {
		if err := requireColumns(path, header); err != nil {
			return nil, err
		}
		return &domain.Dataset{Source: source, Columns: header, Rows: []domain.Applicant{}}, nil
	}

	df := dataframe.ReadCSV(bytes.NewReader(raw),
		dataframe.WithDelimiter(delim),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
		dataframe.WithTypes(requiredTypes),
	)
	if df.Err != nil {
		return nil, &domain.DataLoadError{Path: path, Reason: "malformed file", Err: df.Err}
	}

	columns := df.Names()
	if err := requireColumns(path, columns); err != nil {
		return nil, err
	}

	insAge, err := floatColumn(path, df, domain.ColInsAge)
	if err != nil {
		return nil, err
	}
	bmi, err := floatColumn(path, df, domain.ColBMI)
	if err != nil {
		return nil, err
	}
	wt, err := floatColumn(path, df, domain.ColWt)
	if err != nil {
		return nil, err
	}
	products, err := textColumn(path, df, domain.ColProductCode)
	if err != nil {
		return nil, err
	}
	responses, err := responseColumn(path, df)
	if err != nil {
		return nil, err
	}

	extras := make(map[string][]string)
	for _, c := range columns {
		if _, required := requiredTypes[c]; required {
			continue
		}
		extras[c] = df.Col(c).Records()
	}

	rows := make([]domain.Applicant, df.Nrow())
	for i := range rows {
		a := NewApplicant(insAge[i], bmi[i], wt[i], products[i], responses[i])
		if len(extras) > 0 {
			a.Extra = make(map[string]string, len(extras))
			for c, vals := range extras {
				a.Extra[c] = vals[i]
			}
		}
		rows[i] = a
	}

	return &domain.Dataset{
		Source:  source,
		Columns: columns,
		Rows:    rows,
	}, nil
}

func requireColumns(path string, columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	for _, c := range domain.RequiredColumns {
		if !present[c] {
			return &domain.DataLoadError{Path: path, Column: c, Reason: "missing required column"}
		}
	}
	return nil
}

// headerOnly reports whether raw holds a header record and nothing else.
func headerOnly(raw []byte, delim rune) ([]string, bool) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.Comma = delim
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, false
	}
	if _, err := r.Read(); err != io.EOF {
		return nil, false
	}
	return header, true
}

func floatColumn(path string, df dataframe.DataFrame, name string) ([]float64, error) {
	s := df.Col(name)
	if s.Err != nil {
		return nil, &domain.DataLoadError{Path: path, Column: name, Reason: "unreadable column", Err: s.Err}
	}
	for i, nan := range s.IsNaN() {
		if nan {
			return nil, &domain.DataLoadError{Path: path, Row: i + 1, Column: name, Reason: "missing or non-numeric value"}
		}
	}
	vals := s.Float()
	for i, v := range vals {
		if math.IsInf(v, 0) {
			return nil, &domain.DataLoadError{Path: path, Row: i + 1, Column: name, Reason: "non-finite value"}
		}
	}
	return vals, nil
}

func textColumn(path string, df dataframe.DataFrame, name string) ([]string, error) {
	s := df.Col(name)
	if s.Err != nil {
		return nil, &domain.DataLoadError{Path: path, Column: name, Reason: "unreadable column", Err: s.Err}
	}
	vals := s.Records()
	for i, v := range vals {
		if strings.TrimSpace(v) == "" {
			return nil, &domain.DataLoadError{Path: path, Row: i + 1, Column: name, Reason: "missing value"}
		}
		vals[i] = strings.TrimSpace(v)
	}
	return vals, nil
}

func responseColumn(path string, df dataframe.DataFrame) ([]int, error) {
	s := df.Col(domain.ColResponse)
	if s.Err != nil {
		return nil, &domain.DataLoadError{Path: path, Column: domain.ColResponse, Reason: "unreadable column", Err: s.Err}
	}
	for i, nan := range s.IsNaN() {
		if nan {
			return nil, &domain.DataLoadError{Path: path, Row: i + 1, Column: domain.ColResponse, Reason: "missing or non-integer value"}
		}
	}
	vals, err := s.Int()
	if err != nil {
		return nil, &domain.DataLoadError{Path: path, Column: domain.ColResponse, Reason: "non-integer value", Err: err}
	}
	for i, v := range vals {
		if v < MinResponse || v > MaxResponse {
			return nil, &domain.DataLoadError{Path: path, Row: i + 1, Column: domain.ColResponse, Reason: "response score outside 1-8"}
		}
	}
	return vals, nil
}

// Response score domain.
const (
	MinResponse = 1
	MaxResponse = 8
)

// sniffDelimiter picks the most frequent of ',', ';' and tab in the header line.
func sniffDelimiter(raw []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !sc.Scan() {
		return ','
	}
	header := sc.Text()
	best, bestCount := ',', strings.Count(header, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(header, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
