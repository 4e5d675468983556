package domain

import (
	"fmt"
	"strings"
)

// BMICategory is an ordered BMI bucket. The zero value means "unset".
type BMICategory int

const (
	BMIUnderweight BMICategory = iota + 1
	BMINormal
	BMIOverweight
	BMIObeseClassI
	BMIObeseClassII
	BMIObeseClassIII
)

var bmiCategoryLabels = [...]string{
	BMIUnderweight:   "Underweight",
	BMINormal:        "Normal",
	BMIOverweight:    "Overweight",
	BMIObeseClassI:   "Obese Class I",
	BMIObeseClassII:  "Obese Class II",
	BMIObeseClassIII: "Obese Class III",
}

// AllBMICategories returns the canonical display order.
func AllBMICategories() []BMICategory {
	return []BMICategory{
		BMIUnderweight, BMINormal, BMIOverweight,
		BMIObeseClassI, BMIObeseClassII, BMIObeseClassIII,
	}
}

func (c BMICategory) Valid() bool {
	return c >= BMIUnderweight && c <= BMIObeseClassIII
}

func (c BMICategory) String() string {
	if !c.Valid() {
		return ""
	}
	return bmiCategoryLabels[c]
}

func (c BMICategory) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid bmi category %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *BMICategory) UnmarshalText(b []byte) error {
	parsed, err := ParseBMICategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseBMICategory matches a label case-insensitively.
func ParseBMICategory(s string) (BMICategory, error) {
	s = strings.TrimSpace(s)
	for _, c := range AllBMICategories() {
		if strings.EqualFold(c.String(), s) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown bmi category %q", ErrInvalidFilter, s)
}

// AgeGroup is an ordered age band. The zero value means "unset".
type AgeGroup int

const (
	Age25To35 AgeGroup = iota + 1
	Age36To45
	Age46To55
	Age56To65
	Age66To75
	Age76Plus
)

var ageGroupLabels = [...]string{
	Age25To35: "25–35",
	Age36To45: "36–45",
	Age46To55: "46–55",
	Age56To65: "56–65",
	Age66To75: "66–75",
	Age76Plus: "76+",
}

// AllAgeGroups returns the canonical display order.
func AllAgeGroups() []AgeGroup {
	return []AgeGroup{Age25To35, Age36To45, Age46To55, Age56To65, Age66To75, Age76Plus}
}

func (g AgeGroup) Valid() bool {
	return g >= Age25To35 && g <= Age76Plus
}

func (g AgeGroup) String() string {
	if !g.Valid() {
		return ""
	}
	return ageGroupLabels[g]
}

func (g AgeGroup) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("invalid age group %d", int(g))
	}
	return []byte(g.String()), nil
}

func (g *AgeGroup) UnmarshalText(b []byte) error {
	parsed, err := ParseAgeGroup(string(b))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// ParseAgeGroup accepts the en dash label or its ASCII hyphen form ("36-45").
func ParseAgeGroup(s string) (AgeGroup, error) {
	norm := strings.ReplaceAll(strings.TrimSpace(s), "-", "–")
	for _, g := range AllAgeGroups() {
		if g.String() == norm {
			return g, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown age group %q", ErrInvalidFilter, s)
}
