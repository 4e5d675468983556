package dashboard

import (
	"sort"

	"insuranceInsights/domain"
)

// ComputeViews derives all ten views from the filtered rows. rows is read only.
func ComputeViews(rows []domain.Applicant) domain.Views {
	meanBMI := meanBMIByAge(rows)

	return domain.Views{
		ResponseProportion:    responseProportion(rows),
		BMICategoryProportion: bmiCategoryProportion(rows),
		BMIByResponse:         bmiByResponse(rows),
		AgeGroupCounts:        ageGroupCounts(rows),
		MeanResponseByProduct: meanResponseByProduct(rows),
		MeanBMIByAgeLine:      meanBMI,
		ResponseByBMICategory: responseByBMICategory(rows),
		ProductCodeCounts:     productCodeCounts(rows),
		MeanBMIByAgeBar:       meanBMIByAgeBar(rows, meanBMI),
		ResponseHeatmap:       responseHeatmap(rows),
	}
}

func responseProportion(rows []domain.Applicant) []domain.ScoreValue {
	counts := make(map[int]int)
	for _, r := range rows {
		counts[r.Response]++
	}

	scores := make([]int, 0, len(counts))
	for s := range counts {
		scores = append(scores, s)
	}
	sort.Ints(scores)

	out := make([]domain.ScoreValue, 0, len(scores))
	for _, s := range scores {
		out = append(out, domain.ScoreValue{Score: s, Value: percentage(counts[s], len(rows))})
	}
	return out
}

// bmiCategoryProportion reports every category in order; absent ones are null.
// No rows yields an empty slice.
func bmiCategoryProportion(rows []domain.Applicant) []domain.CategoryValue {
	if len(rows) == 0 {
		return []domain.CategoryValue{}
	}

	counts := make(map[domain.BMICategory]int)
	for _, r := range rows {
		counts[r.BMICategory]++
	}

	out := make([]domain.CategoryValue, 0, len(domain.AllBMICategories()))
	for _, c := range domain.AllBMICategories() {
		v := domain.CategoryValue{Category: c}
		if n, ok := counts[c]; ok {
			v.Value = domain.Float(percentage(n, len(rows)))
		}
		out = append(out, v)
	}
	return out
}

// bmiByResponse has one box per present score. An empty row set has no
// groups, so the undefined boxes are an empty slice rather than null cells.
func bmiByResponse(rows []domain.Applicant) []domain.ScoreBox {
	groups := make(map[int][]float64)
	for _, r := range rows {
		groups[r.Response] = append(groups[r.Response], r.ActualBMI)
	}

	scores := make([]int, 0, len(groups))
	for s := range groups {
		scores = append(scores, s)
	}
	sort.Ints(scores)

	out := make([]domain.ScoreBox, 0, len(scores))
	for _, s := range scores {
		out = append(out, domain.ScoreBox{Score: s, Box: boxSummary(groups[s])})
	}
	return out
}

func ageGroupCounts(rows []domain.Applicant) []domain.AgeGroupCount {
	counts := make(map[domain.AgeGroup]int)
	for _, r := range rows {
		counts[r.AgeGroup]++
	}

	out := make([]domain.AgeGroupCount, 0, len(counts))
	for _, g := range domain.AllAgeGroups() {
		if n, ok := counts[g]; ok {
			out = append(out, domain.AgeGroupCount{AgeGroup: g, Count: n})
		}
	}
	return out
}

func meanResponseByProduct(rows []domain.Applicant) []domain.ProductValue {
	groups := make(map[string][]float64)
	for _, r := range rows {
		groups[r.ProductCode] = append(groups[r.ProductCode], float64(r.Response))
	}

	out := make([]domain.ProductValue, 0, len(groups))
	for _, code := range sortedKeys(groups) {
		out = append(out, domain.ProductValue{ProductCode: code, Value: mean(groups[code]).Value})
	}
	return out
}

// meanBMIByAge always covers the six groups; groups without rows are null.
func meanBMIByAge(rows []domain.Applicant) []domain.AgeGroupValue {
	groups := make(map[domain.AgeGroup][]float64)
	for _, r := range rows {
		groups[r.AgeGroup] = append(groups[r.AgeGroup], r.ActualBMI)
	}

	out := make([]domain.AgeGroupValue, 0, len(domain.AllAgeGroups()))
	for _, g := range domain.AllAgeGroups() {
		out = append(out, domain.AgeGroupValue{AgeGroup: g, Value: mean(groups[g])})
	}
	return out
}

// meanBMIByAgeBar shares the line view's values but is empty without rows.
func meanBMIByAgeBar(rows []domain.Applicant, line []domain.AgeGroupValue) []domain.AgeGroupValue {
	if len(rows) == 0 {
		return []domain.AgeGroupValue{}
	}
	out := make([]domain.AgeGroupValue, len(line))
	copy(out, line)
	return out
}

// responseByBMICategory lists present categories only; like bmiByResponse
// it is an empty slice when there are no rows.
func responseByBMICategory(rows []domain.Applicant) []domain.CategoryBox {
	groups := make(map[domain.BMICategory][]float64)
	for _, r := range rows {
		groups[r.BMICategory] = append(groups[r.BMICategory], float64(r.Response))
	}

	out := make([]domain.CategoryBox, 0, len(groups))
	for _, c := range domain.AllBMICategories() {
		if values, ok := groups[c]; ok {
			out = append(out, domain.CategoryBox{Category: c, Box: boxSummary(values)})
		}
	}
	return out
}

func productCodeCounts(rows []domain.Applicant) []domain.ProductCount {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.ProductCode]++
	}

	out := make([]domain.ProductCount, 0, len(counts))
	for _, code := range sortedKeys(counts) {
		out = append(out, domain.ProductCount{ProductCode: code, Count: counts[code]})
	}
	return out
}

func responseHeatmap(rows []domain.Applicant) domain.Heatmap {
	categories := domain.AllBMICategories()
	ageGroups := domain.AllAgeGroups()

	type cell struct {
		category domain.BMICategory
		group    domain.AgeGroup
	}
	groups := make(map[cell][]float64)
	for _, r := range rows {
		k := cell{r.BMICategory, r.AgeGroup}
		groups[k] = append(groups[k], float64(r.Response))
	}

	cells := make([][]domain.NullFloat, len(categories))
	for i, c := range categories {
		cells[i] = make([]domain.NullFloat, len(ageGroups))
		for j, g := range ageGroups {
			cells[i][j] = mean(groups[cell{c, g}])
		}
	}

	return domain.Heatmap{Rows: categories, Columns: ageGroups, Cells: cells}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
