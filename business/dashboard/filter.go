package dashboard

import "insuranceInsights/domain"

// ApplyFilters keeps the rows matching every restricted selector.
// The input slice is never modified; an empty result is valid.
func ApplyFilters(rows []domain.Applicant, f domain.Filters) []domain.Applicant {
	out := make([]domain.Applicant, 0, len(rows))
	for _, r := range rows {
		if matches(r, f) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r domain.Applicant, f domain.Filters) bool {
	if f.BMICategory.Valid() && r.BMICategory != f.BMICategory {
		return false
	}
	if f.AgeGroup.Valid() && r.AgeGroup != f.AgeGroup {
		return false
	}
	if f.ProductCode != "" && r.ProductCode != f.ProductCode {
		return false
	}
	if f.ResponseScore != 0 && r.Response != f.ResponseScore {
		return false
	}
	return true
}
