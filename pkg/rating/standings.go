package rating

import "sort"

// Standings orders the engine output for presentation: tournament score
// first, then performance rating, then name. The name key makes the order
// total, so two runs over the same input render byte-identical reports.
func Standings(changes map[string]RatingChange) []RatingChange {
	ordered := make([]RatingChange, 0, len(changes))
	for _, rc := range changes {
		ordered = append(ordered, rc)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.ActualScore != b.ActualScore {
			return a.ActualScore > b.ActualScore
		}
		if a.PerformanceRating != b.PerformanceRating {
			return a.PerformanceRating > b.PerformanceRating
		}
		return a.Name < b.Name
	})
	return ordered
}
