package fare

import "github.com/Cythina1106/faregate/internal/faregate/types"

// DefaultRules is the built-in development fare set, used when no fares file
// is configured. Staff travel is free on every pair.
func DefaultRules() []Rule {
	free := func(standard, student, senior int64) map[types.Category]int64 {
		return map[types.Category]int64{
			types.CategoryStandard: standard,
			types.CategoryStudent:  student,
			types.CategorySenior:   senior,
			types.CategoryStaff:    0,
		}
	}

	return []Rule{
		{StationA: "st_central", StationB: "st_riverside", Prices: free(300, 200, 150), DistanceKm: 4.2},
		{StationA: "st_central", StationB: "st_airport", Prices: free(550, 400, 300), DistanceKm: 12.8},
		{StationA: "st_riverside", StationB: "st_airport", Prices: free(450, 300, 250), DistanceKm: 9.1},
		{StationA: "st_central", StationB: "st_harbor", Prices: free(350, 250, 180), DistanceKm: 6.0},
		{StationA: "st_riverside", StationB: "st_harbor", Prices: free(250, 180, 120), DistanceKm: 3.3},
	}
}
