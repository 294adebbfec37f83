package extract

// Food is one itemized entry recovered from a narrative breakdown.
// Unrecognized sub-fields stay at zero.
type Food struct {
	Name     string  `json:"name"`
	ServingG float64 `json:"serving_g"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Record is the structured result of parsing one narrative text block.
// Totals default to zero and Foods to an empty list when the text has
// nothing recognizable.
type Record struct {
	TotalCalories float64 `json:"total_calories"`
	TotalProtein  float64 `json:"total_protein"`
	TotalCarbs    float64 `json:"total_carbs"`
	TotalFat      float64 `json:"total_fat"`
	Foods         []Food  `json:"foods"`
}
