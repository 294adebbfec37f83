package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Config carries the label patterns and numeric capture rules the parser
// runs over narrative text. Kept as data rather than literals inside the
// scan loop so the format can be adjusted without touching the algorithm.
type Config struct {
	// Totals, matched against lines outside any food block. Protein,
	// carb and fat labels require a gram suffix so bare numbers in prose
	// are not picked up.
	TotalCalories *regexp.Regexp
	TotalProtein  *regexp.Regexp
	TotalCarbs    *regexp.Regexp
	TotalFat      *regexp.Regexp

	// FoodMarker opens a new food block: "<integer>. <name>".
	FoodMarker *regexp.Regexp
	// SectionHeader closes an open food block ("TOTALES:", "DESGLOSE
	// POR ALIMENTO:") so totals placed after the breakdown are not
	// swallowed by the last food.
	SectionHeader *regexp.Regexp

	// Sub-field labels checked inside an open food block. Each label
	// is paired with the capture used to pull its number.
	ServingLabels []string
	CalorieLabels []string
	ProteinLabels []string
	CarbLabels    []string
	FatLabels     []string

	// Number captures for sub-fields: calories accept a bare number,
	// everything else requires grams.
	BareNumber *regexp.Regexp
	GramNumber *regexp.Regexp
}

// DefaultConfig returns the patterns for the Spanish narrative format
// produced by the vision provider. Accented and unaccented spellings
// both match.
func DefaultConfig() Config {
	return Config{
		TotalCalories: regexp.MustCompile(`(?i)Calor[íi]as?[:\s]+(\d+(?:\.\d+)?)`),
		TotalProtein:  regexp.MustCompile(`(?i)Prote[íi]nas?[:\s]+(\d+(?:\.\d+)?)\s*g`),
		TotalCarbs:    regexp.MustCompile(`(?i)Carbohidratos?[:\s]+(\d+(?:\.\d+)?)\s*g`),
		TotalFat:      regexp.MustCompile(`(?i)Grasas?[:\s]+(\d+(?:\.\d+)?)\s*g`),

		FoodMarker:    regexp.MustCompile(`^(\d+)\.\s*(.+)$`),
		SectionHeader: regexp.MustCompile(`^[A-ZÁÉÍÓÚÑ][A-ZÁÉÍÓÚÑ\s]*:\s*$`),

		ServingLabels: []string{"Porción", "Porcion"},
		CalorieLabels: []string{"Calorías", "Calorias"},
		ProteinLabels: []string{"Proteínas", "Proteinas"},
		CarbLabels:    []string{"Carbohidratos"},
		FatLabels:     []string{"Grasas"},

		BareNumber: regexp.MustCompile(`(\d+(?:\.\d+)?)`),
		GramNumber: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*g`),
	}
}

// Parser turns free-form nutrition narratives into Records. It holds no
// state between calls; a single Parser is safe for concurrent use.
type Parser struct {
	cfg Config
}

func NewParser(cfg Config) *Parser {
	return &Parser{cfg: cfg}
}

// Parse recovers totals and a per-food breakdown from text. It never
// fails: anything it cannot recognize is left at its zero value.
func (p *Parser) Parse(text string) Record {
	rec := Record{Foods: []Food{}}

	var current *Food
	var looseLines []string

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		if m := p.cfg.FoodMarker.FindStringSubmatch(line); m != nil {
			if current != nil {
				rec.Foods = append(rec.Foods, *current)
			}
			current = &Food{Name: strings.TrimSpace(m[2])}
			continue
		}

		if current != nil {
			if p.cfg.SectionHeader.MatchString(line) {
				rec.Foods = append(rec.Foods, *current)
				current = nil
				looseLines = append(looseLines, line)
				continue
			}
			p.scanFoodLine(line, current)
			continue
		}

		looseLines = append(looseLines, line)
	}
	if current != nil {
		rec.Foods = append(rec.Foods, *current)
	}

	// Totals come only from lines outside food blocks, so a food's own
	// calorie line never masquerades as the grand total.
	loose := strings.Join(looseLines, "\n")
	rec.TotalCalories = firstNumber(p.cfg.TotalCalories, loose)
	rec.TotalProtein = firstNumber(p.cfg.TotalProtein, loose)
	rec.TotalCarbs = firstNumber(p.cfg.TotalCarbs, loose)
	rec.TotalFat = firstNumber(p.cfg.TotalFat, loose)

	if rec.TotalCalories == 0 && len(rec.Foods) > 0 {
		var cal, prot, carbs, fat float64
		for _, f := range rec.Foods {
			cal += f.Calories
			prot += f.Protein
			carbs += f.Carbs
			fat += f.Fat
		}
		rec.TotalCalories = math.Round(cal)
		rec.TotalProtein = round1(prot)
		rec.TotalCarbs = round1(carbs)
		rec.TotalFat = round1(fat)
	}

	return rec
}

func (p *Parser) scanFoodLine(line string, food *Food) {
	if containsAny(line, p.cfg.ServingLabels) {
		if v, ok := capture(p.cfg.GramNumber, line); ok {
			food.ServingG = v
		}
	}
	if containsAny(line, p.cfg.CalorieLabels) {
		if v, ok := capture(p.cfg.BareNumber, line); ok {
			food.Calories = v
		}
	}
	if containsAny(line, p.cfg.ProteinLabels) {
		if v, ok := capture(p.cfg.GramNumber, line); ok {
			food.Protein = v
		}
	}
	if containsAny(line, p.cfg.CarbLabels) {
		if v, ok := capture(p.cfg.GramNumber, line); ok {
			food.Carbs = v
		}
	}
	if containsAny(line, p.cfg.FatLabels) {
		if v, ok := capture(p.cfg.GramNumber, line); ok {
			food.Fat = v
		}
	}
}

func containsAny(line string, labels []string) bool {
	for _, l := range labels {
		if strings.Contains(line, l) {
			return true
		}
	}
	return false
}

func capture(re *regexp.Regexp, line string) (float64, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func firstNumber(re *regexp.Regexp, text string) float64 {
	v, _ := capture(re, text)
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
