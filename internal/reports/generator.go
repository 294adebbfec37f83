package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/nutriexpert/api/internal/inference"
)

// Generator renders a resolved diet plan as PDF or CSV.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the inference result in the requested format.
func (g *Generator) Generate(req CreateReportRequest, result inference.InferResponse) ([]byte, error) {
	switch req.Format {
	case FormatPDF:
		return g.generatePDF(req, result)
	case FormatCSV:
		return g.generateCSV(req, result)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}

// generateCSV renders the plan as section/field/value rows.
func (g *Generator) generateCSV(req CreateReportRequest, result inference.InferResponse) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"section", "field", "value"}); err != nil {
		return nil, err
	}

	rows := [][]string{
		{"facts", "age", strconv.Itoa(req.Facts.Age)},
		{"facts", "sex", req.Facts.Sex},
		{"facts", "height_cm", formatFloat(req.Facts.HeightCM)},
		{"facts", "weight_kg", formatFloat(req.Facts.WeightKG)},
		{"facts", "activity", req.Facts.Activity},
		{"facts", "conditions", strings.Join(req.Facts.Conditions, ";")},
		{"facts", "bmi", formatFloat(result.BMI)},
		{"result", "diagnosis", strings.Join(result.Diagnosis, ";")},
	}

	if result.Plan.KcalTarget != nil {
		rows = append(rows, []string{"plan", "kcal_target", strconv.Itoa(*result.Plan.KcalTarget)})
	} else {
		rows = append(rows, []string{"plan", "kcal_target", ""})
	}
	if ms := result.Plan.MacroSplit; ms != nil {
		rows = append(rows,
			[]string{"plan", "carb_pct", formatFloat(ms.CarbPct)},
			[]string{"plan", "prot_pct", formatFloat(ms.ProtPct)},
			[]string{"plan", "fat_pct", formatFloat(ms.FatPct)},
		)
	}
	rows = append(rows,
		[]string{"plan", "restrictions", strings.Join(result.Plan.Restrictions, ";")},
		[]string{"plan", "advice", strings.Join(result.Plan.Advice, ";")},
	)
	for _, fr := range result.FiredRules {
		rows = append(rows, []string{"fired_rule", fr.ID, fr.Explain})
	}

	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// generatePDF renders the plan as a one-page Spanish PDF. Core fonts
// cover Latin-1, so the Spanish labels go through the CP1252 translator
// instead of an embedded TTF.
func (g *Generator) generatePDF(req CreateReportRequest, result inference.InferResponse) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	title := req.Title
	if title == "" {
		title = "Plan nutricional"
	}
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(12)

	// Patient facts
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, tr("Datos del paciente"))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Edad: %d   Sexo: %s   Actividad: %s", req.Facts.Age, req.Facts.Sex, req.Facts.Activity)))
	pdf.Ln(5)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Estatura: %s cm   Peso: %s kg   IMC: %s",
		formatFloat(req.Facts.HeightCM), formatFloat(req.Facts.WeightKG), formatFloat(result.BMI))))
	pdf.Ln(5)
	conditions := "ninguna"
	if len(req.Facts.Conditions) > 0 {
		conditions = strings.Join(req.Facts.Conditions, ", ")
	}
	pdf.Cell(0, 6, tr("Condiciones: "+conditions))
	pdf.Ln(10)

	// Diagnosis
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, tr("Diagnóstico"))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	if len(result.Diagnosis) == 0 {
		pdf.Cell(0, 6, tr("Sin hallazgos"))
		pdf.Ln(5)
	}
	for _, d := range result.Diagnosis {
		pdf.Cell(0, 6, tr("- "+d))
		pdf.Ln(5)
	}
	pdf.Ln(5)

	// Plan
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, tr("Plan"))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	if result.Plan.KcalTarget != nil {
		pdf.Cell(0, 6, tr(fmt.Sprintf("Objetivo calórico: %d kcal/día", *result.Plan.KcalTarget)))
		pdf.Ln(5)
	}
	if ms := result.Plan.MacroSplit; ms != nil {
		pdf.Cell(0, 6, tr(fmt.Sprintf("Macronutrientes: carbohidratos %.0f%%, proteínas %.0f%%, grasas %.0f%%",
			ms.CarbPct*100, ms.ProtPct*100, ms.FatPct*100)))
		pdf.Ln(5)
	}
	if len(result.Plan.Restrictions) > 0 {
		pdf.Cell(0, 6, tr("Restricciones: "+strings.Join(result.Plan.Restrictions, ", ")))
		pdf.Ln(5)
	}
	for _, a := range result.Plan.Advice {
		pdf.Cell(0, 6, tr("Consejo: "+a))
		pdf.Ln(5)
	}
	pdf.Ln(5)

	// Audit trail
	if len(result.FiredRules) > 0 {
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(0, 8, tr("Reglas aplicadas"))
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		for _, fr := range result.FiredRules {
			line := fr.ID
			if fr.Name != "" {
				line += " - " + fr.Name
			}
			if fr.Explain != "" {
				line += " (" + fr.Explain + ")"
			}
			pdf.Cell(0, 6, tr(line))
			pdf.Ln(5)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
