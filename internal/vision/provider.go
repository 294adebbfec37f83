package vision

import "context"

// Provider turns a food photo into a structured Spanish nutrition
// narrative that the extraction parser understands.
type Provider interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (string, error)
}

// AnalyzeRequest carries the image and an optional caller prompt. The
// image is base64, with or without a data-URL prefix.
type AnalyzeRequest struct {
	ImageBase64 string
	MimeType    string
	Prompt      string
}

// DefaultPrompt asks for the exact layout the extraction parser scans:
// a TOTALES block with labeled numbers and a numbered per-food breakdown.
const DefaultPrompt = `Analiza esta imagen de comida e identifica los alimentos presentes.
Responde en español con exactamente este formato:

ALIMENTOS IDENTIFICADOS:
- [Nombre del alimento] ([porción en gramos]g)

TOTALES:
Calorías: [número] kcal
Proteínas: [número]g
Carbohidratos: [número]g
Grasas: [número]g

DESGLOSE POR ALIMENTO:
1. [Nombre alimento]
   - Porción: [número]g
   - Calorías: [número] kcal
   - Proteínas: [número]g
   - Carbohidratos: [número]g
   - Grasas: [número]g`
