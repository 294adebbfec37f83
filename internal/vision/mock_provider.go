package vision

import "context"

// MockProvider returns a fixed narrative so the full analyze pipeline
// works without an API key.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Analyze(ctx context.Context, req AnalyzeRequest) (string, error) {
	return mockNarrative, nil
}

const mockNarrative = `ALIMENTOS IDENTIFICADOS:
- Pechuga de pollo a la plancha (150g)
- Arroz blanco (200g)
- Ensalada mixta (80g)

TOTALES:
Calorías: 545 kcal
Proteínas: 53.1g
Carbohidratos: 59.5g
Grasas: 7.2g

DESGLOSE POR ALIMENTO:
1. Pechuga de pollo a la plancha
   - Porción: 150g
   - Calorías: 248 kcal
   - Proteínas: 46.5g
   - Carbohidratos: 0g
   - Grasas: 5.4g

2. Arroz blanco
   - Porción: 200g
   - Calorías: 260 kcal
   - Proteínas: 4.8g
   - Carbohidratos: 56g
   - Grasas: 0.6g

3. Ensalada mixta
   - Porción: 80g
   - Calorías: 37 kcal
   - Proteínas: 1.8g
   - Carbohidratos: 3.5g
   - Grasas: 1.2g`
