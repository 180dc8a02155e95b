package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerchantSanitizer_Sanitize(t *testing.T) {
	sanitizer := NewMerchantSanitizer()

	tests := []struct {
		name           string
		input          string
		expectedName   string
		expectedCat    string
		expectedSubcat string
	}{
		{
			name:           "Pão de Açúcar with prefix",
			input:          "COMPRA PAO DE ACUCAR 123456",
			expectedName:   "Pão de Açúcar",
			expectedCat:    "Groceries",
			expectedSubcat: "Supermarket",
		},
		{
			name:           "Netflix subscription",
			input:          "NETFLIX.COM",
			expectedName:   "Netflix",
			expectedCat:    "Entertainment",
			expectedSubcat: "Streaming",
		},
		{
			name:           "Uber ride",
			input:          "UBER *TRIP 12/01",
			expectedName:   "Uber",
			expectedCat:    "Transport",
			expectedSubcat: "Rideshare",
		},
		{
			name:           "Uber Eats delivery",
			input:          "UBER EATS",
			expectedName:   "Uber Eats",
			expectedCat:    "Food & Drink",
			expectedSubcat: "Delivery",
		},
		{
			name:           "iFood acquirer marker",
			input:          "IFD*BURGER KING SP",
			expectedName:   "iFood",
			expectedCat:    "Food & Drink",
			expectedSubcat: "Delivery",
		},
		{
			name:           "Mercado Livre is not a supermarket",
			input:          "MERCADOLIVRE*VENDEDOR",
			expectedName:   "Mercado Livre",
			expectedCat:    "Shopping",
			expectedSubcat: "Online",
		},
		{
			name:           "accented pharmacy",
			input:          "Farmácia São João",
			expectedName:   "Farmácia",
			expectedCat:    "Health",
			expectedSubcat: "Pharmacy",
		},
		{
			name:           "McDonald's with prefix",
			input:          "COMPRAS MC DONALDS CENTRO",
			expectedName:   "McDonald's",
			expectedCat:    "Food & Drink",
			expectedSubcat: "Fast Food",
		},
		{
			name:           "Unknown merchant gets title case",
			input:          "LOJA QUALQUER 456789",
			expectedName:   "Loja Qualquer",
			expectedCat:    "",
			expectedSubcat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizer.Sanitize(tt.input)

			assert.Equal(t, tt.input, result.OriginalName)
			assert.Equal(t, tt.expectedName, result.NormalizedName)
			assert.Equal(t, tt.expectedCat, result.Category)
			assert.Equal(t, tt.expectedSubcat, result.Subcategory)
		})
	}
}

func TestMerchantSanitizer_Category(t *testing.T) {
	sanitizer := NewMerchantSanitizer()
	assert.Equal(t, "Entertainment", sanitizer.Category("SPOTIFY"))
	assert.Equal(t, "Finance", sanitizer.Category("IOF COMPRA INTERNACIONAL"))
	assert.Empty(t, sanitizer.Category("BIOFARMA LTDA"))
}

func TestMerchantSanitizer_AddPattern(t *testing.T) {
	sanitizer := NewMerchantSanitizer()
	require.NoError(t, sanitizer.AddPattern(`LIVRARIA`, "Livraria", "Shopping", "Books"))

	result := sanitizer.Sanitize("LIVRARIA CULTURA")
	assert.Equal(t, "Livraria", result.NormalizedName)
	assert.Equal(t, "Books", result.Subcategory)

	assert.Error(t, sanitizer.AddPattern(`(`, "x", "y", "z"))
}

func TestCleanMerchantName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"COMPRA PADARIA 123456", "PADARIA"},
		{"PAG STARBUCKS 12/01", "STARBUCKS"},
		{"PIX ENVIADO MARIA SILVA", "MARIA SILVA"},
		{"MP *LOJADOZE", "LOJADOZE"},
		{"DÉBITO AUTOMÁTICO SABESP", "SABESP"},
		{"  LOJA   CENTRO  ", "LOJA CENTRO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanMerchantName(tt.input))
		})
	}
}
