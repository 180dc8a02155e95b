package normalizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MerchantInfo contains normalized merchant information
type MerchantInfo struct {
	OriginalName   string `json:"original_name"`
	NormalizedName string `json:"normalized_name"`
	Category       string `json:"category,omitempty"`
	Subcategory    string `json:"subcategory,omitempty"`
}

// MerchantPattern defines a pattern for matching and normalizing merchants
type MerchantPattern struct {
	Pattern     *regexp.Regexp
	Name        string
	Category    string
	Subcategory string
}

// MerchantSanitizer normalizes merchant names and detects categories.
// It is read-only after construction and safe for concurrent use.
type MerchantSanitizer struct {
	overrides []MerchantOverride
	patterns  []MerchantPattern
}

// NewMerchantSanitizer creates a new sanitizer with common Brazilian merchant patterns
func NewMerchantSanitizer(overrides ...MerchantOverride) *MerchantSanitizer {
	return &MerchantSanitizer{
		overrides: overrides,
		patterns:  defaultMerchantPatterns(),
	}
}

var (
	refPattern       = regexp.MustCompile(`\s+\d{4,}$`)
	trailDatePattern = regexp.MustCompile(`\s+\d{1,2}/\d{1,2}/?$`)
	acquirerPattern  = regexp.MustCompile(`^(?:IFD|MP|PAG|PG|EC|DL|PP|PAYPAL|SUMUP|HNA)\s?\*\s*`)
)

// Sanitize normalizes a merchant name and detects its category
func (s *MerchantSanitizer) Sanitize(rawMerchant string) MerchantInfo {
	result := MerchantInfo{
		OriginalName:   rawMerchant,
		NormalizedName: rawMerchant,
	}

	cleaned := cleanMerchantName(rawMerchant)
	result.NormalizedName = cleaned
	// Match against the raw text so acquirer markers ("IFD*") still count
	upper := NormalizeText(rawMerchant)

	// User overrides win over the built-in table
	for _, o := range s.overrides {
		if o.matches(upper) {
			result.NormalizedName = o.MerchantName
			result.Category = o.Category
			result.Subcategory = o.Subcategory
			return result
		}
	}

	for _, pattern := range s.patterns {
		if pattern.Pattern.MatchString(upper) {
			result.NormalizedName = pattern.Name
			result.Category = pattern.Category
			result.Subcategory = pattern.Subcategory
			return result
		}
	}

	result.NormalizedName = titleCase(cleaned)
	return result
}

// Category returns only the detected category, empty when unknown
func (s *MerchantSanitizer) Category(rawMerchant string) string {
	return s.Sanitize(rawMerchant).Category
}

// AddPattern adds a custom merchant pattern
func (s *MerchantSanitizer) AddPattern(pattern string, name, category, subcategory string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, MerchantPattern{
		Pattern:     re,
		Name:        name,
		Category:    category,
		Subcategory: subcategory,
	})
	return nil
}

// cleanMerchantName removes common noise from merchant names
func cleanMerchantName(raw string) string {
	result := CollapseSpaces(raw)

	prefixes := []string{
		"COMPRA CARTAO ", "COMPRA ", "COMPRAS ", "PAGAMENTO ", "PAG ",
		"PIX ENVIADO ", "PIX RECEBIDO ", "PIX ", "TED ", "DOC ",
		"DEB AUTOR ", "DEBITO AUTOMATICO ",
	}
	upper := strings.ToUpper(StripDiacritics(result))
	for _, prefix := range prefixes {
		if strings.HasPrefix(upper, prefix) {
			result = string([]rune(result)[utf8.RuneCountInString(prefix):])
			break
		}
	}

	// Acquirer markers such as "IFD*", "MP *", "PAG*"
	if loc := acquirerPattern.FindStringIndex(strings.ToUpper(result)); loc != nil {
		result = result[loc[1]:]
	}

	result = refPattern.ReplaceAllString(result, "")
	result = trailDatePattern.ReplaceAllString(result, "")

	return CollapseSpaces(result)
}

// titleCase converts a string to title case
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}
	return strings.Join(words, " ")
}

// defaultMerchantPatterns returns common merchant patterns for Brazil.
// Patterns run against NormalizeText output (upper case, no diacritics).
func defaultMerchantPatterns() []MerchantPattern {
	patterns := []MerchantPattern{
		// Marketplace first so the supermarket catch-all does not swallow it
		{regexp.MustCompile(`MERCADO\s*LIVRE|MERCADOLIVRE`), "Mercado Livre", "Shopping", "Online"},

		// Supermarkets
		{regexp.MustCompile(`PAO DE ACUCAR`), "Pão de Açúcar", "Groceries", "Supermarket"},
		{regexp.MustCompile(`CARREFOUR`), "Carrefour", "Groceries", "Supermarket"},
		{regexp.MustCompile(`\bEXTRA\b`), "Extra", "Groceries", "Supermarket"},
		{regexp.MustCompile(`ASSAI`), "Assaí", "Groceries", "Supermarket"},
		{regexp.MustCompile(`ATACADAO`), "Atacadão", "Groceries", "Supermarket"},
		{regexp.MustCompile(`SUPERMERCADO|MERCADO`), "Supermercado", "Groceries", "Supermarket"},
		{regexp.MustCompile(`PADARIA|PANIFICADORA`), "Padaria", "Groceries", "Bakery"},

		// Food delivery and restaurants (before transport so UBER EATS wins)
		{regexp.MustCompile(`IFOOD|IFD\b`), "iFood", "Food & Drink", "Delivery"},
		{regexp.MustCompile(`RAPPI`), "Rappi", "Food & Drink", "Delivery"},
		{regexp.MustCompile(`UBER\s*EATS`), "Uber Eats", "Food & Drink", "Delivery"},
		{regexp.MustCompile(`MC\s*DONALDS|MCDONALD`), "McDonald's", "Food & Drink", "Fast Food"},
		{regexp.MustCompile(`BURGER\s*KING`), "Burger King", "Food & Drink", "Fast Food"},
		{regexp.MustCompile(`STARBUCKS`), "Starbucks", "Food & Drink", "Coffee"},
		{regexp.MustCompile(`RESTAURANTE|LANCHONETE|CHURRASCARIA`), "Restaurante", "Food & Drink", "Restaurant"},

		// Transport
		{regexp.MustCompile(`\bUBER\b`), "Uber", "Transport", "Rideshare"},
		{regexp.MustCompile(`\b99\s*(POP|APP|TAXI)\b`), "99", "Transport", "Rideshare"},
		{regexp.MustCompile(`POSTO|IPIRANGA|SHELL|PETROBRAS|\bBR\s+MANIA\b`), "Posto", "Transport", "Fuel"},
		{regexp.MustCompile(`SEM\s*PARAR|CONECTCAR|VELOE`), "Pedágio", "Transport", "Tolls"},
		{regexp.MustCompile(`LATAM|\bGOL\b|AZUL LINHAS`), "Companhia Aérea", "Transport", "Flights"},

		// Utilities
		{regexp.MustCompile(`ENEL|CEMIG|COPEL|LIGHT\s+S`), "Energia", "Utilities", "Electricity"},
		{regexp.MustCompile(`SABESP|CEDAE|COPASA`), "Saneamento", "Utilities", "Water"},
		{regexp.MustCompile(`\bVIVO\b|\bCLARO\b|\bTIM\b|\bOI\b`), "Telefonia", "Utilities", "Telecom"},

		// Shopping
		{regexp.MustCompile(`AMAZON`), "Amazon", "Shopping", "Online"},
		{regexp.MustCompile(`MAGAZINE\s*LUIZA|MAGALU`), "Magazine Luiza", "Shopping", "Electronics"},
		{regexp.MustCompile(`RENNER|RIACHUELO|\bC&A\b`), "Vestuário", "Shopping", "Clothing"},
		{regexp.MustCompile(`SHOPEE`), "Shopee", "Shopping", "Online"},

		// Entertainment
		{regexp.MustCompile(`NETFLIX`), "Netflix", "Entertainment", "Streaming"},
		{regexp.MustCompile(`SPOTIFY`), "Spotify", "Entertainment", "Streaming"},
		{regexp.MustCompile(`DISNEY\s*\+|DISNEYPLUS`), "Disney+", "Entertainment", "Streaming"},
		{regexp.MustCompile(`CINEMARK|CINEMA`), "Cinema", "Entertainment", "Movies"},
		{regexp.MustCompile(`STEAM|PLAYSTATION|\bPSN\b`), "Games", "Entertainment", "Gaming"},

		// Health
		{regexp.MustCompile(`DROGARIA|FARMACIA|DROGASIL|PAGUE MENOS`), "Farmácia", "Health", "Pharmacy"},
		{regexp.MustCompile(`SMART\s*FIT|ACADEMIA`), "Academia", "Health", "Fitness"},

		// Finance
		{regexp.MustCompile(`ANUIDADE`), "Anuidade", "Finance", "Fees"},
		{regexp.MustCompile(`\bIOF\b`), "IOF", "Finance", "Taxes"},
		{regexp.MustCompile(`JUROS|ENCARGOS`), "Encargos", "Finance", "Interest"},
	}
	return patterns
}
