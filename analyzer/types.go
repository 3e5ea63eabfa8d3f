package analyzer

// SEOResult represents the synthesized SEO metadata for a product page
type SEOResult struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	MetaDescription string `json:"meta_description"`
	ArabicKeywords  string `json:"arabic_keywords"`
	EnglishKeywords string `json:"english_keywords"`
	ArabicSEOTitle  string `json:"arabic_seo_title"`
	EnglishSEOTitle string `json:"english_seo_title"`
	ImageURL        string `json:"image_url"`
}

// Page is what the extractor pulls out of a fetched document
type Page struct {
	URL         string
	Title       string
	Description string
	ImageURL    string
	Text        string
}

// KeywordSet holds ranked page keywords split by script.
type KeywordSet struct {
	Arabic  []string
	English []string
}

// Gender is the audience label used in SEO titles. Both fields are empty
// when nothing was detected.
type Gender struct {
	Arabic  string
	English string
}

// Detected reports whether a gender signal was found
func (g Gender) Detected() bool {
	return g.Arabic != "" || g.English != ""
}
