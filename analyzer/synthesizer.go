package analyzer

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	brandArabic  = "من لافيش"
	brandEnglish = "from lavish"

	// genericProductName stands in for the product when the page has no title
	genericProductName = "عطر"

	maxMetaDescription      = 160
	metaBriefRunes          = 50
	maxArabicKeywordsRunes  = 200
	maxEnglishKeywords      = 25
	extractedKeywordsPerMix = 10

	arabicKeywordSeparator  = "، "
	englishKeywordSeparator = ", "
)

// Number of terms drawn from each word bank per language
const (
	fragranceSamples  = 4
	marketingSamples  = 5
	localSamples      = 3
	comparisonSamples = 2
)

var (
	womenWordsEnglish = []string{"woman", "women", "female", "lady", "her", "she"}
	menWordsEnglish   = []string{"man", "men", "male", "gentleman", "his", "he"}
	womenWordsArabic  = []string{"نسائي", "نساء", "المرأة", "للنساء"}
	menWordsArabic    = []string{"رجالي", "رجال", "الرجل", "للرجال"}

	genderWomen = Gender{Arabic: "نسائي", English: "women"}
	genderMen   = Gender{Arabic: "رجالي", English: "men"}
)

// Synthesizer turns extracted page data into SEO strings
type Synthesizer struct {
	lexicon     *Lexicon
	logger      *zap.Logger
	composeMeta func(product, description string, marketing, fragrance []string) string
}

// NewSynthesizer creates a synthesizer over an immutable lexicon
func NewSynthesizer(lexicon *Lexicon, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{lexicon: lexicon, logger: logger, composeMeta: composeMetaDescription}
}

// bankSample is one random draw from a word bank
type bankSample struct {
	fragrance  []string
	marketing  []string
	local      []string
	comparison []string
}

func sampleBank(rng *rand.Rand, bank WordBank) bankSample {
	return bankSample{
		fragrance:  sample(rng, bank.Fragrance, fragranceSamples),
		marketing:  sample(rng, bank.Marketing, marketingSamples),
		local:      sample(rng, bank.Local, localSamples),
		comparison: sample(rng, bank.Comparison, comparisonSamples),
	}
}

func (b bankSample) terms() []string {
	return slices.Concat(b.fragrance, b.marketing, b.local, b.comparison)
}

// Synthesize builds the SEO result. All randomness is drawn from rng.
func (s *Synthesizer) Synthesize(rng *rand.Rand, page *Page, keywords KeywordSet) *SEOResult {
	arabic := sampleBank(rng, s.lexicon.Arabic)
	english := sampleBank(rng, s.lexicon.English)

	arabicKeywords := blendKeywords(rng, keywords.Arabic, arabic)
	englishKeywords := blendKeywords(rng, keywords.English, english)

	product := ProductName(page.URL, page.Title)
	gender := DetectGender(urlPath(page.URL), page.Description+" "+page.Text)

	return &SEOResult{
		Title:           page.Title,
		Description:     page.Description,
		MetaDescription: s.metaDescription(product, page.Description, arabic.marketing, arabic.fragrance),
		ArabicKeywords:  truncateRunes(strings.Join(arabicKeywords, arabicKeywordSeparator), maxArabicKeywordsRunes),
		EnglishKeywords: strings.Join(englishKeywords[:min(maxEnglishKeywords, len(englishKeywords))], englishKeywordSeparator),
		ArabicSEOTitle:  arabicTitle(product, gender, pick(rng, s.lexicon.Arabic.Phrases)),
		EnglishSEOTitle: englishTitle(product, gender, pick(rng, s.lexicon.English.Phrases)),
		ImageURL:        page.ImageURL,
	}
}

// blendKeywords mixes the strongest page keywords with sampled bank terms,
// shuffles them and drops repeats.
func blendKeywords(rng *rand.Rand, extracted []string, drawn bankSample) []string {
	top := extracted[:min(extractedKeywordsPerMix, len(extracted))]
	combined := slices.Concat(top, drawn.terms())
	rng.Shuffle(len(combined), func(i, j int) {
		combined[i], combined[j] = combined[j], combined[i]
	})
	return dedupe(combined)
}

// sample draws k distinct positions from items, uniformly and without replacement
func sample(rng *rand.Rand, items []string, k int) []string {
	k = min(k, len(items))
	pool := slices.Clone(items)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

func pick(rng *rand.Rand, items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[rng.IntN(len(items))]
}

// ProductName takes the slug after "/products/" in the URL path, kept
// percent-encoded as written, or falls back to the page title without its
// site suffix.
func ProductName(pageURL, title string) string {
	path := urlPath(pageURL)
	if idx := strings.LastIndex(path, "/products/"); idx >= 0 {
		return strings.TrimRight(path[idx+len("/products/"):], "/")
	}

	name := title
	if name == "" || name == NoTitle {
		name = genericProductName
	}
	if before, _, found := strings.Cut(name, " | "); found {
		name = before
	}
	if before, _, found := strings.Cut(name, " - "); found {
		name = before
	}
	return name
}

// DetectGender looks for an audience hint in the URL path first, then in
// English and finally Arabic words of the page text. Matching is plain
// substring search.
func DetectGender(urlPath, text string) Gender {
	path := strings.ToLower(urlPath)
	switch {
	case strings.Contains(path, "women"):
		return genderWomen
	case strings.Contains(path, "men"):
		return genderMen
	}

	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, womenWordsEnglish):
		return genderWomen
	case containsAny(lower, menWordsEnglish):
		return genderMen
	case containsAny(text, womenWordsArabic):
		return genderWomen
	case containsAny(text, menWordsArabic):
		return genderMen
	}
	return Gender{}
}

func arabicTitle(product string, gender Gender, phrase string) string {
	if gender.Arabic != "" {
		return fmt.Sprintf("%s | %s | عطر %s %s", product, brandArabic, gender.Arabic, phrase)
	}
	return fmt.Sprintf("%s | %s | %s", product, brandArabic, phrase)
}

func englishTitle(product string, gender Gender, phrase string) string {
	if gender.English != "" {
		return fmt.Sprintf("%s | %s | %s perfume %s", product, brandEnglish, gender.English, phrase)
	}
	return fmt.Sprintf("%s | %s | %s", product, brandEnglish, phrase)
}

// metaDescription never fails: a panic while composing is logged and the
// static fallback is returned instead.
func (s *Synthesizer) metaDescription(product, description string, marketing, fragrance []string) (meta string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("meta description generation failed",
				zap.String("product", product),
				zap.Any("panic", r),
			)
			meta = fallbackMetaDescription(product)
		}
	}()

	return s.composeMeta(product, description, marketing, fragrance)
}

func composeMetaDescription(product, description string, marketing, fragrance []string) string {
	brief := "عطر " + product
	if description != "" && description != NoDescription {
		brief = truncateRunes(description, metaBriefRunes)
	}

	fragrancePart := strings.Join(fragrance[:min(1, len(fragrance))], " ")
	marketingPart := strings.Join(marketing[:min(2, len(marketing))], " ")

	meta := fmt.Sprintf("%s - %s. %s", brief, fragrancePart, marketingPart)
	if utf8.RuneCountInString(meta) > maxMetaDescription {
		meta = truncateRunes(meta, maxMetaDescription-3) + "..."
	}
	return meta
}

func fallbackMetaDescription(product string) string {
	return fmt.Sprintf("عطر %s - فخامة وثبات. تسوق الآن مع عروض خاصة من لافيش", product)
}

// urlPath returns the escaped path, so an encoded "/" never splits a segment
func urlPath(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.EscapedPath()
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
