package article

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// wordsPerMinute drives the computed reading time.
const wordsPerMinute = 225

// maxSections is the number of sectionNtitle/sectionNtext pairs a document
// may carry.
const maxSections = 3

// ErrMalformed is wrapped by every AdaptError.
var ErrMalformed = errors.New("malformed document")

// AdaptError reports a stored value whose type cannot be normalised. Missing
// keys never produce one.
type AdaptError struct {
	Key    string
	Reason string
}

func (e *AdaptError) Error() string {
	return fmt.Sprintf("%s: field %q %s", ErrMalformed, e.Key, e.Reason)
}

func (e *AdaptError) Unwrap() error {
	return ErrMalformed
}

// Adapt maps a stored document to an ArticleView. It has no side effects and
// returns structurally equal output for equal input.
func Adapt(id string, raw RawDocument) (ArticleView, error) {
	var (
		view ArticleView
		err  error
	)
	view.ID = id

	if view.Title, err = stringField(raw, "title"); err != nil {
		return ArticleView{}, err
	}
	if view.Slug, err = stringField(raw, "slug"); err != nil {
		return ArticleView{}, err
	}
	if view.Tagline, err = stringField(raw, "tagline"); err != nil {
		return ArticleView{}, err
	}
	if view.MetaDescription, err = stringField(raw, "meta_description"); err != nil {
		return ArticleView{}, err
	}
	if view.Intro, err = stringField(raw, "introduction"); err != nil {
		return ArticleView{}, err
	}
	if view.Conclusion, err = stringField(raw, "conclusion"); err != nil {
		return ArticleView{}, err
	}
	if view.Tags, err = stringsField(raw, "tags"); err != nil {
		return ArticleView{}, err
	}
	if view.LSIKeywords, err = stringsField(raw, "lsi_keywords"); err != nil {
		return ArticleView{}, err
	}
	if view.Sections, err = sectionsField(raw); err != nil {
		return ArticleView{}, err
	}
	if view.FAQ, err = faqField(raw); err != nil {
		return ArticleView{}, err
	}
	if view.SchemaLD, err = objectField(raw, "schema_ld"); err != nil {
		return ArticleView{}, err
	}

	meta, err := objectField(raw, "meta")
	if err != nil {
		return ArticleView{}, err
	}
	author, err := stringField(meta, "author")
	if err != nil {
		return ArticleView{}, &AdaptError{Key: "meta.author", Reason: "is not a string"}
	}
	view.Author = author
	if view.Author == "" {
		view.Author = SiteName
	}

	if stored, ok := meta["read_time"].(string); ok {
		view.ReadTime = stored
	} else {
		view.ReadTime = fmt.Sprintf("%d minutes", ReadingMinutes(view))
	}

	category, err := stringField(raw, "category")
	if err != nil {
		return ArticleView{}, err
	}
	if category == "" {
		category = InferCategory(view.Tags)
	}
	view.Category = category

	if t, ok := PublishedTime(raw); ok {
		view.PublishedAt = &t
	}

	return view, nil
}

// ReadingMinutes estimates reading time from tagline, intro, section texts
// and conclusion, never returning less than one minute.
func ReadingMinutes(view ArticleView) int {
	words := WordCount(view.Tagline) + WordCount(view.Intro) + WordCount(view.Conclusion)
	for _, s := range view.Sections {
		words += WordCount(s.Text)
	}
	minutes := int(math.Round(float64(words) / wordsPerMinute))
	return max(1, minutes)
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// InferCategory derives a category from tags when the document has none.
// Matching is a case-insensitive substring test over all tags, so "scammer"
// counts as a scam tag and "news" as a new one.
func InferCategory(tags []string) string {
	joined := strings.ToLower(strings.Join(tags, " "))
	switch {
	case strings.Contains(joined, "scam"):
		return ScamAlerts
	case strings.Contains(joined, "airdrop"):
		return AirdropAlerts
	case strings.Contains(joined, "fresh"), strings.Contains(joined, "new"):
		return FreshHitters
	case strings.Contains(joined, "callout"):
		return CalloutProjects
	default:
		return DefaultCategory
	}
}

// PublishedTime reads the publication time under "publishedat", falling back
// to "publishedAt".
func PublishedTime(raw RawDocument) (time.Time, bool) {
	for _, key := range []string{"publishedat", "publishedAt"} {
		if v, present := raw[key]; present && v != nil {
			return ParsePublished(v)
		}
	}
	return time.Time{}, false
}

func stringField(raw map[string]any, key string) (string, error) {
	switch v := raw[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", &AdaptError{Key: key, Reason: fmt.Sprintf("is %T, want string", v)}
	}
}

func stringsField(raw RawDocument, key string) ([]string, error) {
	switch v := raw[key].(type) {
	case nil:
		return []string{}, nil
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &AdaptError{Key: fmt.Sprintf("%s[%d]", key, i), Reason: fmt.Sprintf("is %T, want string", item)}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &AdaptError{Key: key, Reason: fmt.Sprintf("is %T, want list", v)}
	}
}

func objectField(raw map[string]any, key string) (map[string]any, error) {
	switch v := raw[key].(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case RawDocument:
		return v, nil
	default:
		return nil, &AdaptError{Key: key, Reason: fmt.Sprintf("is %T, want object", v)}
	}
}

func sectionsField(raw RawDocument) ([]Section, error) {
	sections := make([]Section, 0, maxSections)
	for i := 1; i <= maxSections; i++ {
		title, err := stringField(raw, fmt.Sprintf("section%dtitle", i))
		if err != nil {
			return nil, err
		}
		text, err := stringField(raw, fmt.Sprintf("section%dtext", i))
		if err != nil {
			return nil, err
		}
		if title == "" && text == "" {
			continue
		}
		sections = append(sections, Section{Title: title, Text: text})
	}
	return sections, nil
}

func faqField(raw RawDocument) ([]FAQ, error) {
	var items []any
	switch v := raw["faq"].(type) {
	case nil:
		return []FAQ{}, nil
	case []any:
		items = v
	case []map[string]any:
		for _, m := range v {
			items = append(items, m)
		}
	default:
		return nil, &AdaptError{Key: "faq", Reason: fmt.Sprintf("is %T, want list", v)}
	}

	faq := make([]FAQ, 0, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, &AdaptError{Key: fmt.Sprintf("faq[%d]", i), Reason: fmt.Sprintf("is %T, want object", item)}
		}
		q, err := stringField(entry, "question")
		if err != nil {
			return nil, &AdaptError{Key: fmt.Sprintf("faq[%d].question", i), Reason: "is not a string"}
		}
		a, err := stringField(entry, "answer")
		if err != nil {
			return nil, &AdaptError{Key: fmt.Sprintf("faq[%d].answer", i), Reason: "is not a string"}
		}
		faq = append(faq, FAQ{Question: q, Answer: a})
	}
	return faq, nil
}
