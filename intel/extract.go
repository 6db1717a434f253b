package intel

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
)

// Insight extraction parameters: only meaningful sentences survive, and each
// source contributes at most two.
const (
	minSentenceLen     = 50
	maxSentenceLen     = 200
	maxInsightsPerPage = 2
)

// Extractor turns scraped blog HTML into short insight sentences.
type Extractor struct {
	md        *converter.Converter
	sanitizer *bluemonday.Policy
}

// NewExtractor builds the markdown converter and strict sanitizer once;
// both are safe for reuse.
func NewExtractor() *Extractor {
	return &Extractor{
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Insights extracts up to two insight sentences from page HTML. The page is
// converted to markdown for structure, stripped of residual markup, and
// split into sentences; only sentences longer than 50 characters qualify,
// truncated to 200.
func (e *Extractor) Insights(pageHTML string, sourceURL string) []string {
	if pageHTML == "" {
		return nil
	}

	text, err := e.md.ConvertString(pageHTML, converter.WithDomain(sourceURL))
	if err != nil || strings.TrimSpace(text) == "" {
		// Fallback: strip all tags and work with the raw text.
		text = e.sanitizer.Sanitize(pageHTML)
	}
	text = stripMarkdown(text)

	var insights []string
	for _, sentence := range strings.Split(text, ".") {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) <= minSentenceLen {
			continue
		}
		if len(sentence) > maxSentenceLen {
			sentence = sentence[:maxSentenceLen]
		}
		insights = append(insights, sentence)
		if len(insights) == maxInsightsPerPage {
			break
		}
	}
	return insights
}

// stripMarkdown removes the markdown syntax the converter emits so sentence
// splitting sees prose only.
func stripMarkdown(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "#>*-+ \t")
		line = strings.ReplaceAll(line, "**", "")
		line = strings.ReplaceAll(line, "`", "")
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(line)
	}
	return b.String()
}
