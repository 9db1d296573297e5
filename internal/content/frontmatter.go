package content

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/adrg/frontmatter"
)

// wordsPerMinute is the assumed reading speed for the reading-time estimate.
const wordsPerMinute = 180

type frontMatterEnvelope struct {
	Title       string `yaml:"title"`
	Date        string `yaml:"date"`
	Episode     any    `yaml:"episode"`
	Cover       string `yaml:"cover"`
	Description string `yaml:"description"`
	Tags        []any  `yaml:"tags"`
	Slug        string `yaml:"slug"`
}

// parseDocument extracts frontmatter and body from source and normalizes the
// metadata. fallbackSlug is used when the frontmatter carries no slug and to
// name the document in validation errors.
func parseDocument(source []byte, fallbackSlug string) (Meta, []byte, error) {
	var env frontMatterEnvelope

	body, err := frontmatter.Parse(bytes.NewReader(source), &env)
	if err != nil {
		return Meta{}, nil, fmt.Errorf("parse frontmatter for %q: %w", fallbackSlug, err)
	}

	meta, err := normalizeFrontMatter(env, fallbackSlug)
	if err != nil {
		return Meta{}, nil, err
	}
	meta.ReadingMinutes = readingMinutes(body)

	return meta, body, nil
}

func normalizeFrontMatter(env frontMatterEnvelope, fallbackSlug string) (Meta, error) {
	title := strings.TrimSpace(env.Title)
	if title == "" {
		return Meta{}, fmt.Errorf("content: missing required %q in frontmatter for %q", "title", fallbackSlug)
	}

	date := strings.TrimSpace(env.Date)
	if date == "" {
		return Meta{}, fmt.Errorf("content: missing required %q in frontmatter for %q", "date", fallbackSlug)
	}

	slug := strings.TrimSpace(env.Slug)
	if slug == "" {
		slug = fallbackSlug
	}

	return Meta{
		Slug:        slug,
		Title:       title,
		Date:        date,
		Episode:     episodeNumber(env.Episode),
		Cover:       strings.TrimSpace(env.Cover),
		Description: strings.TrimSpace(env.Description),
		Tags:        stringTags(env.Tags),
	}, nil
}

// episodeNumber accepts the episode field as either a string or a YAML number.
func episodeNumber(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// stringTags keeps string entries only; non-string tags are dropped silently.
func stringTags(values []any) []string {
	var tags []string
	for _, value := range values {
		s, ok := value.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			tags = append(tags, s)
		}
	}
	return tags
}

var markdownPunctuation = strings.NewReplacer(
	"`", " ",
	"*", " ",
	"_", " ",
	">", " ",
	"#", " ",
	"-", " ",
)

// readingMinutes estimates reading time: word count over the markdown body
// with punctuation stripped, divided by the reading speed, rounded up, at
// least one minute.
func readingMinutes(body []byte) int {
	words := len(strings.Fields(markdownPunctuation.Replace(string(body))))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
