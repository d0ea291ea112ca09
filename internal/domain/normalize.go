package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kaptinlin/jsonschema"
)

var (
	// fenceOpenRe matches an opening fence line: ``` or ~~~ optionally
	// followed by a language tag, e.g. "```json".
	fenceOpenRe = regexp.MustCompile("^(?:`{3,}|~{3,})[ \t]*[A-Za-z0-9_+.-]*[ \t]*\r?\n")
	// fenceCloseRe matches a closing fence marker at the end of the text.
	fenceCloseRe = regexp.MustCompile("\r?\n?(?:`{3,}|~{3,})[ \t]*$")
)

// reportSchema constrains the shape of the upstream JSON. Category names
// are checked separately against the required set.
const reportSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["title", "lastUpdated", "categories"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "categories": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "content"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "content": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

// StripFence removes an optional Markdown code-fence wrapper and the
// surrounding whitespace. Unfenced text is only trimmed.
func StripFence(text string) string {
	s := strings.TrimSpace(text)
	if loc := fenceOpenRe.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}
	s = fenceCloseRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Normalizer validates raw upstream text into a ReportRecord.
type Normalizer struct {
	loc    *time.Location
	schema *jsonschema.Schema
}

// NewNormalizer compiles the report schema. Timestamps are stamped in loc;
// a nil loc means UTC.
func NewNormalizer(loc *time.Location) (*Normalizer, error) {
	if loc == nil {
		loc = time.UTC
	}
	schema, err := jsonschema.NewCompiler().Compile([]byte(reportSchema))
	if err != nil {
		return nil, fmt.Errorf("compile report schema: %w", err)
	}
	return &Normalizer{loc: loc, schema: schema}, nil
}

// Normalize strips an optional fence, parses the text as a JSON object,
// validates it and overwrites lastUpdated with now in the civil zone. The
// upstream timestamp is never trusted. dropped lists the category names
// that were discarded: unrequested ones and repeats of a required one.
func (n *Normalizer) Normalize(raw string, now time.Time) (rec ReportRecord, dropped []string, err error) {
	rec, dropped, err = n.decode(StripFence(raw), raw)
	if err != nil {
		return ReportRecord{}, nil, err
	}
	rec.LastUpdated = now.In(n.loc).Truncate(time.Second).Format(time.RFC3339)
	return rec, dropped, nil
}

// ValidateArtifact checks a published artifact: the same shape rules as
// Normalize, no fence allowed, and lastUpdated must be an RFC 3339 time.
func (n *Normalizer) ValidateArtifact(data []byte) (ReportRecord, error) {
	raw := string(data)
	rec, _, err := n.decode(strings.TrimSpace(raw), raw)
	if err != nil {
		return ReportRecord{}, err
	}
	if _, err := time.Parse(time.RFC3339, rec.LastUpdated); err != nil {
		return ReportRecord{}, &MalformedResponseError{Reason: "invalid lastUpdated", Excerpt: Excerpt(raw), Err: err}
	}
	return rec, nil
}

// decode runs the strict parse, schema and category checks on body. raw is
// the text the excerpt is taken from.
func (n *Normalizer) decode(body, raw string) (ReportRecord, []string, error) {
	if body == "" {
		return ReportRecord{}, nil, &MalformedResponseError{Reason: "empty response", Excerpt: Excerpt(raw)}
	}

	var generic any
	if err := json.Unmarshal([]byte(body), &generic); err != nil {
		return ReportRecord{}, nil, &MalformedResponseError{Reason: "not valid JSON", Excerpt: Excerpt(raw), Err: err}
	}
	if _, ok := generic.(map[string]any); !ok {
		return ReportRecord{}, nil, &MalformedResponseError{Reason: "top-level value is not an object", Excerpt: Excerpt(raw)}
	}

	if result := n.schema.Validate(generic); !result.IsValid() {
		return ReportRecord{}, nil, &MalformedResponseError{
			Reason:  "schema validation failed",
			Excerpt: Excerpt(raw),
			Err:     schemaErrors(result),
		}
	}

	var wire ReportRecord
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return ReportRecord{}, nil, &MalformedResponseError{Reason: "decode report", Excerpt: Excerpt(raw), Err: err}
	}

	categories, dropped, err := canonicalCategories(wire.Categories)
	if err != nil {
		return ReportRecord{}, nil, &MalformedResponseError{Reason: "missing required categories", Excerpt: Excerpt(raw), Err: err}
	}

	return ReportRecord{
		Title:       strings.TrimSpace(wire.Title),
		LastUpdated: wire.LastUpdated,
		Categories:  categories,
	}, dropped, nil
}

// canonicalCategories keeps the first occurrence of each required category,
// in upstream order, and fails if any is missing. Names are matched ignoring
// surrounding whitespace and emoji variation selectors, and are rewritten to
// their canonical spelling. Unrequested categories and repeats are returned
// as dropped.
func canonicalCategories(cats []Category) (out []Category, dropped []string, err error) {
	canonical := make(map[string]string, len(requiredCategories))
	for _, name := range requiredCategories {
		canonical[categoryKey(name)] = name
	}

	seen := make(map[string]bool, len(cats))
	out = make([]Category, 0, len(requiredCategories))
	for _, c := range cats {
		name, ok := canonical[categoryKey(c.Name)]
		if !ok || seen[name] {
			dropped = append(dropped, c.Name)
			continue
		}
		seen[name] = true
		out = append(out, Category{Name: name, Content: strings.TrimSpace(c.Content)})
	}

	var missing []string
	for _, name := range requiredCategories {
		if !seen[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("missing categories %q", missing)
	}
	return out, dropped, nil
}

func categoryKey(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), "\uFE0F", "")
}

func schemaErrors(result *jsonschema.EvaluationResult) error {
	msgs := make([]string, 0, len(result.Errors))
	for field, e := range result.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, e.Message))
	}
	sort.Strings(msgs)
	return errors.New(strings.Join(msgs, "; "))
}
