// Package docbuilder turns a raw Jira issue (and its comments) into the flat
// documents the search backend indexes, driven by a declarative field/filter
// configuration merged from a built-in default and the operator's index.*
// settings.
package docbuilder

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Igneous/elasticsearch-river-jira/internal/errkind"
)

//go:embed templates/default_config.json
var defaultConfigJSON []byte

// CommentMode selects how comments are attached to the indexed document set.
type CommentMode string

const (
	// CommentModeNone drops comments entirely.
	CommentModeNone CommentMode = "none"
	// CommentModeEmbedded nests comments inside the issue document.
	CommentModeEmbedded CommentMode = "embedded"
	// CommentModeStandalone writes one document per comment, separate from
	// the issue document, linked by issue key.
	CommentModeStandalone CommentMode = "standalone"
	// CommentModeChild writes one document per comment like standalone, but
	// tags both the issue and each comment document with a document-type
	// field so the two are distinguishable within the same index, standing
	// in for the original's parent-child relation (bleve has no native join).
	CommentModeChild CommentMode = "child"
)

// FieldSpec describes how one output field is derived from a raw issue (or
// comment) value: which dotted jira_field path to read, and an optional
// value_filter to rename/select sub-keys when the source value is an object
// or a list of objects.
type FieldSpec struct {
	JiraField   string `json:"jira_field" mapstructure:"jira_field"`
	ValueFilter string `json:"value_filter,omitempty" mapstructure:"value_filter"`
}

// ValueFilter maps source object keys to destination field names. A key
// absent from the map is dropped from the filtered output.
type ValueFilter map[string]string

// Config is the fully resolved document-builder configuration for one river
// index, merging the embedded default template with the operator's index.*
// settings.
type Config struct {
	FieldRiverName string `json:"field_river_name" mapstructure:"field_river_name"`
	FieldProjectKey string `json:"field_project_key" mapstructure:"field_project_key"`
	FieldIssueKey  string `json:"field_issue_key" mapstructure:"field_issue_key"`
	FieldIssueURL  string `json:"field_issue_url" mapstructure:"field_issue_url"`

	Fields       map[string]FieldSpec   `json:"fields" mapstructure:"fields"`
	ValueFilters map[string]ValueFilter `json:"value_filters" mapstructure:"value_filters"`

	CommentMode   CommentMode          `json:"comment_mode" mapstructure:"comment_mode"`
	FieldComments string               `json:"field_comments" mapstructure:"field_comments"`
	CommentFields map[string]FieldSpec `json:"comment_fields" mapstructure:"comment_fields"`

	Preprocessors []string `json:"preprocessors" mapstructure:"preprocessors"`

	riverName string
	urlBase   string

	requiredFields []string
}

// NewConfig merges raw (the operator's index.* settings, as decoded by
// viper) over the embedded default template and validates the result.
// riverName and urlBase come from the jira.* settings rather than index.*,
// since document URLs are a function of the upstream base, not the index.
func NewConfig(riverName, urlBase string, raw map[string]interface{}) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(defaultConfigJSON, &cfg); err != nil {
		return nil, fmt.Errorf("docbuilder: invalid built-in default template: %w", err)
	}

	if raw != nil {
		overlay, err := json.Marshal(raw)
		if err != nil {
			return nil, errkind.Newf(errkind.Config, "docbuilder: index settings not JSON-representable: %v", err)
		}
		var partial configOverlay
		if err := json.Unmarshal(overlay, &partial); err != nil {
			return nil, errkind.Newf(errkind.Config, "docbuilder: malformed index settings: %v", err)
		}
		partial.applyTo(&cfg)
	}

	cfg.riverName = riverName
	cfg.urlBase = strings.TrimRight(urlBase, "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.requiredFields = cfg.computeRequiredFields()
	return &cfg, nil
}

// configOverlay mirrors Config but with every field optional, so that a
// partial index.* settings block only overrides what it actually sets
// instead of wiping the embedded defaults' zero-valued fields.
type configOverlay struct {
	FieldRiverName  *string                 `json:"field_river_name"`
	FieldProjectKey *string                 `json:"field_project_key"`
	FieldIssueKey   *string                 `json:"field_issue_key"`
	FieldIssueURL   *string                 `json:"field_issue_url"`
	Fields          map[string]FieldSpec    `json:"fields"`
	ValueFilters    map[string]ValueFilter  `json:"value_filters"`
	CommentMode     *CommentMode            `json:"comment_mode"`
	FieldComments   *string                 `json:"field_comments"`
	CommentFields   map[string]FieldSpec    `json:"comment_fields"`
	Preprocessors   []string                `json:"preprocessors"`
}

func (o configOverlay) applyTo(cfg *Config) {
	if o.FieldRiverName != nil {
		cfg.FieldRiverName = *o.FieldRiverName
	}
	if o.FieldProjectKey != nil {
		cfg.FieldProjectKey = *o.FieldProjectKey
	}
	if o.FieldIssueKey != nil {
		cfg.FieldIssueKey = *o.FieldIssueKey
	}
	if o.FieldIssueURL != nil {
		cfg.FieldIssueURL = *o.FieldIssueURL
	}
	for k, v := range o.Fields {
		if cfg.Fields == nil {
			cfg.Fields = map[string]FieldSpec{}
		}
		cfg.Fields[k] = v
	}
	for k, v := range o.ValueFilters {
		if cfg.ValueFilters == nil {
			cfg.ValueFilters = map[string]ValueFilter{}
		}
		cfg.ValueFilters[k] = v
	}
	if o.CommentMode != nil {
		cfg.CommentMode = *o.CommentMode
	}
	if o.FieldComments != nil {
		cfg.FieldComments = *o.FieldComments
	}
	for k, v := range o.CommentFields {
		if cfg.CommentFields == nil {
			cfg.CommentFields = map[string]FieldSpec{}
		}
		cfg.CommentFields[k] = v
	}
	if o.Preprocessors != nil {
		cfg.Preprocessors = o.Preprocessors
	}
}

// validate enforces the §7 ConfigError cases owned by docbuilder: every
// field's jira_field must be set, every referenced value_filter must exist,
// and the structural field names must not be blank.
func (c *Config) validate() error {
	if strings.TrimSpace(c.FieldProjectKey) == "" {
		return errkind.Newf(errkind.Config, "docbuilder: field_project_key must not be blank")
	}
	if strings.TrimSpace(c.FieldIssueKey) == "" {
		return errkind.Newf(errkind.Config, "docbuilder: field_issue_key must not be blank")
	}
	if strings.TrimSpace(c.FieldIssueURL) == "" {
		return errkind.Newf(errkind.Config, "docbuilder: field_issue_url must not be blank")
	}

	for name, spec := range c.Fields {
		if strings.TrimSpace(spec.JiraField) == "" {
			return errkind.Newf(errkind.Config, "docbuilder: field %q has no jira_field", name)
		}
		if spec.ValueFilter != "" {
			if _, ok := c.ValueFilters[spec.ValueFilter]; !ok {
				return errkind.Newf(errkind.Config, "docbuilder: field %q references undefined value_filter %q", name, spec.ValueFilter)
			}
		}
	}

	switch c.CommentMode {
	case CommentModeNone, CommentModeEmbedded, CommentModeStandalone, CommentModeChild:
	default:
		return errkind.Newf(errkind.Config, "docbuilder: comment_mode %q is not one of none, embedded, standalone, child", c.CommentMode)
	}

	if c.CommentMode != CommentModeNone {
		if strings.TrimSpace(c.FieldComments) == "" {
			return errkind.Newf(errkind.Config, "docbuilder: field_comments must not be blank when comment_mode is %q", c.CommentMode)
		}
		for name, spec := range c.CommentFields {
			if strings.TrimSpace(spec.JiraField) == "" {
				return errkind.Newf(errkind.Config, "docbuilder: comment field %q has no jira_field", name)
			}
			if spec.ValueFilter != "" {
				if _, ok := c.ValueFilters[spec.ValueFilter]; !ok {
					return errkind.Newf(errkind.Config, "docbuilder: comment field %q references undefined value_filter %q", name, spec.ValueFilter)
				}
			}
		}
	}

	for _, name := range c.Preprocessors {
		if _, ok := builtinPreprocessors[name]; !ok {
			return errkind.Newf(errkind.Config, "docbuilder: unknown preprocessor %q", name)
		}
	}

	return nil
}

// computeRequiredFields derives the set of top-level Jira issue fields (as
// accepted by the REST search endpoint's fields= parameter) this config
// needs. "updated" and "project" are always required regardless of
// configuration: updated drives watermark comparison, project drives
// project-key assignment.
func (c *Config) computeRequiredFields() []string {
	seen := map[string]bool{}
	out := []string{"updated", "project"}
	seen["updated"] = true
	seen["project"] = true

	add := func(path string) {
		parts := strings.SplitN(path, ".", 3)
		if len(parts) < 2 || parts[0] != "fields" {
			return
		}
		top := parts[1]
		if !seen[top] {
			seen[top] = true
			out = append(out, top)
		}
	}
	for _, spec := range c.Fields {
		add(spec.JiraField)
	}
	if c.CommentMode != CommentModeNone {
		add("fields.comment")
	}
	return out
}

// RequiredFields renders the set of top-level Jira issue fields this
// configuration reads, as a comma-joined list suitable for the REST API's
// fields= query parameter.
func (c *Config) RequiredFields() string {
	return strings.Join(dedup(c.requiredFields), ",")
}

func dedup(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
