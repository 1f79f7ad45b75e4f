// Package domain holds the wire-shape and index-document types shared across
// the jira-river components, plus the dynamic JSON traversal helpers used to
// pull values out of upstream issue records.
package domain

import "strings"

// RawIssue is the upstream wire shape for a single issue: a nested mapping
// with at least "key", "self" and "fields.updated". Any other fields are an
// open, configurable set, so it is modeled as a plain dynamically-typed map
// rather than a fixed struct.
type RawIssue = map[string]interface{}

// RawComment is the upstream wire shape for a single comment.
type RawComment = map[string]interface{}

// Bleve field name constants shared by issue and comment documents.
const (
	FieldIngestedAt = "_ingested_at"
	// FieldDocType and FieldParentKey only appear when comment_mode is
	// "child": bleve has no parent-child join, so the relation is modeled as
	// a document-type tag plus an explicit back-reference to the issue key.
	FieldDocType   = "_doc_type"
	FieldParentKey = "_parent_key"
)

// Document type values stored in FieldDocType under comment_mode "child".
const (
	DocTypeIssue   = "issue"
	DocTypeComment = "comment"
)

// Extract follows a dot-notation path through nested maps, returning nil if
// any intermediate segment is missing, not a map, or the path runs past a
// non-object value; slices are not indexed into. It never panics on malformed input; a missing key
// is a normal outcome, not an error.
func Extract(path string, values map[string]interface{}) interface{} {
	if path == "" || values == nil {
		return nil
	}
	segments := strings.Split(path, ".")
	var cur interface{} = values
	for _, seg := range segments {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		v, present := m[seg]
		if !present {
			return nil
		}
		cur = v
	}
	return cur
}

// ExtractString is a convenience wrapper around Extract for the common case
// of a required string field (issue key, project key, ISO timestamp).
func ExtractString(path string, values map[string]interface{}) (string, bool) {
	v := Extract(path, values)
	s, ok := v.(string)
	return s, ok
}

// AsObjectSlice normalizes a value extracted from an upstream mapping into a
// slice of nested objects. Returns false if the value is not a slice, or if
// any element is not itself an object (the filter-semantics boundary case
// "sequence of non-objects").
func AsObjectSlice(v interface{}) ([]map[string]interface{}, bool) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, el := range raw {
		m, ok := el.(map[string]interface{})
		if !ok {
			return nil, false
		}
		out = append(out, m)
	}
	return out, true
}
