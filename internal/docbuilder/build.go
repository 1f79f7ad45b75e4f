package docbuilder

import (
	"fmt"

	"github.com/Igneous/elasticsearch-river-jira/internal/domain"
	"github.com/Igneous/elasticsearch-river-jira/internal/errkind"
)

// commentsPath is the dotted path to the comment list inside a raw Jira
// issue payload (fields.comment.comments), per the REST API's issue shape.
const commentsPath = "fields.comment.comments"

// IndexIssue converts one raw Jira issue into the document the search
// backend indexes, plus any standalone comment documents comment_mode
// requires. Embedded-mode comments are folded into the returned index
// document instead.
func (c *Config) IndexIssue(projectKey string, issue domain.RawIssue) (domain.IndexDocument, []domain.CommentDocument, error) {
	issueKey, ok := domain.ExtractString("key", issue)
	if !ok || issueKey == "" {
		return nil, nil, errkind.Newf(errkind.UpstreamFatal, "docbuilder: issue payload has no key")
	}
	updated, ok := domain.ExtractString("fields.updated", issue)
	if !ok || updated == "" {
		return nil, nil, errkind.Newf(errkind.UpstreamFatal, "docbuilder: issue %s has no fields.updated", issueKey)
	}

	doc := domain.IndexDocument{
		c.FieldProjectKey: projectKey,
		c.FieldIssueKey:   issueKey,
		c.FieldIssueURL:   c.issueURL(issueKey),
	}
	if c.FieldRiverName != "" {
		doc[c.FieldRiverName] = c.riverName
	}

	for name, spec := range c.Fields {
		doc[name] = extractField(spec, c.ValueFilters, issue)
	}

	var standalone []domain.CommentDocument
	switch c.CommentMode {
	case CommentModeNone:
		// comments dropped entirely
	case CommentModeEmbedded:
		doc[c.FieldComments] = c.buildComments(issue)
	case CommentModeStandalone:
		for _, raw := range c.rawComments(issue) {
			cdoc, err := c.standaloneComment(projectKey, issueKey, raw)
			if err != nil {
				return nil, nil, err
			}
			standalone = append(standalone, cdoc)
		}
	case CommentModeChild:
		doc[domain.FieldDocType] = domain.DocTypeIssue
		for _, raw := range c.rawComments(issue) {
			cdoc, err := c.childComment(projectKey, issueKey, raw)
			if err != nil {
				return nil, nil, err
			}
			standalone = append(standalone, cdoc)
		}
	}

	return doc, standalone, nil
}

func (c *Config) rawComments(issue domain.RawIssue) []map[string]interface{} {
	raw := domain.Extract(commentsPath, issue)
	list, ok := domain.AsObjectSlice(raw)
	if !ok {
		return nil
	}
	return list
}

func (c *Config) buildComments(issue domain.RawIssue) []domain.CommentDocument {
	raw := c.rawComments(issue)
	out := make([]domain.CommentDocument, 0, len(raw))
	for _, comment := range raw {
		cdoc := domain.CommentDocument{}
		for name, spec := range c.CommentFields {
			cdoc[name] = extractField(spec, c.ValueFilters, comment)
		}
		out = append(out, cdoc)
	}
	return out
}

func (c *Config) standaloneComment(projectKey, issueKey string, raw map[string]interface{}) (domain.CommentDocument, error) {
	id, ok := domain.ExtractString("id", raw)
	if !ok || id == "" {
		return nil, errkind.Newf(errkind.DataShape, "docbuilder: comment on issue %s has no id", issueKey)
	}
	cdoc := domain.CommentDocument{
		c.FieldProjectKey: projectKey,
		c.FieldIssueKey:   issueKey,
		"comment_id":      id,
		c.FieldIssueURL:   c.commentURL(issueKey, id),
	}
	for name, spec := range c.CommentFields {
		cdoc[name] = extractField(spec, c.ValueFilters, raw)
	}
	return cdoc, nil
}

// childComment builds a standalone comment document tagged with the
// document-type and parent-key fields that distinguish comment_mode "child"
// from plain "standalone" comments.
func (c *Config) childComment(projectKey, issueKey string, raw map[string]interface{}) (domain.CommentDocument, error) {
	cdoc, err := c.standaloneComment(projectKey, issueKey, raw)
	if err != nil {
		return nil, err
	}
	cdoc[domain.FieldDocType] = domain.DocTypeComment
	cdoc[domain.FieldParentKey] = issueKey
	return cdoc, nil
}

// issueURL builds the browser-facing URL for an issue, e.g.
// https://issues.example.org/browse/PROJ-123.
func (c *Config) issueURL(issueKey string) string {
	return fmt.Sprintf("%s/browse/%s", c.urlBase, issueKey)
}

// commentURL builds the focused-comment browser URL Jira uses to deep-link
// into a specific comment on an issue's activity tab.
func (c *Config) commentURL(issueKey, commentID string) string {
	return fmt.Sprintf(
		"%s/browse/%s?focusedCommentId=%s&page=com.atlassian.jira.plugin.system.issuetabpanels:comment-tabpanel#comment-%s",
		c.urlBase, issueKey, commentID, commentID,
	)
}
