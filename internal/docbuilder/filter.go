package docbuilder

import (
	"log/slog"

	"github.com/Igneous/elasticsearch-river-jira/internal/domain"
)

// extractField reads spec.JiraField from the raw issue/comment payload and
// applies spec.ValueFilter, if any, renaming or selecting sub-keys on object
// and list-of-object values. Scalar values pass through filters unchanged,
// with a warning logged.
func extractField(spec FieldSpec, filters map[string]ValueFilter, raw map[string]interface{}) interface{} {
	value := domain.Extract(spec.JiraField, raw)
	if value == nil || spec.ValueFilter == "" {
		return value
	}
	filter, ok := filters[spec.ValueFilter]
	if !ok {
		return value
	}
	return applyValueFilter(filter, value)
}

// applyValueFilter renames keys on a single object, or maps the same
// renaming across every element of a list of objects. Any other value
// (a scalar, or a list holding a non-object) is logged as a warning and
// returned unchanged.
func applyValueFilter(filter ValueFilter, value interface{}) interface{} {
	if obj, ok := value.(map[string]interface{}); ok {
		return renameKeys(filter, obj)
	}
	if list, ok := domain.AsObjectSlice(value); ok {
		out := make([]map[string]interface{}, 0, len(list))
		for _, obj := range list {
			out = append(out, renameKeys(filter, obj))
		}
		return out
	}
	slog.Warn("value filter applied to a value that is not an object or a list of objects; passing it through unfiltered")
	return value
}

func renameKeys(filter ValueFilter, obj map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(filter))
	for srcKey, dstKey := range filter {
		if v, ok := obj[srcKey]; ok {
			out[dstKey] = v
		}
	}
	return out
}
