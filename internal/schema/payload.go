package schema

import (
	"github.com/spf13/cast"

	"github.com/garyjia/approval-console/internal/domain/entity"
)

// AttrAttachmentIDs carries the uploaded attachment ids of a submitted form
const AttrAttachmentIDs = "attachmentIds"

// BuildPayload converts submitted form values into the create/update body.
// Cascader paths collapse to their last id and dates are formatted with the
// field's layout. Attachment fields and values outside the schema are dropped.
func BuildPayload(s entity.Schema, values map[string]interface{}, ctx Context) map[string]interface{} {
	payload := make(map[string]interface{}, len(s.Fields)+2)
	for _, fd := range s.Fields {
		if IsAttachmentField(fd.Field) {
			continue
		}
		v, ok := values[fd.Field]
		if !ok || isEmptyValue(v) {
			continue
		}
		payload[fd.Field] = toPayloadValue(fd, v, ctx)
	}
	return payload
}

func toPayloadValue(fd entity.FieldDescriptor, v interface{}, ctx Context) interface{} {
	switch RenderKindOf(fd) {
	case RenderDepartment:
		return lastSelected(v)
	case RenderDate:
		return formatSubmitted(v, DateLayout, ctx)
	case RenderDateTime:
		return formatSubmitted(v, DateTimeLayout, ctx)
	default:
		return v
	}
}

func formatSubmitted(v interface{}, layout string, ctx Context) interface{} {
	t, ok := ParseTime(v, ctx.location())
	if !ok {
		return v
	}
	return t.Format(layout)
}

// PrefillValues turns a saved record into edit/view form values. A department
// id becomes its root-to-node id path, or [id] when the index does not know it.
func PrefillValues(s entity.Schema, record entity.ApprovalRecord, ctx Context) map[string]interface{} {
	values := make(map[string]interface{}, len(s.Fields))
	for _, fd := range s.Fields {
		if IsAttachmentField(fd.Field) {
			continue
		}
		v := record.Get(fd.Field)
		if isEmptyValue(v) {
			continue
		}
		switch RenderKindOf(fd) {
		case RenderDepartment:
			id, err := cast.ToInt64E(v)
			if err != nil || id == 0 {
				continue
			}
			path := ctx.Index.IDPathOf(id)
			if len(path) == 0 {
				path = []int64{id}
			}
			values[fd.Field] = path
		case RenderDate:
			values[fd.Field] = FormatTime(v, DateLayout, ctx.location())
		case RenderDateTime:
			values[fd.Field] = FormatTime(v, DateTimeLayout, ctx.location())
		default:
			values[fd.Field] = v
		}
	}
	return values
}
