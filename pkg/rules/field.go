package rules

import (
	"strings"

	"github.com/PROACTIVA-US/VISLZR/pkg/model"
	"github.com/PROACTIVA-US/VISLZR/pkg/nodectx"
)

// Field names a value a rule inspects. The set is closed: every field has
// exactly one resolver, plus the "metadata.<key>" form for single entries.
type Field string

const (
	FieldAlways Field = "always"
	FieldNever  Field = "never"

	// Derived context fields
	FieldNodeType        Field = "nodeType"
	FieldStatus          Field = "status"
	FieldHasChildren     Field = "hasChildren"
	FieldHasParent       Field = "hasParent"
	FieldHasDependencies Field = "hasDependencies"
	FieldIsBlocked       Field = "isBlocked"
	FieldIsOverdue       Field = "isOverdue"
	FieldHasCode         Field = "hasCode"
	FieldMetadata        Field = "metadata"

	// Raw node fields
	FieldID           Field = "id"
	FieldLabel        Field = "label"
	FieldType         Field = "type"
	FieldPriority     Field = "priority"
	FieldProgress     Field = "progress"
	FieldTags         Field = "tags"
	FieldParentID     Field = "parent_id"
	FieldDependencies Field = "dependencies"
)

const metadataPrefix = "metadata."

type contextResolver func(ctx *nodectx.NodeContext) (any, bool)

type nodeResolver func(n *model.Node) (any, bool)

var contextResolvers = map[Field]contextResolver{
	FieldNodeType:        func(c *nodectx.NodeContext) (any, bool) { return string(c.NodeType), true },
	FieldStatus:          func(c *nodectx.NodeContext) (any, bool) { return string(c.Status), true },
	FieldHasChildren:     func(c *nodectx.NodeContext) (any, bool) { return c.HasChildren, true },
	FieldHasParent:       func(c *nodectx.NodeContext) (any, bool) { return c.HasParent, true },
	FieldHasDependencies: func(c *nodectx.NodeContext) (any, bool) { return c.HasDependencies, true },
	FieldIsBlocked:       func(c *nodectx.NodeContext) (any, bool) { return c.IsBlocked, true },
	FieldIsOverdue:       func(c *nodectx.NodeContext) (any, bool) { return c.IsOverdue, true },
	FieldHasCode:         func(c *nodectx.NodeContext) (any, bool) { return c.HasCode, true },
	FieldMetadata:        func(c *nodectx.NodeContext) (any, bool) { return c.Metadata, c.Metadata != nil },
}

var nodeResolvers = map[Field]nodeResolver{
	FieldID:           func(n *model.Node) (any, bool) { return n.ID, true },
	FieldLabel:        func(n *model.Node) (any, bool) { return n.Label, true },
	FieldType:         func(n *model.Node) (any, bool) { return string(n.Type), true },
	FieldStatus:       func(n *model.Node) (any, bool) { return string(n.Status), true },
	FieldPriority:     func(n *model.Node) (any, bool) { return n.Priority, true },
	FieldProgress:     func(n *model.Node) (any, bool) { return n.Progress, true },
	FieldTags:         func(n *model.Node) (any, bool) { return n.Tags, n.Tags != nil },
	FieldParentID:     func(n *model.Node) (any, bool) { return n.ParentID, n.ParentID != "" },
	FieldDependencies: func(n *model.Node) (any, bool) { return n.Dependencies, n.Dependencies != nil },
	FieldMetadata:     func(n *model.Node) (any, bool) { return n.Metadata, n.Metadata != nil },
}

// Valid reports whether f is a known field or a metadata entry reference
func (f Field) Valid() bool {
	if f == FieldAlways || f == FieldNever {
		return true
	}
	if key, ok := f.MetadataKey(); ok {
		return key != ""
	}
	_, inContext := contextResolvers[f]
	_, inNode := nodeResolvers[f]
	return inContext || inNode
}

// MetadataKey returns the entry name for a "metadata.<key>" field
func (f Field) MetadataKey() (string, bool) {
	if !strings.HasPrefix(string(f), metadataPrefix) {
		return "", false
	}
	return strings.TrimPrefix(string(f), metadataPrefix), true
}

// Resolve looks f up on the context first and the node second. The second
// return value is false when neither carries the field.
func (f Field) Resolve(node *model.Node, ctx *nodectx.NodeContext) (any, bool) {
	if key, ok := f.MetadataKey(); ok {
		if ctx != nil {
			if v, found := ctx.Metadata[key]; found {
				return v, true
			}
		}
		if node != nil {
			if v, found := node.Metadata[key]; found {
				return v, true
			}
		}
		return nil, false
	}

	if ctx != nil {
		if resolve, ok := contextResolvers[f]; ok {
			if v, found := resolve(ctx); found {
				return v, true
			}
		}
	}
	if node != nil {
		if resolve, ok := nodeResolvers[f]; ok {
			return resolve(node)
		}
	}
	return nil, false
}
