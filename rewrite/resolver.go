// Package rewrite restructures a page's node tree so every
// label-bearing node carries its translations on a UserObject
// container, where the diagram editor's "Edit Data" inspector shows
// them as plain key/value pairs.
package rewrite

import (
	"html"
	"strings"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"
)

// Node tags with label semantics in an mxGraphModel tree.
const (
	TagCell       = "mxCell"
	TagUserObject = "UserObject"
	TagObject     = "object"
)

// Attribute names carrying visible text.
const (
	AttrID    = "id"
	AttrValue = "value"
	AttrLabel = "label"
)

// IsContainer reports whether el can hold arbitrary named attributes
// visible in the editor's data inspector.
func IsContainer(el *etree.Element) bool {
	return el.Tag == TagUserObject || el.Tag == TagObject
}

// VisibleText returns el's raw visible text, preferring the value
// attribute over label. ok is false when neither holds non-blank text.
func VisibleText(el *etree.Element) (raw string, ok bool) {
	if v := el.SelectAttrValue(AttrValue, ""); strings.TrimSpace(v) != "" {
		return v, true
	}
	if v := el.SelectAttrValue(AttrLabel, ""); strings.TrimSpace(v) != "" {
		return v, true
	}
	return "", false
}

// PlainText converts a raw label value to the plain text handed to
// detection and translation: entities decoded, surrounding whitespace
// dropped. Inline markup is deliberately left alone; only the
// plain-text reading of a label is translated.
func PlainText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(raw))
}

// ResolveContainer finds or constructs the container that should carry
// translation attributes for node. A container node resolves to
// itself, an already-wrapped cell to its parent, and a bare cell is
// wrapped in place. Returns nil when the node cannot be given a
// container; callers must skip such nodes rather than corrupt the
// tree.
func ResolveContainer(node *etree.Element) *etree.Element {
	if IsContainer(node) {
		return node
	}
	if parent := node.Parent(); parent != nil && IsContainer(parent) {
		return parent
	}
	if node.Tag != TagCell {
		return nil
	}
	return wrapCell(node)
}

// wrapCell replaces a bare mxCell with a UserObject wrapper at the
// same position in its parent's child list. The cell's identity key
// moves to the wrapper, so references keyed by id keep resolving; the
// inner cell keeps its geometry, style and children but loses
// id/value/label so its text cannot re-surface next to the wrapper's.
func wrapCell(cell *etree.Element) *etree.Element {
	parent := cell.Parent()
	if parent == nil {
		logrus.Debug("cell has no parent, skipping wrap")
		return nil
	}
	idx := cell.Index()

	id := cell.SelectAttrValue(AttrID, "")
	visible := cell.SelectAttrValue(AttrValue, "")
	if strings.TrimSpace(visible) == "" {
		visible = cell.SelectAttrValue(AttrLabel, "")
	}

	inner := cell.Copy()
	inner.RemoveAttr(AttrID)
	inner.RemoveAttr(AttrValue)
	inner.RemoveAttr(AttrLabel)

	wrapper := etree.NewElement(TagUserObject)
	if id != "" {
		wrapper.CreateAttr(AttrID, id)
	}
	if visible != "" {
		wrapper.CreateAttr(AttrLabel, visible)
	}
	wrapper.AddChild(inner)

	parent.RemoveChild(cell)
	parent.InsertChildAt(idx, wrapper)
	return wrapper
}
