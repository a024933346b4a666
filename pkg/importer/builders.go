package importer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/oneconcern/modelstore/pkg/core"
	"github.com/oneconcern/modelstore/pkg/xmldoc"
)

// builder creates the data node for a document node and completes exactly once
type builder func(r *run, xml *core.Node, done nodeCallback)

var builders map[string]builder

func init() {
	builders = map[string]builder{
		projectTag:   buildProject,
		"folder":     buildContainer,
		"model":      buildContainer,
		"atom":       buildContainer,
		"connection": buildContainer,
		"reference":  buildContainer,
	}
}

// fieldMapping copies a document attribute to a data attribute, or to a registry entry
type fieldMapping struct {
	from     string
	to       string
	registry bool
}

var (
	projectFields = []fieldMapping{
		{from: "cdate", to: "created"},
		{from: "mdate", to: "modified"},
		{from: "metaname", to: "metaname", registry: true},
		{from: xmldoc.TagAttribute, to: "type", registry: true},
		{from: "guid", to: "guid", registry: true},
	}

	containerFields = []fieldMapping{
		{from: "kind", to: "kind", registry: true},
		{from: "role", to: "role", registry: true},
		{from: xmldoc.TagAttribute, to: "type", registry: true},
		{from: "guid", to: "guid", registry: true},
	}

	// child element tag -> data attribute
	projectTexts   = map[string]string{"name": "name", "comment": "comment", "author": "author"}
	containerTexts = map[string]string{"name": "name"}
)

const (
	attributeTag = "attribute"
	regnodeTag   = "regnode"
	valueTag     = "value"
	connpointTag = "connpoint"

	derivedFrom = "derivedfrom"
	referred    = "referred"
)

var positionRegexp = regexp.MustCompile(`^([0-9]*),([0-9]*)$`)

func buildProject(r *run, xml *core.Node, done nodeCallback) {
	project := r.project
	r.copyFields(xml, project, projectFields)
	if err := r.copyChildTexts(xml, project, projectTexts); err != nil {
		done(nil, err)
		return
	}
	done(project, nil)
}

// buildContainer builds folders, models, atoms, connections and references. The parent is built first.
func buildContainer(r *run, xml *core.Node, done nodeCallback) {
	parentXML := r.c.GetParent(xml)
	if parentXML == nil {
		done(nil, ErrOrphan.WrapMessage("%q", r.c.GetStringPath(xml)))
		return
	}

	r.parse(parentXML, func(parent *core.Node, err error) {
		if err != nil {
			done(nil, err)
			return
		}
		if parent == nil {
			done(nil, ErrOrphan.WrapMessage("%q", r.c.GetStringPath(xml)))
			return
		}

		node := r.c.CreateNode(parent)
		r.copyFields(xml, node, containerFields)
		if err := r.copyChildTexts(xml, node, containerTexts); err != nil {
			done(nil, err)
			return
		}
		if err := r.copyAttributeChildren(xml, node); err != nil {
			done(nil, err)
			return
		}
		if err := r.parseRegistry(xml, node); err != nil {
			done(nil, err)
			return
		}

		tag := r.tag(xml)
		r.c.SetRegistry(node, "isConnection", tag == "connection")

		if tag == "connection" || tag == "reference" || r.c.HasPointer(xml, derivedFrom) {
			r.unresolved = append(r.unresolved, xml)
		}
		done(node, nil)
	})
}

func (r *run) copyFields(xml, node *core.Node, fields []fieldMapping) {
	for _, field := range fields {
		value := r.c.GetAttribute(xml, field.from)
		if value == nil {
			continue
		}
		if field.registry {
			r.c.SetRegistry(node, field.to, value)
		} else {
			r.c.SetAttribute(node, field.to, value)
		}
	}
}

func (r *run) copyChildTexts(xml, node *core.Node, texts map[string]string) error {
	children, err := r.c.LoadChildren(r.ctx, xml)
	if err != nil {
		return err
	}
	for _, child := range children {
		if name, ok := texts[r.tag(child)]; ok {
			r.c.SetAttribute(node, name, r.c.GetAttributeString(child, xmldoc.TextAttribute))
		}
	}
	return nil
}

// copyAttributeChildren copies <attribute kind="k"><value>v</value></attribute> as the data attribute k
func (r *run) copyAttributeChildren(xml, node *core.Node) error {
	children, err := r.c.LoadChildren(r.ctx, xml)
	if err != nil {
		return err
	}
	for _, child := range children {
		if r.tag(child) != attributeTag {
			continue
		}
		kind := r.c.GetAttributeString(child, "kind")
		if kind == "" {
			continue
		}
		if err := r.copyChildTexts(child, node, map[string]string{valueTag: kind}); err != nil {
			return err
		}
	}
	return nil
}

// parseRegistry extracts the position of a node from its registry nodes
func (r *run) parseRegistry(xml, node *core.Node) error {
	registry := make(map[string]string)
	if err := r.loadRegistry(xml, "", registry); err != nil {
		return err
	}
	for key, value := range registry {
		if !strings.HasSuffix(key, ".Position") {
			continue
		}
		match := positionRegexp.FindStringSubmatch(value)
		if match == nil {
			continue
		}
		x, _ := strconv.Atoi(match[1])
		y, _ := strconv.Atoi(match[2])
		r.c.SetRegistry(node, "position", map[string]interface{}{"x": x, "y": y})
	}
	return nil
}

// loadRegistry flattens nested registry nodes into dotted keys. Only opaque or meta values are kept.
func (r *run) loadRegistry(xml *core.Node, prefix string, registry map[string]string) error {
	if prefix != "" && r.tag(xml) == regnodeTag &&
		(r.c.GetAttributeString(xml, "isopaque") == "yes" || r.c.GetAttributeString(xml, "status") == "meta") {
		value, err := r.childText(xml, valueTag)
		if err != nil {
			return err
		}
		registry[prefix] = value
	}

	children, err := r.c.LoadChildren(r.ctx, xml)
	if err != nil {
		return err
	}
	for _, child := range children {
		if r.tag(child) != regnodeTag {
			continue
		}
		name := r.c.GetAttributeString(child, "name")
		if name == "" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if err := r.loadRegistry(child, key, registry); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) childText(xml *core.Node, tag string) (string, error) {
	children, err := r.c.LoadChildren(r.ctx, xml)
	if err != nil {
		return "", err
	}
	for _, child := range children {
		if r.tag(child) == tag {
			return r.c.GetAttributeString(child, xmldoc.TextAttribute), nil
		}
	}
	return "", nil
}
