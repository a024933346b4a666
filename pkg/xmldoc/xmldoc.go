// Package xmldoc loads a GME XME (or any XML) document into a core tree.
//
// Each element becomes a node with its tag name in the "#tag" attribute. XML attributes become node
// attributes and the trimmed character data of an element becomes its "#text" attribute.
// Attributes holding id references (derivedfrom, connpoint targets, reference targets) become
// pointers to the referred nodes instead.
//
// The document node is the root of the tree: the top-level element is its only child.
package xmldoc

import (
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/oneconcern/modelstore/pkg/core"
	"github.com/oneconcern/modelstore/pkg/errors"
	"github.com/oneconcern/modelstore/pkg/model"
	"go.uber.org/zap"
)

const (
	// TagAttribute holds the element name
	TagAttribute = "#tag"

	// TextAttribute holds the character data of an element
	TextAttribute = "#text"

	idAttribute = "id"
)

var (
	// ErrParse indicates a malformed document
	ErrParse = errors.New("cannot parse document")

	// ErrDanglingReference indicates an id reference to an element which does not exist
	ErrDanglingReference = errors.New("dangling reference")
)

// referenceAttributes maps element tags to their id reference attributes. An empty tag matches any element.
var referenceAttributes = map[string][]string{
	"":          {"derivedfrom"},
	"connpoint": {"target"},
	"reference": {"referred"},
}

func isReference(tag, attr string) bool {
	for _, candidate := range []string{"", tag} {
		for _, name := range referenceAttributes[candidate] {
			if name == attr {
				return true
			}
		}
	}
	return false
}

type pendingPointer struct {
	node *core.Node
	name string
	id   string
}

// Option for the loader
type Option func(*loader)

// WithLogger sets a logger
func WithLogger(l *zap.Logger) Option {
	return func(ld *loader) {
		if l != nil {
			ld.l = l
		}
	}
}

type loader struct {
	c        *core.Core
	l        *zap.Logger
	ids      map[string]*core.Node
	pointers []pendingPointer
	elements int
}

// Parse reads a document into a new, unsaved tree and returns its root
func Parse(c *core.Core, r io.Reader, opts ...Option) (*core.Node, error) {
	ld := &loader{
		c:   c,
		l:   zap.NewNop(),
		ids: make(map[string]*core.Node),
	}
	for _, apply := range opts {
		apply(ld)
	}
	return ld.parse(r)
}

// Load reads a document into a tree, persists it and returns the hash of its root
func Load(ctx context.Context, c *core.Core, r io.Reader, opts ...Option) (model.Hash, error) {
	root, err := Parse(c, r, opts...)
	if err != nil {
		return "", err
	}
	return c.Persist(ctx, root)
}

func (ld *loader) parse(r io.Reader) (*core.Node, error) {
	decoder := xml.NewDecoder(r)
	// XME files are mostly declared as UTF-8, sometimes as an alias of it
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	root := ld.c.CreateNode(nil)
	stack := []*core.Node{root}
	texts := []*strings.Builder{{}}

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ErrParse.Wrap(err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			node := ld.element(stack[len(stack)-1], t)
			stack = append(stack, node)
			texts = append(texts, &strings.Builder{})

		case xml.EndElement:
			if len(stack) == 1 {
				return nil, ErrParse.WrapMessage("unexpected end element %q", t.Name.Local)
			}
			node := stack[len(stack)-1]
			if text := strings.TrimSpace(texts[len(texts)-1].String()); text != "" {
				ld.c.SetAttribute(node, TextAttribute, text)
			}
			stack = stack[:len(stack)-1]
			texts = texts[:len(texts)-1]

		case xml.CharData:
			texts[len(texts)-1].Write(t)
		}
	}

	if len(stack) != 1 {
		return nil, ErrParse.WrapMessage("unterminated element")
	}
	if ld.elements == 0 {
		return nil, ErrParse.WrapMessage("empty document")
	}

	if err := ld.resolve(); err != nil {
		return nil, err
	}

	ld.l.Debug("document parsed", zap.Int("elements", ld.elements), zap.Int("references", len(ld.pointers)))
	return root, nil
}

func (ld *loader) element(parent *core.Node, start xml.StartElement) *core.Node {
	ld.elements++
	tag := start.Name.Local
	node := ld.c.CreateNode(parent)
	ld.c.SetAttribute(node, TagAttribute, tag)

	for _, attr := range start.Attr {
		name := attr.Name.Local
		switch {
		case name == idAttribute:
			ld.ids[attr.Value] = node
			ld.c.SetAttribute(node, name, attr.Value)
		case isReference(tag, name):
			ld.pointers = append(ld.pointers, pendingPointer{node: node, name: name, id: attr.Value})
		default:
			ld.c.SetAttribute(node, name, attr.Value)
		}
	}
	return node
}

// resolve sets pointers once all ids are known, since references may point forward
func (ld *loader) resolve() error {
	for _, p := range ld.pointers {
		if p.id == "" {
			// e.g. a null reference
			if err := ld.c.SetPointer(p.node, p.name, nil); err != nil {
				return err
			}
			continue
		}
		target, ok := ld.ids[p.id]
		if !ok {
			return ErrDanglingReference.WrapMessage("%s=%q at %q", p.name, p.id, ld.c.GetStringPath(p.node))
		}
		if err := ld.c.SetPointer(p.node, p.name, target); err != nil {
			return err
		}
	}
	return nil
}
