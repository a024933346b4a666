package core

import (
	"sort"
	"strconv"

	"github.com/oneconcern/modelstore/pkg/model"
)

// PathSeparator separates relids in node paths, e.g. "/3/7". The root path is empty.
const PathSeparator = "/"

// Node is a handle on a node of a tree. It is only manipulated through the Core.
type Node struct {
	parent *Node
	relid  string
	hash   model.Hash
	data   *nodeData
	kids   map[string]*Node
	dirty  bool
}

// nodeData is the stored shape of a node
type nodeData struct {
	Atr      map[string]interface{} `json:"atr"`
	Reg      map[string]interface{} `json:"reg"`
	Ptr      map[string]*string     `json:"ptr"`
	Children map[string]model.Hash  `json:"children"`
	Rel      int                    `json:"rel"`
}

func newNodeData() *nodeData {
	return &nodeData{
		Atr:      make(map[string]interface{}),
		Reg:      make(map[string]interface{}),
		Ptr:      make(map[string]*string),
		Children: make(map[string]model.Hash),
	}
}

func (d *nodeData) object() model.DataObject {
	return model.DataObject{
		"atr":      d.Atr,
		"reg":      d.Reg,
		"ptr":      d.Ptr,
		"children": d.Children,
		"rel":      d.Rel,
	}
}

func decodeNodeData(o model.DataObject) (*nodeData, error) {
	raw, err := model.CanonicalSerialize(o.WithID(""))
	if err != nil {
		return nil, ErrMalformedNode.Wrap(err)
	}
	d := &nodeData{}
	if err := model.Unmarshal(raw, d); err != nil {
		return nil, ErrMalformedNode.Wrap(err)
	}
	if d.Atr == nil || d.Children == nil {
		return nil, ErrMalformedNode.WrapMessage("object %v is not a node", o.ID())
	}
	if d.Reg == nil {
		d.Reg = make(map[string]interface{})
	}
	if d.Ptr == nil {
		d.Ptr = make(map[string]*string)
	}
	return d, nil
}

// nextRelid allocates a relid which is not used by any child
func (n *Node) nextRelid() string {
	for {
		n.data.Rel++
		relid := strconv.Itoa(n.data.Rel)
		if _, exists := n.data.Children[relid]; exists {
			continue
		}
		if _, exists := n.kids[relid]; exists {
			continue
		}
		return relid
	}
}

func (n *Node) childRelids() []string {
	seen := make(map[string]struct{}, len(n.data.Children)+len(n.kids))
	for relid := range n.data.Children {
		seen[relid] = struct{}{}
	}
	for relid := range n.kids {
		seen[relid] = struct{}{}
	}
	relids := make([]string, 0, len(seen))
	for relid := range seen {
		relids = append(relids, relid)
	}
	sortRelids(relids)
	return relids
}

// sortRelids sorts numeric relids by value, then any other relid lexicographically
func sortRelids(relids []string) {
	sort.Slice(relids, func(i, j int) bool {
		a, b := relids[i], relids[j]
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
}

func (n *Node) root() *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}

func (n *Node) path() string {
	if n.parent == nil {
		return ""
	}
	return n.parent.path() + PathSeparator + n.relid
}

func (n *Node) level() int {
	level := 0
	for p := n.parent; p != nil; p = p.parent {
		level++
	}
	return level
}

// markDirty invalidates the node and all its ancestors
func (n *Node) markDirty() {
	for p := n; p != nil && !p.dirty; p = p.parent {
		p.dirty = true
		p.hash = ""
	}
}
