package core

import "sort"

// attributeLayer adds attributes and registry entries to the tree.
//
// Attributes are the user-visible properties of a node. The registry holds
// bookkeeping values, e.g. positions, which are not part of the model itself.
type attributeLayer struct {
	*treeLayer
}

func withAttributes(inner *treeLayer) *attributeLayer {
	return &attributeLayer{treeLayer: inner}
}

// GetAttribute returns the value of an attribute, or nil if it is not set
func (a *attributeLayer) GetAttribute(n *Node, name string) interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return n.data.Atr[name]
}

// GetAttributeString returns an attribute as a string, or "" if it is not a string
func (a *attributeLayer) GetAttributeString(n *Node, name string) string {
	s, _ := a.GetAttribute(n, name).(string)
	return s
}

// SetAttribute sets the value of an attribute
func (a *attributeLayer) SetAttribute(n *Node, name string, value interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n.data.Atr[name] = value
	n.markDirty()
}

// DelAttribute removes an attribute
func (a *attributeLayer) DelAttribute(n *Node, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := n.data.Atr[name]; ok {
		delete(n.data.Atr, name)
		n.markDirty()
	}
}

// GetAttributeNames returns the sorted names of all attributes of a node
func (a *attributeLayer) GetAttributeNames(n *Node) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sortedKeys(n.data.Atr)
}

// GetRegistry returns the value of a registry entry, or nil if it is not set
func (a *attributeLayer) GetRegistry(n *Node, name string) interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return n.data.Reg[name]
}

// SetRegistry sets the value of a registry entry
func (a *attributeLayer) SetRegistry(n *Node, name string, value interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n.data.Reg[name] = value
	n.markDirty()
}

// GetRegistryNames returns the sorted names of all registry entries of a node
func (a *attributeLayer) GetRegistryNames(n *Node) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sortedKeys(n.data.Reg)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
