package importer

import (
	"context"

	"github.com/oneconcern/modelstore/pkg/core"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// connection roles -> data pointer names
var connectionRoles = map[string]string{
	"src": "source",
	"dst": "target",
}

// resolveAll sets the pointers of all nodes queued during the build, with a bounded fan-out.
// The first error cancels the resolutions still in flight.
func (r *run) resolveAll() error {
	total := len(r.unresolved)
	r.l.Info("resolving connections and references", zap.Int("count", total))
	if total == 0 {
		return nil
	}

	stopReport := r.report("resolving", func() []zap.Field {
		return []zap.Field{zap.Int64("at object", r.resolved.Load()), zap.Int("out of", total)}
	})
	defer stopReport()

	p := pool.New().
		WithMaxGoroutines(r.fanOut).
		WithContext(r.ctx).
		WithCancelOnError().
		WithFirstError()

	for _, xml := range r.unresolved {
		xml := xml
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.resolve(xml); err != nil {
				return err
			}
			r.resolved.Add(1)
			r.m.ImportResolved.Inc()
			return nil
		})
	}
	return p.Wait()
}

// resolve sets the pointers of one data node. Targets must have been built.
func (r *run) resolve(xml *core.Node) error {
	path := r.c.GetStringPath(xml)
	entry, ok := r.alreadyParsed[path]
	if !ok || entry.node == nil {
		return ErrUnbuilt.WrapMessage("%q", path)
	}
	node := entry.node

	switch r.tag(xml) {
	case "connection":
		children, err := r.c.LoadChildren(r.ctx, xml)
		if err != nil {
			return err
		}
		for _, child := range children {
			if r.tag(child) != connpointTag {
				continue
			}
			role := r.c.GetAttributeString(child, "role")
			name, known := connectionRoles[role]
			if !known {
				r.l.Warn("unknown connection role", zap.String("role", role), zap.String("connection", path))
				continue
			}
			if err := r.setPointer(node, name, child, "target"); err != nil {
				return err
			}
		}
	case "reference":
		if r.c.HasPointer(xml, referred) {
			if err := r.setPointer(node, "ref", xml, referred); err != nil {
				return err
			}
		}
	}

	if r.c.HasPointer(xml, derivedFrom) {
		return r.setPointer(node, "base", xml, derivedFrom)
	}
	return nil
}

// setPointer points a data node to the node built for the target of a document pointer.
// A document pointer with no target yields a data pointer with no target.
func (r *run) setPointer(node *core.Node, name string, xml *core.Node, from string) error {
	targetPath, hasTarget, err := r.c.GetPointerPath(xml, from)
	if err != nil {
		return err
	}
	if !hasTarget {
		return r.c.SetPointer(node, name, nil)
	}

	entry, ok := r.alreadyParsed[targetPath]
	if !ok || entry.node == nil {
		return ErrUnbuilt.WrapMessage("%s %q -> %q", from, r.c.GetStringPath(xml), targetPath)
	}
	return r.c.SetPointer(node, name, entry.node)
}
