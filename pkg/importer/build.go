package importer

import (
	"fmt"

	"github.com/oneconcern/modelstore/pkg/core"
	"github.com/oneconcern/modelstore/pkg/metrics"
	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/oneconcern/modelstore/pkg/xmldoc"
	"go.uber.org/zap"
)

const projectTag = "project"

// build walks the whole document depth-first and builds every importable node
func (r *run) build(source model.Hash) error {
	root, err := r.c.LoadRoot(r.ctx, source)
	if err != nil {
		return err
	}

	stopReport := r.report("building", func() []zap.Field {
		return []zap.Field{zap.Int64("at object", r.visited.Load())}
	})
	defer stopReport()

	var (
		finished bool
		result   error
	)
	r.sched.call(func() {
		r.visit(root, func(err error) {
			finished = true
			result = err
		})
	})
	r.sched.run(r.pollCheckpoint)
	r.waitCheckpoint()

	switch {
	case result != nil:
		return result
	case !finished:
		return ErrIncomplete
	case r.contractErr != nil:
		return r.contractErr
	default:
		return nil
	}
}

func (r *run) tag(xml *core.Node) string {
	return r.c.GetAttributeString(xml, xmldoc.TagAttribute)
}

// visit builds a document node, then its children in order
func (r *run) visit(xml *core.Node, done func(error)) {
	if err := r.ctx.Err(); err != nil {
		done(err)
		return
	}
	r.visited.Add(1)

	if r.c.GetLevel(xml) == 1 && r.tag(xml) != projectTag {
		done(ErrNotAProject.WrapMessage("top-level element is %q", r.tag(xml)))
		return
	}

	r.parse(xml, func(_ *core.Node, err error) {
		if err != nil {
			done(err)
			return
		}
		children, err := r.c.LoadChildren(r.ctx, xml)
		if err != nil {
			done(err)
			return
		}
		r.visitChildren(children, 0, done)
	})
}

func (r *run) visitChildren(children []*core.Node, i int, done func(error)) {
	if i == len(children) {
		done(nil)
		return
	}
	r.visit(children[i], func(err error) {
		if err != nil {
			done(err)
			return
		}
		r.sched.call(func() {
			r.visitChildren(children, i+1, done)
		})
	})
}

// parse delivers the data node built for a document node: nil for elements which are not imported
func (r *run) parse(xml *core.Node, callback nodeCallback) {
	path := r.c.GetStringPath(xml)
	if entry, ok := r.alreadyParsed[path]; ok {
		if entry.building {
			entry.waiters = append(entry.waiters, callback)
			return
		}
		node := entry.node
		r.sched.call(func() { callback(node, nil) })
		return
	}

	b, ok := builders[r.tag(xml)]
	if !ok {
		r.sched.call(func() { callback(nil, nil) })
		return
	}
	r.execute(path, b, xml, callback)
}

// execute runs a builder and notifies everyone waiting for this path, in order
func (r *run) execute(path string, b builder, xml *core.Node, callback nodeCallback) {
	r.pollCheckpoint()
	r.unsaved++
	if r.unsaved >= r.checkpointEvery && !r.checkpointing {
		r.checkpoint()
		r.unsaved = 0
	}

	entry := &buildEntry{
		building: true,
		waiters:  []nodeCallback{callback},
	}
	r.alreadyParsed[path] = entry

	b(r, xml, r.once(path, func(node *core.Node, err error) {
		waiters := entry.waiters
		entry.waiters = nil

		if err != nil {
			delete(r.alreadyParsed, path)
		} else {
			entry.node = node
			entry.building = false
			r.parsedCount++
			r.m.ImportNodes.Inc()
		}

		for _, waiter := range waiters {
			waiter := waiter
			r.sched.call(func() { waiter(node, err) })
		}
	}))
}

// once guards a completion callback against multiple invocations
func (r *run) once(path string, callback nodeCallback) nodeCallback {
	var called bool
	return func(node *core.Node, err error) {
		if called {
			e := ErrMultipleCompletion.WrapWithLog(r.l, fmt.Errorf("builder for %q", path))
			if r.contractErr == nil {
				r.contractErr = e
			}
			return
		}
		called = true
		callback(node, err)
	}
}

// checkpoint collects the data built so far and persists it in the background
func (r *run) checkpoint() {
	batch, err := r.c.Collect(r.project)
	if err != nil {
		r.m.ImportCheckpoints.WithLabelValues(metrics.ResultError).Inc()
		r.l.Warn("error during intermediate persisting", zap.Error(err))
		return
	}

	r.checkpointing = true
	r.l.Debug("intermediate persisting", zap.Int("objects", batch.Len()))
	go func() {
		r.checkpointDone <- batch.Save(r.ctx)
	}()
}

func (r *run) pollCheckpoint() {
	if !r.checkpointing {
		return
	}
	select {
	case err := <-r.checkpointDone:
		r.checkpointFinished(err)
	default:
	}
}

func (r *run) waitCheckpoint() {
	if !r.checkpointing {
		return
	}
	r.checkpointFinished(<-r.checkpointDone)
}

func (r *run) checkpointFinished(err error) {
	r.checkpointing = false
	r.m.ImportCheckpoints.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		r.l.Warn("error during intermediate persisting", zap.Error(err))
		return
	}
	r.checkpoints++
}
