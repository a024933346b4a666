// Package importer builds a versioned model graph out of a GME project document.
//
// The document is first loaded as a core tree (see package xmldoc). The import then runs in two phases:
//
//  1. build: a depth-first walk of the document creates one data node per model element.
//     Builds are memoized by document path, so that a node requested by several dependents is
//     built once. References which may point forward (connections, references, inheritance)
//     are queued rather than followed.
//  2. resolve: once every node is built, queued references are resolved concurrently into pointers.
//
// Every few thousand nodes, built data is persisted in the background, so that huge imports
// do not keep everything in memory until the end.
package importer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/oneconcern/modelstore/pkg/core"
	"github.com/oneconcern/modelstore/pkg/metrics"
	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

// Importer of GME projects
type Importer struct {
	c *core.Core
	l *zap.Logger
	m *metrics.M

	checkpointEvery int
	fanOut          int
	maxDepth        int
	reportInterval  time.Duration
}

// Result of an import run. On failure, it reports how far the import went.
type Result struct {
	RunID       string     `json:"run" yaml:"run"`
	Root        model.Hash `json:"root,omitempty" yaml:"root,omitempty"`
	Built       int        `json:"built" yaml:"built"`
	Unresolved  int        `json:"unresolved" yaml:"unresolved"`
	Resolved    int        `json:"resolved" yaml:"resolved"`
	Checkpoints int        `json:"checkpoints" yaml:"checkpoints"`
	Deferred    int        `json:"deferred" yaml:"deferred"`
}

// New importer writing to a core
func New(c *core.Core, opts ...Option) *Importer {
	i := &Importer{
		c:               c,
		l:               zap.NewNop(),
		m:               metrics.Discard(),
		checkpointEvery: DefaultCheckpointEvery,
		fanOut:          DefaultFanOut,
		maxDepth:        DefaultMaxDepth,
		reportInterval:  DefaultReportInterval,
	}
	for _, apply := range opts {
		apply(i)
	}
	return i
}

// Import the document persisted under source (a tree produced by xmldoc) and return the hash of the new project root.
//
// Failures are tagged ErrBuild or ErrResolve. Nodes persisted by checkpoints before a failure are not removed.
func (i *Importer) Import(ctx context.Context, source model.Hash) (*Result, error) {
	r := i.newRun(ctx)
	defer r.stop()

	r.l.Info("building gme project", zap.Stringer("source", source))
	if err := r.build(source); err != nil {
		return r.result(), ErrBuild.WrapWithLog(r.l, err)
	}
	r.l.Info("building done", zap.Int("objects", r.parsedCount), zap.Int("unresolved", len(r.unresolved)))

	if err := r.resolveAll(); err != nil {
		return r.result(), ErrResolve.WrapWithLog(r.l, err)
	}
	r.l.Info("resolving done")

	key, err := i.c.Persist(ctx, r.project)
	if err != nil {
		r.l.Error("saving project failed", zap.Error(err))
		return r.result(), err
	}
	r.root = key
	r.l.Info("saving done", zap.Stringer("root", key))
	return r.result(), nil
}

// buildEntry memoizes the build of a document path: either in flight, with waiters, or done
type buildEntry struct {
	node     *core.Node
	building bool
	waiters  []nodeCallback
}

type nodeCallback func(*core.Node, error)

// run is the state of a single import. It is discarded at the end of the import.
type run struct {
	ctx context.Context
	*Importer
	id    string
	l     *zap.Logger
	sched *scheduler

	project       *core.Node
	root          model.Hash
	alreadyParsed map[string]*buildEntry
	unresolved    []*core.Node
	parsedCount   int
	unsaved       int
	visited       atomic.Int64
	resolved      atomic.Int64

	checkpointing  bool
	checkpointDone chan error
	checkpoints    int

	contractErr error
}

func (i *Importer) newRun(ctx context.Context) *run {
	id := ksuid.New().String()
	return &run{
		ctx:            ctx,
		Importer:       i,
		id:             id,
		l:              i.l.With(zap.String("run", id)),
		sched:          newScheduler(i.maxDepth),
		project:        i.c.CreateNode(nil),
		alreadyParsed:  make(map[string]*buildEntry),
		checkpointDone: make(chan error, 1),
	}
}

func (r *run) result() *Result {
	return &Result{
		RunID:       r.id,
		Root:        r.root,
		Built:       r.parsedCount,
		Unresolved:  len(r.unresolved),
		Resolved:    int(r.resolved.Load()),
		Checkpoints: r.checkpoints,
		Deferred:    r.sched.deferred,
	}
}

// stop waits for any checkpoint still in flight
func (r *run) stop() {
	r.waitCheckpoint()
}

// report logs progress periodically, until the returned function is called
func (r *run) report(msg string, fields func() []zap.Field) func() {
	ticker := time.NewTicker(r.reportInterval)
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.l.Info(msg, fields()...)
			case <-stop:
				return
			}
		}
	}()

	return func() {
		close(stop)
		<-done
	}
}
