package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/oneconcern/modelstore/pkg/branch"
	"github.com/oneconcern/modelstore/pkg/commitgraph"
	"github.com/oneconcern/modelstore/pkg/core"
	"github.com/oneconcern/modelstore/pkg/dlogger"
	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/oneconcern/modelstore/pkg/objectstore"
	"github.com/oneconcern/modelstore/pkg/storage"
	"github.com/oneconcern/modelstore/pkg/storage/badger"
	"github.com/oneconcern/modelstore/pkg/storage/localfs"
	"github.com/oneconcern/modelstore/pkg/storage/memory"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// stores holds the components a command works with
type stores struct {
	l        *zap.Logger
	objects  *objectstore.Store
	graph    *commitgraph.Graph
	branches *branch.Coordinator
	core     *core.Core
}

func physicalStore(c *CLIConfig, l *zap.Logger) (storage.Store, error) {
	switch c.Storage.Backend {
	case backendBadger:
		return badger.New(c.Storage.Dir, badger.WithLogger(l))
	case backendLocalFS:
		if err := os.MkdirAll(c.Storage.Dir, 0o700); err != nil {
			return nil, err
		}
		return localfs.New(afero.NewBasePathFs(afero.NewOsFs(), c.Storage.Dir), localfs.WithCompression(c.Storage.Compress))
	case backendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
}

// openStores builds the whole stack on the configured backend, scoped to the configured project
func openStores(ctx context.Context) (*stores, error) {
	if err := model.ValidateProjectName(config.Project); err != nil {
		return nil, err
	}
	l, err := dlogger.GetLogger(config.Log.Level,
		dlogger.WithFormat(config.Log.Format),
		dlogger.WithFields(zap.String("project", config.Project)),
	)
	if err != nil {
		return nil, err
	}
	m := cliMetrics()

	physical, err := physicalStore(config, l)
	if err != nil {
		return nil, err
	}
	store := storage.Instrument(storage.Namespace(physical, config.Project), l, m)

	objects, err := objectstore.New(store, objectstore.WithLogger(l), objectstore.WithMetrics(m))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	graphOpts := []commitgraph.Option{commitgraph.WithLogger(l), commitgraph.WithMetrics(m)}
	if config.Updater != "" {
		graphOpts = append(graphOpts, commitgraph.WithUpdater(config.Updater))
	}
	graph, err := commitgraph.Open(ctx, objects, graphOpts...)
	if err != nil {
		_ = objects.Close()
		return nil, err
	}

	return &stores{
		l:        l,
		objects:  objects,
		graph:    graph,
		branches: branch.New(objects, graph, branch.WithLogger(l), branch.WithMetrics(m)),
		core:     core.New(objects, core.WithLogger(l)),
	}, nil
}

func mustOpenStores(ctx context.Context) *stores {
	s, err := openStores(ctx)
	if err != nil {
		wrapFatalln("open store", err)
		return nil
	}
	return s
}

func (s *stores) Close() {
	_ = s.l.Sync()
	if err := s.objects.Close(); err != nil {
		infoLogger.Println("closing store:", err)
	}
}
