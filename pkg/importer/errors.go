package importer

import "github.com/oneconcern/modelstore/pkg/errors"

var (
	// ErrBuild tags failures of the build phase
	ErrBuild = errors.New("building error")

	// ErrResolve tags failures of the resolve phase
	ErrResolve = errors.New("resolving error")

	// ErrNotAProject indicates a document which top-level element is not a project
	ErrNotAProject = errors.New("not a gme project")

	// ErrMultipleCompletion indicates a builder which completed more than once
	ErrMultipleCompletion = errors.New("completion invoked more than once")

	// ErrOrphan indicates a node which parent cannot be imported
	ErrOrphan = errors.New("no importable parent")

	// ErrUnbuilt indicates a reference to a node which was not built
	ErrUnbuilt = errors.New("reference target was not built")

	// ErrIncomplete indicates a build which never completed
	ErrIncomplete = errors.New("build did not complete")
)
