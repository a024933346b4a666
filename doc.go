/*
Package modelstore keeps versioned model graphs.

Models are stored as immutable, content addressed objects. Commits snapshot
the root object of a model and link to their parents, and branches are
named, movable pointers to commits which only ever fast-forward.

The modelstore command line manipulates objects, commits and branches, and
imports XML project exports into a new commit on a branch.
*/
package modelstore
