package model

import (
	"regexp"
	"strings"
)

const (
	// BranchPrefix marks branch records in the object keyspace
	BranchPrefix = "*"

	// BranchType is the type tag of branch records
	BranchType = "branch"

	// DefaultBranch to use when none is specified
	DefaultBranch = "master"
)

var (
	branchRex  = regexp.MustCompile(`^[0-9a-zA-Z_]+$`)
	projectRex = regexp.MustCompile(`^[0-9a-zA-Z_]+$`)
)

// Branch is a named, mutable pointer to a commit. A zero Head means the branch has no history yet.
type Branch struct {
	Name string `json:"name" yaml:"name"`
	Head Hash   `json:"head,omitempty" yaml:"head,omitempty"`
}

// BranchRecord is the stored shape of a branch
type BranchRecord struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Commit *Hash  `json:"commit"`
}

// Record converts a branch to its stored shape
func (b Branch) Record() BranchRecord {
	r := BranchRecord{
		ID:   BranchKey(b.Name),
		Name: b.Name,
		Type: BranchType,
	}
	if !b.Head.IsZero() {
		h := b.Head
		r.Commit = &h
	}
	return r
}

// Branch converts a stored record to a branch
func (r BranchRecord) Branch() Branch {
	b := Branch{Name: r.Name}
	if r.Commit != nil {
		b.Head = *r.Commit
	}
	return b
}

// BranchKey returns the storage key for a branch name
func BranchKey(name string) string {
	return BranchPrefix + name
}

// IsBranchKey tells if a storage key holds a branch record
func IsBranchKey(key string) bool {
	return strings.HasPrefix(key, BranchPrefix)
}

// BranchNameFromKey strips the branch prefix from a storage key
func BranchNameFromKey(key string) string {
	return strings.TrimPrefix(key, BranchPrefix)
}

// ValidateBranchName checks that a branch name is not empty and uses only letters, digits and underscores
func ValidateBranchName(name string) error {
	if !branchRex.MatchString(name) {
		return ErrInvalidName.WrapMessage("branch name %q", name)
	}
	return nil
}

// ValidateProjectName checks a project namespace name
func ValidateProjectName(name string) error {
	if !projectRex.MatchString(name) {
		return ErrInvalidName.WrapMessage("project name %q", name)
	}
	return nil
}
