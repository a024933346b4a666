package objectstore

import (
	"context"

	"github.com/oneconcern/modelstore/pkg/model"
)

// LoadBranch reads a branch record. A missing branch yields ErrNotFound.
func (s *Store) LoadBranch(ctx context.Context, name string) (model.Branch, error) {
	data, err := s.store.Get(ctx, model.BranchKey(name))
	if err != nil {
		return model.Branch{}, err
	}

	var record model.BranchRecord
	if err := model.Unmarshal(data, &record); err != nil {
		return model.Branch{}, model.ErrMalformedObject.Wrap(err)
	}
	if record.Type != model.BranchType || record.Name != name {
		return model.Branch{}, model.ErrMalformedObject.WrapMessage("record at %q is not a branch", model.BranchKey(name))
	}
	if record.Commit != nil {
		if err := record.Commit.Validate(); err != nil {
			return model.Branch{}, model.ErrMalformedObject.Wrap(err)
		}
	}
	return record.Branch(), nil
}

// SaveBranch writes a branch record, replacing any previous one
func (s *Store) SaveBranch(ctx context.Context, branch model.Branch) error {
	if err := model.ValidateBranchName(branch.Name); err != nil {
		return err
	}
	data, err := model.CanonicalSerialize(branch.Record())
	if err != nil {
		return model.ErrMalformedObject.Wrap(err)
	}
	return s.store.Put(ctx, model.BranchKey(branch.Name), data)
}

// RemoveBranch deletes a branch record
func (s *Store) RemoveBranch(ctx context.Context, name string) error {
	return s.store.Delete(ctx, model.BranchKey(name))
}

// HasBranch tells if a branch record exists
func (s *Store) HasBranch(ctx context.Context, name string) (bool, error) {
	return s.store.Has(ctx, model.BranchKey(name))
}

// BranchNames lists all branches, sorted
func (s *Store) BranchNames(ctx context.Context) ([]string, error) {
	keys, err := s.store.Keys(ctx, model.BranchPrefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, model.BranchNameFromKey(key))
	}
	return names, nil
}
