package model

import (
	"time"
)

// CommitType is the type tag of commit objects
const CommitType = "commit"

// Commit is the fixed-shape object recording a root hash and its parent commits.
//
// The commit ID is the hash of the commit content with the ID blanked.
type Commit struct {
	ID      Hash     `json:"_id" yaml:"id"`
	Root    Hash     `json:"root" yaml:"root"`
	Parents []Hash   `json:"parents" yaml:"parents"`
	Updater []string `json:"updater" yaml:"updater"`
	Time    int64    `json:"time" yaml:"time"` // epoch, in ms
	Message string   `json:"message" yaml:"message"`
	Type    string   `json:"type" yaml:"type"`
}

// NewCommit builds a commit object and computes its ID
func NewCommit(parents []Hash, root Hash, updater []string, message string, at time.Time) (*Commit, error) {
	if parents == nil {
		parents = []Hash{}
	}
	if updater == nil {
		updater = []string{}
	}
	c := &Commit{
		Root:    root,
		Parents: parents,
		Updater: updater,
		Time:    at.UnixNano() / int64(time.Millisecond),
		Message: message,
		Type:    CommitType,
	}
	o, err := c.Object()
	if err != nil {
		return nil, err
	}
	id, err := ComputeHash(o)
	if err != nil {
		return nil, err
	}
	c.ID = id
	return c, nil
}

// IsRoot tells if this commit has no parent
func (c *Commit) IsRoot() bool {
	return len(c.Parents) == 0
}

// Timestamp of the commit
func (c *Commit) Timestamp() time.Time {
	return time.Unix(0, c.Time*int64(time.Millisecond)).UTC()
}

// HasParent tells if some commit is a direct parent of this one
func (c *Commit) HasParent(h Hash) bool {
	for _, p := range c.Parents {
		if p == h {
			return true
		}
	}
	return false
}

// Object converts the commit to its stored shape
func (c *Commit) Object() (DataObject, error) {
	data, err := canonical.Marshal(c)
	if err != nil {
		return nil, err
	}
	return DecodeObject(data)
}

// CommitFromObject decodes a stored commit
func CommitFromObject(o DataObject) (*Commit, error) {
	if o.Type() != CommitType {
		return nil, ErrMalformedObject.WrapMessage("object %v is not a commit", o.ID())
	}
	data, err := canonical.Marshal(o)
	if err != nil {
		return nil, ErrMalformedObject.Wrap(err)
	}
	var c Commit
	if err := canonical.Unmarshal(data, &c); err != nil {
		return nil, ErrMalformedObject.Wrap(err)
	}
	if c.Parents == nil {
		c.Parents = []Hash{}
	}
	return &c, nil
}
