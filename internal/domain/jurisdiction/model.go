package jurisdiction

import (
	"strconv"
	"strings"
	"time"
)

// Jurisdiction is a node in the public-health jurisdiction tree. Ancestry
// holds the ids from the root down to the parent, joined by "/".
type Jurisdiction struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Path      string    `db:"path" json:"path"`
	Ancestry  *string   `db:"ancestry" json:"ancestry,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RootID is the id of the top of this jurisdiction's hierarchy.
func (j *Jurisdiction) RootID() int64 {
	if j.Ancestry == nil || *j.Ancestry == "" {
		return j.ID
	}
	first := strings.SplitN(*j.Ancestry, "/", 2)[0]
	id, err := strconv.ParseInt(first, 10, 64)
	if err != nil {
		return j.ID
	}
	return id
}

// ChildAncestry is the ancestry value stored on this jurisdiction's children.
func (j *Jurisdiction) ChildAncestry() string {
	self := strconv.FormatInt(j.ID, 10)
	if j.Ancestry == nil || *j.Ancestry == "" {
		return self
	}
	return *j.Ancestry + "/" + self
}

// PathSeparator joins names in a jurisdiction's full path, e.g.
// "USA, State 1, County 2".
const PathSeparator = ", "

func JoinPath(parentPath, name string) string {
	if parentPath == "" {
		return name
	}
	return parentPath + PathSeparator + name
}
