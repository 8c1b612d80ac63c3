package runner

import (
	"fmt"

	v1 "github.com/infracollect/tzline/apis/v1"
)

const (
	SystemDatabaseKind    = "system"
	DirectoryDatabaseKind = "directory"
)

// ResolvedSpec holds a kind identifier and the spec for that kind.
type ResolvedSpec struct {
	Kind string
	Spec any
}

// ResolveDatabaseSpec extracts the kind and spec from a v1.TimezoneDatabaseSpec.
// A nil spec selects the system database.
func ResolveDatabaseSpec(db *v1.TimezoneDatabaseSpec) (ResolvedSpec, error) {
	if db == nil {
		return ResolvedSpec{Kind: SystemDatabaseKind, Spec: &v1.SystemDatabaseSpec{}}, nil
	}
	switch {
	case db.System != nil && db.Directory != nil:
		return ResolvedSpec{}, fmt.Errorf("timezone database must set only one of system or directory")
	case db.System != nil:
		return ResolvedSpec{Kind: SystemDatabaseKind, Spec: db.System}, nil
	case db.Directory != nil:
		return ResolvedSpec{Kind: DirectoryDatabaseKind, Spec: db.Directory}, nil
	default:
		return ResolvedSpec{}, fmt.Errorf("timezone database has no type specified")
	}
}
