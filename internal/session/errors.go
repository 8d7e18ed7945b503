package session

import (
	"fmt"

	"github.com/matteobonanomi/pizoo/internal/profile"
)

// Boot stages, in the order Boot runs them.
const (
	StageCatalog  = "catalog"
	StageLoad     = "load"
	StageValidate = "validate"
	StageLibrary  = "library"
	StageBind     = "bind"
)

// BootError reports why the first profile could not be brought up.
type BootError struct {
	Stage    string
	Err      error
	Problems []profile.Problem
}

func (e *BootError) Error() string {
	if e.Stage == StageValidate {
		return fmt.Sprintf("boot %s: %d asset problem(s)", e.Stage, len(e.Problems))
	}
	return fmt.Sprintf("boot %s: %v", e.Stage, e.Err)
}

func (e *BootError) Unwrap() error {
	return e.Err
}
