package install

import (
	"fmt"

	"github.com/pkg/errors"
)

// StepIndex identifies one phase of the installation pipeline.
type StepIndex int

const (
	StepCheck StepIndex = iota
	StepDatabase
	StepAdmin
	StepConfiguration
)

// Steps lists every phase in execution order.
var Steps = []StepIndex{StepCheck, StepDatabase, StepAdmin, StepConfiguration}

// NormalizeIndex maps any out-of-range starting index to StepCheck so that an
// unknown value runs the full pipeline.
func NormalizeIndex(i int) StepIndex {
	if i < int(StepCheck) || i > int(StepConfiguration) {
		return StepCheck
	}
	return StepIndex(i)
}

// Valid reports whether i is one of the four phases.
func (i StepIndex) Valid() bool {
	return i >= StepCheck && i <= StepConfiguration
}

// ExitCode is the process status reported when this phase fails.
func (i StepIndex) ExitCode() int {
	return -int(i)
}

func (i StepIndex) String() string {
	switch i {
	case StepCheck:
		return "check"
	case StepDatabase:
		return "database"
	case StepAdmin:
		return "admin"
	case StepConfiguration:
		return "configuration"
	default:
		return fmt.Sprintf("step(%d)", int(i))
	}
}

// SubIndex identifies a sub-phase of StepDatabase. SubNone is the
// provisioning sub-phase.
type SubIndex int

const (
	SubNone SubIndex = iota
	SubSchema
	SubFixtures
)

// DatabaseSubSteps lists the database sub-phases in execution order.
var DatabaseSubSteps = []SubIndex{SubNone, SubSchema, SubFixtures}

func (s SubIndex) String() string {
	switch s {
	case SubNone:
		return "provision"
	case SubSchema:
		return "schema"
	case SubFixtures:
		return "fixtures"
	default:
		return fmt.Sprintf("sub(%d)", int(s))
	}
}

// StepID is a (phase, sub-phase) pair. Sub is only meaningful for StepDatabase.
type StepID struct {
	Index StepIndex
	Sub   SubIndex
}

// NewStepID builds a StepID, rejecting sub-phases outside StepDatabase.
func NewStepID(index StepIndex, sub SubIndex) (StepID, error) {
	if !index.Valid() {
		return StepID{}, errors.Errorf("invalid step index %d", int(index))
	}
	if sub != SubNone && index != StepDatabase {
		return StepID{}, errors.Errorf("sub-step %s is only defined for the database step", sub)
	}
	if sub < SubNone || sub > SubFixtures {
		return StepID{}, errors.Errorf("invalid sub-step %d", int(sub))
	}
	return StepID{Index: index, Sub: sub}, nil
}

func (id StepID) String() string {
	if id.Index == StepDatabase {
		return fmt.Sprintf("%s.%s", id.Index, id.Sub)
	}
	return id.Index.String()
}
