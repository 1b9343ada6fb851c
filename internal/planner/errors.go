package planner

import (
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrMalformedArtifactName matches any *MalformedArtifactNameError via errors.Is.
	ErrMalformedArtifactName = eris.New("planner: malformed artifact name")
	// ErrMalformedSkipLogEntry matches any *MalformedSkipLogEntryError via errors.Is.
	ErrMalformedSkipLogEntry = eris.New("planner: malformed skip log entry")
	// ErrAlreadyCompleted is returned when recording an empty outcome for a key that has an artifact.
	ErrAlreadyCompleted = eris.New("planner: key already has an output artifact")
	// ErrAlreadySkipped is returned when writing an artifact for a key in the skip log.
	ErrAlreadySkipped = eris.New("planner: key already recorded as empty")
)

// MalformedArtifactNameError reports a file in an output directory that is
// neither a recognized rollup or companion file nor parseable as a key.
type MalformedArtifactNameError struct {
	Dir  string
	Name string
	Err  error
}

func (e *MalformedArtifactNameError) Error() string {
	return fmt.Sprintf("planner: malformed artifact name %q in %s: %v", e.Name, e.Dir, e.Err)
}

func (e *MalformedArtifactNameError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrMalformedArtifactName) match.
func (e *MalformedArtifactNameError) Is(target error) bool {
	return target == ErrMalformedArtifactName
}

// MalformedSkipLogEntryError reports a skip log line that is not a postal code.
type MalformedSkipLogEntryError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *MalformedSkipLogEntryError) Error() string {
	return fmt.Sprintf("planner: malformed skip log entry %q at %s:%d: %v", e.Text, e.Path, e.Line, e.Err)
}

func (e *MalformedSkipLogEntryError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrMalformedSkipLogEntry) match.
func (e *MalformedSkipLogEntryError) Is(target error) bool {
	return target == ErrMalformedSkipLogEntry
}
