package pipeline

import (
	"fmt"
	"strings"

	"github.com/CaessarCZX/ERP-Books4less-BE/internal/types"
)

// DuplicateFilesError rejects a request that names the same file twice.
type DuplicateFilesError struct {
	Names []string
}

func (e *DuplicateFilesError) Error() string {
	return "duplicate file names in request: " + strings.Join(e.Names, ", ")
}

// EmitterError means an artifact could not be rendered or stored. No
// artifact of the run is left in the sink.
type EmitterError struct {
	Artifact types.ArtifactKind
	Err      error
}

func (e *EmitterError) Error() string {
	return fmt.Sprintf("failed to emit %s artifact: %v", e.Artifact, e.Err)
}

func (e *EmitterError) Unwrap() error { return e.Err }
