package ports

import "time"

// Ledger keeps an append-only history of build runs. It is observational:
// nothing in the build consults it to skip work.
type Ledger interface {
	// Record appends a run. The ledger assigns rec.ID.
	Record(rec *BuildRecord) error

	// Recent returns up to limit records, newest first.
	Recent(limit int) ([]*BuildRecord, error)

	// LastSuccess returns the newest successful record for a grammar file,
	// or nil, nil when there is none.
	LastSuccess(grammarFile string) (*BuildRecord, error)

	// Close releases the underlying store.
	Close() error
}

// BuildRecord is one ledger entry.
type BuildRecord struct {
	ID            uint64            `json:"id"`
	Started       time.Time         `json:"started"`
	Finished      time.Time         `json:"finished"`
	GrammarFile   string            `json:"grammar_file"`
	GrammarSHA256 string            `json:"grammar_sha256,omitempty"`
	ABIVersion    int               `json:"abi_version"`
	Sources       map[string]string `json:"sources,omitempty"` // generated file -> sha256
	Artifact      string            `json:"artifact,omitempty"`
	ArtifactSHA   string            `json:"artifact_sha256,omitempty"`
	FailedStage   string            `json:"failed_stage,omitempty"` // "" on success
	Error         string            `json:"error,omitempty"`
}

// OK reports whether the run succeeded.
func (r *BuildRecord) OK() bool {
	return r.FailedStage == "" && r.Error == ""
}

// Duration returns the wall time of the run.
func (r *BuildRecord) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
