package indexer

import "media-indexer/internal/database"

// Outcome is the result of evaluating one scan candidate. The set of
// implementations is closed: SkipOutcome, HashOnlyUpdate, FullUpdate and
// FailureOutcome.
type Outcome interface {
	outcome()
}

// SkipOutcome means the file is unchanged and needs no write.
type SkipOutcome struct{}

// HashOnlyUpdate carries a freshly computed quick hash for a file whose
// stored metadata is still current.
type HashOnlyUpdate struct {
	Hash string
}

// FullUpdate carries newly probed metadata and the file's quick hash.
type FullUpdate struct {
	Record *database.MediaFile
	Hash   string
}

// FailureOutcome means the file could not be evaluated this run. The stored
// record, if any, is left untouched so the next scan retries it.
type FailureOutcome struct {
	Reason error
}

func (SkipOutcome) outcome()    {}
func (HashOnlyUpdate) outcome() {}
func (FullUpdate) outcome()     {}
func (FailureOutcome) outcome() {}
