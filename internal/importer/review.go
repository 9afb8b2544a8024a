package importer

import "github.com/FleerJam/appGestionAcademica/internal/models"

// ConflictChoice is the three-way answer when a corrected identifier collides
// with a row already accepted in the same batch.
type ConflictChoice int

const (
	// ConflictKeepExisting discards the row under review in favor of the one
	// already in the batch.
	ConflictKeepExisting ConflictChoice = iota
	// ConflictOverwrite replaces the existing row with the one under review.
	ConflictOverwrite
	// ConflictCancel rejects the proposed identifier and asks again.
	ConflictCancel
)

// ReviewPolicy adjudicates rows whose identifier failed validation. The
// interactive front end implements it with dialogs; headless runs use a
// scripted or omit-everything policy. The reconciliation loop re-invokes
// ProposeIdentifier until it gets a valid, unclaimed identifier or an
// omission.
type ReviewPolicy interface {
	// ProposeIdentifier returns a replacement identifier for the row, or
	// ok=false to omit it. attempt starts at 0 and increments every time a
	// previous proposal was rejected.
	ProposeIdentifier(row models.ImportedRow, attempt int) (identifier string, ok bool)

	// ResolveConflict decides between the row already accepted for the
	// candidate identifier and the row under review.
	ResolveConflict(identifier string, existing, current models.ImportedRow) ConflictChoice

	// ConfirmMerge asks whether to attach the row's enrollment and grades to
	// the person already registered under the identifier, discarding the
	// sheet's (presumably misspelled) name.
	ConfirmMerge(identifier, existingName string, row models.ImportedRow) bool
}

// OmitAllPolicy rejects every review row. It is the default for unattended
// imports: unresolvable rows are counted as omissions, never guessed at.
type OmitAllPolicy struct{}

func (OmitAllPolicy) ProposeIdentifier(models.ImportedRow, int) (string, bool) { return "", false }

func (OmitAllPolicy) ResolveConflict(string, models.ImportedRow, models.ImportedRow) ConflictChoice {
	return ConflictKeepExisting
}

func (OmitAllPolicy) ConfirmMerge(string, string, models.ImportedRow) bool { return false }

// ScriptedPolicy answers from a prepared correction map, keyed by the row's
// original identifier. Rows without a scripted correction are omitted, and a
// correction is only offered once per row.
type ScriptedPolicy struct {
	// Corrections maps a row's original identifier to its corrected value.
	Corrections map[string]string
	// OverwriteConflicts controls the in-batch conflict answer.
	OverwriteConflicts bool
	// ConfirmMerges controls whether DB matches are merged or the row is
	// retried (and, lacking further script, omitted).
	ConfirmMerges bool
}

func (p ScriptedPolicy) ProposeIdentifier(row models.ImportedRow, attempt int) (string, bool) {
	if attempt > 0 {
		return "", false
	}
	corrected, ok := p.Corrections[row.OriginalIdentifier]
	return corrected, ok && corrected != ""
}

func (p ScriptedPolicy) ResolveConflict(string, models.ImportedRow, models.ImportedRow) ConflictChoice {
	if p.OverwriteConflicts {
		return ConflictOverwrite
	}
	return ConflictKeepExisting
}

func (p ScriptedPolicy) ConfirmMerge(string, string, models.ImportedRow) bool {
	return p.ConfirmMerges
}
