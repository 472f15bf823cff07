package judge

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// GradeResult is the graded outcome of one submission. Table holds the
// candidate's original (non-canonicalized) result for display whenever the
// candidate executed; Message carries the diagnostic for the error outcomes.
type GradeResult struct {
	Outcome Outcome
	Table   *ResultTable
	Message string
}

// Grade executes the candidate and reference statements against db and
// classifies their relationship. It is a pure function of the database
// contents and the two statements: execution failures are converted to
// outcomes rather than returned, and every execution is rolled back so the
// connection pool stays clean for the next call.
func Grade(ctx context.Context, db *sqlx.DB, candidateSQL, referenceSQL string) GradeResult {
	candidate := FirstStatement(candidateSQL)
	reference := FirstStatement(referenceSQL)

	if candidate == "" {
		return GradeResult{Outcome: OutcomeSyntaxError, Message: "Empty query"}
	}
	if reference == "" {
		return GradeResult{Outcome: OutcomeError, Message: "reference SQL missing"}
	}

	// Parse without executing to catch gross malformation before touching
	// the data.
	if err := checkSyntax(ctx, db, candidate); err != nil {
		return GradeResult{Outcome: OutcomeSyntaxError, Message: classifyExecError(err)}
	}

	candidateTable, err := queryTable(ctx, db, candidate)
	if err != nil {
		return GradeResult{Outcome: OutcomeSyntaxError, Message: classifyExecError(err)}
	}

	referenceTable, err := queryTable(ctx, db, reference)
	if err != nil {
		// Authoring fault, never the player's.
		return GradeResult{Outcome: OutcomeError, Message: "reference query failed: " + classifyExecError(err)}
	}

	candidateCanon := candidateTable.Canonical()
	referenceCanon := referenceTable.Canonical()

	// Exact label + value match, order-insensitive via canonicalization.
	if tablesEqual(candidateCanon, referenceCanon) {
		return GradeResult{Outcome: OutcomeCorrect, Table: candidateTable}
	}

	// Same shape with cosmetically different labels: compare the rows as
	// multisets of value tuples, multiplicity included.
	if sameShape(candidateCanon, referenceCanon) {
		if multisetsEqual(rowMultiset(candidateCanon), rowMultiset(referenceCanon)) {
			return GradeResult{Outcome: OutcomeCorrect, Table: candidateTable}
		}
	}

	// Partial credit: any multiset overlap on the shared columns is
	// evidence of a correct idea with an incomplete or too-broad query.
	if common := commonColumns(candidateTable, referenceTable); len(common) > 0 {
		candidateProj := candidateTable.Project(common).Canonical()
		referenceProj := referenceTable.Project(common).Canonical()
		if multisetOverlap(rowMultiset(candidateProj), rowMultiset(referenceProj)) > 0 {
			return GradeResult{Outcome: OutcomePartial, Table: candidateTable}
		}
	}

	return GradeResult{Outcome: OutcomeIncorrect, Table: candidateTable}
}

// checkSyntax prepares the statement without running it.
func checkSyntax(ctx context.Context, db *sqlx.DB, statement string) error {
	stmt, err := db.PreparexContext(ctx, statement)
	if err != nil {
		return err
	}
	return stmt.Close()
}
