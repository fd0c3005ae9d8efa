package borrow

import (
	"math/rand"
	"testing"

	"lend/internal/program"
	"lend/internal/scopes"
	"lend/internal/source"
)

func span(start, end uint32) source.Span {
	return source.Span{File: 1, Start: start, End: end}
}

func TestSharedBorrowsStack(t *testing.T) {
	tbl := NewTable()
	ref := scopes.BindingID(1)
	scope := scopes.ScopeID(2)

	a, issue := tbl.Begin(Shared, ref, scope, program.NoStmtID, span(0, 2))
	if !a.IsValid() || issue.Kind != IssueNone {
		t.Fatalf("first shared borrow rejected: %+v", issue)
	}
	b, issue := tbl.Begin(Shared, ref, scope, program.NoStmtID, span(3, 5))
	if !b.IsValid() || issue.Kind != IssueNone {
		t.Fatalf("second shared borrow rejected: %+v", issue)
	}
	shared, exclusive := tbl.Active(ref)
	if shared != 2 || exclusive {
		t.Fatalf("Active = (%d, %v), want (2, false)", shared, exclusive)
	}
}

func TestExclusiveRejectsEverything(t *testing.T) {
	tbl := NewTable()
	ref := scopes.BindingID(1)
	scope := scopes.ScopeID(2)

	first, issue := tbl.Begin(Exclusive, ref, scope, program.NoStmtID, span(0, 2))
	if issue.Kind != IssueNone {
		t.Fatalf("first exclusive borrow rejected: %+v", issue)
	}
	if _, issue = tbl.Begin(Shared, ref, scope, program.NoStmtID, span(3, 5)); issue.Kind != IssueSharedWhileMut {
		t.Fatalf("shared over exclusive: got %v, want IssueSharedWhileMut", issue.Kind)
	}
	if issue.Borrow != first {
		t.Fatalf("issue names borrow %d, want %d", issue.Borrow, first)
	}
	if _, issue = tbl.Begin(Exclusive, ref, scope, program.NoStmtID, span(6, 8)); issue.Kind != IssueMutWhileMut {
		t.Fatalf("exclusive over exclusive: got %v, want IssueMutWhileMut", issue.Kind)
	}
}

func TestExclusiveOverSharedRejected(t *testing.T) {
	tbl := NewTable()
	ref := scopes.BindingID(1)
	scope := scopes.ScopeID(2)

	shared, _ := tbl.Begin(Shared, ref, scope, program.NoStmtID, span(0, 2))
	_, issue := tbl.Begin(Exclusive, ref, scope, program.NoStmtID, span(3, 5))
	if issue.Kind != IssueMutWhileShared {
		t.Fatalf("got %v, want IssueMutWhileShared", issue.Kind)
	}
	if issue.Borrow != shared {
		t.Fatalf("issue names borrow %d, want %d", issue.Borrow, shared)
	}
}

func TestConflictRecordsNothing(t *testing.T) {
	tbl := NewTable()
	ref := scopes.BindingID(1)
	scope := scopes.ScopeID(2)

	tbl.Begin(Exclusive, ref, scope, program.NoStmtID, span(0, 2))
	id, _ := tbl.Begin(Shared, ref, scope, program.NoStmtID, span(3, 5))
	if id.IsValid() {
		t.Fatalf("rejected borrow got id %d", id)
	}
	if got := len(tbl.Infos()); got != 1 {
		t.Fatalf("table holds %d borrows, want 1", got)
	}
}

func TestEndScopeReleases(t *testing.T) {
	tbl := NewTable()
	ref := scopes.BindingID(1)
	inner := scopes.ScopeID(3)

	tbl.Begin(Exclusive, ref, inner, program.NoStmtID, span(0, 2))
	if _, issue := tbl.Begin(Shared, ref, inner, program.NoStmtID, span(3, 5)); issue.Kind == IssueNone {
		t.Fatal("shared borrow allowed while exclusive is live")
	}
	tbl.EndScope(inner)
	if _, issue := tbl.Begin(Shared, ref, inner, program.NoStmtID, span(6, 8)); issue.Kind != IssueNone {
		t.Fatalf("borrow after scope exit rejected: %+v", issue)
	}
}

func TestEndStmtReleasesTemporaries(t *testing.T) {
	tbl := NewTable()
	ref := scopes.BindingID(1)
	scope := scopes.ScopeID(2)
	stmt := program.StmtID(7)

	tbl.Begin(Exclusive, ref, scope, stmt, span(0, 2))
	tbl.EndStmt(stmt)
	if _, issue := tbl.Begin(Exclusive, ref, scope, program.NoStmtID, span(3, 5)); issue.Kind != IssueNone {
		t.Fatalf("temporary outlived its statement: %+v", issue)
	}
}

func TestAccessExclusiveProbesState(t *testing.T) {
	tbl := NewTable()
	ref := scopes.BindingID(1)
	scope := scopes.ScopeID(2)

	if issue := tbl.AccessExclusive(ref); issue.Kind != IssueNone {
		t.Fatalf("unborrowed binding rejected: %+v", issue)
	}
	id, _ := tbl.Begin(Shared, ref, scope, program.NoStmtID, span(0, 2))
	issue := tbl.AccessExclusive(ref)
	if issue.Kind != IssueMutWhileShared || issue.Borrow != id {
		t.Fatalf("got %+v, want IssueMutWhileShared naming %d", issue, id)
	}
	// Probing must not change the state.
	if shared, _ := tbl.Active(ref); shared != 1 {
		t.Fatalf("probe mutated state: %d shared borrows", shared)
	}
}

// TestRandomInterleavings drives random sequences of borrow and release
// events against a shadow model and checks the exclusivity rule holds at
// every step: an accepted exclusive borrow only ever lands on an
// unborrowed binding, and every overlap attempt is rejected with an issue.
func TestRandomInterleavings(t *testing.T) {
	rng := rand.New(rand.NewSource(0x1ed5))
	const (
		rounds   = 200
		steps    = 120
		bindings = 5
	)
	for round := 0; round < rounds; round++ {
		tbl := NewTable()
		type shadow struct {
			shared int
			mut    bool
		}
		model := make([]shadow, bindings+1)
		live := make(map[scopes.ScopeID][]scopes.BindingID)
		nextScope := scopes.ScopeID(1)

		for step := 0; step < steps; step++ {
			ref := scopes.BindingID(rng.Intn(bindings) + 1)
			switch rng.Intn(4) {
			case 0: // shared borrow into a fresh scope
				scope := nextScope
				nextScope++
				_, issue := tbl.Begin(Shared, ref, scope, program.NoStmtID, span(uint32(step), uint32(step)+1))
				wantReject := model[ref].mut
				if wantReject != (issue.Kind != IssueNone) {
					t.Fatalf("round %d step %d: shared borrow of %d: issue %v, model %+v",
						round, step, ref, issue.Kind, model[ref])
				}
				if !wantReject {
					model[ref].shared++
					live[scope] = append(live[scope], ref)
				}
			case 1: // exclusive borrow into a fresh scope
				scope := nextScope
				nextScope++
				_, issue := tbl.Begin(Exclusive, ref, scope, program.NoStmtID, span(uint32(step), uint32(step)+1))
				wantReject := model[ref].mut || model[ref].shared > 0
				if wantReject != (issue.Kind != IssueNone) {
					t.Fatalf("round %d step %d: exclusive borrow of %d: issue %v, model %+v",
						round, step, ref, issue.Kind, model[ref])
				}
				if !wantReject {
					model[ref].mut = true
					live[scope] = append(live[scope], ref)
				}
			case 2: // release a random live scope
				for scope, refs := range live {
					tbl.EndScope(scope)
					for _, r := range refs {
						if model[r].mut {
							model[r].mut = false
						} else {
							model[r].shared--
						}
					}
					delete(live, scope)
					break
				}
			case 3: // mutation probe
				issue := tbl.AccessExclusive(ref)
				wantReject := model[ref].mut || model[ref].shared > 0
				if wantReject != (issue.Kind != IssueNone) {
					t.Fatalf("round %d step %d: access of %d: issue %v, model %+v",
						round, step, ref, issue.Kind, model[ref])
				}
			}

			for b := scopes.BindingID(1); b <= bindings; b++ {
				shared, exclusive := tbl.Active(b)
				if exclusive && shared > 0 {
					t.Fatalf("round %d step %d: binding %d has %d shared borrows alongside an exclusive one",
						round, step, b, shared)
				}
				if shared != model[b].shared || exclusive != model[b].mut {
					t.Fatalf("round %d step %d: binding %d: table (%d, %v), model %+v",
						round, step, b, shared, exclusive, model[b])
				}
			}
		}
	}
}
