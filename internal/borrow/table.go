package borrow

import (
	"fmt"

	"fortio.org/safecast"

	"lend/internal/program"
	"lend/internal/scopes"
	"lend/internal/source"
)

// ID identifies an active borrow entry.
type ID uint32

// NoID marks the absence of a borrow.
const NoID ID = 0

// IsValid reports whether the ID refers to a recorded borrow.
func (id ID) IsValid() bool { return id != NoID }

// Kind differentiates shared vs exclusive borrows.
type Kind uint8

const (
	Shared Kind = iota
	Exclusive
)

func (k Kind) String() string {
	if k == Exclusive {
		return "exclusive"
	}
	return "shared"
}

// Info stores metadata about one borrow. Extent is the scope whose exit
// releases the borrow; Stmt is set instead for statement temporaries, which
// are released at the end of their enclosing statement (the tighter of the
// two per the release rule).
type Info struct {
	ID       ID
	Kind     Kind
	Referent scopes.BindingID
	Extent   scopes.ScopeID
	Stmt     program.StmtID
	Span     source.Span
}

type state struct {
	shared []ID
	mut    ID
}

// IssueKind enumerates reasons a borrow-related action is rejected.
type IssueKind uint8

const (
	IssueNone IssueKind = iota
	// IssueSharedWhileMut rejects a shared borrow while an exclusive one is live.
	IssueSharedWhileMut
	// IssueMutWhileShared rejects an exclusive borrow while shared ones are live.
	IssueMutWhileShared
	// IssueMutWhileMut rejects a second exclusive borrow.
	IssueMutWhileMut
)

// Issue carries the rejection reason plus the standing borrow that caused it.
type Issue struct {
	Kind   IssueKind
	Borrow ID
}

// Table drives the per-binding state machine
// Unborrowed -> SharedBorrowed(n) -> ExclusiveBorrowed -> Unborrowed.
// One table serves one check run and is discarded with it.
type Table struct {
	infos        []Info
	states       map[scopes.BindingID]state
	scopeBorrows map[scopes.ScopeID][]ID
	stmtBorrows  map[program.StmtID][]ID
}

// NewTable builds an empty borrow table ready for one walk.
func NewTable() *Table {
	return &Table{
		infos:        []Info{{}},
		states:       make(map[scopes.BindingID]state),
		scopeBorrows: make(map[scopes.ScopeID][]ID),
		stmtBorrows:  make(map[program.StmtID][]ID),
	}
}

// Begin requests a borrow of referent. The transition table is checked
// first: a conflict records nothing and returns the issue. When stmt is
// valid the borrow is a statement temporary; otherwise it lives until
// extent exits.
func (t *Table) Begin(kind Kind, referent scopes.BindingID, extent scopes.ScopeID, stmt program.StmtID, span source.Span) (ID, Issue) {
	if t == nil || !referent.IsValid() {
		return NoID, Issue{}
	}
	st := t.states[referent]
	switch kind {
	case Shared:
		if st.mut != NoID {
			return NoID, Issue{Kind: IssueSharedWhileMut, Borrow: st.mut}
		}
	case Exclusive:
		if len(st.shared) > 0 {
			return NoID, Issue{Kind: IssueMutWhileShared, Borrow: st.shared[0]}
		}
		if st.mut != NoID {
			return NoID, Issue{Kind: IssueMutWhileMut, Borrow: st.mut}
		}
	}
	value, err := safecast.Conv[uint32](len(t.infos))
	if err != nil {
		panic(fmt.Errorf("borrow table overflow: %w", err))
	}
	id := ID(value)
	t.infos = append(t.infos, Info{
		ID:       id,
		Kind:     kind,
		Referent: referent,
		Extent:   extent,
		Stmt:     stmt,
		Span:     span,
	})
	switch kind {
	case Shared:
		st.shared = append(st.shared, id)
	case Exclusive:
		st.mut = id
	}
	t.states[referent] = st
	if stmt.IsValid() {
		t.stmtBorrows[stmt] = append(t.stmtBorrows[stmt], id)
	} else if extent.IsValid() {
		t.scopeBorrows[extent] = append(t.scopeBorrows[extent], id)
	}
	return id, Issue{}
}

// AccessExclusive probes whether the binding can be mutated or reassigned
// right now. Reassignment is an exclusive-access request against the same
// transition table, it just does not record a borrow.
func (t *Table) AccessExclusive(referent scopes.BindingID) Issue {
	if t == nil || !referent.IsValid() {
		return Issue{}
	}
	st, ok := t.states[referent]
	if !ok {
		return Issue{}
	}
	if len(st.shared) > 0 {
		return Issue{Kind: IssueMutWhileShared, Borrow: st.shared[0]}
	}
	if st.mut != NoID {
		return Issue{Kind: IssueMutWhileMut, Borrow: st.mut}
	}
	return Issue{}
}

// EndScope releases every borrow whose extent is the exiting scope.
func (t *Table) EndScope(scope scopes.ScopeID) {
	if t == nil || !scope.IsValid() {
		return
	}
	ids := t.scopeBorrows[scope]
	for _, id := range ids {
		t.release(id)
	}
	delete(t.scopeBorrows, scope)
}

// EndStmt releases the statement temporaries of stmt.
func (t *Table) EndStmt(stmt program.StmtID) {
	if t == nil || !stmt.IsValid() {
		return
	}
	ids := t.stmtBorrows[stmt]
	for _, id := range ids {
		t.release(id)
	}
	delete(t.stmtBorrows, stmt)
}

func (t *Table) release(id ID) {
	info := t.Info(id)
	if info == nil {
		return
	}
	st := t.states[info.Referent]
	switch info.Kind {
	case Shared:
		st.shared = dropID(st.shared, id)
	case Exclusive:
		if st.mut == id {
			st.mut = NoID
		}
	}
	if len(st.shared) == 0 && st.mut == NoID {
		delete(t.states, info.Referent)
	} else {
		t.states[info.Referent] = st
	}
}

// Info returns metadata for the borrow.
func (t *Table) Info(id ID) *Info {
	if t == nil || id == NoID || int(id) >= len(t.infos) {
		return nil
	}
	return &t.infos[id]
}

// Infos returns a shallow copy of every recorded borrow (excluding the
// sentinel), in creation order.
func (t *Table) Infos() []Info {
	if t == nil || len(t.infos) <= 1 {
		return nil
	}
	out := make([]Info, len(t.infos)-1)
	copy(out, t.infos[1:])
	return out
}

// Active reports the live borrow state of a binding.
func (t *Table) Active(referent scopes.BindingID) (shared int, exclusive bool) {
	if t == nil {
		return 0, false
	}
	st, ok := t.states[referent]
	if !ok {
		return 0, false
	}
	return len(st.shared), st.mut != NoID
}

func dropID(ids []ID, target ID) []ID {
	for i, id := range ids {
		if id == target {
			ids[i] = ids[len(ids)-1]
			return ids[:len(ids)-1]
		}
	}
	return ids
}
