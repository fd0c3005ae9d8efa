package source

import (
	"testing"
)

func TestInternerBasic(t *testing.T) {
	interner := NewInterner()

	// NoStringID зарезервирован для пустой строки
	if s, ok := interner.Lookup(NoStringID); !ok || s != "" {
		t.Errorf("NoStringID должен возвращать пустую строку, получили: %q, ok=%v", s, ok)
	}

	id1 := interner.Intern("name")
	if id1 == NoStringID {
		t.Error("Intern не должен возвращать NoStringID для непустой строки")
	}

	// Повторный Intern той же строки — тот же ID
	id2 := interner.Intern("name")
	if id1 != id2 {
		t.Errorf("Intern должен возвращать одинаковые ID для одинаковых строк: %d != %d", id1, id2)
	}

	if s, ok := interner.Lookup(id1); !ok || s != "name" {
		t.Errorf("Lookup вернул неверную строку: %q, ok=%v", s, ok)
	}

	id3 := interner.Intern("descr")
	if id3 == id1 {
		t.Error("Разные строки должны иметь разные ID")
	}

	if interner.Len() != 3 { // "", "name", "descr"
		t.Errorf("Len должен быть 3, получили: %d", interner.Len())
	}
}

func TestInternerMustLookupPanics(t *testing.T) {
	interner := NewInterner()

	defer func() {
		if recover() == nil {
			t.Error("MustLookup должен паниковать на невалидном ID")
		}
	}()
	interner.MustLookup(StringID(12345))
}

func TestInternerLookupInvalid(t *testing.T) {
	interner := NewInterner()
	interner.Intern("x")

	if _, ok := interner.Lookup(StringID(99)); ok {
		t.Error("Lookup(99) должен вернуть ok=false")
	}
	if !interner.Has(0) || !interner.Has(1) {
		t.Error("Has должен подтверждать существующие ID")
	}
	if interner.Has(2) {
		t.Error("Has(2) должен быть false")
	}
}
