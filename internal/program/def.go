package program

import (
	"lend/internal/source"
)

type Field struct {
	Name source.StringID
	Type TypeID
	Span source.Span
}

// StructDef is a struct definition with its declared lifetime parameter list.
// Every lifetime tag used by a field type must appear in Lifetimes.
type StructDef struct {
	Name      source.StringID
	Lifetimes []source.StringID
	Fields    []Field
	Span      source.Span
}

// FieldByName returns the field with the given name, if any.
func (d *StructDef) FieldByName(name source.StringID) (*Field, bool) {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i], true
		}
	}
	return nil, false
}

type Param struct {
	Name source.StringID
	Type TypeID
	Span source.Span
}

// Receiver describes the impl binding of a function: the target struct and
// the lifetime arguments applied to it at the impl site. HasSelf marks
// methods; associated functions (Struct::new) have a receiver without self.
type Receiver struct {
	Target       source.StringID
	LifetimeArgs []source.StringID
	HasSelf      bool
	SelfLifetime source.StringID // tag on &self, NoStringID when elided
	Exclusive    bool            // &mut self
	Span         source.Span
}

// FuncDef is a function or method definition. Body is a flat statement list
// with block markers, same shape as the entry routine.
type FuncDef struct {
	Name      source.StringID
	Receiver  *Receiver // nil for free functions
	Lifetimes []source.StringID
	Params    []Param
	Return    TypeID // NoTypeID when the function returns nothing
	Body      []StmtID
	Span      source.Span
}

// IsMethod reports whether the function takes a self receiver.
func (d *FuncDef) IsMethod() bool {
	return d.Receiver != nil && d.Receiver.HasSelf
}

// Owner returns the impl target struct name, or NoStringID for free
// functions.
func (d *FuncDef) Owner() source.StringID {
	if d.Receiver == nil {
		return source.NoStringID
	}
	return d.Receiver.Target
}
