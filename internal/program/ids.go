package program

type (
	// главные сущности
	StmtID   uint32
	ExprID   uint32
	TypeID   uint32
	StructID uint32
	FuncID   uint32
	// подсущности
	PayloadID uint32
)

const (
	NoStmtID    StmtID    = 0
	NoExprID    ExprID    = 0
	NoTypeID    TypeID    = 0
	NoStructID  StructID  = 0
	NoFuncID    FuncID    = 0
	NoPayloadID PayloadID = 0
)

func (id StmtID) IsValid() bool    { return id != NoStmtID }
func (id ExprID) IsValid() bool    { return id != NoExprID }
func (id TypeID) IsValid() bool    { return id != NoTypeID }
func (id StructID) IsValid() bool  { return id != NoStructID }
func (id FuncID) IsValid() bool    { return id != NoFuncID }
func (id PayloadID) IsValid() bool { return id != NoPayloadID }
