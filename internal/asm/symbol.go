package asm

// symbol.go holds the two label tables the dereference pass consults: a
// PC-relative table for "name:" labels (and labels of non-static
// directives) and a static table for static directive labels, whose values
// are absolute image offsets never relocated.

// SymbolTable maps a label name to the word offset it was defined at.
type SymbolTable struct {
	offsets map[string]int64
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{offsets: make(map[string]int64)}
}

func (s *SymbolTable) add(name string, offset int64) { s.offsets[name] = offset }

// Offset returns the word offset name was defined at.
func (s *SymbolTable) Offset(name string) (int64, bool) {
	v, ok := s.offsets[name]
	return v, ok
}

// Count returns the number of labels defined in the table.
func (s *SymbolTable) Count() int { return len(s.offsets) }
