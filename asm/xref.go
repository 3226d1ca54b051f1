package asm

import "github.com/archlab/tea-scoreboard/isa"

// ReferenceType narrows tools/xref.go's ReferenceType enum to the two
// kinds this ISA's label namespace can hold: a label has one definition
// site and is referenced only as a LOOP branch target (no separate
// load/store-by-label addressing mode exists here).
type ReferenceType int

const (
	RefDefinition ReferenceType = iota
	RefBranch
)

func (r ReferenceType) String() string {
	switch r {
	case RefDefinition:
		return "definition"
	case RefBranch:
		return "branch"
	default:
		return "unknown"
	}
}

// Reference is one use (or the definition) of a label.
type Reference struct {
	Type ReferenceType
	Pos  Position
}

// LabelReferences collects every site referencing one label, grounded on
// tools/xref.go's per-Symbol reference list.
type LabelReferences struct {
	Name       string
	References []Reference
}

// CrossReference lists, per label, its definition site and every branch
// that targets it.
func CrossReference(prog *Program) []*LabelReferences {
	byName := make(map[string]*LabelReferences)
	order := make([]string, 0, len(prog.Labels.All()))

	for _, sym := range prog.Labels.All() {
		byName[sym.Name] = &LabelReferences{
			Name:       sym.Name,
			References: []Reference{{Type: RefDefinition, Pos: sym.Pos}},
		}
		order = append(order, sym.Name)
	}

	for _, inst := range prog.Instructions {
		if !isa.IsBranch(inst.Op) {
			continue
		}
		for _, operand := range inst.Operands {
			if !operand.IsLabel {
				continue
			}
			entry, ok := byName[operand.Label]
			if !ok {
				entry = &LabelReferences{Name: operand.Label}
				byName[operand.Label] = entry
				order = append(order, operand.Label)
			}
			entry.References = append(entry.References, Reference{Type: RefBranch, Pos: inst.Pos})
		}
	}

	out := make([]*LabelReferences, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}
