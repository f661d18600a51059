package bytecode

// FuncMeta records everything about one compiled function literal beyond
// what fits in an Instr's three operand words.
type FuncMeta struct {
	Entry    int // instruction address of the function body's first Instr
	Params   []string
	Defaults []int32 // per-param Store handle, or obj.None if no default
}

// Program is the output of compiling one source file: a flat instruction
// stream, the string table OpLoad/OpMember/etc. index into, and the
// function-literal metadata OpMakeFunc indexes into.
type Program struct {
	Code    []Instr
	Strings []string
	Funcs   []FuncMeta
}

func (p *Program) internString(s string) int32 {
	for i, existing := range p.Strings {
		if existing == s {
			return int32(i)
		}
	}
	p.Strings = append(p.Strings, s)
	return int32(len(p.Strings) - 1)
}
