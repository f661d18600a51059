// Package bytecode compiles an ast.Pool into a flat instruction stream
// executed by internal/vm. spec.md section 9 flags "bytecode as flat
// bytes, forcing a binary reader/writer on a tree-shaped language" as a
// redesign target: Op is a typed Go enum and Instr carries typed int32
// operands plus its originating ast.Pos directly, with no encode/decode
// step — the VM and compiler share this struct in memory.
package bytecode

import "github.com/muonlang/mbi/internal/ast"

// Op is the VM's closed instruction set (spec.md section 4.3).
type Op uint8

const (
	OpInvalid Op = iota

	OpConst       // push Store handle A (encoded directly in the instruction)
	OpLoad        // push current value of local slot named by string table index A
	OpFString     // render f-string template stringIdx A against current scope; push result string
	OpStoreLocal  // pop TOS, bind to local slot A (declares it in the innermost scope if new)
	OpStoreMember // pop value, pop target; set target.member[stringIdx A] = value
	OpPop         // discard TOS

	OpJump         // unconditional jump to instruction A
	OpJumpIfFalse  // pop TOS; jump to A if falsy
	OpJumpIfTrue   // pop TOS; jump to A if truthy

	OpTagKwarg   // mark the value currently on top of stack as keyword argument stringIdx A

	OpCall     // pop A args + callee value (a func/capture handle); push result
	OpCallName // pop A args; resolve stringIdx B as a variable first, else a native
	           // function name (spec.md section 4.7's name-resolution order); push result
	OpMethodCall // pop A args + receiver; dispatch method stringIdx B; push result

	OpIndex  // pop index, pop container; push container[index]
	OpMember // pop container; push container.member[stringIdx A]

	OpNeg
	OpNot

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIn
	OpNotIn

	OpBuildArray // pop A elements, push array
	OpBuildDict  // pop 2*A (key,value pairs), push dict

	OpForPrep // pop iterable; push internal iterator frame, jump to A if empty
	OpForIter // advance iterator; bind loop var(s) stringIdx A (B if two-var, else -1); jump to C if exhausted
	OpForEnd  // pop iterator frame, release the container's iteration lock

	OpMakeFunc // build a capture value from Program.Funcs[A] closing over the current scope chain; push it

	OpRet  // return from the current frame with TOS popped as the value (null if A==0)
	OpHalt // stop the VM cleanly

	OpPushScope
	OpPopScope
)

// Instr is one compiled instruction. Operands are interpreted per Op; Pos
// is carried on every instruction (not just a side table) so runtime
// errors point at the exact source location without a line-table lookup.
type Instr struct {
	Op      Op
	A, B, C int32
	Pos     ast.Pos
}
