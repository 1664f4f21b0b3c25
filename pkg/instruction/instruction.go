// Package instruction decodes registry instructions and dispatches them to
// the registry operations.
//
// An instruction is [opcode(1)][payload]. Opcode 0 registers the payload as a
// name; opcode 1 resolves a slot and ignores the payload.
package instruction

import (
	"fmt"

	"github.com/ssargent/namereg/pkg/errs"
)

// Opcode selects the registry operation.
type Opcode uint8

const (
	OpRegister Opcode = 0
	OpResolve  Opcode = 1
)

func (o Opcode) String() string {
	switch o {
	case OpRegister:
		return "register"
	case OpResolve:
		return "resolve"
	default:
		return fmt.Sprintf("opcode(%d)", uint8(o))
	}
}

// Instruction is one of RegisterName or ResolveName.
type Instruction interface {
	Opcode() Opcode
	isInstruction()
}

// RegisterName binds Name to the payer in a new slot.
type RegisterName struct {
	Name []byte
}

func (RegisterName) Opcode() Opcode { return OpRegister }
func (RegisterName) isInstruction() {}

// ResolveName reads the record held by a slot.
type ResolveName struct{}

func (ResolveName) Opcode() Opcode { return OpResolve }
func (ResolveName) isInstruction() {}

// Decode parses instruction data. Name validation is left to the registry.
func Decode(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return nil, errs.InvalidInput("empty instruction data")
	}

	switch op := Opcode(data[0]); op {
	case OpRegister:
		name := make([]byte, len(data)-1)
		copy(name, data[1:])
		return RegisterName{Name: name}, nil
	case OpResolve:
		return ResolveName{}, nil
	default:
		return nil, errs.InvalidInput("unknown instruction %d", uint8(op))
	}
}

// Encode produces the wire form of ins.
func Encode(ins Instruction) []byte {
	switch v := ins.(type) {
	case RegisterName:
		data := make([]byte, 1+len(v.Name))
		data[0] = byte(OpRegister)
		copy(data[1:], v.Name)
		return data
	case *RegisterName:
		return Encode(*v)
	default:
		return []byte{byte(ins.Opcode())}
	}
}
