package api

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ssargent/namereg/pkg/codec"
	"github.com/ssargent/namereg/pkg/instruction"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// RegisterRequest registers a name into a slot. A new slot identity is
// generated when Slot is omitted.
type RegisterRequest struct {
	Payer codec.Identity  `json:"payer"`
	Slot  *codec.Identity `json:"slot,omitempty"`
	Name  string          `json:"name"`
}

// InstructionRequest carries a raw instruction: account keys in wire order
// and the base64-encoded instruction data.
type InstructionRequest struct {
	Accounts []string `json:"accounts"`
	Data     string   `json:"data"`
}

// AirdropRequest credits lamports to an account
type AirdropRequest struct {
	Lamports uint64 `json:"lamports"`
}

// AirdropResponse reports the balance after an airdrop
type AirdropResponse struct {
	Account codec.Identity `json:"account"`
	Balance uint64         `json:"balance"`
}

// AccountResponse describes one ledger account
type AccountResponse struct {
	ID       codec.Identity `json:"id"`
	Lamports uint64         `json:"lamports"`
	Owner    codec.Identity `json:"owner"`
	Space    int            `json:"space"`
	Data     []byte         `json:"data,omitempty"`
}

// RentResponse reports the rent-exempt minimum for a data size
type RentResponse struct {
	Space    uint64 `json:"space"`
	Lamports uint64 `json:"lamports"`
}

// InstructionResponse is returned by every endpoint that runs an instruction
type InstructionResponse struct {
	InvocationID string            `json:"invocation_id"`
	Instruction  string            `json:"instruction"`
	Slot         codec.Identity    `json:"slot"`
	Record       *codec.NameRecord `json:"record,omitempty"`
}

func newInstructionResponse(result *instruction.Result) InstructionResponse {
	return InstructionResponse{
		InvocationID: result.InvocationID.String(),
		Instruction:  result.Opcode.String(),
		Slot:         result.Slot,
		Record:       result.Record,
	}
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port   int
	Bind   string
	APIKey string

	// Registry receives the server metrics and backs /metrics. A private
	// registry is created when nil.
	Registry *prometheus.Registry
}
