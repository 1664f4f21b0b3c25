package ledger

import (
	"github.com/ssargent/namereg/pkg/codec"
)

// SystemProgramID identifies the system program that services allocation
// requests. It is the all-zero identity.
var SystemProgramID = codec.Identity{}

// MaxPermittedDataLength is the largest data buffer an account may be created with.
const MaxPermittedDataLength = 10 * 1024 * 1024

// Account is the state held for one identity. A slot is an account whose data
// buffer is owned by a program.
type Account struct {
	Lamports uint64
	Owner    codec.Identity
	Data     []byte
}

// Space returns the allocated data size.
func (a *Account) Space() int {
	return len(a.Data)
}

// CreateAccountRequest asks the system program to fund and allocate a new account.
type CreateAccountRequest struct {
	From          codec.Identity // funding account, debited Lamports
	To            codec.Identity // account to create, must not exist
	Lamports      uint64
	Space         uint64
	Owner         codec.Identity // program that will own the data
	SystemProgram codec.Identity // must be SystemProgramID
}

// Config holds configuration for the ledger
type Config struct {
	DataDir  string // Directory for pebble files; ignored when InMemory is set
	InMemory bool   // Keep all state in memory
	Rent     Rent
}

// Errors
var (
	ErrAccountNotFound   = &LedgerError{"account not found"}
	ErrAccountInUse      = &LedgerError{"account already in use"}
	ErrInsufficientFunds = &LedgerError{"insufficient funds"}
	ErrIncorrectProgram  = &LedgerError{"incorrect program id"}
	ErrInvalidSpace      = &LedgerError{"invalid account data length"}
	ErrReadOnly          = &LedgerError{"account data not owned by program"}
	ErrDataTooLarge      = &LedgerError{"write exceeds account data length"}
	ErrBalanceOverflow   = &LedgerError{"balance overflow"}
	ErrClosed            = &LedgerError{"ledger is closed"}
)

// LedgerError represents a ledger error
type LedgerError struct {
	Message string
}

func (e *LedgerError) Error() string {
	return e.Message
}
