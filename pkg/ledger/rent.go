package ledger

// AccountStorageOverhead is the per-account size charged on top of its data.
const AccountStorageOverhead = 128

// Default rent parameters.
const (
	DefaultLamportsPerByteYear = 3480
	DefaultExemptionThreshold  = 2.0
)

// Rent computes the balance an account needs to be exempt from reclamation.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
}

// DefaultRent returns the default rent schedule.
func DefaultRent() Rent {
	return Rent{
		LamportsPerByteYear: DefaultLamportsPerByteYear,
		ExemptionThreshold:  DefaultExemptionThreshold,
	}
}

// MinimumBalance returns the lamports needed to make an account of the given
// data size rent exempt.
func (r Rent) MinimumBalance(space uint64) uint64 {
	bytes := AccountStorageOverhead + space
	return uint64(float64(bytes*r.LamportsPerByteYear) * r.ExemptionThreshold)
}

// IsExempt reports whether balance covers MinimumBalance(space).
func (r Rent) IsExempt(balance, space uint64) bool {
	return balance >= r.MinimumBalance(space)
}

func (r Rent) isZero() bool {
	return r.LamportsPerByteYear == 0 && r.ExemptionThreshold == 0
}
