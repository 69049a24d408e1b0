package escrow

import "fmt"

// Error is a program error with a stable numeric code. Codes start at
// 6000, leaving the lower range to the host ledger's built-in errors.
type Error struct {
	Code uint32
	Name string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("escrow error %d: %s", e.Code, e.Name)
}

// Program errors, one per semantic failure kind.
var (
	ErrInvalidAmount                   = &Error{6000, "amount below minimum"}
	ErrInvalidExpiry                   = &Error{6001, "invalid expiry duration"}
	ErrInvalidStatus                   = &Error{6002, "escrow status forbids this transition"}
	ErrWorkerAlreadyAssigned           = &Error{6003, "worker already assigned"}
	ErrNoWorkerAssigned                = &Error{6004, "no worker assigned"}
	ErrInvalidWorker                   = &Error{6005, "invalid worker"}
	ErrUnauthorized                    = &Error{6006, "unauthorized"}
	ErrMissingRequiredSignature        = &Error{6007, "missing required signature"}
	ErrInsufficientReviewTime          = &Error{6008, "insufficient review time before expiry"}
	ErrDeadlineNotReached              = &Error{6009, "deadline not reached"}
	ErrDeadlinePassed                  = &Error{6010, "deadline passed"}
	ErrAlreadyVoted                    = &Error{6011, "already voted"}
	ErrNotSelectedArbitrator           = &Error{6012, "not a selected arbitrator"}
	ErrVotingNotComplete               = &Error{6013, "voting not complete"}
	ErrDisputeAlreadyResolved          = &Error{6014, "dispute already resolved"}
	ErrDisputeNotResolved              = &Error{6015, "dispute not resolved"}
	ErrNotInArbitration                = &Error{6016, "escrow is not in arbitration"}
	ErrArbitrationGracePeriodNotPassed = &Error{6017, "arbitration grace period not passed"}
	ErrPoolEmpty                       = &Error{6018, "not enough arbitrators in pool"}
	ErrPoolFull                        = &Error{6019, "arbitrator pool is full"}
	ErrAlreadyRegistered               = &Error{6020, "already registered as arbitrator"}
	ErrNotRegistered                   = &Error{6021, "not registered as arbitrator"}
	ErrArbitratorNotActive             = &Error{6022, "arbitrator is not active"}
	ErrReasonTooLong                   = &Error{6023, "dispute reason too long"}
	ErrAlreadyClaimed                  = &Error{6024, "accuracy already claimed"}
	ErrEscrowMismatch                  = &Error{6025, "dispute case does not match escrow"}
	ErrCannotClose                     = &Error{6026, "cannot close account in current state"}
	ErrInvalidAccount                  = &Error{6027, "account does not match escrow state"}
	ErrInvalidAccountData              = &Error{6028, "invalid account data"}
	ErrAccountAlreadyInitialized       = &Error{6029, "account already initialized"}
	ErrAccountNotInitialized           = &Error{6030, "account not initialized"}
	ErrInvalidPda                      = &Error{6031, "invalid program derived address"}
	ErrIncorrectProgramId              = &Error{6032, "account not owned by this program"}
	ErrArithmeticError                 = &Error{6033, "arithmetic overflow"}
	ErrInvalidInstructionData          = &Error{6034, "invalid instruction data"}
	ErrNotEnoughAccounts               = &Error{6035, "not enough account keys"}
	ErrArbitratorDidNotVote            = &Error{6036, "arbitrator did not vote"}
	ErrArbitratorStillActive           = &Error{6037, "arbitrator still active"}
	ErrArbitratorStillInPool           = &Error{6038, "arbitrator still in pool"}
)
