package escrow

// Escrow amount and expiry bounds.
const (
	// MinEscrowAmount is the smallest escrow the program accepts (0.001 SOL).
	MinEscrowAmount uint64 = 1_000_000

	// DefaultExpirySeconds applies when create_escrow passes expiry 0 (30 days).
	DefaultExpirySeconds int64 = 30 * 24 * 60 * 60

	// MinExpirySeconds bounds explicit expiries from below (1 hour).
	MinExpirySeconds int64 = 60 * 60

	// MaxExpirySeconds bounds explicit expiries from above (180 days).
	MaxExpirySeconds int64 = 180 * 24 * 60 * 60
)

// Timelocks.
const (
	// ReviewWindowSeconds gates auto_release after submit_work (24 hours).
	ReviewWindowSeconds int64 = 24 * 60 * 60

	// RefundTimelockSeconds gates refund_to_poster after initiate_dispute (24 hours).
	RefundTimelockSeconds int64 = 24 * 60 * 60

	// MinReviewBufferSeconds is the floor between submit_work and expiry (24 hours).
	MinReviewBufferSeconds int64 = 24 * 60 * 60

	// ArbitrationVotingSeconds is the panel voting window (48 hours).
	ArbitrationVotingSeconds int64 = 48 * 60 * 60

	// ArbitrationGraceSeconds gates claim_expired_arbitration past the
	// voting deadline (48 hours).
	ArbitrationGraceSeconds int64 = 48 * 60 * 60
)

// Arbitrator pool parameters.
const (
	// MaxArbitrators is the pool capacity.
	MaxArbitrators = 100

	// MinArbitratorStake is the stake threshold (0.1 SOL).
	MinArbitratorStake uint64 = 100_000_000

	// ArbitratorVoteFee is reserved for a per-vote fee (0.001 SOL). It is
	// declared for layout compatibility and not charged.
	ArbitratorVoteFee uint64 = 1_000_000

	// ArbitratorsPerDispute is the panel size.
	ArbitratorsPerDispute = 5

	// ArbitrationMajority is the vote count that wins outright (3 of 5).
	ArbitrationMajority = 3
)

// PlatformFeeBps is the platform fee on worker-bound payouts in basis
// points (100 = 1%).
const PlatformFeeBps uint64 = 100
