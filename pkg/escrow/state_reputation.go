package escrow

import (
	"encoding/binary"
	"math"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// AgentReputation tracks an agent's job completion and dispute history.
//
// PDA seeds: ["reputation", agent]
type AgentReputation struct {
	Agent           types.Pubkey
	JobsCompleted   uint64
	JobsPosted      uint64
	TotalEarned     uint64
	TotalSpent      uint64
	DisputesWon     uint64
	DisputesLost    uint64
	ReputationScore int64
	CreatedAt       int64
	Bump            uint8
}

// AgentReputation layout
const (
	reputationOffAgent     = 0
	reputationOffCompleted = 32
	reputationOffPosted    = 40
	reputationOffEarned    = 48
	reputationOffSpent     = 56
	reputationOffWon       = 64
	reputationOffLost      = 72
	reputationOffScore     = 80
	reputationOffCreatedAt = 88
	reputationOffBump      = 96

	// AgentReputationLen is the account payload size.
	AgentReputationLen = 104
	// AgentReputationSpace is the total account size with discriminator.
	AgentReputationSpace = 8 + AgentReputationLen
)

// AgentReputationDiscriminator tags reputation accounts ("AgentRep").
var AgentReputationDiscriminator = [8]byte{0x41, 0x67, 0x65, 0x6e, 0x74, 0x52, 0x65, 0x70}

// InitAgentReputation stamps a fresh reputation account buffer.
func InitAgentReputation(data []byte) error {
	return initDiscriminator(data, AgentReputationDiscriminator, AgentReputationSpace)
}

// LoadAgentReputation decodes a reputation account.
func LoadAgentReputation(data []byte) (*AgentReputation, error) {
	if err := checkInitialized(data, AgentReputationDiscriminator, AgentReputationSpace); err != nil {
		return nil, err
	}
	p := data[8:]
	r := &AgentReputation{}
	copy(r.Agent[:], p[reputationOffAgent:])
	r.JobsCompleted = binary.LittleEndian.Uint64(p[reputationOffCompleted:])
	r.JobsPosted = binary.LittleEndian.Uint64(p[reputationOffPosted:])
	r.TotalEarned = binary.LittleEndian.Uint64(p[reputationOffEarned:])
	r.TotalSpent = binary.LittleEndian.Uint64(p[reputationOffSpent:])
	r.DisputesWon = binary.LittleEndian.Uint64(p[reputationOffWon:])
	r.DisputesLost = binary.LittleEndian.Uint64(p[reputationOffLost:])
	r.ReputationScore = int64(binary.LittleEndian.Uint64(p[reputationOffScore:]))
	r.CreatedAt = int64(binary.LittleEndian.Uint64(p[reputationOffCreatedAt:]))
	r.Bump = p[reputationOffBump]
	return r, nil
}

// Store encodes the reputation back into an initialized account buffer.
func (r *AgentReputation) Store(data []byte) error {
	if err := checkInitialized(data, AgentReputationDiscriminator, AgentReputationSpace); err != nil {
		return err
	}
	p := data[8:]
	copy(p[reputationOffAgent:], r.Agent[:])
	binary.LittleEndian.PutUint64(p[reputationOffCompleted:], r.JobsCompleted)
	binary.LittleEndian.PutUint64(p[reputationOffPosted:], r.JobsPosted)
	binary.LittleEndian.PutUint64(p[reputationOffEarned:], r.TotalEarned)
	binary.LittleEndian.PutUint64(p[reputationOffSpent:], r.TotalSpent)
	binary.LittleEndian.PutUint64(p[reputationOffWon:], r.DisputesWon)
	binary.LittleEndian.PutUint64(p[reputationOffLost:], r.DisputesLost)
	binary.LittleEndian.PutUint64(p[reputationOffScore:], uint64(r.ReputationScore))
	binary.LittleEndian.PutUint64(p[reputationOffCreatedAt:], uint64(r.CreatedAt))
	p[reputationOffBump] = r.Bump
	return nil
}

// CalculateScore derives the reputation score with saturating arithmetic:
// jobs_completed*10 + disputes_won*5 - disputes_lost*10.
func (r *AgentReputation) CalculateScore() int64 {
	base := saturatingMulU64(r.JobsCompleted, 10)
	bonus := saturatingMulU64(r.DisputesWon, 5)
	penalty := saturatingMulU64(r.DisputesLost, 10)
	return saturatingSub(saturatingAdd(base, bonus), penalty)
}

// UpdateScore refreshes the stored score field.
func (r *AgentReputation) UpdateScore() {
	r.ReputationScore = r.CalculateScore()
}

func saturatingMulU64(a uint64, b int64) int64 {
	if a > uint64(math.MaxInt64) {
		a = uint64(math.MaxInt64)
	}
	x := int64(a)
	if x == 0 || b == 0 {
		return 0
	}
	prod := x * b
	if prod/b != x {
		return math.MaxInt64
	}
	return prod
}

func saturatingAdd(a, b int64) int64 {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		if b > 0 {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return sum
}

func saturatingSub(a, b int64) int64 {
	diff := a - b
	if (b < 0 && diff < a) || (b > 0 && diff > a) {
		if b < 0 {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return diff
}
