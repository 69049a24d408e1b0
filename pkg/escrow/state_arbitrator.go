package escrow

import (
	"encoding/binary"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// ArbitratorPool is the singleton registry of active arbitrators.
//
// PDA seeds: ["arbitrator_pool_v2"]
type ArbitratorPool struct {
	Authority       types.Pubkey
	MinStake        uint64
	ArbitratorCount uint32
	Bump            uint8
	Arbitrators     [MaxArbitrators]types.Pubkey
}

// ArbitratorPool layout
const (
	poolOffAuthority   = 0
	poolOffMinStake    = 32
	poolOffCount       = 40
	poolOffBump        = 44 // 3 pad bytes follow
	poolOffArbitrators = 48

	// ArbitratorPoolLen is the account payload size.
	ArbitratorPoolLen = 48 + 32*MaxArbitrators
	// ArbitratorPoolSpace is the total account size with discriminator.
	ArbitratorPoolSpace = 8 + ArbitratorPoolLen
)

// ArbitratorPoolDiscriminator tags pool accounts ("ArbPool_").
var ArbitratorPoolDiscriminator = [8]byte{0x41, 0x72, 0x62, 0x50, 0x6f, 0x6f, 0x6c, 0x5f}

// InitArbitratorPoolData stamps a fresh pool account buffer.
func InitArbitratorPoolData(data []byte) error {
	return initDiscriminator(data, ArbitratorPoolDiscriminator, ArbitratorPoolSpace)
}

// LoadArbitratorPool decodes a pool account.
func LoadArbitratorPool(data []byte) (*ArbitratorPool, error) {
	if err := checkInitialized(data, ArbitratorPoolDiscriminator, ArbitratorPoolSpace); err != nil {
		return nil, err
	}
	p := data[8:]
	pool := &ArbitratorPool{}
	copy(pool.Authority[:], p[poolOffAuthority:])
	pool.MinStake = binary.LittleEndian.Uint64(p[poolOffMinStake:])
	pool.ArbitratorCount = binary.LittleEndian.Uint32(p[poolOffCount:])
	pool.Bump = p[poolOffBump]
	for i := 0; i < MaxArbitrators; i++ {
		copy(pool.Arbitrators[i][:], p[poolOffArbitrators+32*i:])
	}
	return pool, nil
}

// Store encodes the pool back into an initialized account buffer.
func (pool *ArbitratorPool) Store(data []byte) error {
	if err := checkInitialized(data, ArbitratorPoolDiscriminator, ArbitratorPoolSpace); err != nil {
		return err
	}
	p := data[8:]
	copy(p[poolOffAuthority:], pool.Authority[:])
	binary.LittleEndian.PutUint64(p[poolOffMinStake:], pool.MinStake)
	binary.LittleEndian.PutUint32(p[poolOffCount:], pool.ArbitratorCount)
	p[poolOffBump] = pool.Bump
	for i := 0; i < MaxArbitrators; i++ {
		copy(p[poolOffArbitrators+32*i:], pool.Arbitrators[i][:])
	}
	return nil
}

// Contains reports whether the pubkey is an active pool member.
func (pool *ArbitratorPool) Contains(pk types.Pubkey) bool {
	return pool.FindIndex(pk) >= 0
}

// FindIndex returns the member index of the pubkey, or -1.
func (pool *ArbitratorPool) FindIndex(pk types.Pubkey) int {
	for i := 0; i < int(pool.ArbitratorCount); i++ {
		if pool.Arbitrators[i] == pk {
			return i
		}
	}
	return -1
}

// Add appends a new arbitrator, rejecting duplicates and overflow.
func (pool *ArbitratorPool) Add(pk types.Pubkey) error {
	if int(pool.ArbitratorCount) >= MaxArbitrators {
		return ErrPoolFull
	}
	if pool.Contains(pk) {
		return ErrAlreadyRegistered
	}
	pool.Arbitrators[pool.ArbitratorCount] = pk
	pool.ArbitratorCount++
	return nil
}

// Remove deletes an arbitrator, compacting the array with a swap-remove.
func (pool *ArbitratorPool) Remove(pk types.Pubkey) error {
	idx := pool.FindIndex(pk)
	if idx < 0 {
		return ErrNotRegistered
	}
	last := int(pool.ArbitratorCount) - 1
	if idx != last {
		pool.Arbitrators[idx] = pool.Arbitrators[last]
	}
	pool.Arbitrators[last] = types.ZeroPubkey
	pool.ArbitratorCount--
	return nil
}

// ArbitratorEntry is the per-agent stake record.
//
// PDA seeds: ["arbitrator", agent]
type ArbitratorEntry struct {
	Agent        types.Pubkey
	Stake        uint64
	CasesVoted   uint64
	CasesCorrect uint64
	IsActive     bool
	RegisteredAt int64
	Bump         uint8
}

// ArbitratorEntry layout
const (
	entryOffAgent        = 0
	entryOffStake        = 32
	entryOffVoted        = 40
	entryOffCorrect      = 48
	entryOffActive       = 56
	entryOffRegisteredAt = 64 // 7 pad bytes after the active flag
	entryOffBump         = 72

	// ArbitratorEntryLen is the account payload size.
	ArbitratorEntryLen = 80
	// ArbitratorEntrySpace is the total account size with discriminator.
	ArbitratorEntrySpace = 8 + ArbitratorEntryLen
)

// ArbitratorEntryDiscriminator tags entry accounts ("ArbEntry").
var ArbitratorEntryDiscriminator = [8]byte{0x41, 0x72, 0x62, 0x45, 0x6e, 0x74, 0x72, 0x79}

// InitArbitratorEntry stamps a fresh entry account buffer.
func InitArbitratorEntry(data []byte) error {
	return initDiscriminator(data, ArbitratorEntryDiscriminator, ArbitratorEntrySpace)
}

// LoadArbitratorEntry decodes an entry account.
func LoadArbitratorEntry(data []byte) (*ArbitratorEntry, error) {
	if err := checkInitialized(data, ArbitratorEntryDiscriminator, ArbitratorEntrySpace); err != nil {
		return nil, err
	}
	p := data[8:]
	e := &ArbitratorEntry{}
	copy(e.Agent[:], p[entryOffAgent:])
	e.Stake = binary.LittleEndian.Uint64(p[entryOffStake:])
	e.CasesVoted = binary.LittleEndian.Uint64(p[entryOffVoted:])
	e.CasesCorrect = binary.LittleEndian.Uint64(p[entryOffCorrect:])
	e.IsActive = p[entryOffActive] != 0
	e.RegisteredAt = int64(binary.LittleEndian.Uint64(p[entryOffRegisteredAt:]))
	e.Bump = p[entryOffBump]
	return e, nil
}

// Store encodes the entry back into an initialized account buffer.
func (e *ArbitratorEntry) Store(data []byte) error {
	if err := checkInitialized(data, ArbitratorEntryDiscriminator, ArbitratorEntrySpace); err != nil {
		return err
	}
	p := data[8:]
	copy(p[entryOffAgent:], e.Agent[:])
	binary.LittleEndian.PutUint64(p[entryOffStake:], e.Stake)
	binary.LittleEndian.PutUint64(p[entryOffVoted:], e.CasesVoted)
	binary.LittleEndian.PutUint64(p[entryOffCorrect:], e.CasesCorrect)
	p[entryOffActive] = boolByte(e.IsActive)
	binary.LittleEndian.PutUint64(p[entryOffRegisteredAt:], uint64(e.RegisteredAt))
	p[entryOffBump] = e.Bump
	return nil
}

// AccuracyClaim is the idempotence marker for accuracy accounting. Its
// PDA's existence alone proves the (case, arbitrator) pair was tallied.
//
// PDA seeds: ["accuracy_claim", dispute_case, arbitrator]
type AccuracyClaim struct {
	DisputeCase types.Pubkey
	Arbitrator  types.Pubkey
	ClaimedAt   int64
	Bump        uint8
}

// AccuracyClaim layout
const (
	claimOffCase       = 0
	claimOffArbitrator = 32
	claimOffClaimedAt  = 64
	claimOffBump       = 72

	// AccuracyClaimLen is the account payload size.
	AccuracyClaimLen = 80
	// AccuracyClaimSpace is the total account size with discriminator.
	AccuracyClaimSpace = 8 + AccuracyClaimLen
)

// AccuracyClaimDiscriminator tags claim accounts ("AccClaim").
var AccuracyClaimDiscriminator = [8]byte{0x41, 0x63, 0x63, 0x43, 0x6c, 0x61, 0x69, 0x6d}

// InitAccuracyClaim stamps a fresh claim account buffer.
func InitAccuracyClaim(data []byte) error {
	return initDiscriminator(data, AccuracyClaimDiscriminator, AccuracyClaimSpace)
}

// LoadAccuracyClaim decodes a claim account.
func LoadAccuracyClaim(data []byte) (*AccuracyClaim, error) {
	if err := checkInitialized(data, AccuracyClaimDiscriminator, AccuracyClaimSpace); err != nil {
		return nil, err
	}
	p := data[8:]
	c := &AccuracyClaim{}
	copy(c.DisputeCase[:], p[claimOffCase:])
	copy(c.Arbitrator[:], p[claimOffArbitrator:])
	c.ClaimedAt = int64(binary.LittleEndian.Uint64(p[claimOffClaimedAt:]))
	c.Bump = p[claimOffBump]
	return c, nil
}

// Store encodes the claim back into an initialized account buffer.
func (c *AccuracyClaim) Store(data []byte) error {
	if err := checkInitialized(data, AccuracyClaimDiscriminator, AccuracyClaimSpace); err != nil {
		return err
	}
	p := data[8:]
	copy(p[claimOffCase:], c.DisputeCase[:])
	copy(p[claimOffArbitrator:], c.Arbitrator[:])
	binary.LittleEndian.PutUint64(p[claimOffClaimedAt:], uint64(c.ClaimedAt))
	p[claimOffBump] = c.Bump
	return nil
}
