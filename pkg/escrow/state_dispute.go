package escrow

import (
	"encoding/binary"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// Vote is one arbitrator's ballot.
type Vote uint8

const (
	VoteNone      Vote = 0
	VoteForWorker Vote = 1
	VoteForPoster Vote = 2
)

// Valid reports whether the byte is a known vote value.
func (v Vote) Valid() bool {
	return v <= VoteForPoster
}

// Resolution is the outcome of a finalized dispute.
type Resolution uint8

const (
	ResolutionPending    Resolution = 0
	ResolutionWorkerWins Resolution = 1
	ResolutionPosterWins Resolution = 2
	ResolutionSplit      Resolution = 3
)

// String returns the resolution name.
func (r Resolution) String() string {
	switch r {
	case ResolutionPending:
		return "Pending"
	case ResolutionWorkerWins:
		return "WorkerWins"
	case ResolutionPosterWins:
		return "PosterWins"
	case ResolutionSplit:
		return "Split"
	}
	return "Unknown"
}

// DisputeCase tracks one escrow's multi-arbitrator dispute.
//
// PDA seeds: ["dispute", escrow]
type DisputeCase struct {
	Escrow         types.Pubkey
	RaisedBy       types.Pubkey
	Arbitrators    [ArbitratorsPerDispute]types.Pubkey
	Votes          [ArbitratorsPerDispute]Vote
	VotingDeadline int64
	Resolution     Resolution
	CreatedAt      int64
	Bump           uint8
	Reason         []byte
}

// DisputeCase layout
const (
	disputeOffEscrow      = 0
	disputeOffRaisedBy    = 32
	disputeOffArbitrators = 64
	disputeOffVotes       = 224
	disputeOffDeadline    = 232 // 3 pad bytes after votes
	disputeOffResolution  = 240
	disputeOffCreatedAt   = 248 // 7 pad bytes after resolution
	disputeOffBump        = 256
	disputeOffReasonLen   = 262 // 5 pad bytes after bump
	disputeOffReason      = 264

	// MaxReasonLen bounds the dispute reason string.
	MaxReasonLen = 500

	// DisputeCaseLen is the account payload size (reason buffer included,
	// rounded up to an 8-byte multiple).
	DisputeCaseLen = 768
	// DisputeCaseSpace is the total account size with discriminator.
	DisputeCaseSpace = 8 + DisputeCaseLen
)

// DisputeCaseDiscriminator tags dispute accounts ("DispCase").
var DisputeCaseDiscriminator = [8]byte{0x44, 0x69, 0x73, 0x70, 0x43, 0x61, 0x73, 0x65}

// InitDisputeCase stamps a fresh dispute account buffer.
func InitDisputeCase(data []byte) error {
	return initDiscriminator(data, DisputeCaseDiscriminator, DisputeCaseSpace)
}

// LoadDisputeCase decodes a dispute account.
func LoadDisputeCase(data []byte) (*DisputeCase, error) {
	if err := checkInitialized(data, DisputeCaseDiscriminator, DisputeCaseSpace); err != nil {
		return nil, err
	}
	p := data[8:]
	d := &DisputeCase{}
	copy(d.Escrow[:], p[disputeOffEscrow:])
	copy(d.RaisedBy[:], p[disputeOffRaisedBy:])
	for i := 0; i < ArbitratorsPerDispute; i++ {
		copy(d.Arbitrators[i][:], p[disputeOffArbitrators+32*i:])
		d.Votes[i] = Vote(p[disputeOffVotes+i])
	}
	d.VotingDeadline = int64(binary.LittleEndian.Uint64(p[disputeOffDeadline:]))
	d.Resolution = Resolution(p[disputeOffResolution])
	d.CreatedAt = int64(binary.LittleEndian.Uint64(p[disputeOffCreatedAt:]))
	d.Bump = p[disputeOffBump]
	reasonLen := int(binary.LittleEndian.Uint16(p[disputeOffReasonLen:]))
	if reasonLen > MaxReasonLen {
		return nil, ErrInvalidAccountData
	}
	d.Reason = make([]byte, reasonLen)
	copy(d.Reason, p[disputeOffReason:disputeOffReason+reasonLen])
	return d, nil
}

// Store encodes the dispute back into an initialized account buffer.
func (d *DisputeCase) Store(data []byte) error {
	if err := checkInitialized(data, DisputeCaseDiscriminator, DisputeCaseSpace); err != nil {
		return err
	}
	if len(d.Reason) > MaxReasonLen {
		return ErrReasonTooLong
	}
	p := data[8:]
	copy(p[disputeOffEscrow:], d.Escrow[:])
	copy(p[disputeOffRaisedBy:], d.RaisedBy[:])
	for i := 0; i < ArbitratorsPerDispute; i++ {
		copy(p[disputeOffArbitrators+32*i:], d.Arbitrators[i][:])
		p[disputeOffVotes+i] = uint8(d.Votes[i])
	}
	binary.LittleEndian.PutUint64(p[disputeOffDeadline:], uint64(d.VotingDeadline))
	p[disputeOffResolution] = uint8(d.Resolution)
	binary.LittleEndian.PutUint64(p[disputeOffCreatedAt:], uint64(d.CreatedAt))
	p[disputeOffBump] = d.Bump
	binary.LittleEndian.PutUint16(p[disputeOffReasonLen:], uint16(len(d.Reason)))
	copy(p[disputeOffReason:], d.Reason)
	for i := disputeOffReason + len(d.Reason); i < DisputeCaseLen; i++ {
		p[i] = 0
	}
	return nil
}

// IsResolved reports whether a resolution has been recorded.
func (d *DisputeCase) IsResolved() bool {
	return d.Resolution != ResolutionPending
}

// FindArbitratorPosition returns the panel index of the pubkey, or -1.
func (d *DisputeCase) FindArbitratorPosition(pk types.Pubkey) int {
	for i := 0; i < ArbitratorsPerDispute; i++ {
		if d.Arbitrators[i] == pk {
			return i
		}
	}
	return -1
}

// CountVotes tallies ballots for each side.
func (d *DisputeCase) CountVotes() (forWorker, forPoster int) {
	for _, v := range d.Votes {
		switch v {
		case VoteForWorker:
			forWorker++
		case VoteForPoster:
			forPoster++
		}
	}
	return forWorker, forPoster
}

// HasMajority reports whether either side reached the winning tally.
func (d *DisputeCase) HasMajority() bool {
	w, p := d.CountVotes()
	return w >= ArbitrationMajority || p >= ArbitrationMajority
}
