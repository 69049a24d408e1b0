package escrow

import (
	"encoding/binary"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// EscrowStatus enumerates the escrow lifecycle states.
type EscrowStatus uint8

const (
	StatusActive            EscrowStatus = 0
	StatusReleased          EscrowStatus = 1
	StatusRefunded          EscrowStatus = 2
	StatusExpired           EscrowStatus = 3
	StatusDisputed          EscrowStatus = 4
	StatusCancelled         EscrowStatus = 5
	StatusPendingReview     EscrowStatus = 6
	StatusInArbitration     EscrowStatus = 7
	StatusDisputeWorkerWins EscrowStatus = 8
	StatusDisputePosterWins EscrowStatus = 9
	StatusDisputeSplit      EscrowStatus = 10
)

// IsTerminal reports whether no further fund movement is possible.
func (s EscrowStatus) IsTerminal() bool {
	switch s {
	case StatusReleased, StatusRefunded, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// String returns the status name.
func (s EscrowStatus) String() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusReleased:
		return "Released"
	case StatusRefunded:
		return "Refunded"
	case StatusExpired:
		return "Expired"
	case StatusDisputed:
		return "Disputed"
	case StatusCancelled:
		return "Cancelled"
	case StatusPendingReview:
		return "PendingReview"
	case StatusInArbitration:
		return "InArbitration"
	case StatusDisputeWorkerWins:
		return "DisputeWorkerWins"
	case StatusDisputePosterWins:
		return "DisputePosterWins"
	case StatusDisputeSplit:
		return "DisputeSplit"
	}
	return "Unknown"
}

// JobEscrow is the main escrow account, one per (job, poster).
//
// PDA seeds: ["escrow", job_id_hash, poster]
type JobEscrow struct {
	JobIDHash          [32]byte
	Poster             types.Pubkey
	Worker             types.Pubkey
	Amount             uint64
	Status             EscrowStatus
	CreatedAt          int64
	ExpiresAt          int64
	DisputeInitiatedAt int64
	SubmittedAt        int64
	ProofHash          [32]byte
	HasProofHash       bool
	DisputeCase        types.Pubkey
	HasDisputeCase     bool
	Bump               uint8
}

// JobEscrow layout
const (
	jobEscrowOffJobIDHash  = 0
	jobEscrowOffPoster     = 32
	jobEscrowOffWorker     = 64
	jobEscrowOffAmount     = 96
	jobEscrowOffStatus     = 104
	jobEscrowOffCreatedAt  = 112 // 7 pad bytes after status
	jobEscrowOffExpiresAt  = 120
	jobEscrowOffDisputedAt = 128
	jobEscrowOffSubmitted  = 136
	jobEscrowOffProofHash  = 144
	jobEscrowOffHasProof   = 176
	jobEscrowOffCase       = 177
	jobEscrowOffHasCase    = 209
	jobEscrowOffBump       = 210

	// JobEscrowLen is the account payload size.
	JobEscrowLen = 216
	// JobEscrowSpace is the total account size with discriminator.
	JobEscrowSpace = 8 + JobEscrowLen
)

// JobEscrowDiscriminator tags escrow accounts ("JobEscro").
var JobEscrowDiscriminator = [8]byte{0x4a, 0x6f, 0x62, 0x45, 0x73, 0x63, 0x72, 0x6f}

// InitJobEscrow stamps a fresh escrow account buffer.
func InitJobEscrow(data []byte) error {
	return initDiscriminator(data, JobEscrowDiscriminator, JobEscrowSpace)
}

// LoadJobEscrow decodes an escrow account after verifying length and
// discriminator.
func LoadJobEscrow(data []byte) (*JobEscrow, error) {
	if err := checkInitialized(data, JobEscrowDiscriminator, JobEscrowSpace); err != nil {
		return nil, err
	}
	p := data[8:]
	e := &JobEscrow{}
	copy(e.JobIDHash[:], p[jobEscrowOffJobIDHash:])
	copy(e.Poster[:], p[jobEscrowOffPoster:])
	copy(e.Worker[:], p[jobEscrowOffWorker:])
	e.Amount = binary.LittleEndian.Uint64(p[jobEscrowOffAmount:])
	e.Status = EscrowStatus(p[jobEscrowOffStatus])
	e.CreatedAt = int64(binary.LittleEndian.Uint64(p[jobEscrowOffCreatedAt:]))
	e.ExpiresAt = int64(binary.LittleEndian.Uint64(p[jobEscrowOffExpiresAt:]))
	e.DisputeInitiatedAt = int64(binary.LittleEndian.Uint64(p[jobEscrowOffDisputedAt:]))
	e.SubmittedAt = int64(binary.LittleEndian.Uint64(p[jobEscrowOffSubmitted:]))
	copy(e.ProofHash[:], p[jobEscrowOffProofHash:])
	e.HasProofHash = p[jobEscrowOffHasProof] != 0
	copy(e.DisputeCase[:], p[jobEscrowOffCase:])
	e.HasDisputeCase = p[jobEscrowOffHasCase] != 0
	e.Bump = p[jobEscrowOffBump]
	return e, nil
}

// Store encodes the escrow back into an initialized account buffer.
func (e *JobEscrow) Store(data []byte) error {
	if err := checkInitialized(data, JobEscrowDiscriminator, JobEscrowSpace); err != nil {
		return err
	}
	p := data[8:]
	copy(p[jobEscrowOffJobIDHash:], e.JobIDHash[:])
	copy(p[jobEscrowOffPoster:], e.Poster[:])
	copy(p[jobEscrowOffWorker:], e.Worker[:])
	binary.LittleEndian.PutUint64(p[jobEscrowOffAmount:], e.Amount)
	p[jobEscrowOffStatus] = uint8(e.Status)
	binary.LittleEndian.PutUint64(p[jobEscrowOffCreatedAt:], uint64(e.CreatedAt))
	binary.LittleEndian.PutUint64(p[jobEscrowOffExpiresAt:], uint64(e.ExpiresAt))
	binary.LittleEndian.PutUint64(p[jobEscrowOffDisputedAt:], uint64(e.DisputeInitiatedAt))
	binary.LittleEndian.PutUint64(p[jobEscrowOffSubmitted:], uint64(e.SubmittedAt))
	copy(p[jobEscrowOffProofHash:], e.ProofHash[:])
	p[jobEscrowOffHasProof] = boolByte(e.HasProofHash)
	copy(p[jobEscrowOffCase:], e.DisputeCase[:])
	p[jobEscrowOffHasCase] = boolByte(e.HasDisputeCase)
	p[jobEscrowOffBump] = e.Bump
	return nil
}

// HasWorker reports whether a worker has been assigned.
func (e *JobEscrow) HasWorker() bool {
	return !e.Worker.IsZero()
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
