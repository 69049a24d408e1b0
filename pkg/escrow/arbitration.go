package escrow

import (
	"encoding/binary"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/runtime"
	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// panelSeed XOR-folds escrow key, initiator key, slot, timestamp, amount,
// and the most recent slot hash into a 32-byte seed and returns its first
// 8 bytes as a u64. Slot, timestamp and amount land in bytes 8..31, so the
// returned value depends only on the escrow key, the initiator key and the
// slot hash.
//
// The construction is deterministic within a slot, so a dispute initiator
// able to simulate the transaction can predict the panel before raising
// the case. Committed randomness would close that window; the panel
// contracts here do not depend on unpredictability, only on distinctness
// and pool membership, and the weakness is accepted and recorded.
func panelSeed(ctx *runtime.ExecutionContext, escrowKey, initiatorKey types.Pubkey, amount uint64) uint64 {
	now, slot := ctx.Clock()

	var slotB, tsB, amtB [8]byte
	binary.LittleEndian.PutUint64(slotB[:], slot)
	binary.LittleEndian.PutUint64(tsB[:], uint64(now))
	binary.LittleEndian.PutUint64(amtB[:], amount)

	var seed [32]byte
	for i := 0; i < 8; i++ {
		seed[i] = escrowKey[i] ^ initiatorKey[i]
		seed[8+i] = slotB[i] ^ escrowKey[16+i]
		seed[16+i] = tsB[i] ^ initiatorKey[16+i]
		seed[24+i] = amtB[i] ^ escrowKey[24+i]
	}
	if hashes := ctx.RecentSlotHashes(); len(hashes) > 0 {
		h := hashes[0].Hash
		for i := 0; i < 32; i++ {
			seed[i] ^= h[i]
		}
	}
	return binary.LittleEndian.Uint64(seed[:8])
}

// selectPanel picks the dispute panel from the pool head: five distinct
// indices via multiplicative stepping with a linear probe on collision.
func selectPanel(pool *ArbitratorPool, seed uint64) [ArbitratorsPerDispute]types.Pubkey {
	count := uint64(pool.ArbitratorCount)
	var selected [ArbitratorsPerDispute]types.Pubkey
	var used [ArbitratorsPerDispute]int
	for i := range used {
		used[i] = -1
	}

	for i := 0; i < ArbitratorsPerDispute; i++ {
		idx := int(((seed + uint64(i)) * 31337) % count)
		for contains(used[:], idx) {
			idx = (idx + 1) % int(count)
		}
		used[i] = idx
		selected[i] = pool.Arbitrators[idx]
	}
	return selected
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// processRaiseDisputeCase opens a dispute case: selects the panel,
// allocates the case account, and moves the escrow into arbitration.
//
// Accounts:
//   [0] escrow PDA (writable)
//   [1] dispute case PDA (writable)
//   [2] arbitrator pool PDA
//   [3] initiator (signer, writable)
//   [4] system program
func (p *Program) processRaiseDisputeCase(ctx *runtime.ExecutionContext, data []byte) error {
	accs, err := accountSlice(ctx, 5)
	if err != nil {
		return err
	}
	escrowAcc, disputeAcc, poolAcc, initiatorAcc := accs[0], accs[1], accs[2], accs[3]

	if len(data) < 2 {
		return ErrInvalidInstructionData
	}
	reasonLen := int(binary.LittleEndian.Uint16(data[0:2]))
	if reasonLen > MaxReasonLen {
		return ErrReasonTooLong
	}
	if len(data) < 2+reasonLen {
		return ErrInvalidInstructionData
	}
	reason := make([]byte, reasonLen)
	copy(reason, data[2:2+reasonLen])

	if err := requireSigner(initiatorAcc); err != nil {
		return err
	}
	if err := requireWritable(escrowAcc); err != nil {
		return err
	}
	if err := requireWritable(disputeAcc); err != nil {
		return err
	}

	e, err := p.loadEscrowChecked(escrowAcc)
	if err != nil {
		return err
	}

	if e.Status != StatusActive && e.Status != StatusPendingReview && e.Status != StatusDisputed {
		return ErrInvalidStatus
	}
	if !e.HasWorker() {
		return ErrNoWorkerAssigned
	}
	if initiatorAcc.Key != e.Poster && initiatorAcc.Key != e.Worker && initiatorAcc.Key != p.PlatformWallet {
		return ErrUnauthorized
	}

	pool, err := p.loadPoolChecked(poolAcc)
	if err != nil {
		return err
	}
	if int(pool.ArbitratorCount) < ArbitratorsPerDispute {
		return ErrPoolEmpty
	}

	seeds := [][]byte{SeedDispute, escrowAcc.Key[:]}
	expected, bump, err := runtime.FindProgramAddress(seeds, p.ID)
	if err != nil {
		return ErrInvalidPda
	}
	if disputeAcc.Key != expected {
		return ErrInvalidPda
	}

	seed := panelSeed(ctx, escrowAcc.Key, initiatorAcc.Key, e.Amount)
	panel := selectPanel(pool, seed)

	rentLamports := uint64(types.RentExemptMinimum(DisputeCaseSpace))
	if err := ctx.CreateProgramAccount(initiatorAcc, disputeAcc, seeds, bump, DisputeCaseSpace, rentLamports); err != nil {
		return err
	}
	if err := InitDisputeCase(disputeAcc.Data); err != nil {
		return err
	}

	now, _ := ctx.Clock()
	d := &DisputeCase{
		Escrow:         escrowAcc.Key,
		RaisedBy:       initiatorAcc.Key,
		Arbitrators:    panel,
		VotingDeadline: now + ArbitrationVotingSeconds,
		Resolution:     ResolutionPending,
		CreatedAt:      now,
		Bump:           bump,
		Reason:         reason,
	}
	if err := d.Store(disputeAcc.Data); err != nil {
		return err
	}

	e.Status = StatusInArbitration
	e.DisputeCase = disputeAcc.Key
	e.HasDisputeCase = true
	if err := e.Store(escrowAcc.Data); err != nil {
		return err
	}

	ctx.AddLog("DisputeRaised")
	return nil
}

// processCastArbitrationVote records one panel member's ballot.
//
// Accounts:
//   [0] dispute case PDA (writable)
//   [1] arbitrator entry PDA (writable)
//   [2] voter (signer)
func (p *Program) processCastArbitrationVote(ctx *runtime.ExecutionContext, data []byte) error {
	accs, err := accountSlice(ctx, 3)
	if err != nil {
		return err
	}
	disputeAcc, entryAcc, voterAcc := accs[0], accs[1], accs[2]

	if len(data) < 1 {
		return ErrInvalidInstructionData
	}
	vote := Vote(data[0])
	if !vote.Valid() || vote == VoteNone {
		return ErrInvalidInstructionData
	}

	if err := requireSigner(voterAcc); err != nil {
		return err
	}
	if err := requireWritable(disputeAcc); err != nil {
		return err
	}
	if err := requireWritable(entryAcc); err != nil {
		return err
	}

	entry, err := p.loadEntryChecked(entryAcc)
	if err != nil {
		return err
	}
	if !entry.IsActive {
		return ErrArbitratorNotActive
	}
	if entry.Agent != voterAcc.Key {
		return ErrUnauthorized
	}

	d, err := p.loadDisputeChecked(disputeAcc)
	if err != nil {
		return err
	}
	if d.IsResolved() {
		return ErrDisputeAlreadyResolved
	}

	now, _ := ctx.Clock()
	if now > d.VotingDeadline {
		return ErrDeadlinePassed
	}

	position := d.FindArbitratorPosition(voterAcc.Key)
	if position < 0 {
		return ErrNotSelectedArbitrator
	}
	if d.Votes[position] != VoteNone {
		return ErrAlreadyVoted
	}

	d.Votes[position] = vote
	entry.CasesVoted++

	if err := d.Store(disputeAcc.Data); err != nil {
		return err
	}
	return entry.Store(entryAcc.Data)
}

// processFinalizeDisputeCase records the resolution once a majority
// exists or the voting deadline has passed. Any signer may finalize.
//
// Accounts:
//   [0] dispute case PDA (writable)
//   [1] escrow PDA (writable)
//   [2] finalizer (signer)
func (p *Program) processFinalizeDisputeCase(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 3)
	if err != nil {
		return err
	}
	disputeAcc, escrowAcc, finalizerAcc := accs[0], accs[1], accs[2]

	if err := requireSigner(finalizerAcc); err != nil {
		return err
	}
	if err := requireWritable(disputeAcc); err != nil {
		return err
	}
	if err := requireWritable(escrowAcc); err != nil {
		return err
	}

	d, err := p.loadDisputeChecked(disputeAcc)
	if err != nil {
		return err
	}
	if d.IsResolved() {
		return ErrDisputeAlreadyResolved
	}

	now, _ := ctx.Clock()
	forWorker, forPoster := d.CountVotes()
	deadlinePassed := now > d.VotingDeadline

	var resolution Resolution
	switch {
	case forWorker >= ArbitrationMajority:
		resolution = ResolutionWorkerWins
	case forPoster >= ArbitrationMajority:
		resolution = ResolutionPosterWins
	case deadlinePassed:
		resolution = ResolutionSplit
	default:
		return ErrVotingNotComplete
	}

	e, err := p.loadEscrowChecked(escrowAcc)
	if err != nil {
		return err
	}
	if !e.HasDisputeCase || e.DisputeCase != disputeAcc.Key || d.Escrow != escrowAcc.Key {
		return ErrEscrowMismatch
	}
	if e.Status != StatusInArbitration {
		return ErrNotInArbitration
	}

	d.Resolution = resolution
	switch resolution {
	case ResolutionWorkerWins:
		e.Status = StatusDisputeWorkerWins
	case ResolutionPosterWins:
		e.Status = StatusDisputePosterWins
	case ResolutionSplit:
		e.Status = StatusDisputeSplit
	}

	if err := d.Store(disputeAcc.Data); err != nil {
		return err
	}
	if err := e.Store(escrowAcc.Data); err != nil {
		return err
	}

	ctx.AddLog("DisputeResolved")
	return nil
}

// processExecuteDisputeResolution performs the payout prescribed by a
// finalized resolution and updates both sides' reputation. Any signer may
// execute; every destination is re-verified against escrow state.
//
// Accounts:
//   [0] dispute case PDA
//   [1] escrow PDA (writable)
//   [2] worker (writable)
//   [3] poster (writable)
//   [4] platform fee wallet (writable)
//   [5] worker reputation PDA (writable)
//   [6] poster reputation PDA (writable)
//   [7] executor (signer)
func (p *Program) processExecuteDisputeResolution(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 8)
	if err != nil {
		return err
	}
	disputeAcc, escrowAcc := accs[0], accs[1]
	workerAcc, posterAcc, platformAcc := accs[2], accs[3], accs[4]
	workerRepAcc, posterRepAcc, executorAcc := accs[5], accs[6], accs[7]

	if err := requireSigner(executorAcc); err != nil {
		return err
	}
	if err := p.requirePlatform(platformAcc); err != nil {
		return err
	}
	if err := requireWritable(escrowAcc); err != nil {
		return err
	}
	if err := requireWritable(workerRepAcc); err != nil {
		return err
	}
	if err := requireWritable(posterRepAcc); err != nil {
		return err
	}

	d, err := p.loadDisputeChecked(disputeAcc)
	if err != nil {
		return err
	}
	if d.Resolution == ResolutionPending {
		return ErrDisputeNotResolved
	}

	e, err := p.loadEscrowChecked(escrowAcc)
	if err != nil {
		return err
	}

	switch e.Status {
	case StatusDisputeWorkerWins, StatusDisputePosterWins, StatusDisputeSplit:
	default:
		return ErrInvalidStatus
	}
	if d.Escrow != escrowAcc.Key || e.DisputeCase != disputeAcc.Key {
		return ErrEscrowMismatch
	}
	if workerAcc.Key != e.Worker {
		return ErrInvalidAccount
	}
	if posterAcc.Key != e.Poster {
		return ErrInvalidAccount
	}

	workerRep, err := p.loadReputationChecked(workerRepAcc, e.Worker)
	if err != nil {
		return err
	}
	posterRep, err := p.loadReputationChecked(posterRepAcc, e.Poster)
	if err != nil {
		return err
	}

	amount := e.Amount
	switch d.Resolution {
	case ResolutionWorkerWins:
		workerPayment, err := p.payoutToWorker(ctx, escrowAcc, workerAcc, platformAcc, amount)
		if err != nil {
			return err
		}
		workerRep.JobsCompleted++
		workerRep.TotalEarned += workerPayment
		workerRep.DisputesWon++
		posterRep.JobsPosted++
		posterRep.TotalSpent += amount
		posterRep.DisputesLost++
		e.Status = StatusReleased

	case ResolutionPosterWins:
		if err := ctx.TransferLamports(escrowAcc, posterAcc, amount); err != nil {
			return err
		}
		posterRep.JobsPosted++
		posterRep.DisputesWon++
		workerRep.DisputesLost++
		e.Status = StatusRefunded

	case ResolutionSplit:
		fee, err := platformFee(amount)
		if err != nil {
			return err
		}
		if fee > amount {
			return ErrArithmeticError
		}
		remaining := amount - fee
		workerHalf := remaining / 2
		posterHalf := remaining - workerHalf

		if err := ctx.TransferLamports(escrowAcc, workerAcc, workerHalf); err != nil {
			return err
		}
		if err := ctx.TransferLamports(escrowAcc, posterAcc, posterHalf); err != nil {
			return err
		}
		if err := ctx.TransferLamports(escrowAcc, platformAcc, fee); err != nil {
			return err
		}
		workerRep.JobsCompleted++
		workerRep.TotalEarned += workerHalf
		posterRep.JobsPosted++
		posterRep.TotalSpent += amount
		e.Status = StatusReleased
	}

	workerRep.UpdateScore()
	posterRep.UpdateScore()

	if err := e.Store(escrowAcc.Data); err != nil {
		return err
	}
	if err := workerRep.Store(workerRepAcc.Data); err != nil {
		return err
	}
	if err := posterRep.Store(posterRepAcc.Data); err != nil {
		return err
	}

	ctx.AddLog("DisputeResolved")
	return nil
}

// processUpdateArbitratorAccuracy tallies one arbitrator's accuracy for a
// resolved case. The accuracy claim PDA is the idempotence token: its
// creation fails the second time, so the tally can never double-count.
//
// Accounts:
//   [0] dispute case PDA
//   [1] arbitrator entry PDA (writable)
//   [2] accuracy claim PDA (writable)
//   [3] caller (signer, writable; funds the claim rent)
//   [4] system program
func (p *Program) processUpdateArbitratorAccuracy(ctx *runtime.ExecutionContext) error {
	accs, err := accountSlice(ctx, 5)
	if err != nil {
		return err
	}
	disputeAcc, entryAcc, claimAcc, callerAcc := accs[0], accs[1], accs[2], accs[3]

	if err := requireSigner(callerAcc); err != nil {
		return err
	}
	if err := requireWritable(entryAcc); err != nil {
		return err
	}
	if err := requireWritable(claimAcc); err != nil {
		return err
	}

	d, err := p.loadDisputeChecked(disputeAcc)
	if err != nil {
		return err
	}
	if d.Resolution == ResolutionPending {
		return ErrDisputeNotResolved
	}

	entry, err := p.loadEntryChecked(entryAcc)
	if err != nil {
		return err
	}

	position := d.FindArbitratorPosition(entry.Agent)
	if position < 0 {
		return ErrNotSelectedArbitrator
	}
	vote := d.Votes[position]
	if vote == VoteNone {
		return ErrArbitratorDidNotVote
	}

	seeds := [][]byte{SeedAccuracyClaim, disputeAcc.Key[:], entry.Agent[:]}
	expected, bump, err := runtime.FindProgramAddress(seeds, p.ID)
	if err != nil {
		return ErrInvalidPda
	}
	if claimAcc.Key != expected {
		return ErrInvalidPda
	}
	if *claimAcc.Lamports > 0 || len(claimAcc.Data) > 0 {
		return ErrAlreadyClaimed
	}

	rentLamports := uint64(types.RentExemptMinimum(AccuracyClaimSpace))
	if err := ctx.CreateProgramAccount(callerAcc, claimAcc, seeds, bump, AccuracyClaimSpace, rentLamports); err != nil {
		return err
	}
	if err := InitAccuracyClaim(claimAcc.Data); err != nil {
		return err
	}

	now, _ := ctx.Clock()
	claim := &AccuracyClaim{
		DisputeCase: disputeAcc.Key,
		Arbitrator:  entry.Agent,
		ClaimedAt:   now,
		Bump:        bump,
	}
	if err := claim.Store(claimAcc.Data); err != nil {
		return err
	}

	correct := false
	switch {
	case vote == VoteForWorker && d.Resolution == ResolutionWorkerWins:
		correct = true
	case vote == VoteForPoster && d.Resolution == ResolutionPosterWins:
		correct = true
	case d.Resolution == ResolutionSplit:
		// A split has no winning side; every cast ballot counts.
		correct = true
	}
	if correct {
		entry.CasesCorrect++
	}
	return entry.Store(entryAcc.Data)
}
