package escrow

import (
	"math"
	"testing"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

func TestJobEscrowRoundTrip(t *testing.T) {
	data := make([]byte, JobEscrowSpace)
	if err := InitJobEscrow(data); err != nil {
		t.Fatalf("init: %v", err)
	}

	in := &JobEscrow{
		JobIDHash:          types.SHA256([]byte("job")),
		Poster:             testKey("poster"),
		Worker:             testKey("worker"),
		Amount:             123_456_789,
		Status:             StatusPendingReview,
		CreatedAt:          testNow,
		ExpiresAt:          testNow + DefaultExpirySeconds,
		DisputeInitiatedAt: testNow + 100,
		SubmittedAt:        testNow + 50,
		ProofHash:          types.SHA256([]byte("proof")),
		HasProofHash:       true,
		DisputeCase:        testKey("case"),
		HasDisputeCase:     true,
		Bump:               254,
	}
	if err := in.Store(data); err != nil {
		t.Fatalf("store: %v", err)
	}
	out, err := LoadJobEscrow(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *out != *in {
		t.Errorf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
}

func TestJobEscrowRejectsWrongDiscriminator(t *testing.T) {
	data := make([]byte, JobEscrowSpace)
	if _, err := LoadJobEscrow(data); err == nil {
		t.Error("zeroed buffer must not load")
	}

	if err := InitAgentReputation(data); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := LoadJobEscrow(data); err == nil {
		t.Error("reputation discriminator must not load as escrow")
	}
}

func TestJobEscrowRejectsShortBuffer(t *testing.T) {
	data := make([]byte, JobEscrowSpace-1)
	if _, err := LoadJobEscrow(data); err == nil {
		t.Error("short buffer must not load")
	}
}

func TestInitTwiceFails(t *testing.T) {
	data := make([]byte, JobEscrowSpace)
	if err := InitJobEscrow(data); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if err := InitJobEscrow(data); err == nil {
		t.Error("second init must fail")
	}
}

func TestAgentReputationRoundTrip(t *testing.T) {
	data := make([]byte, AgentReputationSpace)
	if err := InitAgentReputation(data); err != nil {
		t.Fatalf("init: %v", err)
	}
	in := &AgentReputation{
		Agent:           testKey("agent"),
		JobsCompleted:   3,
		JobsPosted:      1,
		TotalEarned:     5_000,
		TotalSpent:      7_000,
		DisputesWon:     2,
		DisputesLost:    1,
		ReputationScore: 30,
		CreatedAt:       testNow,
		Bump:            255,
	}
	if err := in.Store(data); err != nil {
		t.Fatalf("store: %v", err)
	}
	out, err := LoadAgentReputation(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *out != *in {
		t.Errorf("round trip mismatch")
	}
}

func TestArbitratorPoolRoundTrip(t *testing.T) {
	data := make([]byte, ArbitratorPoolSpace)
	if err := InitArbitratorPoolData(data); err != nil {
		t.Fatalf("init: %v", err)
	}
	in := &ArbitratorPool{
		Authority: testKey("authority"),
		MinStake:  MinArbitratorStake,
		Bump:      253,
	}
	for i := 0; i < 7; i++ {
		if err := in.Add(testKey("member-" + string(rune('a'+i)))); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := in.Store(data); err != nil {
		t.Fatalf("store: %v", err)
	}
	out, err := LoadArbitratorPool(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.ArbitratorCount != 7 || out.Authority != in.Authority || out.MinStake != in.MinStake {
		t.Errorf("header mismatch: %+v", out)
	}
	for i := 0; i < 7; i++ {
		if out.Arbitrators[i] != in.Arbitrators[i] {
			t.Errorf("member %d mismatch", i)
		}
	}
}

func TestArbitratorPoolCapacity(t *testing.T) {
	pool := &ArbitratorPool{}
	for i := 0; i < MaxArbitrators; i++ {
		key := types.SHA256Multi([]byte{byte(i), byte(i >> 8)})
		if err := pool.Add(types.Pubkey(key)); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	err := pool.Add(testKey("overflow"))
	if err != ErrPoolFull {
		t.Errorf("expected ErrPoolFull, got %v", err)
	}
}

func TestDisputeCaseRoundTrip(t *testing.T) {
	data := make([]byte, DisputeCaseSpace)
	if err := InitDisputeCase(data); err != nil {
		t.Fatalf("init: %v", err)
	}
	in := &DisputeCase{
		Escrow:         testKey("escrow"),
		RaisedBy:       testKey("raiser"),
		VotingDeadline: testNow + ArbitrationVotingSeconds,
		Resolution:     ResolutionPending,
		CreatedAt:      testNow,
		Bump:           252,
		Reason:         []byte("work was not delivered as agreed"),
	}
	for i := 0; i < ArbitratorsPerDispute; i++ {
		in.Arbitrators[i] = testKey("panel-" + string(rune('a'+i)))
	}
	in.Votes[1] = VoteForWorker
	in.Votes[3] = VoteForPoster

	if err := in.Store(data); err != nil {
		t.Fatalf("store: %v", err)
	}
	out, err := LoadDisputeCase(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Escrow != in.Escrow || out.RaisedBy != in.RaisedBy || out.VotingDeadline != in.VotingDeadline {
		t.Error("header mismatch")
	}
	if out.Arbitrators != in.Arbitrators || out.Votes != in.Votes {
		t.Error("panel mismatch")
	}
	if string(out.Reason) != string(in.Reason) {
		t.Errorf("reason mismatch: %q", out.Reason)
	}
}

func TestDisputeCaseMaxReason(t *testing.T) {
	data := make([]byte, DisputeCaseSpace)
	if err := InitDisputeCase(data); err != nil {
		t.Fatalf("init: %v", err)
	}
	d := &DisputeCase{Reason: make([]byte, MaxReasonLen)}
	if err := d.Store(data); err != nil {
		t.Fatalf("max reason store: %v", err)
	}
	d.Reason = make([]byte, MaxReasonLen+1)
	if err := d.Store(data); err != ErrReasonTooLong {
		t.Errorf("expected ErrReasonTooLong, got %v", err)
	}
}

func TestVoteCounting(t *testing.T) {
	d := &DisputeCase{}
	d.Votes = [ArbitratorsPerDispute]Vote{VoteForWorker, VoteForPoster, VoteForWorker, VoteNone, VoteForWorker}
	w, p := d.CountVotes()
	if w != 3 || p != 1 {
		t.Errorf("counted (%d,%d), want (3,1)", w, p)
	}
	if !d.HasMajority() {
		t.Error("3 votes for worker is a majority")
	}
	d.Votes[4] = VoteNone
	if d.HasMajority() {
		t.Error("2-1 is not a majority")
	}
}

func TestReputationScoreSaturates(t *testing.T) {
	r := &AgentReputation{
		JobsCompleted: math.MaxUint64,
		DisputesWon:   math.MaxUint64,
	}
	if got := r.CalculateScore(); got != math.MaxInt64 {
		t.Errorf("expected saturation at MaxInt64, got %d", got)
	}

	r = &AgentReputation{DisputesLost: math.MaxUint64}
	if got := r.CalculateScore(); got != -math.MaxInt64 {
		t.Errorf("expected clamped penalty, got %d", got)
	}

	r = &AgentReputation{JobsCompleted: 2, DisputesWon: 1, DisputesLost: 1}
	if got := r.CalculateScore(); got != 15 {
		t.Errorf("score %d, want 15", got)
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := []EscrowStatus{StatusReleased, StatusRefunded, StatusExpired, StatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
	open := []EscrowStatus{StatusActive, StatusPendingReview, StatusDisputed, StatusInArbitration,
		StatusDisputeWorkerWins, StatusDisputePosterWins, StatusDisputeSplit}
	for _, s := range open {
		if s.IsTerminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
}
