package repo

import (
	"context"
	"testing"
)

func TestCreateVote_AndDuplicateConstraint(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p, err := CreatePoll(ctx, db, "owner1", "Pick one", []string{"a", "b"})
	if err != nil {
		t.Fatalf("CreatePoll: %v", err)
	}

	voter := "u1"
	if _, err := CreateVote(ctx, db, p.ID, &voter, 0); err != nil {
		t.Fatalf("first vote: %v", err)
	}

	ok, err := HasVoted(ctx, db, p.ID, voter)
	if err != nil || !ok {
		t.Fatalf("HasVoted = (%v, %v); want (true, nil)", ok, err)
	}
	ok, err = HasVoted(ctx, db, p.ID, "someone-else")
	if err != nil || ok {
		t.Fatalf("HasVoted for non-voter = (%v, %v); want (false, nil)", ok, err)
	}

	// Second authenticated vote must hit the unique index.
	if _, err := CreateVote(ctx, db, p.ID, &voter, 1); err == nil {
		t.Fatalf("expected unique constraint error on duplicate vote")
	}

	// Anonymous votes carry NULL voter ids and may repeat.
	for i := 0; i < 3; i++ {
		if _, err := CreateVote(ctx, db, p.ID, nil, 1); err != nil {
			t.Fatalf("anonymous vote %d: %v", i, err)
		}
	}
}

func TestVoteCounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p, err := CreatePoll(ctx, db, "owner1", "Pick one", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("CreatePoll: %v", err)
	}

	u1, u2 := "u1", "u2"
	if _, err := CreateVote(ctx, db, p.ID, &u1, 0); err != nil {
		t.Fatalf("vote u1: %v", err)
	}
	if _, err := CreateVote(ctx, db, p.ID, &u2, 2); err != nil {
		t.Fatalf("vote u2: %v", err)
	}
	if _, err := CreateVote(ctx, db, p.ID, nil, 2); err != nil {
		t.Fatalf("anonymous vote: %v", err)
	}

	counts, err := VoteCounts(ctx, db, p.ID)
	if err != nil {
		t.Fatalf("VoteCounts: %v", err)
	}
	if counts[0] != 1 || counts[2] != 2 {
		t.Fatalf("unexpected tallies: %v", counts)
	}
	if _, present := counts[1]; present {
		t.Fatalf("option 1 has no votes and should be absent: %v", counts)
	}

	total, err := CountVotes(ctx, db, p.ID)
	if err != nil || total != 3 {
		t.Fatalf("CountVotes = (%d, %v); want (3, nil)", total, err)
	}
}

func TestPollsStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	count, maxTS, err := PollsStats(ctx, db, "nobody")
	if err != nil || count != 0 || maxTS != nil {
		t.Fatalf("empty stats = (%d, %v, %v); want (0, nil, nil)", count, maxTS, err)
	}

	if _, err := CreatePoll(ctx, db, "owner1", "One?", []string{"a", "b"}); err != nil {
		t.Fatalf("CreatePoll: %v", err)
	}
	if _, err := CreatePoll(ctx, db, "owner1", "Two?", []string{"a", "b"}); err != nil {
		t.Fatalf("CreatePoll: %v", err)
	}

	count, maxTS, err = PollsStats(ctx, db, "owner1")
	if err != nil {
		t.Fatalf("PollsStats: %v", err)
	}
	if count != 2 || maxTS == nil {
		t.Fatalf("stats = (%d, %v); want count 2 with timestamp", count, maxTS)
	}
}
