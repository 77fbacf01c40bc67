package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func strptr(s string) *string { return &s }

func TestTableNames(t *testing.T) {
	if (Poll{}).TableName() != "polls" {
		t.Fatalf("Poll.TableName() = %q; want %q", (Poll{}).TableName(), "polls")
	}
	if (Vote{}).TableName() != "votes" {
		t.Fatalf("Vote.TableName() = %q; want %q", (Vote{}).TableName(), "votes")
	}
}

func TestStringSlice_RoundTrip(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Poll{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	p := &Poll{ID: "p-slice", OwnerID: "u1", Question: "Best editor?", Options: StringSlice{"vim", "emacs", "ed"}}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("insert poll: %v", err)
	}

	var got Poll
	if err := db.First(&got, "id = ?", "p-slice").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if len(got.Options) != 3 || got.Options[0] != "vim" || got.Options[2] != "ed" {
		t.Fatalf("options did not round-trip: %+v", got.Options)
	}
}

func TestMigrations_Indexes_AndVoteUniqueness(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&Poll{}, &Vote{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	for _, tbl := range []any{&Poll{}, &Vote{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&Poll{}, "idx_owner_polls") {
		t.Fatalf("expected index idx_owner_polls on polls")
	}
	if !m.HasIndex(&Vote{}, "ux_vote_poll_voter") {
		t.Fatalf("expected unique index ux_vote_poll_voter on votes")
	}

	now := time.Now().UTC()
	p := &Poll{ID: "p1", OwnerID: "u1", Question: "Tea or coffee?", Options: StringSlice{"Tea", "Coffee"}, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("insert poll: %v", err)
	}

	// One authenticated vote is fine; a second by the same voter must trip
	// the unique index.
	v1 := &Vote{ID: "v1", PollID: "p1", VoterID: strptr("u2"), OptionIndex: 0, CreatedAt: now}
	if err := db.Create(v1).Error; err != nil {
		t.Fatalf("insert v1: %v", err)
	}
	v2 := &Vote{ID: "v2", PollID: "p1", VoterID: strptr("u2"), OptionIndex: 1, CreatedAt: now}
	if err := db.Create(v2).Error; err == nil {
		t.Fatalf("expected UNIQUE constraint violation on (poll_id, voter_id)")
	}

	// NULL voter ids are distinct: any number of anonymous votes may land.
	for _, id := range []string{"a1", "a2", "a3"} {
		if err := db.Create(&Vote{ID: id, PollID: "p1", OptionIndex: 1, CreatedAt: now}).Error; err != nil {
			t.Fatalf("anonymous vote %s rejected: %v", id, err)
		}
	}

	// CASCADE: hard-deleting the poll removes its votes.
	if err := db.Unscoped().Delete(&Poll{}, "id = ?", "p1").Error; err != nil {
		t.Fatalf("delete poll: %v", err)
	}
	var cnt int64
	if err := db.Model(&Vote{}).Where("poll_id = ?", "p1").Count(&cnt).Error; err != nil {
		t.Fatalf("count votes after poll delete: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected votes to cascade-delete with their poll, got count=%d", cnt)
	}
}
