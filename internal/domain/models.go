// Package domain defines the persistence models for polls and votes.
// These types are mapped with GORM and form the core data layer of the
// polling application.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// StringSlice is an ordered list of strings stored as a JSON-encoded TEXT
// column. It keeps poll options a whole-array value: updates replace the
// entire list rather than editing individual rows.
type StringSlice []string

// Value implements driver.Valuer by JSON-encoding the slice.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		s = StringSlice{}
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for TEXT/BLOB columns written by Value.
func (s *StringSlice) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(s))
	case []byte:
		return json.Unmarshal(v, (*[]string)(s))
	default:
		return errors.New("domain: unsupported source type for StringSlice")
	}
}

// GormDataType tells the migrator which column type to use.
func (StringSlice) GormDataType() string { return "text" }

// Poll represents a question with a fixed, ordered set of answer options,
// owned by the user who created it.
//
// Fields:
//   - ID: stable UUID primary key (char(36)), generated on insert.
//   - OwnerID: identifier of the creating user; immutable, indexed.
//   - Question: the poll question (3–500 chars after sanitization).
//   - Options: 2–10 option labels, replaced as a whole on update.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Poll struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	OwnerID   string         `json:"owner_id"   gorm:"type:varchar(64);not null;index:idx_owner_polls"`
	Question  string         `json:"question"   gorm:"type:varchar(500);not null"`
	Options   StringSlice    `json:"options"    gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Poll.
func (Poll) TableName() string { return "polls" }

// Vote records one actor's choice on a poll. VoterID is nil for anonymous
// votes; because SQL treats NULLs as distinct in unique indexes, the
// ux_vote_poll_voter index limits authenticated voters to one vote per poll
// while leaving anonymous votes unconstrained.
//
// Votes are immutable once written, so there is no soft-delete column.
type Vote struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	PollID      string    `json:"poll_id"      gorm:"type:char(36);not null;index;uniqueIndex:ux_vote_poll_voter,priority:1"`
	VoterID     *string   `json:"voter_id"     gorm:"type:varchar(64);uniqueIndex:ux_vote_poll_voter,priority:2"`
	OptionIndex int       `json:"option_index" gorm:"not null;check:option_index >= 0"`
	CreatedAt   time.Time `json:"created_at"`

	// Poll is the voted-on poll. Votes are cascade-deleted if the poll row
	// is hard-removed.
	Poll Poll `json:"-" gorm:"foreignKey:PollID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Vote.
func (Vote) TableName() string { return "votes" }
