package domain

import "time"

// Flag is one risk-flag row tying a rule hit to a single graph subject.
// Several rows share a flag_id when one rule hit covers multiple subjects.
type Flag struct {
	ID         int64     `json:"id"`
	FlagID     string    `json:"flag_id"`
	SubjectID  string    `json:"subject_id"`
	RuleID     string    `json:"rule_id"`
	Score      int       `json:"score"`
	Parameter  string    `json:"parameter"`
	CreateDate time.Time `json:"create_date"`
	CreateBy   string    `json:"create_by"`
}

// FlagGroup is the API-facing shape: one flag_id with its subject list.
type FlagGroup struct {
	FlagID     string    `json:"flag_id"`
	RuleID     string    `json:"rule_id"`
	Score      int       `json:"score"`
	Parameter  string    `json:"parameter"`
	CreateDate time.Time `json:"create_date"`
	CreateBy   string    `json:"create_by"`
	SubjectIDs []string  `json:"subject_ids"`
}

type FlagRepository interface {
	CreateBatch(flags []*Flag) error
	ExistsFlagID(flagID string) (bool, error)
	FindFlagIDsBySubject(subjectID string) ([]string, error)
	GetByFlagIDs(flagIDs []string) ([]*Flag, error)
	DeleteByFlagID(flagID string) (int64, error)
}
