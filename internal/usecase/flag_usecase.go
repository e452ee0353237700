package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/netgraph/backend/internal/domain"
)

var (
	ErrFlagExists   = errors.New("flag_id already exists")
	ErrFlagNotFound = errors.New("flag not found")
)

type FlagUsecase struct {
	flagRepo domain.FlagRepository
}

func NewFlagUsecase(flagRepo domain.FlagRepository) *FlagUsecase {
	return &FlagUsecase{flagRepo: flagRepo}
}

type CreateFlagParams struct {
	FlagID     string
	SubjectIDs []string
	RuleID     string
	Score      int
	Parameter  string
	CreateDate time.Time
	CreateBy   string
}

// Create inserts one flag row per subject, all sharing the same flag_id.
func (f *FlagUsecase) Create(p CreateFlagParams) (*domain.FlagGroup, error) {
	exists, err := f.flagRepo.ExistsFlagID(p.FlagID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if exists {
		return nil, ErrFlagExists
	}

	flags := make([]*domain.Flag, len(p.SubjectIDs))
	for i, subjectID := range p.SubjectIDs {
		flags[i] = &domain.Flag{
			FlagID:     p.FlagID,
			SubjectID:  subjectID,
			RuleID:     p.RuleID,
			Score:      p.Score,
			Parameter:  p.Parameter,
			CreateDate: p.CreateDate,
			CreateBy:   p.CreateBy,
		}
	}
	if err := f.flagRepo.CreateBatch(flags); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &domain.FlagGroup{
		FlagID:     p.FlagID,
		RuleID:     p.RuleID,
		Score:      p.Score,
		Parameter:  p.Parameter,
		CreateDate: p.CreateDate,
		CreateBy:   p.CreateBy,
		SubjectIDs: p.SubjectIDs,
	}, nil
}

// GetBySubject returns every flag group the subject participates in,
// including co-flagged subjects from the same flag_id.
func (f *FlagUsecase) GetBySubject(subjectID string) ([]*domain.FlagGroup, error) {
	flagIDs, err := f.flagRepo.FindFlagIDsBySubject(subjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(flagIDs) == 0 {
		return []*domain.FlagGroup{}, nil
	}

	flags, err := f.flagRepo.GetByFlagIDs(flagIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return groupFlags(flags), nil
}

// Delete removes every row sharing the flag_id and returns how many went.
func (f *FlagUsecase) Delete(flagID string) (int64, error) {
	count, err := f.flagRepo.DeleteByFlagID(flagID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if count == 0 {
		return 0, ErrFlagNotFound
	}
	return count, nil
}

func groupFlags(flags []*domain.Flag) []*domain.FlagGroup {
	byID := map[string]*domain.FlagGroup{}
	var order []string

	for _, flag := range flags {
		group, ok := byID[flag.FlagID]
		if !ok {
			group = &domain.FlagGroup{
				FlagID:     flag.FlagID,
				RuleID:     flag.RuleID,
				Score:      flag.Score,
				Parameter:  flag.Parameter,
				CreateDate: flag.CreateDate,
				CreateBy:   flag.CreateBy,
			}
			byID[flag.FlagID] = group
			order = append(order, flag.FlagID)
		}
		group.SubjectIDs = append(group.SubjectIDs, flag.SubjectID)
	}

	groups := make([]*domain.FlagGroup, len(order))
	for i, id := range order {
		groups[i] = byID[id]
	}
	return groups
}
