package memory

import (
	"sync"

	"github.com/netgraph/backend/internal/domain"
)

type FlagRepository struct {
	mu     sync.RWMutex
	nextID int64
	flags  []*domain.Flag
}

func NewFlagRepository() *FlagRepository {
	return &FlagRepository{nextID: 1}
}

func (r *FlagRepository) CreateBatch(flags []*domain.Flag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, flag := range flags {
		clone := *flag
		clone.ID = r.nextID
		r.nextID++
		r.flags = append(r.flags, &clone)
	}
	return nil
}

func (r *FlagRepository) ExistsFlagID(flagID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, flag := range r.flags {
		if flag.FlagID == flagID {
			return true, nil
		}
	}
	return false, nil
}

func (r *FlagRepository) FindFlagIDsBySubject(subjectID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]bool{}
	var flagIDs []string
	for _, flag := range r.flags {
		if flag.SubjectID == subjectID && !seen[flag.FlagID] {
			seen[flag.FlagID] = true
			flagIDs = append(flagIDs, flag.FlagID)
		}
	}
	return flagIDs, nil
}

func (r *FlagRepository) GetByFlagIDs(flagIDs []string) ([]*domain.Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := map[string]bool{}
	for _, id := range flagIDs {
		wanted[id] = true
	}

	var flags []*domain.Flag
	for _, flag := range r.flags {
		if wanted[flag.FlagID] {
			clone := *flag
			flags = append(flags, &clone)
		}
	}
	return flags, nil
}

func (r *FlagRepository) DeleteByFlagID(flagID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kept []*domain.Flag
	var deleted int64
	for _, flag := range r.flags {
		if flag.FlagID == flagID {
			deleted++
			continue
		}
		kept = append(kept, flag)
	}
	r.flags = kept
	return deleted, nil
}
