package memory

import (
	"sort"
	"sync"
)

type UserRepo struct {
	mu     sync.RWMutex
	chatID map[int64]struct{}
}

func NewUserRepo() *UserRepo {
	return &UserRepo{chatID: make(map[int64]struct{})}
}

func (r *UserRepo) SaveUser(chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chatID[chatID] = struct{}{}
	return nil
}

// ListChatIDs returns every known chat in ascending order.
func (r *UserRepo) ListChatIDs() ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]int64, 0, len(r.chatID))
	for id := range r.chatID {
		res = append(res, id)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res, nil
}
