package store

import "context"

func (s *InMemoryStore) UpsertUser(_ context.Context, u User) error {
	defer s.lock()()

	u.UpdatedAt = nowUTC(u.UpdatedAt)
	s.data.users[u.ID] = u
	return nil
}

func (s *InMemoryStore) GetUsers(_ context.Context, ids []string) (map[string]User, error) {
	defer s.rlock()()

	out := make(map[string]User, len(ids))
	for _, id := range ids {
		if u, ok := s.data.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}
