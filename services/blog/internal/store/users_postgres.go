package store

import "context"

func (s *PostgresStore) UpsertUser(ctx context.Context, u User) error {
	const q = `INSERT INTO users (id, display_name, updated_at) VALUES ($1, $2, $3)
	           ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name, updated_at = EXCLUDED.updated_at`
	_, err := s.db.Exec(ctx, q, u.ID, u.DisplayName, nowUTC(u.UpdatedAt))
	return err
}

func (s *PostgresStore) GetUsers(ctx context.Context, ids []string) (map[string]User, error) {
	out := make(map[string]User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.Query(ctx, `SELECT id, display_name, updated_at FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}
