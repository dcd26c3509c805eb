package storage

import (
	"context"
	"fmt"

	"mercator-hq/retainer/pkg/retention"
)

// Count returns the number of rows in a table.
func (s *Store) Count(ctx context.Context, table string) (int64, error) {
	if !knownTable(table) {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	return s.QueryInt64(ctx, "count_"+table, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table))
}

// Counts returns row counts for every live table and archive twin, keyed by
// table name.
func (s *Store) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(CountedTables))
	for _, table := range CountedTables {
		n, err := s.Count(ctx, table)
		if err != nil {
			return nil, err
		}
		counts[table] = n
	}
	return counts, nil
}

// CountRealmMessages counts the messages of a messages table (live or
// archive) sent by users of a realm.
func (s *Store) CountRealmMessages(ctx context.Context, table Table, realmID int64) (int64, error) {
	if table.Name != Messages.Name && table.Name != ArchiveMessages.Name {
		return 0, fmt.Errorf("table %q does not hold messages", table.Name)
	}
	return s.QueryInt64(ctx, "count_realm_messages", fmt.Sprintf(`
		SELECT COUNT(*) FROM %s m
		JOIN users u ON u.id = m.sender_id
		WHERE u.realm_id = ?`, table.Name), realmID)
}

// IDs returns the ids of a table in ascending order.
func (s *Store) IDs(ctx context.Context, table string) ([]int64, error) {
	if !knownTable(table) {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id FROM %s ORDER BY id`, table))
	if err != nil {
		return nil, retention.NewStorageError(s.Backend(), "ids_"+table, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, retention.NewStorageError(s.Backend(), "ids_"+table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, retention.NewStorageError(s.Backend(), "ids_"+table, err)
	}
	return ids, nil
}
