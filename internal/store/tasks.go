package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wesm/groupfn/internal/task"
)

// Source is a named batch of imported tasks, usually one input file.
type Source struct {
	ID         int64
	Name       string
	TaskCount  int64
	ImportedAt sql.NullTime
}

// ErrSourceNotFound is returned when a named source does not exist.
var ErrSourceNotFound = errors.New("source not found")

const dateLayout = time.DateOnly

const taskColumns = `t.id, t.description, t.status_symbol, t.status_next_symbol, t.status_name, t.status_type,
	t.priority, t.created_date, t.done_date, t.due_date, t.scheduled_date, t.start_date, t.cancelled_date,
	t.recurrence, t.path, t.heading, t.block_link, t.line_number`

// ReplaceSource stores tasks as the complete contents of the named source,
// removing whatever the source held before. Task order is preserved.
func (s *Store) ReplaceSource(name string, tasks []*task.Task) (*Source, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("source name is required")
	}
	var src *Source
	err := s.withTx(func(tx *sql.Tx) error {
		now := time.Now().UTC()
		var id int64
		err := tx.QueryRow(`
			INSERT INTO sources (name, imported_at) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET imported_at = excluded.imported_at
			RETURNING id`, name, now).Scan(&id)
		if err != nil {
			return fmt.Errorf("upsert source: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM tasks WHERE source_id = ?`, id); err != nil {
			return fmt.Errorf("clear source tasks: %w", err)
		}

		ids := make([]int64, len(tasks))
		for i, t := range tasks {
			res, err := tx.Exec(`
				INSERT INTO tasks (source_id, position, description, status_symbol, status_next_symbol,
					status_name, status_type, priority, created_date, done_date, due_date,
					scheduled_date, start_date, cancelled_date, recurrence, path, heading,
					block_link, line_number)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, i, t.Description, t.Status.Symbol, t.Status.NextSymbol,
				t.Status.Name, t.Status.Type.String(), int(t.Priority),
				dateValue(t.Created), dateValue(t.Done), dateValue(t.Due),
				dateValue(t.Scheduled), dateValue(t.Start), dateValue(t.Cancelled),
				t.Recurrence, t.Path, t.Heading, t.BlockLink, t.LineNumber,
			)
			if err != nil {
				return fmt.Errorf("insert task %d: %w", i, err)
			}
			if ids[i], err = res.LastInsertId(); err != nil {
				return fmt.Errorf("task %d id: %w", i, err)
			}
		}

		type tagRow struct {
			taskID int64
			pos    int
			tag    string
		}
		var rows []tagRow
		for i, t := range tasks {
			for j, tag := range t.Tags {
				rows = append(rows, tagRow{ids[i], j, tag})
			}
		}
		err = insertInChunks(tx, len(rows), 3, "INSERT INTO task_tags (task_id, position, tag) VALUES ",
			func(start, end int) ([]string, []any) {
				values := make([]string, 0, end-start)
				args := make([]any, 0, (end-start)*3)
				for _, r := range rows[start:end] {
					values = append(values, "(?, ?, ?)")
					args = append(args, r.taskID, r.pos, r.tag)
				}
				return values, args
			})
		if err != nil {
			return fmt.Errorf("insert tags: %w", err)
		}

		src = &Source{ID: id, Name: name, TaskCount: int64(len(tasks)), ImportedAt: sql.NullTime{Time: now, Valid: true}}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return src, nil
}

// DeleteSource removes a source and its tasks.
func (s *Store) DeleteSource(name string) error {
	res, err := s.db.Exec(`DELETE FROM sources WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, name)
	}
	return nil
}

// ListSources returns every source with its task count, by name.
func (s *Store) ListSources() ([]*Source, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.name, s.imported_at, COUNT(t.id)
		FROM sources s
		LEFT JOIN tasks t ON t.source_id = s.id
		GROUP BY s.id
		ORDER BY s.name`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []*Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.ID, &src.Name, &src.ImportedAt, &src.TaskCount); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, &src)
	}
	return sources, rows.Err()
}

// ListOptions filters ListTasks. Zero values match everything.
type ListOptions struct {
	Source     string // exact source name
	PathPrefix string // tasks whose file path starts with this
	Tag        string // tasks carrying this exact tag
	OpenOnly   bool   // only TODO and IN_PROGRESS tasks
	Limit      int
}

// ListTasks returns stored tasks in source order, then import order.
func (s *Store) ListTasks(opts ListOptions) ([]*task.Task, error) {
	var where []string
	var args []any
	if opts.Source != "" {
		where = append(where, "s.name = ?")
		args = append(args, opts.Source)
	}
	if opts.PathPrefix != "" {
		where = append(where, "substr(t.path, 1, ?) = ?")
		args = append(args, len(opts.PathPrefix), opts.PathPrefix)
	}
	if opts.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM task_tags tt WHERE tt.task_id = t.id AND tt.tag = ?)")
		args = append(args, opts.Tag)
	}
	if opts.OpenOnly {
		where = append(where, "t.status_type IN ('TODO', 'IN_PROGRESS')")
	}

	query := "SELECT " + taskColumns + " FROM tasks t JOIN sources s ON s.id = t.source_id"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.name, t.position"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	var ids []int64
	byID := make(map[int64]*task.Task)
	for rows.Next() {
		id, t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
		ids = append(ids, id)
		byID[id] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	if err := s.loadTags(ids, byID); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Store) loadTags(ids []int64, byID map[int64]*task.Task) error {
	const chunkSize = 500
	for i := 0; i < len(ids); i += chunkSize {
		chunk := ids[i:min(i+chunkSize, len(ids))]
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		args := make([]any, len(chunk))
		for j, id := range chunk {
			args[j] = id
		}
		rows, err := s.db.Query(
			`SELECT task_id, tag FROM task_tags WHERE task_id IN (`+placeholders+`) ORDER BY task_id, position`,
			args...)
		if err != nil {
			return fmt.Errorf("load tags: %w", err)
		}
		for rows.Next() {
			var id int64
			var tag string
			if err := rows.Scan(&id, &tag); err != nil {
				rows.Close()
				return fmt.Errorf("scan tag: %w", err)
			}
			byID[id].Tags = append(byID[id].Tags, tag)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("load tags: %w", err)
		}
	}
	return nil
}

func scanTask(rows *sql.Rows) (int64, *task.Task, error) {
	var id int64
	var t task.Task
	var statusType string
	var priority int
	var created, done, due, scheduled, start, cancelled sql.NullString
	err := rows.Scan(&id, &t.Description, &t.Status.Symbol, &t.Status.NextSymbol, &t.Status.Name, &statusType,
		&priority, &created, &done, &due, &scheduled, &start, &cancelled,
		&t.Recurrence, &t.Path, &t.Heading, &t.BlockLink, &t.LineNumber)
	if err != nil {
		return 0, nil, fmt.Errorf("scan task: %w", err)
	}
	t.Status.Type = task.ParseStatusType(statusType)
	t.Priority = task.Priority(priority)

	for _, d := range []struct {
		src  sql.NullString
		dest **time.Time
	}{
		{created, &t.Created}, {done, &t.Done}, {due, &t.Due},
		{scheduled, &t.Scheduled}, {start, &t.Start}, {cancelled, &t.Cancelled},
	} {
		if *d.dest, err = parseDate(d.src); err != nil {
			return 0, nil, fmt.Errorf("task %d: %w", id, err)
		}
	}
	return id, &t, nil
}

func dateValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func parseDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", s.String, err)
	}
	return &d, nil
}
