package db

import (
	"context"
	"database/sql"
	"fmt"
)

type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) Create(ctx context.Context, project *Project) error {
	if project.ID == "" {
		project.ID = NewID()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = nowUTC()
	}
	if project.UpdatedAt.IsZero() {
		project.UpdatedAt = project.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO projects (id, name, description, location, status, db_config, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, project.ID, project.Name, project.Description, project.Location, project.Status, project.DBConfig,
		formatTimestamp(project.CreatedAt), formatTimestamp(project.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *ProjectRepo) Get(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, description, location, status, db_config, created_at, updated_at
FROM projects
WHERE id = ?
`, id)

	project, err := scanProject(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project %q: %w", id, err)
	}
	return project, nil
}

type ProjectFilter struct {
	Status string
}

func (r *ProjectRepo) List(ctx context.Context, filter ProjectFilter) ([]*Project, error) {
	query := `
SELECT id, name, description, location, status, db_config, created_at, updated_at
FROM projects
`
	args := []any{}
	if filter.Status != "" {
		query += `WHERE status = ?
`
		args = append(args, filter.Status)
	}
	query += `ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *ProjectRepo) Update(ctx context.Context, project *Project) error {
	project.UpdatedAt = nowUTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE projects
SET name = ?, description = ?, location = ?, status = ?, db_config = ?, updated_at = ?
WHERE id = ?
`, project.Name, project.Description, project.Location, project.Status, project.DBConfig,
		formatTimestamp(project.UpdatedAt), project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project %q: %w", project.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of project %q: %w", project.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("project %q not found", project.ID)
	}
	return nil
}

func (r *ProjectRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete project %q: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check delete of project %q: %w", id, err)
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var p Project
	var createdAtRaw, updatedAtRaw string

	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Location, &p.Status, &p.DBConfig, &createdAtRaw, &updatedAtRaw); err != nil {
		return nil, err
	}

	var err error
	p.CreatedAt, err = parseTimestamp(createdAtRaw)
	if err != nil {
		return nil, err
	}
	p.UpdatedAt, err = parseTimestamp(updatedAtRaw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
