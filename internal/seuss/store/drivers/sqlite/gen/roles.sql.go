package gen

import "context"

const roleColumns = `id, name, privileges, created_at, updated_at`

func scanRole(row interface{ Scan(...any) error }) (Role, error) {
	var i Role
	err := row.Scan(&i.ID, &i.Name, &i.Privileges, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getRoleByID = `SELECT ` + roleColumns + ` FROM roles WHERE id = ?`

func (q *Queries) GetRoleByID(ctx context.Context, id string) (Role, error) {
	return scanRole(q.db.QueryRowContext(ctx, getRoleByID, id))
}

const getRoleByName = `SELECT ` + roleColumns + ` FROM roles WHERE name = ?`

func (q *Queries) GetRoleByName(ctx context.Context, name string) (Role, error) {
	return scanRole(q.db.QueryRowContext(ctx, getRoleByName, name))
}

const listAllRoles = `SELECT ` + roleColumns + ` FROM roles ORDER BY name`

func (q *Queries) ListAllRoles(ctx context.Context) ([]Role, error) {
	rows, err := q.db.QueryContext(ctx, listAllRoles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Role
	for rows.Next() {
		i, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createRole = `INSERT INTO roles (id, name, privileges, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`

type CreateRoleParams struct {
	ID         string
	Name       string
	Privileges string
	Now        int64
}

func (q *Queries) CreateRole(ctx context.Context, arg CreateRoleParams) error {
	_, err := q.db.ExecContext(ctx, createRole, arg.ID, arg.Name, arg.Privileges, arg.Now, arg.Now)
	return err
}

const countRoles = `SELECT COUNT(*) FROM roles`

func (q *Queries) CountRoles(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countRoles).Scan(&count)
	return count, err
}
