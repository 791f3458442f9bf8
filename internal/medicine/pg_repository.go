package medicine

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const columns = `id, name, category, price::float8, stock, description, dosage, created_at, updated_at`

func scan(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.Category, &m.Price, &m.Stock, &m.Description, &m.Dosage, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *PgRepository) List(ctx context.Context) ([]Medicine, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM medicines ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Medicine
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

func (r *PgRepository) Get(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM medicines WHERE id = $1`, id))
}

func (r *PgRepository) Create(ctx context.Context, m Medicine) (*Medicine, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return scan(r.pool.QueryRow(ctx, `
		INSERT INTO medicines (id, name, category, price, stock, description, dosage)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+columns,
		m.ID, m.Name, m.Category, m.Price, m.Stock, m.Description, m.Dosage,
	))
}

func (r *PgRepository) Update(ctx context.Context, m Medicine) (*Medicine, error) {
	return scan(r.pool.QueryRow(ctx, `
		UPDATE medicines
		SET name = $2, category = $3, price = $4, stock = $5,
		    description = $6, dosage = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+columns,
		m.ID, m.Name, m.Category, m.Price, m.Stock, m.Description, m.Dosage,
	))
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
