package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"teeshop/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDesignNotFound  = errors.New("design not found")
	ErrDesignCodeTaken = errors.New("design with this code already exists")
)

// uniqueViolation is the SQLSTATE postgres reports for unique constraint failures
const uniqueViolation = "23505"

// DesignRepository defines the interface for design data access
type DesignRepository interface {
	Create(ctx context.Context, design *domain.Design) error
	Update(ctx context.Context, design *domain.Design) error
	UpdateStock(ctx context.Context, design *domain.Design) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddImages(ctx context.Context, designID uuid.UUID, images []string) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Design, error)
	FindByCode(ctx context.Context, code string) (*domain.Design, error)
	FindByCodeForUpdate(ctx context.Context, code string) (*domain.Design, error)
	List(ctx context.Context) ([]*domain.Design, error)
}

type designRepository struct {
	db *sql.DB
}

// NewDesignRepository creates a new instance of DesignRepository
func NewDesignRepository(db *sql.DB) DesignRepository {
	return &designRepository{db: db}
}

const designColumns = `id, design_code, name, description, price, stock_quantity, stock, created_at, updated_at`

// Create inserts a design and its images
func (r *designRepository) Create(ctx context.Context, design *domain.Design) error {
	query := `
		INSERT INTO designs (id, design_code, name, description, price, stock_quantity, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := conn(ctx, r.db).ExecContext(
		ctx,
		query,
		design.ID,
		design.Code,
		design.Name,
		design.Description,
		design.Price,
		design.StockQuantity,
		design.Stock,
		design.CreatedAt,
		design.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDesignCodeTaken
		}
		return fmt.Errorf("failed to create design: %w", err)
	}

	return r.AddImages(ctx, design.ID, design.Images)
}

// Update rewrites the editable fields of a design, stock included
func (r *designRepository) Update(ctx context.Context, design *domain.Design) error {
	query := `
		UPDATE designs
		SET design_code = $2, name = $3, description = $4, price = $5, stock_quantity = $6, stock = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := conn(ctx, r.db).ExecContext(
		ctx,
		query,
		design.ID,
		design.Code,
		design.Name,
		design.Description,
		design.Price,
		design.StockQuantity,
		design.Stock,
		design.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDesignCodeTaken
		}
		return fmt.Errorf("failed to update design: %w", err)
	}

	return expectOneRow(result, ErrDesignNotFound)
}

// UpdateStock writes the stock counter and label only
func (r *designRepository) UpdateStock(ctx context.Context, design *domain.Design) error {
	query := `
		UPDATE designs
		SET stock_quantity = $2, stock = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, design.ID, design.StockQuantity, design.Stock, design.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update design stock: %w", err)
	}

	return expectOneRow(result, ErrDesignNotFound)
}

// Delete removes a design; its images go with it through the foreign key
func (r *designRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM designs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete design: %w", err)
	}

	return expectOneRow(result, ErrDesignNotFound)
}

// AddImages appends image references after the existing ones
func (r *designRepository) AddImages(ctx context.Context, designID uuid.UUID, images []string) error {
	if len(images) == 0 {
		return nil
	}

	db := conn(ctx, r.db)

	var next int
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM design_images WHERE design_id = $1`,
		designID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to read image position: %w", err)
	}

	for i, ref := range images {
		_, err := db.ExecContext(ctx,
			`INSERT INTO design_images (design_id, position, reference) VALUES ($1, $2, $3)`,
			designID, next+i, ref,
		)
		if err != nil {
			return fmt.Errorf("failed to add design image: %w", err)
		}
	}

	return nil
}

// FindByID retrieves a design with its images
func (r *designRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Design, error) {
	query := `SELECT ` + designColumns + ` FROM designs WHERE id = $1`

	design, err := scanDesign(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if design.Images, err = r.images(ctx, design.ID); err != nil {
		return nil, err
	}
	return design, nil
}

// FindByCode retrieves a design by its business key with its images
func (r *designRepository) FindByCode(ctx context.Context, code string) (*domain.Design, error) {
	query := `SELECT ` + designColumns + ` FROM designs WHERE design_code = $1`

	design, err := scanDesign(conn(ctx, r.db).QueryRowContext(ctx, query, code))
	if err != nil {
		return nil, err
	}

	if design.Images, err = r.images(ctx, design.ID); err != nil {
		return nil, err
	}
	return design, nil
}

// FindByCodeForUpdate reads a design and locks its row until the surrounding
// transaction ends. Images are not loaded.
func (r *designRepository) FindByCodeForUpdate(ctx context.Context, code string) (*domain.Design, error) {
	query := `SELECT ` + designColumns + ` FROM designs WHERE design_code = $1 FOR UPDATE`

	return scanDesign(conn(ctx, r.db).QueryRowContext(ctx, query, code))
}

// List returns every design in creation order
func (r *designRepository) List(ctx context.Context) ([]*domain.Design, error) {
	db := conn(ctx, r.db)

	rows, err := db.QueryContext(ctx, `SELECT `+designColumns+` FROM designs ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list designs: %w", err)
	}
	defer rows.Close()

	designs := []*domain.Design{}
	byID := map[uuid.UUID]*domain.Design{}
	for rows.Next() {
		design, err := scanDesign(rows)
		if err != nil {
			return nil, err
		}
		design.Images = []string{}
		designs = append(designs, design)
		byID[design.ID] = design
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating designs: %w", err)
	}

	imageRows, err := db.QueryContext(ctx, `SELECT design_id, reference FROM design_images ORDER BY design_id, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list design images: %w", err)
	}
	defer imageRows.Close()

	for imageRows.Next() {
		var designID uuid.UUID
		var ref string
		if err := imageRows.Scan(&designID, &ref); err != nil {
			return nil, fmt.Errorf("failed to scan design image: %w", err)
		}
		if d, ok := byID[designID]; ok {
			d.Images = append(d.Images, ref)
		}
	}
	if err = imageRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating design images: %w", err)
	}

	return designs, nil
}

func (r *designRepository) images(ctx context.Context, designID uuid.UUID) ([]string, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT reference FROM design_images WHERE design_id = $1 ORDER BY position`,
		designID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load design images: %w", err)
	}
	defer rows.Close()

	images := []string{}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("failed to scan design image: %w", err)
		}
		images = append(images, ref)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating design images: %w", err)
	}
	return images, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDesign(row rowScanner) (*domain.Design, error) {
	design := &domain.Design{}
	err := row.Scan(
		&design.ID,
		&design.Code,
		&design.Name,
		&design.Description,
		&design.Price,
		&design.StockQuantity,
		&design.Stock,
		&design.CreatedAt,
		&design.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDesignNotFound
		}
		return nil, fmt.Errorf("failed to scan design: %w", err)
	}
	return design, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
