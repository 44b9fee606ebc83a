package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/store"
)

var ErrInsufficientStock = errors.New("insufficient stock")

const beverageColumns = `
	id, name, slug, type, category, brand, price, size, description, image_url, images,
	stock, is_available, created_date`

type BeverageRepository struct {
	db *sql.DB
}

func NewBeverageRepository(db *sql.DB) *BeverageRepository {
	return &BeverageRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBeverage(row scanner) (*domain.Beverage, error) {
	b := &domain.Beverage{}
	err := row.Scan(&b.ID, &b.Name, &b.Slug, &b.Type, &b.Category, &b.Brand, &b.Price, &b.Size,
		&b.Description, &b.ImageURL, pq.Array(&b.Images), &b.Stock, &b.IsAvailable, &b.CreatedDate)
	if err != nil {
		return nil, err
	}
	if b.Images == nil {
		b.Images = []string{}
	}
	return b, nil
}

func (r *BeverageRepository) queryOne(ctx context.Context, query string, args ...any) (*domain.Beverage, error) {
	b, err := scanBeverage(store.Conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

func (r *BeverageRepository) queryMany(ctx context.Context, query string, args ...any) ([]domain.Beverage, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	beverages := []domain.Beverage{}
	for rows.Next() {
		b, err := scanBeverage(rows)
		if err != nil {
			return nil, err
		}
		beverages = append(beverages, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return beverages, nil
}

func (r *BeverageRepository) GetByID(ctx context.Context, id int64) (*domain.Beverage, error) {
	return r.queryOne(ctx, `SELECT `+beverageColumns+` FROM beverages WHERE id = $1`, id)
}

func (r *BeverageRepository) GetBySlug(ctx context.Context, slug string) (*domain.Beverage, error) {
	return r.queryOne(ctx, `SELECT `+beverageColumns+` FROM beverages WHERE slug = $1 ORDER BY id LIMIT 1`, slug)
}

func (r *BeverageRepository) List(ctx context.Context, f domain.BeverageFilter) ([]domain.Beverage, error) {
	query, args := buildListQuery(f)
	return r.queryMany(ctx, query, args...)
}

func buildListQuery(f domain.BeverageFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.Brand != "" {
		add("brand = $%d", f.Brand)
	}
	if f.Size != "" {
		add("size = $%d", f.Size)
	}
	if f.MinPrice != nil {
		add("price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price <= $%d", *f.MaxPrice)
	}
	if f.Keyword != "" {
		args = append(args, "%"+escapeLike(f.Keyword)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR type ILIKE $%d OR description ILIKE $%d)", n, n, n))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + beverageColumns + ` FROM beverages`)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	column := "name"
	switch f.SortBy {
	case domain.SortByPrice:
		column = "price"
	case domain.SortByDate:
		column = "created_date"
	}
	direction := "ASC"
	if f.Descending {
		direction = "DESC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, id %s", column, direction, direction)

	return sb.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *BeverageRepository) Create(ctx context.Context, b *domain.Beverage) error {
	b.EnforceAvailability()
	return store.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO beverages (name, slug, type, category, brand, price, size, description, image_url, images, stock, is_available, created_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		RETURNING id, created_date
	`, b.Name, b.Slug, b.Type, b.Category, b.Brand, b.Price, b.Size, b.Description, b.ImageURL,
		pq.Array(b.Images), b.Stock, b.IsAvailable,
	).Scan(&b.ID, &b.CreatedDate)
}

// Update replaces every mutable field of the beverage. It reports false when no such
// beverage exists.
func (r *BeverageRepository) Update(ctx context.Context, b *domain.Beverage) (bool, error) {
	b.EnforceAvailability()
	result, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE beverages
		SET name = $2, slug = $3, type = $4, category = $5, brand = $6, price = $7, size = $8,
			description = $9, image_url = $10, images = $11, stock = $12, is_available = $13
		WHERE id = $1
	`, b.ID, b.Name, b.Slug, b.Type, b.Category, b.Brand, b.Price, b.Size, b.Description, b.ImageURL,
		pq.Array(b.Images), b.Stock, b.IsAvailable)
	if err != nil {
		return false, err
	}
	return affected(result)
}

func (r *BeverageRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := store.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM beverages WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return affected(result)
}

// LockForOrder loads the given beverages and locks their rows until the surrounding
// transaction ends. Rows are locked in id order so concurrent checkouts cannot deadlock.
func (r *BeverageRepository) LockForOrder(ctx context.Context, ids []int64) (map[int64]*domain.Beverage, error) {
	if !store.InTransaction(ctx) {
		return nil, errors.New("lock beverages: no transaction in context")
	}

	rows, err := store.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT `+beverageColumns+`
		FROM beverages
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	locked := make(map[int64]*domain.Beverage, len(ids))
	for rows.Next() {
		b, err := scanBeverage(rows)
		if err != nil {
			return nil, err
		}
		locked[b.ID] = b
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return locked, nil
}

// DecrementStock takes quantity units and switches the beverage off when it sells out.
func (r *BeverageRepository) DecrementStock(ctx context.Context, id int64, quantity int) error {
	result, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE beverages
		SET stock = stock - $2,
			is_available = CASE WHEN stock - $2 = 0 THEN FALSE ELSE is_available END
		WHERE id = $1 AND stock >= $2
	`, id, quantity)
	if err != nil {
		return err
	}

	ok, err := affected(result)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientStock
	}
	return nil
}

// Restock returns quantity units. A beverage that was switched off only because it sold
// out becomes available again.
func (r *BeverageRepository) Restock(ctx context.Context, id int64, quantity int) error {
	_, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE beverages
		SET stock = stock + $2,
			is_available = CASE WHEN stock = 0 THEN TRUE ELSE is_available END
		WHERE id = $1
	`, id, quantity)
	return err
}

func (r *BeverageRepository) LowStock(ctx context.Context, threshold int) ([]domain.Beverage, error) {
	return r.queryMany(ctx, `
		SELECT `+beverageColumns+` FROM beverages
		WHERE stock > 0 AND stock <= $1
		ORDER BY stock, id
	`, threshold)
}

func (r *BeverageRepository) OutOfStock(ctx context.Context) ([]domain.Beverage, error) {
	return r.queryMany(ctx, `SELECT `+beverageColumns+` FROM beverages WHERE stock = 0 ORDER BY name, id`)
}

func (r *BeverageRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM beverages`).Scan(&n)
	return n, err
}

func (r *BeverageRepository) CountLowStock(ctx context.Context, threshold int) (int, error) {
	var n int
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM beverages WHERE stock > 0 AND stock <= $1
	`, threshold).Scan(&n)
	return n, err
}

func (r *BeverageRepository) Categories(ctx context.Context) ([]domain.Category, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx, `SELECT id, name, description FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *BeverageRepository) Brands(ctx context.Context) ([]string, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT DISTINCT brand FROM beverages WHERE brand <> '' ORDER BY brand
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	brands := []string{}
	for rows.Next() {
		var brand string
		if err := rows.Scan(&brand); err != nil {
			return nil, err
		}
		brands = append(brands, brand)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return brands, nil
}

func (r *BeverageRepository) BrandsWithCount(ctx context.Context) ([]domain.BrandSummary, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT brand, COUNT(*), COALESCE(SUM(stock), 0)
		FROM beverages
		WHERE brand <> ''
		GROUP BY brand
		ORDER BY brand
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	brands := []domain.BrandSummary{}
	for rows.Next() {
		var s domain.BrandSummary
		if err := rows.Scan(&s.Name, &s.Count, &s.TotalStock); err != nil {
			return nil, err
		}
		brands = append(brands, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return brands, nil
}

// RenameBrand moves every beverage of oldName to newName and returns how many moved.
func (r *BeverageRepository) RenameBrand(ctx context.Context, oldName, newName string) (int64, error) {
	result, err := store.Conn(ctx, r.db).ExecContext(ctx, `UPDATE beverages SET brand = $2 WHERE brand = $1`, oldName, newName)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *BeverageRepository) AssignBrand(ctx context.Context, ids []int64, brand string) (int64, error) {
	result, err := store.Conn(ctx, r.db).ExecContext(ctx, `UPDATE beverages SET brand = $2 WHERE id = ANY($1)`, pq.Array(ids), brand)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func affected(result sql.Result) (bool, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}
