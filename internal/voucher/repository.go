package voucher

import (
	"context"
	"database/sql"
	"errors"

	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/store"
)

var (
	errDuplicateCode = domain.Conflict("Mã voucher đã tồn tại")
	errUsageOverCap  = domain.Invalid("invalid field maxUsageCount: below usedCount")
)

const voucherColumns = `
	id, code, name, description, type, value, max_discount_amount, minimum_order_amount,
	max_usage_count, used_count, start_date, end_date, is_active, applicable_beverage_ids, created_date`

type VoucherRepository struct {
	db *sql.DB
}

func NewVoucherRepository(db *sql.DB) *VoucherRepository {
	return &VoucherRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVoucher(row scanner) (*domain.Voucher, error) {
	v := &domain.Voucher{}
	err := row.Scan(&v.ID, &v.Code, &v.Name, &v.Description, &v.Type, &v.Value, &v.MaxDiscountAmount,
		&v.MinimumOrderAmount, &v.MaxUsageCount, &v.UsedCount, &v.StartDate, &v.EndDate, &v.IsActive,
		&v.ApplicableBeverageIDs, &v.CreatedDate)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *VoucherRepository) queryOne(ctx context.Context, query string, args ...any) (*domain.Voucher, error) {
	v, err := scanVoucher(store.Conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

func (r *VoucherRepository) queryMany(ctx context.Context, query string, args ...any) ([]domain.Voucher, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	vouchers := []domain.Voucher{}
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return vouchers, nil
}

func (r *VoucherRepository) GetByID(ctx context.Context, id int64) (*domain.Voucher, error) {
	return r.queryOne(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE id = $1`, id)
}

// GetByCode matches code case-insensitively.
func (r *VoucherRepository) GetByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	return r.queryOne(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE lower(code) = lower($1)`, code)
}

// GetByCodeForUpdate is GetByCode with the row locked until the surrounding transaction ends.
func (r *VoucherRepository) GetByCodeForUpdate(ctx context.Context, code string) (*domain.Voucher, error) {
	return r.queryOne(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE lower(code) = lower($1) FOR UPDATE`, code)
}

func (r *VoucherRepository) ListActive(ctx context.Context) ([]domain.Voucher, error) {
	return r.queryMany(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE is_active ORDER BY start_date DESC, id`)
}

func (r *VoucherRepository) ListAll(ctx context.Context) ([]domain.Voucher, error) {
	return r.queryMany(ctx, `SELECT `+voucherColumns+` FROM vouchers ORDER BY created_date DESC, id DESC`)
}

// IncrementUsage consumes one use of the voucher. It refuses to push a capped voucher past
// its limit.
func (r *VoucherRepository) IncrementUsage(ctx context.Context, id int64) error {
	result, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE vouchers
		SET used_count = used_count + 1
		WHERE id = $1 AND (max_usage_count = 0 OR used_count < max_usage_count)
	`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.Invalid("Voucher đã hết lượt sử dụng")
	}

	return nil
}

func (r *VoucherRepository) Create(ctx context.Context, v *domain.Voucher) error {
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO vouchers (code, name, description, type, value, max_discount_amount, minimum_order_amount,
			max_usage_count, used_count, start_date, end_date, is_active, applicable_beverage_ids, created_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		RETURNING id, created_date
	`, v.Code, v.Name, v.Description, v.Type, v.Value, v.MaxDiscountAmount, v.MinimumOrderAmount,
		v.MaxUsageCount, v.UsedCount, v.StartDate, v.EndDate, v.IsActive, v.ApplicableBeverageIDs,
	).Scan(&v.ID, &v.CreatedDate)
	if store.IsUniqueViolation(err) {
		return errDuplicateCode
	}
	if store.IsCheckViolation(err) {
		return errUsageOverCap
	}
	return err
}

// Update replaces every mutable field. It reports false when the voucher does not exist.
func (r *VoucherRepository) Update(ctx context.Context, v *domain.Voucher) (bool, error) {
	result, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE vouchers
		SET code = $2, name = $3, description = $4, type = $5, value = $6, max_discount_amount = $7,
			minimum_order_amount = $8, max_usage_count = $9, used_count = $10, start_date = $11,
			end_date = $12, is_active = $13, applicable_beverage_ids = $14
		WHERE id = $1
	`, v.ID, v.Code, v.Name, v.Description, v.Type, v.Value, v.MaxDiscountAmount, v.MinimumOrderAmount,
		v.MaxUsageCount, v.UsedCount, v.StartDate, v.EndDate, v.IsActive, v.ApplicableBeverageIDs)
	if store.IsUniqueViolation(err) {
		return false, errDuplicateCode
	}
	if store.IsCheckViolation(err) {
		return false, errUsageOverCap
	}
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func (r *VoucherRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := store.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM vouchers WHERE id = $1`, id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}
