package voucher

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/beverageshop/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Quote is the outcome of an accepted voucher for a given order amount.
type Quote struct {
	Valid       bool            `json:"valid"`
	Voucher     *domain.Voucher `json:"voucher"`
	Discount    decimal.Decimal `json:"discount"`
	FinalAmount decimal.Decimal `json:"finalAmount"`
}

// Evaluate checks v against an order amount at instant now. A nil v is an unknown code.
// Rejections are checked in a fixed order so the caller always sees the first failing rule.
func Evaluate(v *domain.Voucher, amount decimal.Decimal, now time.Time) (Quote, error) {
	if v == nil {
		return Quote{}, domain.NotFound("Mã voucher không tồn tại")
	}
	if !v.IsActive {
		return Quote{}, domain.Invalid("Voucher đã bị vô hiệu hóa")
	}
	if now.Before(v.StartDate) {
		return Quote{}, domain.Invalid("Voucher chưa có hiệu lực")
	}
	if now.After(v.EndDate) {
		return Quote{}, domain.Invalid("Voucher đã hết hạn")
	}
	if v.Exhausted() {
		return Quote{}, domain.Invalid("Voucher đã hết lượt sử dụng")
	}
	if amount.LessThan(v.MinimumOrderAmount) {
		return Quote{}, domain.Invalid(fmt.Sprintf("Đơn hàng tối thiểu %sđ để sử dụng voucher này", domain.GroupThousands(v.MinimumOrderAmount)))
	}

	discount := Discount(v, amount)
	return Quote{
		Valid:       true,
		Voucher:     v,
		Discount:    discount,
		FinalAmount: amount.Sub(discount),
	}, nil
}

// Discount computes the reduction v grants on amount, never more than amount itself.
func Discount(v *domain.Voucher, amount decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch v.Type {
	case domain.DiscountPercentage:
		discount = amount.Mul(v.Value).Div(hundred)
		if v.MaxDiscountAmount.IsPositive() && discount.GreaterThan(v.MaxDiscountAmount) {
			discount = v.MaxDiscountAmount
		}
	default:
		// FIXME: fixed-amount vouchers ignore MaxDiscountAmount, as the storefront always has.
		// Confirm with the business before capping them too.
		discount = v.Value
	}

	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(amount) {
		return amount
	}
	return discount
}
