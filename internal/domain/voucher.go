package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage  DiscountType = "Percentage"
	DiscountFixedAmount DiscountType = "FixedAmount"
)

var discountTypes = []string{string(DiscountPercentage), string(DiscountFixedAmount)}

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixedAmount
}

func (t *DiscountType) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum(data, discountTypes)
	if err != nil {
		return err
	}
	*t = DiscountType(v)
	return nil
}

type Voucher struct {
	ID                    int64           `json:"id"`
	Code                  string          `json:"code"`
	Name                  string          `json:"name"`
	Description           string          `json:"description"`
	Type                  DiscountType    `json:"type"`
	Value                 decimal.Decimal `json:"value"`
	MaxDiscountAmount     decimal.Decimal `json:"maxDiscountAmount"`
	MinimumOrderAmount    decimal.Decimal `json:"minimumOrderAmount"`
	MaxUsageCount         int             `json:"maxUsageCount"`
	UsedCount             int             `json:"usedCount"`
	StartDate             time.Time       `json:"startDate"`
	EndDate               time.Time       `json:"endDate"`
	IsActive              bool            `json:"isActive"`
	ApplicableBeverageIDs *string         `json:"applicableBeverageIds"`
	CreatedDate           time.Time       `json:"createdDate"`
}

// Exhausted reports whether a capped voucher has no uses left. MaxUsageCount 0 is unlimited.
func (v *Voucher) Exhausted() bool {
	return v.MaxUsageCount > 0 && v.UsedCount >= v.MaxUsageCount
}
