package domain

import "time"

type Review struct {
	ID                 int64     `json:"id"`
	BeverageID         int64     `json:"beverageId"`
	UserID             int64     `json:"userId"`
	UserName           string    `json:"userName"`
	Rating             int       `json:"rating"`
	Comment            string    `json:"comment"`
	Images             []string  `json:"images"`
	IsVerifiedPurchase bool      `json:"isVerifiedPurchase"`
	HelpfulCount       int       `json:"helpfulCount"`
	CreatedDate        time.Time `json:"createdDate"`
}

type ReviewStats struct {
	AverageRating      float64     `json:"averageRating"`
	TotalReviews       int         `json:"totalReviews"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
}

type WishlistItem struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	BeverageID int64     `json:"beverageId"`
	AddedDate  time.Time `json:"addedDate"`
	Beverage   *Beverage `json:"beverage,omitempty"`
}
