package feature

// Record is one product row as received from the API or a dataset. Fields
// are optional: an absent JSON key decodes to nil, and nil is never an
// error anywhere downstream.
type Record struct {
	Title        *string  `json:"title,omitempty"`
	SellerID     *string  `json:"seller_id,omitempty"`
	Brand        *string  `json:"brand,omitempty"`
	Subcategory  *string  `json:"subcategory,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	ReviewsCount *int64   `json:"reviews_count,omitempty"`
}

// TitleOrEmpty returns the title for logging and audit purposes.
func (r Record) TitleOrEmpty() string {
	if r.Title == nil {
		return ""
	}
	return *r.Title
}
