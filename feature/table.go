package feature

import "errors"

// Output column names, in the order BuildFeatures emits them.
const (
	ColSellerHashed      = "seller_id_hashed"
	ColBrandHashed       = "brand_hashed"
	ColSubcategoryHashed = "subcategory_hashed"
	ColPrice             = "price"
	ColRating            = "rating"
	ColReviewsCount      = "reviews_count"
)

// Table is a fully numeric feature table: one row per input record, one
// float64 cell per column, no missing values.
type Table struct {
	Columns []string
	Rows    [][]float64
}

func (t *Table) Len() int { return len(t.Rows) }

// Column returns all values of the named column.
func (t *Table) Column(name string) ([]float64, bool) {
	for i, col := range t.Columns {
		if col != name {
			continue
		}
		values := make([]float64, len(t.Rows))
		for j, row := range t.Rows {
			values[j] = row[i]
		}
		return values, true
	}
	return nil, false
}

// Row returns row i keyed by column name, the shape the model consumes.
func (t *Table) Row(i int) map[string]float64 {
	row := make(map[string]float64, len(t.Columns))
	for j, col := range t.Columns {
		row[col] = t.Rows[i][j]
	}
	return row
}

// BuildFeatures turns records into a numeric feature table. Categorical
// columns (seller_id, brand, subcategory) become `<name>_hashed` bucket
// indices; numeric columns (price, rating, reviews_count) pass through;
// title never contributes a column.
//
// A column is present in the output when at least one record carries the
// field; a column nobody carries is simply absent, never zero-filled.
// Within a present column, a nil categorical cell takes the sentinel
// bucket 0 and a nil numeric cell coerces to 0, so every output cell is a
// real number.
func BuildFeatures(records []Record) (*Table, error) {
	if len(records) == 0 {
		return nil, errors.New("records is empty")
	}

	var hasSeller, hasBrand, hasSubcategory, hasPrice, hasRating, hasReviews bool
	for _, r := range records {
		hasSeller = hasSeller || r.SellerID != nil
		hasBrand = hasBrand || r.Brand != nil
		hasSubcategory = hasSubcategory || r.Subcategory != nil
		hasPrice = hasPrice || r.Price != nil
		hasRating = hasRating || r.Rating != nil
		hasReviews = hasReviews || r.ReviewsCount != nil
	}

	columns := make([]string, 0, 6)
	cells := make([]func(Record) float64, 0, 6)
	if hasSeller {
		columns = append(columns, ColSellerHashed)
		cells = append(cells, func(r Record) float64 { return float64(hashPtr(r.SellerID)) })
	}
	if hasBrand {
		columns = append(columns, ColBrandHashed)
		cells = append(cells, func(r Record) float64 { return float64(hashPtr(r.Brand)) })
	}
	if hasSubcategory {
		columns = append(columns, ColSubcategoryHashed)
		cells = append(cells, func(r Record) float64 { return float64(hashPtr(r.Subcategory)) })
	}
	if hasPrice {
		columns = append(columns, ColPrice)
		cells = append(cells, func(r Record) float64 { return floatCell(r.Price) })
	}
	if hasRating {
		columns = append(columns, ColRating)
		cells = append(cells, func(r Record) float64 { return floatCell(r.Rating) })
	}
	if hasReviews {
		columns = append(columns, ColReviewsCount)
		cells = append(cells, func(r Record) float64 { return intCell(r.ReviewsCount) })
	}

	rows := make([][]float64, len(records))
	for i, r := range records {
		row := make([]float64, len(columns))
		for j, cell := range cells {
			row[j] = cell(r)
		}
		rows[i] = row
	}

	return &Table{Columns: columns, Rows: rows}, nil
}

func floatCell(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intCell(v *int64) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}
