package models

// PersistOp is one upsert against the products table, keyed by StripeID.
// Produced by the catalog reconciler, applied by the product repository.
type PersistOp struct {
	StripeID    string
	Name        string
	Type        string // one_time | recurring
	UnitAmount  int64  // major units, truncated from the minor-unit price
	Currency    string
	Images      []string
	Description string
}
