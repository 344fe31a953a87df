package repository

import (
	"context"

	"storefront-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Apply executes reconciler ops in order as upserts keyed by stripe_id. Ops
// for the same product overwrite each other's shared columns; keeping the
// input order makes the last price win deterministically.
func (r *ProductRepository) Apply(ctx context.Context, ops []models.PersistOp) error {
	for _, op := range ops {
		row := models.Product{
			StripeID:    op.StripeID,
			Name:        op.Name,
			Type:        op.Type,
			UnitAmount:  op.UnitAmount,
			Currency:    op.Currency,
			Images:      op.Images,
			Description: op.Description,
		}
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "type", "unit_amount", "currency", "images", "description", "updated_at",
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ProductRepository) GetByStripeID(ctx context.Context, stripeID string) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).Where("stripe_id = ?", stripeID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) UpdateByStripeID(ctx context.Context, stripeID string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("stripe_id = ?", stripeID).Updates(updates).Error
}
