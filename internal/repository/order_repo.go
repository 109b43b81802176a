package repository

import (
	"encoding/json"
	"time"

	"tutorly/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *models.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// MarkPaid moves an order pending -> paid with a locked conditional
// update: the row is locked, payment meta is merged with whatever is
// already there, and the UPDATE itself is guarded on status=pending.
// Returns false when the order was not pending anymore, which callers
// treat as an idempotent no-op.
func (r *OrderRepository) MarkPaid(id uint, method, ref string, meta map[string]string, paidAt time.Time) (bool, error) {
	updated := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, id).Error; err != nil {
			return err
		}
		if o.Status != models.OrderStatusPending {
			return nil
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, models.OrderStatusPending).
			Updates(map[string]any{
				"status":         models.OrderStatusPaid,
				"payment_method": method,
				"payment_ref":    ref,
				"payment_meta":   mergeMeta(o.PaymentMeta, meta),
				"paid_at":        paidAt,
			})
		if res.Error != nil {
			return res.Error
		}
		updated = res.RowsAffected == 1
		return nil
	})
	return updated, err
}

// mergeMeta overlays new provider metadata on the existing JSON bag.
// Existing keys survive unless the provider sends a new value for them.
func mergeMeta(existing string, add map[string]string) string {
	merged := map[string]string{}
	if existing != "" {
		_ = json.Unmarshal([]byte(existing), &merged)
	}
	for k, v := range add {
		merged[k] = v
	}
	b, _ := json.Marshal(merged)
	return string(b)
}
