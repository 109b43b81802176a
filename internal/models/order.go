package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is one purchase of a lesson package by a student from a teacher.
// Amounts are whole units of Currency; the pricing snapshot is immutable
// once the order exists. Only the confirmation flow moves pending to paid.
type Order struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	TeacherID       uint        `gorm:"not null;index" json:"teacher_id"`
	StudentID       uint        `gorm:"not null;index" json:"student_id"`
	Status          OrderStatus `gorm:"size:20;not null;index;default:'pending'" json:"status"`
	GrossAmount     int64       `gorm:"not null" json:"gross_amount"`
	DiscountAmount  int64       `gorm:"not null;default:0" json:"discount_amount"`
	TotalAmount     int64       `gorm:"not null" json:"total_amount"`
	Currency        string      `gorm:"size:3;not null;default:'VND'" json:"currency"`
	Lessons         int         `gorm:"not null" json:"lessons"`
	LessonsPerWeek  int         `json:"lessons_per_week"`
	LessonLengthMin int         `gorm:"not null" json:"lesson_length_min"`
	// PreferredSlots is a JSON array of slot tokens ("mon 09:00-09:45").
	// Duplicates are tolerated and kept as submitted.
	PreferredSlots string     `gorm:"type:text" json:"preferred_slots"`
	Timezone       string     `gorm:"size:64;default:'Asia/Ho_Chi_Minh'" json:"timezone"`
	PaymentMethod  string     `gorm:"size:20" json:"payment_method"`
	PaymentRef     string     `gorm:"size:255;index" json:"payment_ref"`
	// PaymentMeta is an opaque provider key/value bag (JSON object),
	// merged on every confirmation, never replaced.
	PaymentMeta string         `gorm:"type:text" json:"payment_meta"`
	PaidAt      *time.Time     `json:"paid_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Order) TableName() string { return "orders" }

// SlotTokens decodes the preferred-slot JSON array. A missing or broken
// column reads as no slots.
func (o *Order) SlotTokens() []string {
	if o.PreferredSlots == "" {
		return nil
	}
	var tokens []string
	if err := json.Unmarshal([]byte(o.PreferredSlots), &tokens); err != nil {
		return nil
	}
	return tokens
}

func (o *Order) SetSlotTokens(tokens []string) {
	b, _ := json.Marshal(tokens)
	o.PreferredSlots = string(b)
}
