package models

import "time"

// ReservedSlot is an exclusive claim on a (teacher, slot token) pair by
// one order. The composite unique index is what makes racing reservations
// safe: the second writer hits a duplicate-key error. Rows are hard
// deleted on release so the index never sees stale claims.
type ReservedSlot struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeacherID uint      `gorm:"not null;uniqueIndex:idx_teacher_slot,priority:1" json:"teacher_id"`
	SlotToken string    `gorm:"size:40;not null;uniqueIndex:idx_teacher_slot,priority:2" json:"slot_token"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ReservedSlot) TableName() string { return "reserved_slots" }
