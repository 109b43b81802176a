package repository

import (
	"errors"
	"fmt"
	"strings"

	"tutorly/internal/models"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// SlotConflictError names the slot tokens already held by another order.
type SlotConflictError struct {
	TeacherID uint
	Slots     []string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("teacher %d slots already reserved: %s", e.TeacherID, strings.Join(e.Slots, ", "))
}

// IsSlotConflict reports whether err is a reservation conflict.
func IsSlotConflict(err error) bool {
	var c *SlotConflictError
	return errors.As(err, &c)
}

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Reserve binds every token to the order in one transaction, or none of
// them. A pre-check names the conflicting tokens for the common case; the
// (teacher_id, slot_token) unique index closes the race window between
// two concurrent confirmations, surfacing as a duplicate-key error that is
// reported as the same conflict.
func (r *ReservationRepository) Reserve(teacherID uint, tokens []string, orderID uint) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		var held []models.ReservedSlot
		if err := tx.Where("teacher_id = ? AND slot_token IN ? AND order_id <> ?", teacherID, tokens, orderID).
			Find(&held).Error; err != nil {
			return err
		}
		if len(held) > 0 {
			conflict := &SlotConflictError{TeacherID: teacherID}
			for _, h := range held {
				conflict.Slots = append(conflict.Slots, h.SlotToken)
			}
			return conflict
		}
		for _, tok := range tokens {
			row := models.ReservedSlot{TeacherID: teacherID, SlotToken: tok, OrderID: orderID}
			if err := tx.Create(&row).Error; err != nil {
				if isDuplicateKey(err) {
					return &SlotConflictError{TeacherID: teacherID, Slots: []string{tok}}
				}
				return err
			}
		}
		return nil
	})
}

// ListByOrder returns the tokens an order holds.
func (r *ReservationRepository) ListByOrder(orderID uint) ([]models.ReservedSlot, error) {
	var rows []models.ReservedSlot
	err := r.db.Where("order_id = ?", orderID).Order("slot_token ASC").Find(&rows).Error
	return rows, err
}

// ReleaseByOrder frees every slot an order holds. Used by the externally
// driven refund/cancel flows.
func (r *ReservationRepository) ReleaseByOrder(orderID uint) error {
	return r.db.Where("order_id = ?", orderID).Delete(&models.ReservedSlot{}).Error
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var my *mysql.MySQLError
	return errors.As(err, &my) && my.Number == 1062
}
