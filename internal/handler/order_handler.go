package handler

import (
	"errors"
	"net/http"
	"strconv"

	"tutorly/internal/middleware"
	"tutorly/internal/models"
	"tutorly/pkg/slot"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// OrderStore is the slice of OrderRepository the handler needs.
type OrderStore interface {
	Create(o *models.Order) error
	GetByID(id uint) (*models.Order, error)
}

// ReservationReader exposes the slots an order holds.
type ReservationReader interface {
	ListByOrder(orderID uint) ([]models.ReservedSlot, error)
}

// CalendarReader exposes generated calendars per enrollment and student.
type CalendarReader interface {
	GetByEnrollment(enrollmentID uint) (*models.CalendarEntry, error)
	ListByStudent(studentID uint) ([]models.CalendarEntry, error)
}

type OrderHandler struct {
	orders       OrderStore
	reservations ReservationReader
	calendars    CalendarReader
}

func NewOrderHandler(orders OrderStore, reservations ReservationReader, calendars CalendarReader) *OrderHandler {
	return &OrderHandler{orders: orders, reservations: reservations, calendars: calendars}
}

type createOrderRequest struct {
	TeacherID       uint     `json:"teacher_id" binding:"required"`
	GrossAmount     int64    `json:"gross_amount" binding:"required"`
	DiscountAmount  int64    `json:"discount_amount"`
	TotalAmount     int64    `json:"total_amount" binding:"required"`
	Currency        string   `json:"currency"`
	Lessons         int      `json:"lessons" binding:"required"`
	LessonsPerWeek  int      `json:"lessons_per_week"`
	LessonLengthMin int      `json:"lesson_length_min" binding:"required"`
	PreferredSlots  []string `json:"preferred_slots"`
	Timezone        string   `json:"timezone"`
}

// Create records a purchase intent as a pending order. Slot tokens are
// validated up front so a malformed token never reaches confirmation.
func (h *OrderHandler) Create(c *gin.Context) {
	studentID := middleware.GetUserID(c)
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order payload"})
		return
	}
	for _, tok := range req.PreferredSlots {
		if _, err := slot.ParseToken(tok); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid slot token: " + tok})
			return
		}
	}
	order := &models.Order{
		TeacherID:       req.TeacherID,
		StudentID:       studentID,
		Status:          models.OrderStatusPending,
		GrossAmount:     req.GrossAmount,
		DiscountAmount:  req.DiscountAmount,
		TotalAmount:     req.TotalAmount,
		Currency:        req.Currency,
		Lessons:         req.Lessons,
		LessonsPerWeek:  req.LessonsPerWeek,
		LessonLengthMin: req.LessonLengthMin,
		Timezone:        req.Timezone,
	}
	if order.Currency == "" {
		order.Currency = "VND"
	}
	order.SetSlotTokens(req.PreferredSlots)
	if err := h.orders.Create(order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order creation failed"})
		return
	}
	c.JSON(http.StatusCreated, order)
}

// Status reports the order's payment state plus a derived schedule state:
// a paid order that requested slots but holds none is "paid_unscheduled"
// and needs manual follow-up. The derived state is never stored on the
// order itself.
func (h *OrderHandler) Status(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := h.orders.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order lookup failed"})
		return
	}

	scheduleState := ""
	reserved := []string{}
	if order.Status == models.OrderStatusPaid && len(order.SlotTokens()) > 0 {
		rows, err := h.reservations.ListByOrder(order.ID)
		if err == nil {
			for _, row := range rows {
				reserved = append(reserved, row.SlotToken)
			}
			if len(rows) > 0 {
				scheduleState = "scheduled"
			} else {
				scheduleState = "paid_unscheduled"
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":       order.ID,
		"status":         order.Status,
		"payment_method": order.PaymentMethod,
		"payment_ref":    order.PaymentRef,
		"total":          order.TotalAmount,
		"currency":       order.Currency,
		"schedule_state": scheduleState,
		"reserved_slots": reserved,
	})
}

// Calendar returns the generated lesson calendar for an enrollment.
func (h *OrderHandler) Calendar(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	entry, err := h.calendars.GetByEnrollment(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no calendar for order"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "calendar lookup failed"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// StudentCalendar returns every generated calendar for the calling
// student, ordered by start date.
func (h *OrderHandler) StudentCalendar(c *gin.Context) {
	studentID := middleware.GetUserID(c)
	entries, err := h.calendars.ListByStudent(studentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "calendar lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calendars": entries})
}
