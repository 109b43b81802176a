package handler

import (
	"errors"
	"net/http"
	"strconv"

	"tutorly/internal/middleware"
	"tutorly/internal/models"
	"tutorly/internal/repository"
	"tutorly/pkg/slot"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AvailabilityHandler struct {
	availability *repository.AvailabilityRepository
}

func NewAvailabilityHandler(availability *repository.AvailabilityRepository) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

type clockInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type availabilityRequest struct {
	LessonLengthMin int                        `json:"lesson_length_min" binding:"required"`
	Week            map[string][]clockInterval `json:"week"`
}

// Upsert validates and stores the calling teacher's weekly grid. Off-grid
// or non-multiple intervals reject the whole request with the offending
// weekday and interval; degenerate intervals are dropped silently.
func (h *AvailabilityHandler) Upsert(c *gin.Context) {
	teacherID := middleware.GetUserID(c)
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lesson_length_min and week required"})
		return
	}
	week := map[int][]slot.Interval{}
	for day, intervals := range req.Week {
		wd, ok := slot.WeekdayIndex(day)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown weekday: " + day})
			return
		}
		for _, iv := range intervals {
			start, err := slot.ParseClock(iv.Start)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time: " + iv.Start})
				return
			}
			end, err := slot.ParseClock(iv.End)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time: " + iv.End})
				return
			}
			week[wd] = append(week[wd], slot.Interval{StartMin: start, EndMin: end})
		}
	}

	sanitized, violations := slot.Sanitize(week, slot.PolicyForLessonLength(req.LessonLengthMin))
	if len(violations) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": violations})
		return
	}
	a := &models.TeacherAvailability{TeacherID: teacherID, LessonLengthMin: req.LessonLengthMin}
	a.SetWeekIntervals(sanitized)
	if err := h.availability.Upsert(a); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "availability update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"teacher_id": teacherID, "week": sanitized})
}

// Get returns a teacher's sanitized weekly availability.
func (h *AvailabilityHandler) Get(c *gin.Context) {
	teacherID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid teacher id"})
		return
	}
	a, err := h.availability.GetByTeacher(uint(teacherID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no availability for teacher"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "availability lookup failed"})
		return
	}
	week, err := a.WeekIntervals()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "availability decode failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"teacher_id":        a.TeacherID,
		"lesson_length_min": a.LessonLengthMin,
		"week":              week,
	})
}

type matchRequest struct {
	Weekdays []string        `json:"weekdays"`
	Ranges   []clockInterval `json:"ranges"`
}

// Match reports whether the teacher has any availability overlapping the
// desired weekdays and time ranges (both optional, empty = all). Used for
// search filtering; double-booking prevention lives in reservations.
func (h *AvailabilityHandler) Match(c *gin.Context) {
	teacherID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid teacher id"})
		return
	}
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
		return
	}
	var weekdays []int
	for _, day := range req.Weekdays {
		wd, ok := slot.WeekdayIndex(day)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown weekday: " + day})
			return
		}
		weekdays = append(weekdays, wd)
	}
	var ranges []slot.Interval
	for _, iv := range req.Ranges {
		start, err := slot.ParseClock(iv.Start)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time: " + iv.Start})
			return
		}
		end, err := slot.ParseClock(iv.End)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time: " + iv.End})
			return
		}
		ranges = append(ranges, slot.Interval{StartMin: start, EndMin: end})
	}

	a, err := h.availability.GetByTeacher(uint(teacherID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"match": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "availability lookup failed"})
		return
	}
	week, err := a.WeekIntervals()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "availability decode failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": slot.Matches(week, weekdays, ranges)})
}
