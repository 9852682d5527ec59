package routes

import (
	"errors"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"

	"kitaspaces-server/models"
	"kitaspaces-server/services"
	"kitaspaces-server/storage"
	"kitaspaces-server/utils"
)

// Member self-service booking endpoints.

func newBookingService() *services.BookingService {
	return services.NewBookingService(storage.NewReservationStore(), storage.NewRoomCatalog(), services.DefaultScheduleConfig)
}

// handleBookingError maps the engine's typed failures to HTTP responses.
// Returns true when it wrote a response.
func handleBookingError(err error, ctx iris.Context) bool {
	if err == nil {
		return false
	}

	var conflict *services.ConflictError
	if errors.As(err, &conflict) {
		ctx.StatusCode(iris.StatusConflict)
		ctx.JSON(iris.Map{
			"error":                 "Overlapping Booking",
			"message":               "The requested time overlaps an existing reservation",
			"conflictReservationID": conflict.ReservationID,
		})
		return true
	}

	var transition *services.InvalidTransitionError
	if errors.As(err, &transition) {
		utils.CreateError(iris.StatusUnprocessableEntity, "Invalid Status Transition", transition.Error(), ctx)
		return true
	}

	switch {
	case errors.Is(err, services.ErrRoomNotFound), errors.Is(err, services.ErrReservationNotFound):
		utils.CreateError(iris.StatusNotFound, "Not Found", err.Error(), ctx)
	case errors.Is(err, services.ErrRoomInactive),
		errors.Is(err, services.ErrOutOfOperatingHours),
		errors.Is(err, services.ErrInvalidDuration),
		errors.Is(err, services.ErrPastDate),
		errors.Is(err, services.ErrRoomCapacity),
		errors.Is(err, services.ErrReservationClosed),
		errors.Is(err, services.ErrInvalidDeleteState):
		utils.CreateError(iris.StatusUnprocessableEntity, "Booking Error", err.Error(), ctx)
	default:
		utils.CreateInternalServerError(ctx)
	}
	return true
}

type MemberReservationInput struct {
	RoomID        uint   `json:"roomID" validate:"required"`
	Date          string `json:"date" validate:"required"`
	StartTime     string `json:"startTime" validate:"required"`
	DurationHours int    `json:"durationHours" validate:"required,min=1,max=8"`
	Attendees     int    `json:"attendees" validate:"min=0"`
	Purpose       string `json:"purpose"`
	CouponCode    string `json:"couponCode"`
}

func CreateMemberReservation(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input MemberReservationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid date (expected YYYY-MM-DD)", ctx)
		return
	}

	discount, couponID := resolveCoupon(input.CouponCode, input.RoomID, input.DurationHours)

	userID := claims.ID
	result, err := newBookingService().Create(services.CreateBookingInput{
		RoomID:        input.RoomID,
		Date:          date,
		StartTime:     input.StartTime,
		DurationHours: input.DurationHours,
		SourceKind:    models.SourceKindMember,
		UserID:        &userID,
		Attendees:     input.Attendees,
		Purpose:       input.Purpose,
		Discount:      discount,
	})
	if handleBookingError(err, ctx) {
		return
	}

	if couponID != 0 {
		bumpCouponRedemptions(couponID)
	}

	var room models.Room
	storage.DB.First(&room, input.RoomID)
	go services.NewNotificationService(storage.DB).NotifyReservationCreated(result.Reservation, room.Name)

	response := iris.Map{"reservation": result.Reservation}
	if result.CapacityWarning != "" {
		response["capacityWarning"] = result.CapacityWarning
	}
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(response)
}

func bumpCouponRedemptions(couponID uint) {
	storage.DB.Model(&models.Coupon{}).Where("id = ?", couponID).
		Update("redemptions", gorm.Expr("redemptions + 1"))
}

// resolveCoupon returns the discount for a booking total and the coupon
// row id to bump on success. Invalid codes discount nothing; the booking
// proceeds at full price.
func resolveCoupon(code string, roomID uint, durationHours int) (float64, uint) {
	if code == "" {
		return 0, 0
	}
	var coupon models.Coupon
	if err := storage.DB.Where("code = ?", code).First(&coupon).Error; err != nil {
		return 0, 0
	}
	var room models.Room
	if err := storage.DB.First(&room, roomID).Error; err != nil {
		return 0, 0
	}
	total := room.HourlyRate * float64(durationHours)
	off := coupon.Discount(total)
	if off <= 0 {
		return 0, 0
	}
	return off, coupon.ID
}

func GetMyReservations(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var reservations []models.Reservation
	res := storage.DB.Preload("Room").Preload("Payment").
		Where("user_id = ?", claims.ID).
		Order("date DESC, start_time DESC").
		Find(&reservations)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(reservations)
}

// requireOwnReservation loads the reservation and confirms the caller
// owns it.
func requireOwnReservation(ctx iris.Context) *models.Reservation {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	id := ctx.Params().Get("id")

	var reservation models.Reservation
	if err := storage.DB.First(&reservation, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Reservation not found", ctx)
		return nil
	}
	if reservation.UserID == nil || *reservation.UserID != claims.ID {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"error": "forbidden", "message": "not your reservation"})
		return nil
	}
	return &reservation
}

type RescheduleInput struct {
	Date          string `json:"date" validate:"required"`
	StartTime     string `json:"startTime" validate:"required"`
	DurationHours int    `json:"durationHours" validate:"required,min=1,max=8"`
}

func RescheduleMyReservation(ctx iris.Context) {
	reservation := requireOwnReservation(ctx)
	if reservation == nil {
		return
	}

	var input RescheduleInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid date (expected YYYY-MM-DD)", ctx)
		return
	}

	updated, err := newBookingService().Reschedule(reservation.ID, date, input.StartTime, input.DurationHours)
	if handleBookingError(err, ctx) {
		return
	}

	ctx.JSON(updated)
}

type CancelReservationInput struct {
	Reason string `json:"reason"`
}

func CancelMyReservation(ctx iris.Context) {
	reservation := requireOwnReservation(ctx)
	if reservation == nil {
		return
	}

	var input CancelReservationInput
	ctx.ReadJSON(&input) // body optional

	updated, err := newBookingService().SetStatus(reservation.ID, models.ReservationStatusCancelled, input.Reason)
	if handleBookingError(err, ctx) {
		return
	}

	go services.NewNotificationService(storage.DB).NotifyReservationStatus(updated)

	ctx.JSON(updated)
}
