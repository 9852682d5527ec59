package routes

import (
	"time"

	"github.com/kataras/iris/v12"

	"kitaspaces-server/models"
	"kitaspaces-server/services"
	"kitaspaces-server/storage"
	"kitaspaces-server/utils"
)

// Guest (walk-in customer) booking: no account required, contact details
// instead. Shares the same conflict domain as member bookings.

type CustomerReservationInput struct {
	RoomID        uint   `json:"roomID" validate:"required"`
	Date          string `json:"date" validate:"required"`
	StartTime     string `json:"startTime" validate:"required"`
	DurationHours int    `json:"durationHours" validate:"required,min=1,max=8"`
	CustomerName  string `json:"customerName" validate:"required,max=120"`
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
	CustomerPhone string `json:"customerPhone" validate:"required,max=32"`
	Attendees     int    `json:"attendees" validate:"min=0"`
	Purpose       string `json:"purpose"`
	CouponCode    string `json:"couponCode"`
}

func CreateCustomerReservation(ctx iris.Context) {
	var input CustomerReservationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid date (expected YYYY-MM-DD)", ctx)
		return
	}

	if !utils.ValidatePhoneNumber(input.CustomerPhone) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "customerPhone must be a valid phone number", ctx)
		return
	}

	discount, couponID := resolveCoupon(input.CouponCode, input.RoomID, input.DurationHours)

	result, err := newBookingService().Create(services.CreateBookingInput{
		RoomID:        input.RoomID,
		Date:          date,
		StartTime:     input.StartTime,
		DurationHours: input.DurationHours,
		SourceKind:    models.SourceKindCustomer,
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		CustomerPhone: utils.FormatPhoneNumber(input.CustomerPhone),
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

	response := iris.Map{"reservation": result.Reservation}
	if result.CapacityWarning != "" {
		response["capacityWarning"] = result.CapacityWarning
	}
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(response)
}

// LookupReservation lets a guest retrieve their booking with the
// reference code plus the email it was made under.
func LookupReservation(ctx iris.Context) {
	reference := ctx.URLParam("reference")
	email := ctx.URLParam("email")
	if reference == "" || email == "" {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "reference and email are required", ctx)
		return
	}

	var reservation models.Reservation
	res := storage.DB.Preload("Room").Preload("Payment").
		Where("reference_code = ? AND customer_email = ?", reference, email).
		First(&reservation)
	if res.Error != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "No reservation matches that reference", ctx)
		return
	}

	ctx.JSON(reservation)
}
