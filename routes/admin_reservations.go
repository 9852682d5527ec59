package routes

import (
	"time"

	"github.com/kataras/iris/v12"

	"kitaspaces-server/models"
	"kitaspaces-server/services"
	"kitaspaces-server/storage"
	"kitaspaces-server/utils"
)

// Admin reservation management. Admin creation is the relaxed variant:
// it may confirm directly (payment settled on site) and may book past
// dates for backfilled records, but it runs through the same conflict
// and lifecycle engine as every other entry point.

func AdminListReservations(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	q := storage.DB.Model(&models.Reservation{})
	if status := ctx.URLParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if kind := ctx.URLParam("sourceKind"); kind != "" {
		q = q.Where("source_kind = ?", kind)
	}
	if roomID := ctx.URLParam("roomID"); roomID != "" {
		q = q.Where("room_id = ?", roomID)
	}
	if dateStr := ctx.URLParam("date"); dateStr != "" {
		if date, err := time.Parse("2006-01-02", dateStr); err == nil {
			q = q.Where("date = ?", date)
		}
	}

	var total int64
	q.Count(&total)

	var reservations []models.Reservation
	res := q.Preload("Room").Preload("User").Preload("Payment").
		Order("date DESC, start_time DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&reservations)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, reservations, page, perPage, total)
}

func AdminGetReservation(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var reservation models.Reservation
	res := storage.DB.Preload("Room").Preload("User").Preload("Payment").First(&reservation, id)
	if res.Error != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Reservation not found", ctx)
		return
	}

	ctx.JSON(reservation)
}

type AdminReservationInput struct {
	RoomID        uint   `json:"roomID" validate:"required"`
	Date          string `json:"date" validate:"required"`
	StartTime     string `json:"startTime" validate:"required"`
	DurationHours int    `json:"durationHours" validate:"required,min=1,max=8"`
	SourceKind    string `json:"sourceKind" validate:"required,oneof=member customer"`
	UserID        *uint  `json:"userID"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`
	Attendees     int    `json:"attendees" validate:"min=0"`
	Purpose       string `json:"purpose"`
	Discount      float64 `json:"discount" validate:"min=0"`
	DirectConfirm bool   `json:"directConfirm"`
	AllowPastDate bool   `json:"allowPastDate"`
}

func AdminCreateReservation(ctx iris.Context) {
	var input AdminReservationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid date (expected YYYY-MM-DD)", ctx)
		return
	}

	result, err := newBookingService().Create(services.CreateBookingInput{
		RoomID:        input.RoomID,
		Date:          date,
		StartTime:     input.StartTime,
		DurationHours: input.DurationHours,
		SourceKind:    input.SourceKind,
		UserID:        input.UserID,
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		CustomerPhone: utils.FormatPhoneNumber(input.CustomerPhone),
		Attendees:     input.Attendees,
		Purpose:       input.Purpose,
		Discount:      input.Discount,
		DirectConfirm: input.DirectConfirm,
		AllowPastDate: input.AllowPastDate,
	})
	if handleBookingError(err, ctx) {
		return
	}

	utils.Audit(ctx, "reservation.create", "reservation", result.Reservation.ID, nil, result.Reservation)

	response := iris.Map{"reservation": result.Reservation}
	if result.CapacityWarning != "" {
		response["capacityWarning"] = result.CapacityWarning
	}
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(response)
}

type AdminReservationStatusInput struct {
	Status string `json:"status" validate:"required,oneof=confirmed completed cancelled no_show"`
	Reason string `json:"reason"`
}

func AdminUpdateReservationStatus(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid reservation id", ctx)
		return
	}

	var input AdminReservationStatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var before models.Reservation
	if err := storage.DB.First(&before, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Reservation not found", ctx)
		return
	}

	updated, err := newBookingService().SetStatus(id, input.Status, input.Reason)
	if handleBookingError(err, ctx) {
		return
	}

	utils.Audit(ctx, "reservation.set_status", "reservation", updated.ID, before, updated)
	go services.NewNotificationService(storage.DB).NotifyReservationStatus(updated)

	ctx.JSON(updated)
}

func AdminRescheduleReservation(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid reservation id", ctx)
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

	var before models.Reservation
	if err := storage.DB.First(&before, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Reservation not found", ctx)
		return
	}

	updated, err := newBookingService().Reschedule(id, date, input.StartTime, input.DurationHours)
	if handleBookingError(err, ctx) {
		return
	}

	utils.Audit(ctx, "reservation.reschedule", "reservation", updated.ID, before, updated)
	ctx.JSON(updated)
}

// AdminDeleteReservation permanently removes a reservation. The engine
// only allows this from cancelled.
func AdminDeleteReservation(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid reservation id", ctx)
		return
	}

	var before models.Reservation
	if err := storage.DB.First(&before, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Reservation not found", ctx)
		return
	}

	if err := newBookingService().Delete(id); handleBookingError(err, ctx) {
		return
	}

	utils.Audit(ctx, "reservation.delete", "reservation", id, before, nil)
	ctx.JSON(iris.Map{"success": true})
}

func AdminCheckInReservation(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid reservation id", ctx)
		return
	}

	updated, err := newBookingService().CheckIn(id)
	if handleBookingError(err, ctx) {
		return
	}

	utils.Audit(ctx, "reservation.check_in", "reservation", updated.ID, nil, updated)
	ctx.JSON(updated)
}

func AdminCheckOutReservation(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid reservation id", ctx)
		return
	}

	updated, err := newBookingService().CheckOut(id)
	if handleBookingError(err, ctx) {
		return
	}

	utils.Audit(ctx, "reservation.check_out", "reservation", updated.ID, nil, updated)
	go services.NewNotificationService(storage.DB).NotifyReservationStatus(updated)

	ctx.JSON(updated)
}
