package routes

import (
	"time"

	"github.com/kataras/iris/v12"

	"kitaspaces-server/models"
	"kitaspaces-server/services"
	"kitaspaces-server/storage"
	"kitaspaces-server/utils"
)

// Availability endpoints: the read side of the scheduling engine. These
// never reject a proposal; the authoritative conflict check happens at
// booking commit time.

func scheduleConfigFromQuery(ctx iris.Context) services.ScheduleConfig {
	cfg := services.DefaultScheduleConfig
	if g, err := ctx.URLParamInt("granularity"); err == nil && g >= 5 && g <= 120 {
		cfg.SlotInterval = time.Duration(g) * time.Minute
	}
	return cfg
}

// GetRoomAvailability returns the slot grid for a room and date, each
// slot flagged selectable-as-start or not.
func GetRoomAvailability(ctx iris.Context) {
	roomID := ctx.Params().Get("roomID")

	dateStr := ctx.URLParam("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid or missing date (expected YYYY-MM-DD)", ctx)
		return
	}

	var room models.Room
	if err := storage.DB.First(&room, roomID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Room not found", ctx)
		return
	}

	var reservations []models.Reservation
	if err := storage.DB.
		Where("room_id = ? AND date = ? AND status <> ?", room.ID, date, models.ReservationStatusCancelled).
		Find(&reservations).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	slots, err := services.ComputeAvailability(room, reservations, scheduleConfigFromQuery(ctx))
	if err != nil {
		utils.CreateError(iris.StatusUnprocessableEntity, "Schedule Error", err.Error(), ctx)
		return
	}

	ctx.JSON(iris.Map{
		"roomID": room.ID,
		"date":   dateStr,
		"slots":  slots,
	})
}

// GetMaxDuration reports the longest bookable session starting at the
// given time, in whole hours.
func GetMaxDuration(ctx iris.Context) {
	roomID := ctx.Params().Get("roomID")

	dateStr := ctx.URLParam("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid or missing date (expected YYYY-MM-DD)", ctx)
		return
	}

	start := ctx.URLParam("start")
	if _, err := services.ParseClock(start); err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid or missing start (expected HH:MM)", ctx)
		return
	}

	var room models.Room
	if err := storage.DB.First(&room, roomID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Room not found", ctx)
		return
	}

	var reservations []models.Reservation
	if err := storage.DB.
		Where("room_id = ? AND date = ? AND status <> ?", room.ID, date, models.ReservationStatusCancelled).
		Find(&reservations).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	maxHours, err := services.MaxDuration(room, start, reservations, services.DefaultScheduleConfig)
	if err != nil {
		utils.CreateError(iris.StatusUnprocessableEntity, "Schedule Error", err.Error(), ctx)
		return
	}

	ctx.JSON(iris.Map{
		"roomID":   room.ID,
		"date":     dateStr,
		"start":    start,
		"maxHours": maxHours,
	})
}
