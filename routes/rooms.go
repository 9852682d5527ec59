package routes

import (
	"time"

	"github.com/kataras/iris/v12"

	"kitaspaces-server/models"
	"kitaspaces-server/storage"
	"kitaspaces-server/utils"
)

// Public room catalog

func GetRooms(ctx iris.Context) {
	var rooms []models.Room
	if err := storage.DB.Where("is_active = ?", true).Order("name ASC").Find(&rooms).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(rooms)
}

func GetRoom(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var room models.Room
	if err := storage.DB.First(&room, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Room not found", ctx)
		return
	}

	ctx.JSON(room)
}

// GetRoomSchedule lists a room's active reservations for a date so the
// booking page can render the day's occupancy.
func GetRoomSchedule(ctx iris.Context) {
	id := ctx.Params().Get("id")

	dateStr := ctx.URLParam("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid or missing date (expected YYYY-MM-DD)", ctx)
		return
	}

	var reservations []models.Reservation
	res := storage.DB.
		Select("id, start_time, end_time, status, number_of_attendees").
		Where("room_id = ? AND date = ? AND status <> ?", id, date, models.ReservationStatusCancelled).
		Order("start_time ASC").
		Find(&reservations)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(reservations)
}
