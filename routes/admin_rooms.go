package routes

import (
	"github.com/kataras/iris/v12"

	"kitaspaces-server/models"
	"kitaspaces-server/services"
	"kitaspaces-server/storage"
	"kitaspaces-server/utils"
)

type RoomInput struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Description string  `json:"description"`
	OpenTime    string  `json:"openTime" validate:"required"`
	CloseTime   string  `json:"closeTime" validate:"required"`
	HourlyRate  float64 `json:"hourlyRate" validate:"required,min=0"`
	Capacity    int     `json:"capacity" validate:"required,min=1"`
	Photo       string  `json:"photo"` // base64 image, optional
}

func validateOperatingWindow(input RoomInput, ctx iris.Context) bool {
	open, err := services.ParseClock(input.OpenTime)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "openTime must be HH:MM", ctx)
		return false
	}
	closeAt, err := services.ParseClock(input.CloseTime)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "closeTime must be HH:MM", ctx)
		return false
	}
	if open >= closeAt {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "openTime must be before closeTime", ctx)
		return false
	}
	return true
}

func AdminListRooms(ctx iris.Context) {
	var rooms []models.Room
	if err := storage.DB.Order("name ASC").Find(&rooms).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(rooms)
}

func AdminCreateRoom(ctx iris.Context) {
	var input RoomInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if !validateOperatingWindow(input, ctx) {
		return
	}

	room := models.Room{
		Name:        input.Name,
		Description: input.Description,
		OpenTime:    input.OpenTime,
		CloseTime:   input.CloseTime,
		HourlyRate:  input.HourlyRate,
		Capacity:    input.Capacity,
	}

	if input.Photo != "" {
		room.PhotoURL = storage.UploadBase64Image(input.Photo, "room_"+utils.GenerateShortToken(6))
	}

	if err := storage.DB.Create(&room).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "room.create", "room", room.ID, nil, room)
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(room)
}

func AdminUpdateRoom(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var input RoomInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if !validateOperatingWindow(input, ctx) {
		return
	}

	var room models.Room
	if err := storage.DB.First(&room, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Room not found", ctx)
		return
	}
	before := room

	room.Name = input.Name
	room.Description = input.Description
	room.OpenTime = input.OpenTime
	room.CloseTime = input.CloseTime
	room.HourlyRate = input.HourlyRate
	room.Capacity = input.Capacity

	if input.Photo != "" {
		if room.PhotoURL != "" {
			storage.DeleteImage(room.PhotoURL)
		}
		room.PhotoURL = storage.UploadBase64Image(input.Photo, "room_"+utils.GenerateShortToken(6))
	}

	if err := storage.DB.Save(&room).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "room.update", "room", room.ID, before, room)
	ctx.JSON(room)
}

type RoomActiveInput struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

func AdminSetRoomActive(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var input RoomActiveInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var room models.Room
	if err := storage.DB.First(&room, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Room not found", ctx)
		return
	}
	before := room

	room.IsActive = input.IsActive
	if err := storage.DB.Save(&room).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "room.set_active", "room", room.ID, before, room)
	ctx.JSON(room)
}

// AdminDeleteRoom soft-deletes a room. Its past reservations keep their
// room_id for reporting.
func AdminDeleteRoom(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var room models.Room
	if err := storage.DB.First(&room, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Room not found", ctx)
		return
	}

	var upcoming int64
	storage.DB.Model(&models.Reservation{}).
		Where("room_id = ? AND status IN ? AND date >= CURRENT_DATE",
			room.ID, []string{models.ReservationStatusPending, models.ReservationStatusConfirmed}).
		Count(&upcoming)
	if upcoming > 0 {
		utils.CreateError(iris.StatusConflict, "Conflict", "Room still has upcoming reservations", ctx)
		return
	}

	if err := storage.DB.Delete(&room).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "room.delete", "room", room.ID, room, nil)
	ctx.JSON(iris.Map{"success": true})
}
