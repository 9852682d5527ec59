package routes

import (
	"errors"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"

	"kitaspaces-server/models"
	"kitaspaces-server/services"
	"kitaspaces-server/storage"
	"kitaspaces-server/utils"
)

var errEventFull = errors.New("event at capacity")

func GetEvents(ctx iris.Context) {
	var events []models.Event
	q := storage.DB.Where("is_published = true")
	if ctx.URLParamDefault("scope", "upcoming") == "upcoming" {
		q = q.Where("date >= ?", time.Now().Truncate(24*time.Hour))
	}
	if err := q.Order("date ASC").Find(&events).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(events)
}

func GetEvent(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var event models.Event
	if err := storage.DB.Where("is_published = true").First(&event, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Event not found", ctx)
		return
	}

	var registered int64
	storage.DB.Model(&models.EventTicket{}).
		Where("event_id = ? AND status <> ?", event.ID, models.TicketStatusCancelled).
		Count(&registered)

	ctx.JSON(iris.Map{
		"event":          event,
		"registered":     registered,
		"spotsRemaining": int64(event.Capacity) - registered,
	})
}

type EventRegistrationInput struct {
	AttendeeName  string `json:"attendeeName" validate:"required,max=120"`
	AttendeeEmail string `json:"attendeeEmail" validate:"required,email"`
}

// RegisterForEvent issues a ticket if the event is published, upcoming
// and under capacity. Capacity is rechecked inside a transaction so two
// racing registrations cannot both take the last spot.
func RegisterForEvent(ctx iris.Context) {
	eventID := ctx.Params().Get("id")

	var input EventRegistrationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var userID *uint
	if v := ctx.Values().Get("userID"); v != nil {
		id := v.(uint)
		userID = &id
	}

	var event models.Event
	if err := storage.DB.Where("is_published = true").First(&event, eventID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Event not found", ctx)
		return
	}
	if event.Date.Before(time.Now().Truncate(24 * time.Hour)) {
		utils.CreateError(iris.StatusUnprocessableEntity, "Unprocessable Entity",
			"Event has already taken place", ctx)
		return
	}

	ticket := models.EventTicket{
		EventID:       event.ID,
		UserID:        userID,
		AttendeeName:  input.AttendeeName,
		AttendeeEmail: strings.ToLower(input.AttendeeEmail),
		ReferenceCode: "EVT-" + strings.ToUpper(utils.GenerateShortToken(4)),
		Status:        models.TicketStatusRegistered,
		Amount:        event.Price,
	}

	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		if event.Capacity > 0 {
			var count int64
			tx.Model(&models.EventTicket{}).
				Where("event_id = ? AND status <> ?", event.ID, models.TicketStatusCancelled).
				Count(&count)
			if count >= int64(event.Capacity) {
				return errEventFull
			}
		}
		return tx.Create(&ticket).Error
	})
	if err == errEventFull {
		utils.CreateError(iris.StatusConflict, "Conflict", "Event is at capacity", ctx)
		return
	}
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if userID != nil {
		go services.NewNotificationService(storage.DB).Notify(*userID, "event_registered",
			"You're registered", "Your ticket for "+event.Title+" is "+ticket.ReferenceCode,
			"event_ticket", ticket.ID)
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(ticket)
}

func GetMyTickets(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var tickets []models.EventTicket
	res := storage.DB.Preload("Event").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tickets)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(tickets)
}

type EventInput struct {
	Title       string  `json:"title" validate:"required,max=160"`
	Description string  `json:"description"`
	Date        string  `json:"date" validate:"required"`
	StartTime   string  `json:"startTime" validate:"required"`
	EndTime     string  `json:"endTime" validate:"required"`
	Location    string  `json:"location" validate:"max=160"`
	Capacity    int     `json:"capacity" validate:"min=0"`
	Price       float64 `json:"price" validate:"min=0"`
	IsPublished *bool   `json:"isPublished"`
	Banner      string  `json:"banner"` // base64 image
}

func eventFromInput(input *EventInput, event *models.Event, ctx iris.Context) bool {
	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid date (expected YYYY-MM-DD)", ctx)
		return false
	}
	start, err := services.ParseClock(input.StartTime)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid startTime (expected HH:MM)", ctx)
		return false
	}
	end, err := services.ParseClock(input.EndTime)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid endTime (expected HH:MM)", ctx)
		return false
	}
	if start >= end {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "startTime must be before endTime", ctx)
		return false
	}

	event.Title = input.Title
	event.Description = input.Description
	event.Date = date
	event.StartTime = input.StartTime
	event.EndTime = input.EndTime
	event.Location = input.Location
	event.Capacity = input.Capacity
	event.Price = input.Price
	if input.IsPublished != nil {
		event.IsPublished = input.IsPublished
	}
	if input.Banner != "" {
		event.BannerURL = storage.UploadBase64Image(input.Banner, "events/"+utils.GenerateShortToken(6))
	}
	return true
}

func AdminCreateEvent(ctx iris.Context) {
	var input EventInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var event models.Event
	if !eventFromInput(&input, &event, ctx) {
		return
	}

	if err := storage.DB.Create(&event).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "event.create", "event", event.ID, nil, event)
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(event)
}

func AdminUpdateEvent(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var event models.Event
	if err := storage.DB.First(&event, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Event not found", ctx)
		return
	}

	var input EventInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	before := event
	if !eventFromInput(&input, &event, ctx) {
		return
	}

	if err := storage.DB.Save(&event).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "event.update", "event", event.ID, before, event)
	ctx.JSON(event)
}

func AdminListEvents(ctx iris.Context) {
	var events []models.Event
	if err := storage.DB.Order("date DESC").Find(&events).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(events)
}

type RedeemTicketInput struct {
	ReferenceCode string `json:"referenceCode" validate:"required"`
}

// AdminRedeemTicket checks an attendee in at the door.
func AdminRedeemTicket(ctx iris.Context) {
	var input RedeemTicketInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var ticket models.EventTicket
	res := storage.DB.Preload("Event").
		Where("reference_code = ?", strings.ToUpper(input.ReferenceCode)).
		First(&ticket)
	if res.Error != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Ticket not found", ctx)
		return
	}

	if ticket.Status != models.TicketStatusRegistered {
		utils.CreateError(iris.StatusUnprocessableEntity, "Unprocessable Entity",
			"Ticket is "+ticket.Status, ctx)
		return
	}

	now := time.Now()
	ticket.Status = models.TicketStatusRedeemed
	ticket.RedeemedAt = &now
	if err := storage.DB.Save(&ticket).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "ticket.redeem", "event_ticket", ticket.ID, nil, ticket)
	ctx.JSON(ticket)
}
