package routes

import (
	"encoding/json"
	"time"

	"github.com/kataras/iris/v12"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"kitaspaces-server/models"
	"kitaspaces-server/services"
	"kitaspaces-server/storage"
	"kitaspaces-server/utils"
)

func GetMembershipPlans(ctx iris.Context) {
	var plans []models.MembershipPlan
	if err := storage.DB.Where("is_active = true").Order("monthly_price ASC").Find(&plans).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(plans)
}

type MembershipSignUpInput struct {
	PlanID uint `json:"planID" validate:"required"`
}

// SignUpForMembership creates a pending membership. It activates once an
// admin approves it, normally after the first payment is verified.
func SignUpForMembership(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input MembershipSignUpInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var plan models.MembershipPlan
	if err := storage.DB.Where("is_active = true").First(&plan, input.PlanID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Plan not found", ctx)
		return
	}

	var existing models.Membership
	res := storage.DB.Where("user_id = ? AND status IN ?", userID,
		[]string{models.MembershipStatusPending, models.MembershipStatusActive}).
		First(&existing)
	if res.Error == nil {
		utils.CreateError(iris.StatusConflict, "Conflict",
			"You already have a "+existing.Status+" membership", ctx)
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	membership := models.Membership{
		UserID:   userID,
		PlanID:   plan.ID,
		Status:   models.MembershipStatusPending,
		StartsOn: today,
		EndsOn:   today.AddDate(0, 1, 0),
	}
	if err := storage.DB.Create(&membership).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	membership.Plan = &plan
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(membership)
}

func GetMyMembership(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var membership models.Membership
	res := storage.DB.Preload("Plan").
		Where("user_id = ? AND status IN ?", userID,
			[]string{models.MembershipStatusPending, models.MembershipStatusActive}).
		Order("created_at DESC").
		First(&membership)
	if res.Error != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "No current membership", ctx)
		return
	}

	remaining := 0
	if membership.Plan != nil {
		remaining = membership.Plan.MeetingRoomHours - membership.HoursUsed
		if remaining < 0 {
			remaining = 0
		}
	}

	ctx.JSON(iris.Map{
		"membership":     membership,
		"hoursRemaining": remaining,
	})
}

type PerkBookingInput struct {
	RoomID        uint   `json:"roomID" validate:"required"`
	Date          string `json:"date" validate:"required"`
	StartTime     string `json:"startTime" validate:"required"`
	DurationHours int    `json:"durationHours" validate:"required,min=1,max=8"`
	Attendees     int    `json:"attendees" validate:"min=0"`
	Purpose       string `json:"purpose"`
}

// RedeemPerkHours books a meeting room against the member's free plan
// hours. The booking is confirmed immediately with no amount due; hours
// are deducted only after the booking succeeds.
func RedeemPerkHours(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input PerkBookingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid date (expected YYYY-MM-DD)", ctx)
		return
	}

	var membership models.Membership
	res := storage.DB.Preload("Plan").
		Where("user_id = ? AND status = ?", userID, models.MembershipStatusActive).
		First(&membership)
	if res.Error != nil {
		utils.CreateError(iris.StatusUnprocessableEntity, "Unprocessable Entity",
			"An active membership is required", ctx)
		return
	}

	remaining := membership.Plan.MeetingRoomHours - membership.HoursUsed
	if input.DurationHours > remaining {
		utils.CreateError(iris.StatusUnprocessableEntity, "Unprocessable Entity",
			"Not enough perk hours remaining", ctx)
		return
	}

	var room models.Room
	if err := storage.DB.First(&room, input.RoomID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Room not found", ctx)
		return
	}

	result, err := newBookingService().Create(services.CreateBookingInput{
		RoomID:        input.RoomID,
		Date:          date,
		StartTime:     input.StartTime,
		DurationHours: input.DurationHours,
		SourceKind:    models.SourceKindMember,
		UserID:        &userID,
		Attendees:     input.Attendees,
		Purpose:       input.Purpose,
		Discount:      room.HourlyRate * float64(input.DurationHours),
		DirectConfirm: true,
	})
	if handleBookingError(err, ctx) {
		return
	}

	storage.DB.Model(&models.Membership{}).Where("id = ?", membership.ID).
		Update("hours_used", gorm.Expr("hours_used + ?", input.DurationHours))

	go services.NewNotificationService(storage.DB).NotifyReservationCreated(result.Reservation, room.Name)

	response := iris.Map{
		"reservation":    result.Reservation,
		"hoursRemaining": remaining - input.DurationHours,
	}
	if result.CapacityWarning != "" {
		response["capacityWarning"] = result.CapacityWarning
	}
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(response)
}

func AdminListMemberships(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	q := storage.DB.Model(&models.Membership{})
	if status := ctx.URLParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	q.Count(&total)

	var memberships []models.Membership
	res := q.Preload("User").Preload("Plan").
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&memberships)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, memberships, page, perPage, total)
}

func setMembershipStatus(ctx iris.Context, from, to, action string) {
	id := ctx.Params().Get("id")

	var membership models.Membership
	if err := storage.DB.Preload("Plan").First(&membership, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Membership not found", ctx)
		return
	}

	if membership.Status != from {
		utils.CreateError(iris.StatusUnprocessableEntity, "Unprocessable Entity",
			"Membership is "+membership.Status+", expected "+from, ctx)
		return
	}

	before := membership
	membership.Status = to
	if to == models.MembershipStatusActive {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		membership.StartsOn = today
		membership.EndsOn = today.AddDate(0, 1, 0)
	}
	if err := storage.DB.Save(&membership).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, action, "membership", membership.ID, before, membership)

	planName := ""
	if membership.Plan != nil {
		planName = membership.Plan.Name
	}
	go services.NewNotificationService(storage.DB).NotifyMembershipStatus(&membership, planName)

	ctx.JSON(membership)
}

func AdminApproveMembership(ctx iris.Context) {
	setMembershipStatus(ctx, models.MembershipStatusPending, models.MembershipStatusActive, "membership.approve")
}

func AdminRejectMembership(ctx iris.Context) {
	setMembershipStatus(ctx, models.MembershipStatusPending, models.MembershipStatusRejected, "membership.reject")
}

func AdminCancelMembership(ctx iris.Context) {
	setMembershipStatus(ctx, models.MembershipStatusActive, models.MembershipStatusCancelled, "membership.cancel")
}

type MembershipPlanInput struct {
	Name             string   `json:"name" validate:"required,max=120"`
	Description      string   `json:"description"`
	MonthlyPrice     float64  `json:"monthlyPrice" validate:"required,min=0"`
	Perks            []string `json:"perks"`
	MeetingRoomHours int      `json:"meetingRoomHours" validate:"min=0"`
	IsActive         *bool    `json:"isActive"`
}

func planFromInput(input *MembershipPlanInput, plan *models.MembershipPlan) {
	plan.Name = input.Name
	plan.Description = input.Description
	plan.MonthlyPrice = input.MonthlyPrice
	plan.MeetingRoomHours = input.MeetingRoomHours
	if input.IsActive != nil {
		plan.IsActive = input.IsActive
	}
	if input.Perks != nil {
		raw, _ := json.Marshal(input.Perks)
		plan.Perks = datatypes.JSON(raw)
	}
}

func AdminCreatePlan(ctx iris.Context) {
	var input MembershipPlanInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var plan models.MembershipPlan
	planFromInput(&input, &plan)

	if err := storage.DB.Create(&plan).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "plan.create", "membership_plan", plan.ID, nil, plan)
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(plan)
}

func AdminUpdatePlan(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var plan models.MembershipPlan
	if err := storage.DB.First(&plan, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Plan not found", ctx)
		return
	}

	var input MembershipPlanInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	before := plan
	planFromInput(&input, &plan)

	if err := storage.DB.Save(&plan).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "plan.update", "membership_plan", plan.ID, before, plan)
	ctx.JSON(plan)
}
