package routes

import (
	"time"

	"github.com/kataras/iris/v12"

	"kitaspaces-server/models"
	"kitaspaces-server/storage"
	"kitaspaces-server/utils"
)

// AdminStats returns the dashboard counters.
func AdminStats(ctx iris.Context) {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	var totalUsers, activeMembers, pendingPayments, pendingMemberships int64
	var todayReservations, upcomingEvents int64
	storage.DB.Model(&models.User{}).Count(&totalUsers)
	storage.DB.Model(&models.Membership{}).
		Where("status = ?", models.MembershipStatusActive).Count(&activeMembers)
	storage.DB.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusSubmitted).Count(&pendingPayments)
	storage.DB.Model(&models.Membership{}).
		Where("status = ?", models.MembershipStatusPending).Count(&pendingMemberships)
	storage.DB.Model(&models.Reservation{}).
		Where("date = ? AND status IN ?", today,
			[]string{models.ReservationStatusPending, models.ReservationStatusConfirmed}).
		Count(&todayReservations)
	storage.DB.Model(&models.Event{}).
		Where("is_published = true AND date >= ?", today).Count(&upcomingEvents)

	var monthRevenue float64
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	storage.DB.Model(&models.Payment{}).
		Where("status = ? AND verified_at >= ?", models.PaymentStatusVerified, monthStart).
		Select("COALESCE(SUM(amount), 0)").Scan(&monthRevenue)

	ctx.JSON(iris.Map{
		"totalUsers":         totalUsers,
		"activeMembers":      activeMembers,
		"pendingPayments":    pendingPayments,
		"pendingMemberships": pendingMemberships,
		"todayReservations":  todayReservations,
		"upcomingEvents":     upcomingEvents,
		"monthRevenue":       monthRevenue,
	})
}

// AdminActivity lists recent audit log entries.
func AdminActivity(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 50)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}

	q := storage.DB.Model(&models.AuditLog{})
	if action := ctx.URLParam("action"); action != "" {
		q = q.Where("action = ?", action)
	}
	if resourceType := ctx.URLParam("resourceType"); resourceType != "" {
		q = q.Where("resource_type = ?", resourceType)
	}

	var total int64
	q.Count(&total)

	var entries []models.AuditLog
	res := q.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&entries)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, entries, page, perPage, total)
}
