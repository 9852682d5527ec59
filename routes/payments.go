package routes

import (
	"time"

	"github.com/kataras/iris/v12"

	"kitaspaces-server/models"
	"kitaspaces-server/services"
	"kitaspaces-server/storage"
	"kitaspaces-server/utils"
)

type PaymentProofInput struct {
	ReferenceType string  `json:"referenceType" validate:"required,oneof=reservation membership event_ticket"`
	ReferenceID   uint    `json:"referenceID" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,min=0"`
	Method        string  `json:"method" validate:"required,oneof=bank_transfer gcash cash"`
	Proof         string  `json:"proof" validate:"required"` // base64 image
	Notes         string  `json:"notes"`
}

// SubmitPaymentProof uploads a proof image and records a payment awaiting
// manual verification. Reservation payments are linked back so that a
// later cancellation can void them.
func SubmitPaymentProof(ctx iris.Context) {
	var input PaymentProofInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	userID := ctx.Values().Get("userID").(uint)

	proofURL := storage.UploadBase64Image(input.Proof, "payments/"+utils.GenerateShortToken(8))
	if proofURL == "" {
		utils.CreateInternalServerError(ctx)
		return
	}

	payment := models.Payment{
		Amount:        input.Amount,
		Method:        input.Method,
		Status:        models.PaymentStatusSubmitted,
		ProofURL:      proofURL,
		ReferenceType: input.ReferenceType,
		ReferenceID:   input.ReferenceID,
		SubmittedBy:   &userID,
		Notes:         input.Notes,
	}
	if err := storage.DB.Create(&payment).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if input.ReferenceType == "reservation" {
		storage.DB.Model(&models.Reservation{}).Where("id = ?", input.ReferenceID).
			Update("payment_id", payment.ID)
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(payment)
}

func AdminListPayments(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	q := storage.DB.Model(&models.Payment{})
	if status := ctx.URLParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if refType := ctx.URLParam("referenceType"); refType != "" {
		q = q.Where("reference_type = ?", refType)
	}

	var total int64
	q.Count(&total)

	var payments []models.Payment
	res := q.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&payments)
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, payments, page, perPage, total)
}

// AdminVerifyPayment marks a payment verified and, for reservation
// payments, confirms the linked pending reservation.
func AdminVerifyPayment(ctx iris.Context) {
	id := ctx.Params().Get("id")
	adminID := ctx.Values().Get("userID").(uint)

	var payment models.Payment
	if err := storage.DB.First(&payment, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Payment not found", ctx)
		return
	}

	if payment.Status != models.PaymentStatusSubmitted {
		utils.CreateError(iris.StatusUnprocessableEntity, "Unprocessable Entity",
			"Only submitted payments can be verified", ctx)
		return
	}

	before := payment
	now := time.Now()
	payment.Status = models.PaymentStatusVerified
	payment.VerifiedBy = &adminID
	payment.VerifiedAt = &now
	if err := storage.DB.Save(&payment).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if payment.ReferenceType == "reservation" {
		var reservation models.Reservation
		if err := storage.DB.First(&reservation, payment.ReferenceID).Error; err == nil &&
			reservation.Status == models.ReservationStatusPending {
			if updated, err := newBookingService().SetStatus(reservation.ID, models.ReservationStatusConfirmed, ""); err == nil {
				go services.NewNotificationService(storage.DB).NotifyReservationStatus(updated)
			}
		}
	}

	utils.Audit(ctx, "payment.verify", "payment", payment.ID, before, payment)
	if payment.SubmittedBy != nil {
		go services.NewNotificationService(storage.DB).NotifyPaymentVerified(*payment.SubmittedBy, &payment)
	}

	ctx.JSON(payment)
}

type RejectPaymentInput struct {
	Notes string `json:"notes"`
}

func AdminRejectPayment(ctx iris.Context) {
	id := ctx.Params().Get("id")
	adminID := ctx.Values().Get("userID").(uint)

	var input RejectPaymentInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var payment models.Payment
	if err := storage.DB.First(&payment, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Payment not found", ctx)
		return
	}

	if payment.Status != models.PaymentStatusSubmitted {
		utils.CreateError(iris.StatusUnprocessableEntity, "Unprocessable Entity",
			"Only submitted payments can be rejected", ctx)
		return
	}

	before := payment
	payment.Status = models.PaymentStatusRejected
	payment.VerifiedBy = &adminID
	if input.Notes != "" {
		payment.Notes = input.Notes
	}
	if err := storage.DB.Save(&payment).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "payment.reject", "payment", payment.ID, before, payment)
	ctx.JSON(payment)
}

type ValidateCouponInput struct {
	Code  string  `json:"code" validate:"required"`
	Total float64 `json:"total" validate:"required,min=0"`
}

// ValidateCoupon previews the discount a coupon would apply without
// redeeming it.
func ValidateCoupon(ctx iris.Context) {
	var input ValidateCouponInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var coupon models.Coupon
	if err := storage.DB.Where("code = ?", input.Code).First(&coupon).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Coupon not found", ctx)
		return
	}

	discount := coupon.Discount(input.Total)
	ctx.JSON(iris.Map{
		"code":     coupon.Code,
		"valid":    discount > 0,
		"discount": discount,
		"total":    input.Total - discount,
	})
}

type CouponInput struct {
	Code           string  `json:"code" validate:"required,max=32"`
	Type           string  `json:"type" validate:"required,oneof=percentage fixed"`
	Value          float64 `json:"value" validate:"required,min=0"`
	ExpiresAt      string  `json:"expiresAt"`
	MaxRedemptions int     `json:"maxRedemptions" validate:"min=0"`
}

func AdminCreateCoupon(ctx iris.Context) {
	var input CouponInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	coupon := models.Coupon{
		Code:           input.Code,
		Type:           input.Type,
		Value:          input.Value,
		MaxRedemptions: input.MaxRedemptions,
	}
	if input.ExpiresAt != "" {
		expires, err := time.Parse("2006-01-02", input.ExpiresAt)
		if err != nil {
			utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid expiresAt (expected YYYY-MM-DD)", ctx)
			return
		}
		coupon.ExpiresAt = &expires
	}

	if err := storage.DB.Create(&coupon).Error; err != nil {
		utils.CreateError(iris.StatusConflict, "Conflict", "Coupon code already exists", ctx)
		return
	}

	utils.Audit(ctx, "coupon.create", "coupon", coupon.ID, nil, coupon)
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(coupon)
}

func AdminListCoupons(ctx iris.Context) {
	var coupons []models.Coupon
	if err := storage.DB.Order("created_at DESC").Find(&coupons).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(coupons)
}

func AdminDeactivateCoupon(ctx iris.Context) {
	id := ctx.Params().Get("id")

	var coupon models.Coupon
	if err := storage.DB.First(&coupon, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Coupon not found", ctx)
		return
	}

	inactive := false
	coupon.IsActive = &inactive
	if err := storage.DB.Save(&coupon).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "coupon.deactivate", "coupon", coupon.ID, nil, coupon)
	ctx.JSON(coupon)
}
