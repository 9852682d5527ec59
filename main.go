package main

import (
	"fmt"
	"log"
	"os"

	"kitaspaces-server/routes"
	"kitaspaces-server/storage"
	"kitaspaces-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	// Only load .env in development
	if os.Getenv("DEPLOY_ENV") == "" {
		godotenv.Load()
	}

	storage.InitializeDB()
	storage.InitializeUploads()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	// CORS for the admin dashboard and booking widget
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	// Health check endpoint
	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Get("/profile", accessTokenVerifierMiddleware, routes.GetProfile)
		user.Patch("/profile", accessTokenVerifierMiddleware, routes.UpdateProfile)
		user.Patch("/pushtoken", accessTokenVerifierMiddleware, routes.AlterPushToken)
		user.Patch("/settings/notifications", accessTokenVerifierMiddleware, routes.AllowsNotifications)
	}

	rooms := app.Party("/api/rooms")
	{
		rooms.Get("/", routes.GetRooms)
		rooms.Get("/{id:uint}", routes.GetRoom)
		rooms.Get("/{id:uint}/schedule", routes.GetRoomSchedule)
	}

	availability := app.Party("/api/availability")
	{
		availability.Get("/room/{roomID:uint}", routes.GetRoomAvailability)
		availability.Get("/room/{roomID:uint}/max-duration", routes.GetMaxDuration)
	}

	reservations := app.Party("/api/reservations", accessTokenVerifierMiddleware)
	{
		reservations.Post("/", routes.CreateMemberReservation)
		reservations.Get("/mine", routes.GetMyReservations)
		reservations.Patch("/{id:uint}/reschedule", routes.RescheduleMyReservation)
		reservations.Post("/{id:uint}/cancel", routes.CancelMyReservation)
	}

	// Walk-in and guest bookings, no account required
	bookings := app.Party("/api/bookings")
	{
		bookings.Post("/", routes.CreateCustomerReservation)
		bookings.Get("/lookup", routes.LookupReservation)
	}

	events := app.Party("/api/events")
	{
		events.Get("/", routes.GetEvents)
		events.Get("/{id:uint}", routes.GetEvent)
		events.Post("/{id:uint}/register", routes.RegisterForEvent)
		events.Get("/tickets/mine", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetMyTickets)
	}

	memberships := app.Party("/api/memberships")
	{
		memberships.Get("/plans", routes.GetMembershipPlans)
		memberships.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.SignUpForMembership)
		memberships.Get("/mine", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetMyMembership)
		memberships.Post("/redeem-hours", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.RedeemPerkHours)
	}

	payments := app.Party("/api/payments")
	{
		payments.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.SubmitPaymentProof)
		payments.Post("/coupon/validate", routes.ValidateCoupon)
	}

	notifications := app.Party("/api/notifications", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		notifications.Get("/", routes.GetMyNotifications)
		notifications.Patch("/{id:uint}/read", routes.MarkNotificationRead)
		notifications.Post("/read-all", routes.MarkAllNotificationsRead)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/rooms", routes.AdminListRooms)
		admin.Post("/rooms", routes.AdminCreateRoom)
		admin.Patch("/rooms/{id:uint}", routes.AdminUpdateRoom)
		admin.Patch("/rooms/{id:uint}/active", routes.AdminSetRoomActive)
		admin.Delete("/rooms/{id:uint}", utils.SuperAdminOnlyMiddleware, routes.AdminDeleteRoom)

		admin.Get("/reservations", routes.AdminListReservations)
		admin.Post("/reservations", routes.AdminCreateReservation)
		admin.Get("/reservations/{id:uint}", routes.AdminGetReservation)
		admin.Patch("/reservations/{id:uint}/status", routes.AdminUpdateReservationStatus)
		admin.Patch("/reservations/{id:uint}/reschedule", routes.AdminRescheduleReservation)
		admin.Post("/reservations/{id:uint}/check-in", routes.AdminCheckInReservation)
		admin.Post("/reservations/{id:uint}/check-out", routes.AdminCheckOutReservation)
		admin.Delete("/reservations/{id:uint}", utils.SuperAdminOnlyMiddleware, routes.AdminDeleteReservation)

		admin.Get("/payments", routes.AdminListPayments)
		admin.Post("/payments/{id:uint}/verify", routes.AdminVerifyPayment)
		admin.Post("/payments/{id:uint}/reject", routes.AdminRejectPayment)
		admin.Get("/coupons", routes.AdminListCoupons)
		admin.Post("/coupons", routes.AdminCreateCoupon)
		admin.Post("/coupons/{id:uint}/deactivate", routes.AdminDeactivateCoupon)

		admin.Get("/events", routes.AdminListEvents)
		admin.Post("/events", routes.AdminCreateEvent)
		admin.Patch("/events/{id:uint}", routes.AdminUpdateEvent)
		admin.Post("/tickets/redeem", routes.AdminRedeemTicket)

		admin.Get("/memberships", routes.AdminListMemberships)
		admin.Post("/memberships/{id:uint}/approve", routes.AdminApproveMembership)
		admin.Post("/memberships/{id:uint}/reject", routes.AdminRejectMembership)
		admin.Post("/memberships/{id:uint}/cancel", routes.AdminCancelMembership)
		admin.Post("/plans", routes.AdminCreatePlan)
		admin.Patch("/plans/{id:uint}", routes.AdminUpdatePlan)

		admin.Get("/stats", routes.AdminStats)
		admin.Get("/activity", routes.AdminActivity)
	}

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
