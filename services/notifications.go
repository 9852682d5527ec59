package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"gorm.io/gorm"

	"kitaspaces-server/models"
)

const expoPushEndpoint = "https://exp.host/--/api/v2/push/send"

// NotificationService records in-app notification rows and pushes to the
// member's devices via Expo. Push failures are logged, never surfaced to
// the request that triggered them.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

func (ns *NotificationService) userPushTokens(userID uint) []string {
	var user models.User
	if err := ns.db.First(&user, userID).Error; err != nil {
		return nil
	}
	if user.AllowsNotifications == nil || !*user.AllowsNotifications || user.PushTokens == nil {
		return nil
	}
	var tokens []string
	if err := json.Unmarshal(user.PushTokens, &tokens); err != nil {
		return nil
	}
	return tokens
}

// Notify stores the notification row and dispatches push messages.
func (ns *NotificationService) Notify(userID uint, notifType, title, message, refType string, refID uint) {
	row := models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		RefID:   refID,
		RefType: refType,
	}
	if err := ns.db.Create(&row).Error; err != nil {
		log.Printf("notification row for user %d failed: %v", userID, err)
	}

	for _, token := range ns.userPushTokens(userID) {
		if err := sendExpoPush(token, title, message); err != nil {
			log.Printf("push to %s failed: %v", token, err)
		}
	}
}

func (ns *NotificationService) NotifyReservationCreated(r *models.Reservation, roomName string) {
	if r.UserID == nil {
		return
	}
	ns.Notify(*r.UserID, "reservation_created",
		"Booking received",
		fmt.Sprintf("Your booking %s for %s on %s %s-%s is %s.",
			r.ReferenceCode, roomName, r.Date.Format("Jan 2, 2006"), r.StartTime, r.EndTime, r.Status),
		"reservation", r.ID)
}

func (ns *NotificationService) NotifyReservationStatus(r *models.Reservation) {
	if r.UserID == nil {
		return
	}
	ns.Notify(*r.UserID, "reservation_status",
		"Booking updated",
		fmt.Sprintf("Your booking %s is now %s.", r.ReferenceCode, r.Status),
		"reservation", r.ID)
}

func (ns *NotificationService) NotifyPaymentVerified(userID uint, p *models.Payment) {
	ns.Notify(userID, "payment_verified",
		"Payment verified",
		fmt.Sprintf("Your payment of %.2f has been verified.", p.Amount),
		"payment", p.ID)
}

func (ns *NotificationService) NotifyMembershipStatus(m *models.Membership, planName string) {
	ns.Notify(m.UserID, "membership_status",
		"Membership updated",
		fmt.Sprintf("Your %s membership is now %s.", planName, m.Status),
		"membership", m.ID)
}

func sendExpoPush(token, title, body string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"to":    token,
		"title": title,
		"body":  body,
		"sound": "default",
	})
	if err != nil {
		return err
	}

	res, err := http.Post(expoPushEndpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("expo push returned status %d", res.StatusCode)
	}
	return nil
}
