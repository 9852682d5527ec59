package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kitaspaces-server/models"
	"kitaspaces-server/services"
)

// GormReservationStore backs services.ReservationStore with Postgres.
// Transact serializes writers per room with SELECT ... FOR UPDATE on the
// room row, which is what makes list-check-insert atomic: the losing
// concurrent writer re-reads after commit and hits the conflict check.
type GormReservationStore struct {
	db *gorm.DB
}

func NewReservationStore() *GormReservationStore {
	return &GormReservationStore{db: DB}
}

func (s *GormReservationStore) ListActive(roomID uint, date time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.db.
		Where("room_id = ? AND date = ? AND status <> ?", roomID, date, models.ReservationStatusCancelled).
		Order("start_time ASC").
		Find(&reservations).Error
	return reservations, err
}

func (s *GormReservationStore) Get(id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := s.db.First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrReservationNotFound
		}
		return nil, err
	}
	return &reservation, nil
}

func (s *GormReservationStore) Insert(r *models.Reservation) error {
	return s.db.Create(r).Error
}

func (s *GormReservationStore) Update(r *models.Reservation) error {
	return s.db.Save(r).Error
}

func (s *GormReservationStore) Delete(id uint) error {
	return s.db.Unscoped().Delete(&models.Reservation{}, id).Error
}

func (s *GormReservationStore) VoidPayment(paymentID uint) error {
	return s.db.Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Update("status", models.PaymentStatusVoided).Error
}

func (s *GormReservationStore) Transact(roomID uint, fn func(tx services.ReservationStore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, roomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return services.ErrRoomNotFound
			}
			return err
		}
		return fn(&GormReservationStore{db: tx})
	})
}

// GormRoomCatalog backs services.RoomCatalog.
type GormRoomCatalog struct {
	db *gorm.DB
}

func NewRoomCatalog() *GormRoomCatalog {
	return &GormRoomCatalog{db: DB}
}

func (c *GormRoomCatalog) GetRoom(id uint) (*models.Room, error) {
	var room models.Room
	if err := c.db.First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}
