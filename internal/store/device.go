package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"gorm.io/gorm"
)

const deviceIDKey = "device_id"

var ErrInvalidDeviceID = errors.New("invalid device id")

type DeviceStore struct {
	DB *gorm.DB

	// generate returns a fresh id. Replaced in tests.
	generate func() string
}

func NewDeviceStore(db *gorm.DB) *DeviceStore {
	return &DeviceStore{DB: db, generate: randomDeviceID}
}

// GetOrCreateDeviceID returns the stored device id, creating a random
// three digit one on first use.
func (s *DeviceStore) GetOrCreateDeviceID(ctx context.Context) (string, error) {
	setting := Setting{}
	err := s.DB.WithContext(ctx).
		Where(Setting{Name: deviceIDKey}).
		Attrs(Setting{Value: s.generate()}).
		FirstOrCreate(&setting).Error
	if err != nil {
		return "", fmt.Errorf("loading device id: %w", err)
	}
	return setting.Value, nil
}

// DeviceID returns the stored id or gorm.ErrRecordNotFound.
func (s *DeviceStore) DeviceID(ctx context.Context) (string, error) {
	setting := Setting{}
	if err := s.DB.WithContext(ctx).First(&setting, "name = ?", deviceIDKey).Error; err != nil {
		return "", err
	}
	return setting.Value, nil
}

// SetDeviceID overrides the stored id.
func (s *DeviceStore) SetDeviceID(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %q", ErrInvalidDeviceID, id)
	}
	return s.DB.WithContext(ctx).Save(&Setting{Name: deviceIDKey, Value: id}).Error
}

func randomDeviceID() string {
	return fmt.Sprintf("%03d", rand.Intn(1000))
}
