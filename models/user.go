package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/fintech_backend/config"
	"github.com/mmdatafocus/fintech_backend/utils"
	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleUser  UserRole = "User"
	UserRoleAdmin UserRole = "Admin"
)

const DefaultAccountName = "Main"

type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"size:100;not null;uniqueIndex" json:"email"`
	FirstName string    `gorm:"size:100;not null" json:"first_name"`
	LastName  string    `gorm:"size:100;not null" json:"last_name"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      UserRole  `gorm:"size:10;not null" json:"role"`
	IsActive  *bool     `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Email     string `json:"email" binding:"required,email,max=100"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Phone     string `json:"phone" binding:"omitempty,phone"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
}

type LoginInfo struct {
	Token      string    `json:"token"`
	Expiration time.Time `json:"expiration"`
	User       *User     `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterUser creates the user and its default "Main" checking account in one unit of work.
func RegisterUser(ctx context.Context, db *gorm.DB, input *NewUser) (*User, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	email := normalizeEmail(input.Email)
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email", utils.ErrorInvalidOperation)
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Phone:     strings.TrimSpace(input.Phone),
		Password:  string(hashed),
		Role:      UserRoleUser,
		IsActive:  utils.NewTrue(),
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return utils.ErrorDuplicateEmail
		}
		if err := tx.Create(&user).Error; err != nil {
			if utils.IsDuplicateKeyErr(err) {
				return utils.ErrorDuplicateEmail
			}
			return err
		}
		account := Account{
			OwnerId:     user.ID,
			Name:        DefaultAccountName,
			AccountType: AccountTypeChecking,
			Currency:    CurrencyUSD,
		}
		return tx.Create(&account).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func Login(ctx context.Context, db *gorm.DB, settings config.AuthSettings, email string, password string) (*LoginInfo, error) {
	var user User
	err := db.WithContext(ctx).Model(&User{}).Where("email = ?", normalizeEmail(email)).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorInvalidCredentials
		}
		return nil, err
	}

	if err := utils.ComparePassword(user.Password, password); err != nil {
		return nil, err
	}
	if !utils.DereferencePtr(user.IsActive, true) {
		return nil, utils.ErrorUserDisabled
	}

	token, err := utils.JwtGenerate(settings, user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &LoginInfo{
		Token:      token.Token,
		Expiration: token.ExpiresAt,
		User:       &user,
	}, nil
}

func revokedTokenKey(tokenId string) string {
	return "RevokedToken:" + tokenId
}

// Logout denylists the current token until it would have expired anyway.
func Logout(ctx context.Context) error {
	tokenId, ok := utils.GetTokenIdFromContext(ctx)
	if !ok || tokenId == "" {
		return errors.New("token is required")
	}
	ttl := time.Hour
	if exp, ok := utils.GetTokenExpiryFromContext(ctx); ok {
		ttl = time.Until(time.Unix(exp, 0))
	}
	if ttl <= 0 {
		return nil
	}
	return config.SetRedisValue(ctx, revokedTokenKey(tokenId), "1", ttl)
}

func IsTokenRevoked(ctx context.Context, tokenId string) (bool, error) {
	if tokenId == "" {
		return false, nil
	}
	_, exists, err := config.GetRedisValue(ctx, revokedTokenKey(tokenId))
	return exists, err
}

func GetUser(ctx context.Context, db *gorm.DB, userId string) (*User, error) {
	var user User
	err := db.WithContext(ctx).Where("id = ?", userId).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the user; accounts and their transactions go with it through FK cascades.
func DeleteUser(ctx context.Context, db *gorm.DB, userId string) error {
	result := db.WithContext(ctx).Where("id = ?", userId).Delete(&User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

func DeleteUserByEmail(ctx context.Context, db *gorm.DB, email string) error {
	result := db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Delete(&User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}
