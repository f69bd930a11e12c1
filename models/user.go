package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/scrub_backend/config"
	"bitbucket.org/mmdatafocus/scrub_backend/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null" json:"business_id"`
	Username   string    `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Name       string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email      *string   `gorm:"size:100;unique" json:"email"`
	Password   string    `gorm:"size:255;not null" json:"-"`
	IsActive   *bool     `gorm:"not null" json:"is_active"`
	Role       UserRole  `gorm:"type:enum('A', 'O', 'C');default:C" json:"role"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type LoginInfo struct {
	Token      string `json:"token"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	BusinessId string `json:"business_id"`
}

/*
caches:
	User:$username
	Token:$token
*/

func (user User) CacheInstanceRedis() error {
	return config.SetRedisObject("User:"+user.Username, user, 24*time.Hour)
}

func (user User) RemoveInstanceRedis() error {
	return config.RemoveRedisKey("User:" + user.Username)
}

// GetUserByUsername reads through the Redis cache.
func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err == nil && exists {
		return &user, nil
	}

	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	err = db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	_ = user.CacheInstanceRedis()
	return &user, nil
}

// Login verifies credentials, issues a JWT and registers it as a session
// token in Redis so both auth headers work.
func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}

	var user User
	if err := db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error; err != nil {
		return nil, errors.New("invalid username or password")
	}

	err := utils.ComparePassword(user.Password, password)
	if err != nil && err == bcrypt.ErrMismatchedHashAndPassword {
		return nil, errors.New("invalid username or password")
	}
	if err != nil {
		return nil, err
	}
	if user.IsActive == nil || !*user.IsActive {
		return nil, errors.New("user is disabled")
	}

	token, err := utils.JwtGenerate(user.ID, user.Username, user.BusinessId, string(user.Role))
	if err != nil {
		return nil, err
	}
	if err := config.SetRedisValue("Token:"+token, user.Username, 24*time.Hour); err != nil {
		return nil, err
	}
	_ = user.CacheInstanceRedis()

	return &LoginInfo{
		Token:      token,
		Name:       user.Username,
		Role:       string(user.Role),
		BusinessId: user.BusinessId,
	}, nil
}

// Logout destroys the current session token.
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, errors.New("token is required")
	}
	if err := config.RemoveRedisKey("Token:" + token); err != nil {
		return false, err
	}
	return true, nil
}

// CreateUser backs the seed tooling; the API has no registration endpoint.
func CreateUser(ctx context.Context, user *User, plainPassword string) error {
	db := config.GetDB()
	if db == nil {
		return errors.New("db is nil")
	}

	if err := utils.ValidateUnique[User](ctx, "", "username", user.Username, 0); err != nil {
		return err
	}

	hashed, err := utils.HashPassword(plainPassword)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	return db.WithContext(ctx).Create(user).Error
}
