package models

import (
	"time"
)

// VerificationStatus is the moderation state of a social account or phone number
type VerificationStatus int16

const (
	VerificationNone     VerificationStatus = 0
	VerificationVerified VerificationStatus = 1
	VerificationPending  VerificationStatus = 2
)

// User represents a Telegram user with a rating balance
type User struct {
	UserID           int64              `db:"user_id"`
	ShortID          int64              `db:"short_id"`
	Name             string             `db:"name"`
	Username         string             `db:"username"`
	Faculty          string             `db:"faculty"`
	Insta            string             `db:"insta"`
	TikTok           string             `db:"tiktok"`
	Phone            string             `db:"phone"`
	Rating           int64              `db:"rating"`
	InstaVerified    VerificationStatus `db:"insta_verified"`
	TikTokVerified   VerificationStatus `db:"tiktok_verified"`
	PhoneVerified    VerificationStatus `db:"phone_verified"`
	PvPNotifications bool               `db:"pvp_notifications"`
	Agreed           bool               `db:"agreed"`
	CreatedAt        time.Time          `db:"created_at"`
	UpdatedAt        time.Time          `db:"updated_at"`
}

// UserView is the public representation returned to the client after auth
type UserView struct {
	ID               int64              `json:"id"`
	ShortID          int64              `json:"short_id"`
	Name             string             `json:"name"`
	Username         string             `json:"username"`
	Rating           int64              `json:"rating"`
	InstaVerified    VerificationStatus `json:"insta_verified"`
	TikTokVerified   VerificationStatus `json:"tiktok_verified"`
	PhoneVerified    VerificationStatus `json:"phone_verified"`
	PvPNotifications bool               `json:"pvp_notifications"`
	PvPWins          int64              `json:"pvp_wins"`
	IsAdmin          bool               `json:"is_admin"`
}

// TelegramProfile holds the identity fields taken from a verified launch payload
type TelegramProfile struct {
	ID        int64
	FirstName string
	Username  string
}

// TopEntry is a single row of the rating leaderboard
type TopEntry struct {
	UserID   int64  `json:"user_id"`
	ShortID  int64  `json:"short_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Rating   int64  `json:"rating"`
}

// ProfileField is one of the user-editable profile columns
type ProfileField string

const (
	ProfileFieldName    ProfileField = "name"
	ProfileFieldFaculty ProfileField = "faculty"
	ProfileFieldInsta   ProfileField = "insta"
	ProfileFieldTikTok  ProfileField = "tiktok"
	ProfileFieldPhone   ProfileField = "phone"
)

// ParseProfileField maps raw input onto the closed set of editable fields
func ParseProfileField(raw string) (ProfileField, bool) {
	switch f := ProfileField(raw); f {
	case ProfileFieldName, ProfileFieldFaculty, ProfileFieldInsta, ProfileFieldTikTok, ProfileFieldPhone:
		return f, true
	}
	return "", false
}

// SocialPlatform is a social network whose account can be submitted for verification
type SocialPlatform string

const (
	SocialPlatformInsta  SocialPlatform = "insta"
	SocialPlatformTikTok SocialPlatform = "tiktok"
)

// ParseSocialPlatform maps raw input onto the supported platforms
func ParseSocialPlatform(raw string) (SocialPlatform, bool) {
	switch p := SocialPlatform(raw); p {
	case SocialPlatformInsta, SocialPlatformTikTok:
		return p, true
	}
	return "", false
}
