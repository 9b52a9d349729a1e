// Package auth verifies Telegram Mini App launch payloads and issues the
// session tokens used on every other API call.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// webAppDataKey is the fixed key Telegram uses to derive the per-bot secret
const webAppDataKey = "WebAppData"

var (
	// ErrInvalidInitData is returned when the payload is malformed or the hash does not match
	ErrInvalidInitData = errors.New("invalid telegram init data")

	// ErrInitDataExpired is returned when auth_date is older than the allowed age
	ErrInitDataExpired = errors.New("telegram init data expired")
)

// WebAppUser is the user object embedded in the launch payload
type WebAppUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// InitData is a verified launch payload
type InitData struct {
	Fields   map[string]string
	AuthDate time.Time
	User     *WebAppUser
}

// Validator checks launch payloads against a bot token
type Validator struct {
	botToken string
	maxAge   time.Duration
	now      func() time.Time
}

// NewValidator creates a validator. maxAge of zero disables the freshness check.
func NewValidator(botToken string, maxAge time.Duration) *Validator {
	return &Validator{
		botToken: botToken,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Validate parses the raw URL-encoded payload and checks its signature
func (v *Validator) Validate(raw string) (*InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInitData, err)
	}

	fields := make(map[string]string, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			fields[key] = vals[0]
		}
	}

	hash, ok := fields["hash"]
	if !ok || hash == "" {
		return nil, fmt.Errorf("%w: missing hash", ErrInvalidInitData)
	}
	delete(fields, "hash")

	expected := Sign(fields, v.botToken)
	if !hmac.Equal([]byte(expected), []byte(hash)) {
		return nil, ErrInvalidInitData
	}

	data := &InitData{Fields: fields}

	if authDate, ok := fields["auth_date"]; ok {
		seconds, err := strconv.ParseInt(authDate, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad auth_date", ErrInvalidInitData)
		}
		data.AuthDate = time.Unix(seconds, 0).UTC()
	}

	if v.maxAge > 0 {
		if data.AuthDate.IsZero() || v.now().Sub(data.AuthDate) > v.maxAge {
			return nil, ErrInitDataExpired
		}
	}

	if rawUser, ok := fields["user"]; ok {
		var user WebAppUser
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			return nil, fmt.Errorf("%w: bad user field", ErrInvalidInitData)
		}
		data.User = &user
	}

	return data, nil
}

// CheckString builds the sorted, newline-joined key=value string that is signed
func CheckString(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if key == "hash" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+fields[key])
	}
	return strings.Join(pairs, "\n")
}

// Sign returns the hex digest Telegram would attach to fields for botToken
func Sign(fields map[string]string, botToken string) string {
	secret := hmacSHA256([]byte(webAppDataKey), []byte(botToken))
	return hex.EncodeToString(hmacSHA256(secret, []byte(CheckString(fields))))
}

func hmacSHA256(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}
