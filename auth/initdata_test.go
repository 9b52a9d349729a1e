package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "123456:TEST-BOT-TOKEN"

func signedPayload(t *testing.T, fields map[string]string, botToken string) string {
	t.Helper()

	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	values.Set("hash", Sign(fields, botToken))
	return values.Encode()
}

func testFields(authDate time.Time) map[string]string {
	return map[string]string{
		"query_id":  "AAHdF6IQAAAAAN0XohDhrOrc",
		"user":      `{"id":279058397,"first_name":"Vlad","username":"vdkfrost"}`,
		"auth_date": strconv.FormatInt(authDate.Unix(), 10),
	}
}

func TestCheckString_SortsAndSkipsHash(t *testing.T) {
	t.Parallel()

	got := CheckString(map[string]string{
		"user":      "u",
		"auth_date": "1",
		"hash":      "ignored",
		"query_id":  "q",
	})
	assert.Equal(t, "auth_date=1\nquery_id=q\nuser=u", got)
}

func TestSign_MatchesManualDigest(t *testing.T) {
	t.Parallel()

	fields := map[string]string{"auth_date": "1700000000", "query_id": "abc"}

	secretMAC := hmac.New(sha256.New, []byte("WebAppData"))
	secretMAC.Write([]byte(testBotToken))
	mac := hmac.New(sha256.New, secretMAC.Sum(nil))
	mac.Write([]byte("auth_date=1700000000\nquery_id=abc"))

	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), Sign(fields, testBotToken))
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	v := NewValidator(testBotToken, 0)
	raw := signedPayload(t, testFields(time.Unix(1700000000, 0)), testBotToken)

	data, err := v.Validate(raw)
	require.NoError(t, err)
	require.NotNil(t, data.User)
	assert.Equal(t, int64(279058397), data.User.ID)
	assert.Equal(t, "Vlad", data.User.FirstName)
	assert.Equal(t, "vdkfrost", data.User.Username)
	assert.Equal(t, int64(1700000000), data.AuthDate.Unix())
	assert.NotContains(t, data.Fields, "hash")
}

func TestValidator_RejectsTampering(t *testing.T) {
	t.Parallel()

	v := NewValidator(testBotToken, 0)
	fields := testFields(time.Unix(1700000000, 0))
	hash := Sign(fields, testBotToken)

	tests := []struct {
		name   string
		mutate func(values url.Values)
	}{
		{
			name:   "field value changed",
			mutate: func(values url.Values) { values.Set("auth_date", "1700000001") },
		},
		{
			name:   "user replaced",
			mutate: func(values url.Values) { values.Set("user", `{"id":1,"first_name":"Eve"}`) },
		},
		{
			name:   "field added",
			mutate: func(values url.Values) { values.Set("start_param", "x") },
		},
		{
			name:   "hash flipped",
			mutate: func(values url.Values) { values.Set("hash", flipFirstHex(hash)) },
		},
		{
			name:   "hash upper-cased",
			mutate: func(values url.Values) { values.Set("hash", strings.ToUpper(hash)) },
		},
		{
			name:   "hash missing",
			mutate: func(values url.Values) { values.Del("hash") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			values := url.Values{}
			for k, val := range fields {
				values.Set(k, val)
			}
			values.Set("hash", hash)
			tt.mutate(values)

			_, err := v.Validate(values.Encode())
			assert.ErrorIs(t, err, ErrInvalidInitData)
		})
	}
}

func TestValidator_WrongBotToken(t *testing.T) {
	t.Parallel()

	raw := signedPayload(t, testFields(time.Unix(1700000000, 0)), "999:OTHER")
	_, err := NewValidator(testBotToken, 0).Validate(raw)
	assert.ErrorIs(t, err, ErrInvalidInitData)
}

func TestValidator_MaxAge(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	v := NewValidator(testBotToken, time.Hour)
	v.now = func() time.Time { return now }

	fresh := signedPayload(t, testFields(now.Add(-10*time.Minute)), testBotToken)
	_, err := v.Validate(fresh)
	assert.NoError(t, err)

	stale := signedPayload(t, testFields(now.Add(-2*time.Hour)), testBotToken)
	_, err = v.Validate(stale)
	assert.ErrorIs(t, err, ErrInitDataExpired)
}

func TestValidator_MalformedPayload(t *testing.T) {
	t.Parallel()

	_, err := NewValidator(testBotToken, 0).Validate("%zz")
	assert.ErrorIs(t, err, ErrInvalidInitData)
}

func flipFirstHex(hash string) string {
	b := []byte(hash)
	if b[0] == '0' {
		b[0] = '1'
	} else {
		b[0] = '0'
	}
	return string(b)
}
