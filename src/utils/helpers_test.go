package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	message := `{"bookingId":42,"eventId":7}`
	encrypted, err := EncryptMessage(key, message)
	require.NoError(t, err)
	assert.NotEqual(t, message, encrypted)

	decrypted, err := DecryptMessage(key, encrypted)
	require.NoError(t, err)
	assert.Equal(t, message, *decrypted)
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	key := make([]byte, 32)
	rand.Read(key)
	encrypted, err := EncryptMessage(key, "secret")
	require.NoError(t, err)

	other := make([]byte, 32)
	rand.Read(other)
	_, err = DecryptMessage(other, encrypted)
	assert.NotNil(t, err)
}

func TestVerifyPaymentSignature(t *testing.T) {
	t.Setenv("GATEWAY_KEY_SECRET", "test_key_secret")

	mac := hmac.New(sha256.New, []byte("test_key_secret"))
	mac.Write([]byte("order_abc|pay_xyz"))
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, VerifyPaymentSignature("order_abc", "pay_xyz", signature))
	assert.False(t, VerifyPaymentSignature("order_abc", "pay_other", signature))
	assert.False(t, VerifyPaymentSignature("order_abc", "pay_xyz", "deadbeef"))
}

func TestVerifyWebhookSignature(t *testing.T) {
	t.Setenv("GATEWAY_WEBHOOK_SECRET", "test_webhook_secret")

	body := []byte(`{"event_type":"payment.captured"}`)
	mac := hmac.New(sha256.New, []byte("test_webhook_secret"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, VerifyWebhookSignature(body, signature))
	assert.False(t, VerifyWebhookSignature([]byte(`{"tampered":true}`), signature))
	assert.False(t, VerifyWebhookSignature(body, ""))
}

func TestDecodeBookingCode(t *testing.T) {
	key := make([]byte, 32)
	rand.Read(key)
	t.Setenv("API_QRC_SECRET", hex.EncodeToString(key))

	payload := map[string]any{"bookingId": 42, "eventId": 7, "qty": 2}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	encrypted, err := EncryptMessage(key, string(raw))
	require.NoError(t, err)

	decoded, err := DecodeBookingCode(encrypted)
	require.NoError(t, err)
	assert.Equal(t, float64(42), decoded["bookingId"])
	assert.Equal(t, float64(2), decoded["qty"])
}
