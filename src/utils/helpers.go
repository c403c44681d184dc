package utils

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"ets/src/config"
	"ets/src/lib"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"time"

	"github.com/yeqown/go-qrcode"
)

func IsProd() bool {
	return os.Getenv("APP_ENV") == "production"
}

func EncryptMessage(key []byte, message string) (string, error) {
	plaintext := []byte(message)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	cipherText := gcm.Seal(nonce, nonce, plaintext, nil)
	encodedString := hex.EncodeToString(cipherText)

	return encodedString, nil
}

func DecryptMessage(key []byte, message string) (*string, error) {
	cipherText, err := hex.DecodeString(message)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	decryptedData, err := gcm.Open(nil, cipherText[:gcm.NonceSize()], cipherText[gcm.NonceSize():], nil)
	if err != nil {
		return nil, err
	}
	decodedString := string(decryptedData)

	return &decodedString, nil
}

func signHMAC(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature checks the signature the gateway hands to the client
// after capture: HMAC-SHA256 over "orderId|paymentId" with the key secret.
func VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	expected := signHMAC(config.GetGatewayKeySecret(), fmt.Sprintf("%s|%s", orderID, paymentID))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the signature header against the raw request
// body using the webhook secret.
func VerifyWebhookSignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(config.GetGatewayWebhookSecret()))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// GenerateBookingCode renders the redemption QR for a confirmed booking. The
// payload is encrypted before encoding so the image carries no readable ids.
// Returns the path of the saved image, also cached in redis for 2 hours.
func GenerateBookingCode(bookingID, userID, eventID uint, qty uint) (string, error) {
	rawData := map[string]any{
		"bookingId": bookingID,
		"userId":    userID,
		"eventId":   eventID,
		"qty":       qty,
	}
	rawBytes, _ := json.Marshal(rawData)
	rawText := string(rawBytes)

	keyEnv := os.Getenv("API_QRC_SECRET")
	key, err := hex.DecodeString(keyEnv)
	if err != nil {
		log.Printf("Could not read key from string: %s\n", err.Error())
		return "", err
	}
	encryptedMessage, err := EncryptMessage(key, rawText)
	if err != nil {
		log.Printf("Error encrypting message: %s\n", err.Error())
		return "", err
	}
	qrc, err := qrcode.New(encryptedMessage)
	if err != nil {
		return "", err
	}
	tempdir := os.Getenv("TEMP_DIR")
	if tempdir == "" {
		tempdir = os.TempDir()
	}
	filename := fmt.Sprintf("booking-%d", bookingID)
	filepath := path.Join(tempdir, fmt.Sprintf("%s.jpeg", filename))
	if err := qrc.Save(filepath); err != nil {
		log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
		return "", err
	}
	if rd := lib.GetRedisClient(); rd != nil {
		if _, err := rd.SetEx(context.Background(), filename, filepath, 2*time.Hour).Result(); err != nil {
			log.Printf("Error caching value [%s]: %s\n", filename, err.Error())
		}
	}
	return filepath, nil
}

// DecodeBookingCode reverses GenerateBookingCode's payload for redemption
// scans at the venue.
func DecodeBookingCode(encrypted string) (map[string]any, error) {
	keyEnv := os.Getenv("API_QRC_SECRET")
	key, err := hex.DecodeString(keyEnv)
	if err != nil {
		return nil, err
	}
	decrypted, err := DecryptMessage(key, encrypted)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(*decrypted), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
