package paymentprovider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature проверяет подпись webhook: HMAC-SHA256 от точного
// сырого тела запроса, hex-кодировка. Тело нельзя пересериализовывать
// после разбора JSON — подпись считается по байтам как есть.
// Пустой секрет всегда дает отказ, функция не возвращает ошибок.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expectedSig := hex.EncodeToString(mac.Sum(nil))
	// Сравнение без уязвимостей по времени.
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}
