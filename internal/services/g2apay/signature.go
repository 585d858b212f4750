package g2apay

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ecomkit/g2apay-gateway/internal/domain/settings"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SHA256Hex returns the lowercase hex digest of the concatenated parts.
func SHA256Hex(parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AuthHeader builds the Authorization header value for REST calls:
// "{apiHash};{sha256(apiHash + merchantEmail + secretKey)}".
func AuthHeader(cfg settings.PaymentSettings) string {
	return fmt.Sprintf("%s;%s", cfg.APIHash, SHA256Hex(cfg.APIHash, cfg.MerchantEmail, cfg.SecretKey))
}

// CheckoutHash signs a createQuote request. The order total is encoded
// with exactly two fraction digits, dot separator, no grouping.
func CheckoutHash(orderGuid uuid.UUID, orderTotal decimal.Decimal, currencyCode, secretKey string) string {
	return SHA256Hex(orderGuid.String(), orderTotal.StringFixed(2), currencyCode, secretKey)
}

// NotificationHash is the expected IPN hash. The transaction id, order
// id and amount are the raw strings exactly as received, never
// re-serialized: re-formatting the amount would change the digest.
func NotificationHash(transactionID, userOrderID, amount, secretKey string) string {
	return SHA256Hex(transactionID, userOrderID, amount, secretKey)
}

// RefundHash signs an outbound refund request.
func RefundHash(captureTransactionID string, orderGuid uuid.UUID, orderTotal, refundAmount decimal.Decimal, secretKey string) string {
	return SHA256Hex(captureTransactionID, orderGuid.String(),
		orderTotal.StringFixed(2), refundAmount.StringFixed(2), secretKey)
}
