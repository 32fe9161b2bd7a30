package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
)

// Signer computes the gateway's HMAC-SHA256 signatures. The canonical
// message formats are fixed by the gateway contract and must be bit-exact.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	if secret == "" {
		return nil
	}
	return &Signer{secret: []byte(secret)}
}

// SignInitiation signs the payment initiation message:
// total_amount=<amt>,transaction_uuid=<uuid>,product_code=<code>
func (s *Signer) SignInitiation(totalAmount int64, transactionUUID, productCode string) string {
	msg := fmt.Sprintf("total_amount=%s,transaction_uuid=%s,product_code=%s",
		strconv.FormatInt(totalAmount, 10), transactionUUID, productCode)
	return s.sign(msg)
}

// SignVerification signs the status-check message, which carries only the
// transaction uuid.
func (s *Signer) SignVerification(transactionUUID string) string {
	return s.sign("transaction_uuid=" + transactionUUID)
}

func (s *Signer) sign(message string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
