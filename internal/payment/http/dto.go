package http

import (
	"github.com/venuepass/venue-booking-backend/internal/payment"
)

// InitiateBody asks for a signed gateway redirect.
type InitiateBody struct {
	BookingID string `json:"booking_id" binding:"required"`
}

// VerifyBody reports a gateway transaction to reconcile.
type VerifyBody struct {
	TransactionUUID string `json:"transaction_uuid" binding:"required"`
	ProductCode     string `json:"product_code"`
	TotalAmount     string `json:"total_amount"`
}

// InitiateResponse carries the signed payment parameters.
type InitiateResponse struct {
	TransactionUUID string        `json:"transactionUuid"`
	Signature       string        `json:"signature"`
	PaymentParams   PaymentParams `json:"paymentParams"`
}

type PaymentParams struct {
	Amount          int64  `json:"amount"`
	TotalAmount     int64  `json:"totalAmount"`
	TransactionUUID string `json:"transactionUuid"`
	ProductCode     string `json:"productCode"`
	SuccessURL      string `json:"successUrl"`
	FailureURL      string `json:"failureUrl"`
}

func NewInitiateResponse(r *payment.InitiateResult) InitiateResponse {
	return InitiateResponse{
		TransactionUUID: r.TransactionUUID,
		Signature:       r.Signature,
		PaymentParams: PaymentParams{
			Amount:          r.Amount,
			TotalAmount:     r.TotalAmount,
			TransactionUUID: r.TransactionUUID,
			ProductCode:     r.ProductCode,
			SuccessURL:      r.SuccessURL,
			FailureURL:      r.FailureURL,
		},
	}
}

// VerifyResponse mirrors the resolver outcome; which flags appear depends on
// the resolved case.
type VerifyResponse struct {
	Verified                     bool   `json:"verified"`
	Status                       string `json:"status"`
	RefID                        string `json:"refId,omitempty"`
	BookingID                    string `json:"bookingId,omitempty"`
	BookingFound                 bool   `json:"bookingFound"`
	BookingConfirmed             bool   `json:"bookingConfirmed,omitempty"`
	AlreadyConfirmed             bool   `json:"alreadyConfirmed,omitempty"`
	BookingUpdateFailed          bool   `json:"bookingUpdateFailed,omitempty"`
	RequiresManualReconciliation bool   `json:"requiresManualReconciliation,omitempty"`
}

func NewVerifyResponse(r *payment.VerifyResult) VerifyResponse {
	return VerifyResponse{
		Verified:                     r.Verified,
		Status:                       string(r.Status),
		RefID:                        r.RefID,
		BookingID:                    r.BookingID,
		BookingFound:                 r.BookingFound,
		BookingConfirmed:             r.BookingConfirmed,
		AlreadyConfirmed:             r.AlreadyConfirmed,
		BookingUpdateFailed:          r.BookingUpdateFailed,
		RequiresManualReconciliation: r.RequiresManualReconciliation,
	}
}
