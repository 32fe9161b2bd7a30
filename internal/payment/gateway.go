package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// GatewayResponse is the gateway's answer to a status-check request.
type GatewayResponse struct {
	Status          string `json:"status"`
	RefID           string `json:"ref_id"`
	TransactionUUID string `json:"transaction_uuid"`
	TotalAmount     string `json:"total_amount"`
	ProductCode     string `json:"product_code"`
}

// Gateway checks the status of a transaction with the external payment
// provider. Calls are synchronous network I/O with no retry; callers own
// retry and backoff policy.
type Gateway interface {
	CheckStatus(ctx context.Context, productCode, transactionUUID string, totalAmount int64) (*GatewayResponse, error)
}

type httpGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a Gateway hitting the provider's status endpoint.
func NewHTTPGateway(baseURL string) Gateway {
	return &httpGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *httpGateway) CheckStatus(ctx context.Context, productCode, transactionUUID string, totalAmount int64) (*GatewayResponse, error) {
	q := url.Values{}
	q.Set("product_code", productCode)
	q.Set("transaction_uuid", transactionUUID)
	q.Set("total_amount", strconv.FormatInt(totalAmount, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build gateway request failed: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var out GatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode gateway response failed: %w", err)
	}
	return &out, nil
}
