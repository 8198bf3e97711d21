package client

import (
	"net/http"
	"net/url"
	"slotkeeper/pkg/model"
	"time"
)

const (
	ownerTokenHeader     = "X-Owner-Token"
	idempotencyKeyHeader = "Idempotency-Key"
)

// HoldClient calls the slot hold HTTP API. Every call carries the owner
// token header so the server rate limits per client rather than per address.
type HoldClient struct {
	httpClient *HttpClient
}

func NewHoldClient(baseUrl string) *HoldClient {
	return &HoldClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func holdPath(id string) string {
	return "/api/v1/holds/id/" + url.PathEscape(id)
}

func ownerHeaders(ownerToken, idempotencyKey string) map[string]string {
	headers := map[string]string{ownerTokenHeader: ownerToken}
	if idempotencyKey != "" {
		headers[idempotencyKeyHeader] = idempotencyKey
	}
	return headers
}

// Reserve sends a reserve call. A non-empty idempotencyKey makes retries
// return the original hold.
func (c *HoldClient) Reserve(req model.ReserveRequest, idempotencyKey string) (*Response, error) {
	return c.httpClient.Do(http.MethodPost, "/api/v1/holds", req, ownerHeaders(req.OwnerToken, idempotencyKey))
}

func (c *HoldClient) Confirm(id string, req model.ConfirmRequest) (*Response, error) {
	return c.httpClient.Do(http.MethodPost, holdPath(id)+"/confirm", req, ownerHeaders(req.OwnerToken, ""))
}

func (c *HoldClient) Release(id string, ownerToken string) (*Response, error) {
	return c.httpClient.Do(http.MethodDelete, holdPath(id), model.OwnerRequest{OwnerToken: ownerToken}, ownerHeaders(ownerToken, ""))
}

func (c *HoldClient) Extend(id string, req model.ExtendRequest) (*Response, error) {
	return c.httpClient.Do(http.MethodPut, holdPath(id)+"/extend", req, ownerHeaders(req.OwnerToken, ""))
}

func (c *HoldClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET(holdPath(id))
}

func (c *HoldClient) ListActive(doctorID, date string) (*Response, error) {
	q := url.Values{}
	q.Set("doctor_id", doctorID)
	q.Set("date", date)
	return c.httpClient.GET("/api/v1/holds/active?" + q.Encode())
}

func (c *HoldClient) WaitForHealthy(maxWait time.Duration) error {
	return c.httpClient.WaitForHealthy(maxWait)
}
