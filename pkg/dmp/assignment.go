package dmp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/segmentio/ksuid"
)

// Assignment endpoints of the DMP API. Datapoints referenced here must
// already exist in the panel taxonomy; the client never creates them.
const (
	endpointEvent            = "/event"
	endpointEvents           = "/events"
	endpointNumberAttribute  = "/number-attribute"
	endpointNumberAttributes = "/number-attributes"
	endpointStringAttribute  = "/string-attribute"
	endpointStringAttributes = "/string-attributes"
)

type eventBody struct {
	ID int64 `json:"id"`
}

type numberAttributeBody struct {
	ID    int64 `json:"id"`
	Value int64 `json:"value"`
}

type stringAttributeBody struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
}

type payload struct {
	Body any `json:"body"`
}

// Result is the outcome of one assignment request. StatusCode is zero when
// the request never reached the API.
type Result struct {
	UserID     int64
	EncodedID  string
	StatusCode int
	Err        error
}

func (r Result) OK() bool {
	return r.Err == nil
}

// AssignEvent assigns a single datapoint event to every user id.
func (c *Client) AssignEvent(ctx context.Context, userIDs []int64, datapoint int64) ([]Result, error) {
	return c.assign(ctx, endpointEvent, payload{Body: eventBody{ID: datapoint}}, userIDs)
}

// AssignEvents assigns multiple datapoint events to every user id in one
// request per user.
func (c *Client) AssignEvents(ctx context.Context, userIDs []int64, datapoints []int64) ([]Result, error) {
	body := make([]eventBody, len(datapoints))
	for i, datapoint := range datapoints {
		body[i] = eventBody{ID: datapoint}
	}
	return c.assign(ctx, endpointEvents, payload{Body: body}, userIDs)
}

// AssignNumberAttribute assigns a datapoint with a numeric attribute value
// to every user id.
func (c *Client) AssignNumberAttribute(ctx context.Context, userIDs []int64, datapoint int64, value int64) ([]Result, error) {
	return c.assign(ctx, endpointNumberAttribute, payload{Body: numberAttributeBody{ID: datapoint, Value: value}}, userIDs)
}

// AssignNumberAttributes assigns multiple datapoints with numeric attribute
// values, paired by position. The lists must have equal length.
func (c *Client) AssignNumberAttributes(ctx context.Context, userIDs []int64, datapoints []int64, values []int64) ([]Result, error) {
	if len(datapoints) != len(values) {
		return nil, fmt.Errorf("%d datapoints but %d attribute values", len(datapoints), len(values))
	}
	body := make([]numberAttributeBody, len(datapoints))
	for i, datapoint := range datapoints {
		body[i] = numberAttributeBody{ID: datapoint, Value: values[i]}
	}
	return c.assign(ctx, endpointNumberAttributes, payload{Body: body}, userIDs)
}

// AssignStringAttribute assigns a datapoint with a string attribute value to
// every user id.
func (c *Client) AssignStringAttribute(ctx context.Context, userIDs []int64, datapoint int64, value string) ([]Result, error) {
	return c.assign(ctx, endpointStringAttribute, payload{Body: stringAttributeBody{ID: datapoint, Value: value}}, userIDs)
}

// AssignStringAttributes assigns multiple datapoints with string attribute
// values, paired by position. The lists must have equal length.
func (c *Client) AssignStringAttributes(ctx context.Context, userIDs []int64, datapoints []int64, values []string) ([]Result, error) {
	if len(datapoints) != len(values) {
		return nil, fmt.Errorf("%d datapoints but %d attribute values", len(datapoints), len(values))
	}
	body := make([]stringAttributeBody, len(datapoints))
	for i, datapoint := range datapoints {
		body[i] = stringAttributeBody{ID: datapoint, Value: values[i]}
	}
	return c.assign(ctx, endpointStringAttributes, payload{Body: body}, userIDs)
}

// assign logs in once, then posts the payload for every user id in order,
// waiting on the rate limiter before each request. Per-user failures are
// recorded in the result list and the batch continues.
func (c *Client) assign(ctx context.Context, endpoint string, p payload, userIDs []int64) ([]Result, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	encoded := make([]string, len(userIDs))
	for i, id := range userIDs {
		hexID, err := EncodeUserID(id)
		if err != nil {
			return nil, err
		}
		encoded[i] = hexID
	}

	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	// one correlation id per batch
	requestID := ksuid.New().String()

	results := make([]Result, 0, len(userIDs))
	failed := 0
	for i, hexID := range encoded {
		if err := c.limiter.Wait(ctx); err != nil {
			return results, fmt.Errorf("waiting for rate limiter: %w", err)
		}

		status, err := c.post(ctx, endpoint, hexID, token, requestID, body)
		if err != nil {
			failed++
			slog.Error("assignment failed", "endpoint", endpoint, "userId", hexID, "error", err)
		} else {
			slog.Debug("assigned", "endpoint", endpoint, "userId", hexID, "status", status)
		}

		results = append(results, Result{
			UserID:     userIDs[i],
			EncodedID:  hexID,
			StatusCode: status,
			Err:        err,
		})
	}

	if failed > 0 {
		return results, fmt.Errorf("%d of %d assignments failed", failed, len(userIDs))
	}
	return results, nil
}

func (c *Client) post(ctx context.Context, endpoint, hexID, token, requestID string, body []byte) (int, error) {
	query := url.Values{}
	query.Set("cmPartnerId", strconv.Itoa(c.config.PartnerID))
	query.Set("userId", hexID)

	requestURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", c.config.Accept)
	req.Header.Set("X-Auth-Token", token)
	req.Header.Set("Content-Type", c.config.ContentType)
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp.StatusCode, parseErrorResponse(resp.StatusCode, resp.Body)
	}
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
