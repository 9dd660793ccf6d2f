package dmp_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudtechnologies/dmp-go/pkg/dmp"
	"github.com/cloudtechnologies/dmp-go/pkg/dmpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const (
	testEmail    = "etl@example.com"
	testPassword = "s3cret"
)

func newTestClient(t *testing.T) (*dmp.Client, *dmpmock.Server) {
	t.Helper()

	mock := dmpmock.NewServer(testEmail, testPassword)
	server := httptest.NewServer(mock.Handler())
	t.Cleanup(server.Close)

	client, err := dmp.NewClientFromConfig(dmp.ClientConfig{
		Username: testEmail,
		Password: testPassword,
	}, dmp.WithBaseURL(server.URL), dmp.WithRateLimit(rate.Inf, 1))
	require.NoError(t, err)

	return client, mock
}

func TestAssignEventBatch(t *testing.T) {
	client, mock := newTestClient(t)

	results, err := client.AssignEvent(context.Background(), []int64{1, 2}, 42)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// one login, one request per user id
	assert.Equal(t, 1, mock.Logins())
	assignments := mock.Assignments()
	require.Len(t, assignments, 2)

	assert.Equal(t, "/event", assignments[0].Endpoint)
	assert.Equal(t, "1", assignments[0].PartnerID)
	assert.Equal(t, "0000000000000001", assignments[0].UserID)
	assert.Equal(t, "0000000000000002", assignments[1].UserID)
	for _, a := range assignments {
		assert.JSONEq(t, `{"id":42}`, string(a.Body))
	}

	for i, r := range results {
		assert.True(t, r.OK())
		assert.Equal(t, http.StatusOK, r.StatusCode)
		assert.Equal(t, int64(i+1), r.UserID)
	}

	// both requests of the batch share one correlation id
	requestID := assignments[0].RequestID
	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, assignments[1].RequestID)

	// a new batch gets a fresh one
	_, err = client.AssignEvent(context.Background(), []int64{3}, 42)
	require.NoError(t, err)
	assignments = mock.Assignments()
	require.Len(t, assignments, 3)
	assert.NotEmpty(t, assignments[2].RequestID)
	assert.NotEqual(t, requestID, assignments[2].RequestID)
}

func TestAssignEventsPayload(t *testing.T) {
	client, mock := newTestClient(t)

	_, err := client.AssignEvents(context.Background(), []int64{7}, []int64{10, 20})
	require.NoError(t, err)

	assignments := mock.Assignments()
	require.Len(t, assignments, 1)
	assert.Equal(t, "/events", assignments[0].Endpoint)
	assert.JSONEq(t, `[{"id":10},{"id":20}]`, string(assignments[0].Body))
}

func TestAssignNumberAttributePayload(t *testing.T) {
	client, mock := newTestClient(t)

	_, err := client.AssignNumberAttribute(context.Background(), []int64{1, 2, 3}, 42, 1500)
	require.NoError(t, err)

	assignments := mock.Assignments()
	require.Len(t, assignments, 3)
	for _, a := range assignments {
		assert.Equal(t, "/number-attribute", a.Endpoint)
		assert.JSONEq(t, `{"id":42,"value":1500}`, string(a.Body))
	}
}

func TestAssignStringAttributesPairing(t *testing.T) {
	client, mock := newTestClient(t)

	_, err := client.AssignStringAttributes(context.Background(),
		[]int64{9}, []int64{10, 20, 30}, []string{"DE", "PL", "FR"})
	require.NoError(t, err)

	assignments := mock.Assignments()
	require.Len(t, assignments, 1)
	assert.Equal(t, "/string-attributes", assignments[0].Endpoint)
	// values pair with datapoints by position
	assert.JSONEq(t,
		`[{"id":10,"value":"DE"},{"id":20,"value":"PL"},{"id":30,"value":"FR"}]`,
		string(assignments[0].Body))
}

func TestAssignAttributesLengthMismatch(t *testing.T) {
	client, mock := newTestClient(t)

	_, err := client.AssignNumberAttributes(context.Background(), []int64{1}, []int64{10, 20}, []int64{5})
	assert.Error(t, err)

	_, err = client.AssignStringAttributes(context.Background(), []int64{1}, []int64{10}, []string{"a", "b"})
	assert.Error(t, err)

	// rejected before any network I/O
	assert.Equal(t, 0, mock.Logins())
	assert.Empty(t, mock.Assignments())
}

func TestAssignEmptyUserList(t *testing.T) {
	client, mock := newTestClient(t)

	results, err := client.AssignEvent(context.Background(), nil, 42)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, mock.Logins())
}

func TestAssignRejectsNegativeUserID(t *testing.T) {
	client, mock := newTestClient(t)

	_, err := client.AssignEvent(context.Background(), []int64{1, -5}, 42)
	assert.Error(t, err)
	assert.Equal(t, 0, mock.Logins())
}

func TestMissingTokenIsAuthenticationError(t *testing.T) {
	mock := dmpmock.NewServer(testEmail, testPassword)
	mock.OmitToken = true
	server := httptest.NewServer(mock.Handler())
	defer server.Close()

	client, err := dmp.NewClientFromConfig(dmp.ClientConfig{
		Username: testEmail,
		Password: testPassword,
	}, dmp.WithBaseURL(server.URL), dmp.WithRateLimit(rate.Inf, 1))
	require.NoError(t, err)

	_, err = client.AssignEvent(context.Background(), []int64{1}, 42)
	require.Error(t, err)

	var authErr *dmp.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.True(t, authErr.MissingToken)
	assert.Empty(t, mock.Assignments())
}

func TestBadCredentials(t *testing.T) {
	mock := dmpmock.NewServer(testEmail, testPassword)
	server := httptest.NewServer(mock.Handler())
	defer server.Close()

	client, err := dmp.NewClientFromConfig(dmp.ClientConfig{
		Username: testEmail,
		Password: "wrong",
	}, dmp.WithBaseURL(server.URL), dmp.WithRateLimit(rate.Inf, 1))
	require.NoError(t, err)

	_, err = client.AssignEvent(context.Background(), []int64{1}, 42)

	var authErr *dmp.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.HTTPCode)
}

func TestRemoteErrorRecordedPerUser(t *testing.T) {
	// login succeeds, every assignment is rejected by the API
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			w.Header().Set("X-Auth-Token", "token-1")
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"unknown_datapoint","message":"datapoint 42 does not exist"}`))
	}))
	defer server.Close()

	client, err := dmp.NewClientFromConfig(dmp.ClientConfig{
		Username: testEmail,
		Password: testPassword,
	}, dmp.WithBaseURL(server.URL), dmp.WithRateLimit(rate.Inf, 1))
	require.NoError(t, err)

	results, err := client.AssignEvent(context.Background(), []int64{1, 2}, 42)
	require.Error(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.False(t, r.OK())
		assert.Equal(t, http.StatusNotFound, r.StatusCode)

		var apiErr *dmp.Error
		require.True(t, errors.As(r.Err, &apiErr))
		assert.Equal(t, "unknown_datapoint", apiErr.ErrorCode)
	}
}

func TestAssignHonoursContextCancellation(t *testing.T) {
	client, mock := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.AssignEvent(ctx, []int64{1}, 42)
	assert.Error(t, err)
	assert.Empty(t, mock.Assignments())
}

func TestAssignRateLimiterHonoursContext(t *testing.T) {
	mock := dmpmock.NewServer(testEmail, testPassword)
	server := httptest.NewServer(mock.Handler())
	defer server.Close()

	// burst of one, then an hour until the next token: the second request
	// cannot be served within the context deadline
	client, err := dmp.NewClientFromConfig(dmp.ClientConfig{
		Username: testEmail,
		Password: testPassword,
	}, dmp.WithBaseURL(server.URL), dmp.WithRateLimit(rate.Every(time.Hour), 1))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	results, err := client.AssignEvent(ctx, []int64{1, 2}, 42)
	require.Error(t, err)

	// the first request went through before the limiter gave up
	require.Len(t, results, 1)
	assert.True(t, results[0].OK())
	assert.Len(t, mock.Assignments(), 1)
}

func TestAuthenticateAccepts2xx(t *testing.T) {
	// some gateways answer the login with 204 No Content
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			w.Header().Set("X-Auth-Token", "token-1")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client, err := dmp.NewClientFromConfig(dmp.ClientConfig{
		Username: testEmail,
		Password: testPassword,
	}, dmp.WithBaseURL(server.URL), dmp.WithRateLimit(rate.Inf, 1))
	require.NoError(t, err)

	results, err := client.AssignEvent(context.Background(), []int64{1}, 42)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].OK())
}
