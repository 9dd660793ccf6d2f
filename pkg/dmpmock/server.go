// Package dmpmock provides an in-memory stand-in for the DMP API, used by
// tests and as a local development target for the CLI.
package dmpmock

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"
)

var assignmentEndpoints = []string{
	"/event",
	"/events",
	"/number-attribute",
	"/number-attributes",
	"/string-attribute",
	"/string-attributes",
}

// Assignment records one accepted assignment request.
type Assignment struct {
	Endpoint  string
	PartnerID string
	UserID    string
	RequestID string
	Body      json.RawMessage
}

// Server accepts the login and assignment calls of the DMP API. It issues a
// fresh token per login and remembers every accepted assignment for
// assertions.
type Server struct {
	Email    string
	Password string

	// OmitToken makes the login endpoint answer 200 without an
	// X-Auth-Token header, the way a misconfigured gateway would.
	OmitToken bool

	echo *echo.Echo

	mu          sync.Mutex
	tokens      map[string]bool
	logins      int
	assignments []Assignment
}

func NewServer(email, password string) *Server {
	s := &Server{
		Email:    email,
		Password: password,
		tokens:   map[string]bool{},
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.POST("/login", s.handleLogin)
	for _, endpoint := range assignmentEndpoints {
		e.POST(endpoint, s.handleAssign)
	}
	s.echo = e

	return s
}

// Handler exposes the server for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Logins returns how many successful logins the server has seen.
func (s *Server) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

// Assignments returns a copy of every accepted assignment, in arrival order.
func (s *Server) Assignments() []Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Assignment, len(s.assignments))
	copy(out, s.assignments)
	return out
}

func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]bool{}
	s.logins = 0
	s.assignments = nil
}

func (s *Server) handleLogin(c echo.Context) error {
	email := c.QueryParam("email")
	password := c.QueryParam("password")
	if email != s.Email || password != s.Password {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error":   "invalid_credentials",
			"message": "email or password is wrong",
		})
	}

	s.mu.Lock()
	s.logins++
	token := ksuid.New().String()
	s.tokens[token] = true
	s.mu.Unlock()

	if !s.OmitToken {
		c.Response().Header().Set("X-Auth-Token", token)
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) handleAssign(c echo.Context) error {
	token := c.Request().Header.Get("X-Auth-Token")
	s.mu.Lock()
	known := s.tokens[token]
	s.mu.Unlock()
	if !known {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error":   "invalid_token",
			"message": "missing or unknown X-Auth-Token",
		})
	}

	partnerID := c.QueryParam("cmPartnerId")
	userID := c.QueryParam("userId")
	if partnerID == "" || len(userID) != 16 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":   "invalid_query",
			"message": "cmPartnerId and 16-character userId are required",
		})
	}

	var body struct {
		Body json.RawMessage `json:"body"`
	}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil || len(body.Body) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":   "invalid_payload",
			"message": "body descriptor is required",
		})
	}

	s.mu.Lock()
	s.assignments = append(s.assignments, Assignment{
		Endpoint:  c.Path(),
		PartnerID: partnerID,
		UserID:    userID,
		RequestID: c.Request().Header.Get("X-Request-Id"),
		Body:      body.Body,
	})
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
