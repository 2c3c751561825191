package v1

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/habitpulse/habitpulse/store"
)

const (
	accessTokenTTL = 7 * 24 * time.Hour

	userIDContextKey = "habitpulse.user-id"
)

type SignUpRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

type UpdateMeRequest struct {
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	Password    *string `json:"password"`
}

type LogInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

type UserResponse struct {
	ID          int32  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

func convertUser(user *store.User) *UserResponse {
	resp := &UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
	if user.PhoneNumber != nil {
		resp.PhoneNumber = *user.PhoneNumber
	}
	return resp
}

// SignUp registers a new user.
// POST /api/v1/auth/signup
func (s *APIV1Service) SignUp(c echo.Context) error {
	ctx := c.Request().Context()

	req := &SignUpRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "username and password are required"})
	}

	existing, err := s.Store.GetUser(ctx, &store.FindUser{Username: &req.Username})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to look up user"})
	}
	if existing != nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": "username is already taken"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to hash password"})
	}

	create := &store.User{
		Username:     req.Username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
	}
	if phone := strings.TrimSpace(req.PhoneNumber); phone != "" {
		create.PhoneNumber = &phone
	}
	user, err := s.Store.CreateUser(ctx, create)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create user"})
	}

	token, err := s.signToken(user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to sign token"})
	}
	return c.JSON(http.StatusOK, &AuthResponse{Token: token, User: convertUser(user)})
}

// LogIn authenticates a user and issues an access token.
// POST /api/v1/auth/login
func (s *APIV1Service) LogIn(c echo.Context) error {
	ctx := c.Request().Context()

	req := &LogInRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request"})
	}

	user, err := s.Store.GetUser(ctx, &store.FindUser{Username: &req.Username})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to look up user"})
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	token, err := s.signToken(user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to sign token"})
	}
	return c.JSON(http.StatusOK, &AuthResponse{Token: token, User: convertUser(user)})
}

// GetMe returns the authenticated user.
// GET /api/v1/me
func (s *APIV1Service) GetMe(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	user, err := s.Store.GetUser(ctx, &store.FindUser{ID: &userID})
	if err != nil || user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "user not found"})
	}
	return c.JSON(http.StatusOK, convertUser(user))
}

// UpdateMe applies a partial profile update. Setting a phone number is what
// makes the caller reachable by scheduled reminders.
// PATCH /api/v1/me
func (s *APIV1Service) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	req := &UpdateMeRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request"})
	}
	if req.Email == nil && req.PhoneNumber == nil && req.Password == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no fields to update"})
	}

	update := &store.UpdateUser{
		ID:          userID,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	}
	if req.Password != nil {
		if *req.Password == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "password must not be empty"})
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to hash password"})
		}
		passwordHash := string(hash)
		update.PasswordHash = &passwordHash
	}

	user, err := s.Store.UpdateUser(ctx, update)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update user"})
	}
	return c.JSON(http.StatusOK, convertUser(user))
}

func (s *APIV1Service) signToken(userID int32) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatInt(int64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.Secret))
}

// AuthMiddleware requires a valid bearer token and stores the user ID on
// the request context.
func (s *APIV1Service) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		}

		claims := &jwt.RegisteredClaims{}
		parsed, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
			return []byte(s.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !parsed.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
		}

		userID, err := strconv.ParseInt(claims.Subject, 10, 32)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token subject"})
		}
		c.Set(userIDContextKey, int32(userID))
		return next(c)
	}
}

func currentUserID(c echo.Context) int32 {
	if id, ok := c.Get(userIDContextKey).(int32); ok {
		return id
	}
	return 0
}

// insightRateLimit throttles LLM-backed routes per user.
func (s *APIV1Service) insightRateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := strconv.FormatInt(int64(currentUserID(c)), 10)
		if !s.insightLimiter.Allow(key) {
			slog.Warn("insight rate limit hit", "user_id", key)
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many insight requests, slow down"})
		}
		return next(c)
	}
}
