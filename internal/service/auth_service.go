package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/repository"
)

const tokenIssuer = "nutritrack"

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)

type AuthService interface {
	Register(ctx context.Context, fullName, email, password string, role domain.Role) (*domain.Profile, error)
	Login(ctx context.Context, email, password string) (token string, profile *domain.Profile, err error)
	// ParseToken validates a bearer token and returns the session it carries.
	ParseToken(token string) (domain.Session, error)
}

// authService implements the AuthService interface.
type authService struct {
	profiles      repository.ProfileRepository
	jwtSecret     []byte
	jwtExpiration time.Duration
	log           zerolog.Logger
}

// NewAuthService creates a new instance of authService.
func NewAuthService(profiles repository.ProfileRepository, jwtSecret string, jwtExpiration time.Duration, log zerolog.Logger) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		profiles:      profiles,
		jwtSecret:     []byte(jwtSecret),
		jwtExpiration: jwtExpiration,
		log:           log.With().Str("service", "auth").Logger(),
	}
}

// Register handles new profile registration.
func (s *authService) Register(ctx context.Context, fullName, email, password string, role domain.Role) (*domain.Profile, error) {
	fullName = strings.TrimSpace(fullName)
	email = domain.NormalizeEmail(email)
	if fullName == "" || email == "" || password == "" {
		return nil, invalid("name, email and password cannot be empty")
	}
	role, ok := domain.ParseRole(string(role))
	if !ok {
		return nil, invalid("unknown role")
	}

	_, err := s.profiles.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	profile := &domain.Profile{
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	id, err := s.profiles.Create(ctx, profile)
	if err != nil {
		// Lost a race with a concurrent registration; the unique index caught it.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	profile.ID = id
	profile.PasswordHash = ""

	s.log.Info().Str("profile_id", id.Hex()).Str("role", string(role)).Msg("profile registered")
	return profile, nil
}

// Login authenticates a profile and issues a JWT.
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.Profile, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, invalid("email and password cannot be empty")
	}

	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err := s.generateJWT(profile)
	if err != nil {
		s.log.Error().Err(err).Str("profile_id", profile.ID.Hex()).Msg("failed to sign token")
		return "", nil, ErrTokenGeneration
	}

	profile.PasswordHash = ""
	return token, profile, nil
}

// --- JWT Helpers ---

// Claims is the JWT payload.
type Claims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(profile *domain.Profile) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: profile.ID.Hex(),
		Role:   profile.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// ParseToken validates signature, expiry and claims, and returns the session.
func (s *authService) ParseToken(tokenString string) (domain.Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Session{}, ErrTokenExpired
		}
		return domain.Session{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.ExpiresAt == nil {
		return domain.Session{}, ErrTokenInvalid
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return domain.Session{}, ErrTokenInvalid
	}
	session := domain.Session{UserID: userID, Role: claims.Role}
	if !session.Valid() {
		return domain.Session{}, ErrTokenInvalid
	}
	return session, nil
}
