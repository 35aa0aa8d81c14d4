package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/msomdec/recipe-api/internal/domain"
	"github.com/msomdec/recipe-api/internal/validation"
)

// MinPasswordLength applies to self-registration and profile updates.
const MinPasswordLength = 8

// AuthService manages accounts, password checks and bearer tokens.
type AuthService struct {
	users      domain.UserRepository
	validate   *validation.Validator
	jwtSecret  []byte
	tokenTTL   time.Duration
	bcryptCost int

	// dummyHash is compared against for unknown emails so that lookups
	// cost the same bcrypt work as a wrong password.
	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, jwtSecret string, tokenTTL time.Duration, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		validate:   validation.New(),
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
	}
}

// NormalizeEmail trims and lower-cases an address so that differently
// cased spellings map to the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser stores a new active account. Only the email is checked;
// password policy belongs to Register.
func (s *AuthService) CreateUser(ctx context.Context, email, password, name string) (*domain.User, error) {
	return s.create(ctx, email, password, name, false)
}

// CreateSuperuser stores an account with staff and superuser rights.
func (s *AuthService) CreateSuperuser(ctx context.Context, email, password, name string) (*domain.User, error) {
	return s.create(ctx, email, password, name, true)
}

// Register is the self-service signup path. It enforces the minimum
// password length before creating the account.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	if len(password) < MinPasswordLength {
		return nil, domain.NewValidationError("password",
			fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	return s.CreateUser(ctx, email, password, name)
}

func (s *AuthService) create(ctx context.Context, email, password, name string, superuser bool) (*domain.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, domain.NewValidationError("email", "is required")
	}
	if err := s.validate.Var("email", email, "email"); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, domain.NewValidationError("password", "is required")
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      superuser,
		IsSuperuser:  superuser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// IssueToken exchanges credentials for a signed token. Unknown emails,
// wrong passwords and inactive accounts all fail with
// domain.ErrInvalidCredentials.
func (s *AuthService) IssueToken(ctx context.Context, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		fields := map[string]string{}
		if strings.TrimSpace(email) == "" {
			fields["email"] = "may not be blank"
		}
		if password == "" {
			fields["password"] = "may not be blank"
		}
		return "", &domain.ValidationError{Message: "validation failed", Fields: fields}
	}

	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.unknownUserHash(), []byte(password))
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	if !CheckPassword(user, password) || !user.IsActive {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return "", fmt.Errorf("generate jwt: %w", err)
	}
	return token, nil
}

// ValidateToken parses and validates a token string and returns the user
// ID from its sub claim.
func (s *AuthService) ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return 0, domain.ErrUnauthorized
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, domain.ErrUnauthorized
	}
	return userID, nil
}

// Authenticate resolves a token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*domain.User, error) {
	userID, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// ProfileUpdate lists the profile fields a user may change. Nil fields are
// left as they are.
type ProfileUpdate struct {
	Name     *string
	Password *string
}

// UpdateProfile applies name and password changes. A new password is
// re-hashed.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		user.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Password != nil {
		if len(*upd.Password) < MinPasswordLength {
			return nil, domain.NewValidationError("password",
				fmt.Sprintf("must be at least %d characters", MinPasswordLength))
		}
		hash, err := s.hashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// CheckPassword reports whether password matches the user's stored hash.
func CheckPassword(user *domain.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

func (s *AuthService) unknownUserHash() []byte {
	s.dummyOnce.Do(func() {
		// An error leaves dummyHash nil and the compare fails fast.
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("unknown-user-password"), s.bcryptCost)
	})
	return s.dummyHash
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.NewValidationError("password", "must not exceed 72 bytes")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *AuthService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(user.ID, 10),
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
