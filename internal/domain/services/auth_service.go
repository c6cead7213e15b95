package services

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/rzv1310/seo-doctor-sub000/internal/apperrors"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/billing"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/models"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/repositories"
)

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	ValidateToken(tokenString string) (*TokenClaims, error)
	GetProfile(ctx context.Context, userID int64) (*models.User, error)
	UpdateBillingDetails(ctx context.Context, userID int64, req *BillingDetailsRequest) (*models.User, error)
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type BillingDetailsRequest struct {
	BillingName    string `json:"billing_name" binding:"required"`
	BillingCompany string `json:"billing_company"`
	BillingAddress string `json:"billing_address" binding:"required"`
	BillingCity    string `json:"billing_city" binding:"required"`
	BillingPostal  string `json:"billing_postal"`
	BillingCountry string `json:"billing_country" binding:"required"`
	BillingPhone   string `json:"billing_phone"`
}

type authService struct {
	userRepo   repositories.UserRepository
	provider   billing.Provider
	jwtService JWTService
	logger     *slog.Logger
}

func NewAuthService(userRepo repositories.UserRepository, provider billing.Provider, jwtService JWTService, logger *slog.Logger) AuthService {
	return &authService{
		userRepo:   userRepo,
		provider:   provider,
		jwtService: jwtService,
		logger:     logger,
	}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	extUser, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err == nil && extUser != nil {
		return nil, apperrors.Newf(apperrors.KindValidation, "user with email %s already exists", req.Email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to hash password", err)
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to create user", err)
	}

	// Best effort: a user without a processor customer can still log in,
	// but checkout will reject them until one exists.
	if s.provider != nil {
		customerID, err := s.provider.CreateCustomer(ctx, user.Name, user.Email)
		if err != nil {
			s.logger.Warn("failed to create billing customer at registration",
				"user_id", user.ID, "error", err)
		} else if err := s.userRepo.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
			s.logger.Warn("failed to store billing customer id",
				"user_id", user.ID, "error", err)
		} else {
			user.StripeCustomerID = &customerID
		}
	}

	user.Password = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.New(apperrors.KindUnauthorized, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperrors.New(apperrors.KindUnauthorized, "invalid email or password")
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to generate token", err)
	}

	user.Password = ""

	return &AuthResponse{
		User:  user,
		Token: token,
	}, nil
}

func (s *authService) ValidateToken(tokenString string) (*TokenClaims, error) {
	return s.jwtService.ValidateToken(tokenString)
}

func (s *authService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "user not found")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load user", err)
	}

	user.Password = ""
	return user, nil
}

func (s *authService) UpdateBillingDetails(ctx context.Context, userID int64, req *BillingDetailsRequest) (*models.User, error) {
	user, err := s.userRepo.GetUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "user not found")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load user", err)
	}

	user.BillingName = req.BillingName
	user.BillingCompany = req.BillingCompany
	user.BillingAddress = req.BillingAddress
	user.BillingCity = req.BillingCity
	user.BillingPostal = req.BillingPostal
	user.BillingCountry = req.BillingCountry
	user.BillingPhone = req.BillingPhone

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to update billing details", err)
	}

	user.Password = ""
	return user, nil
}
