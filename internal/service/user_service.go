package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/induction-api/internal/dto"
	"github.com/noah-isme/induction-api/internal/models"
	"github.com/noah-isme/induction-api/internal/repository"
)

// UserService manages accounts on behalf of administrators.
type UserService interface {
	Register(ctx context.Context, actor ActivityActor, req dto.RegisterRequest) (dto.UserResponse, error)
	List(ctx context.Context) ([]dto.UserResponse, error)
	UpdateRole(ctx context.Context, actor ActivityActor, id uint, req dto.UpdateRoleRequest) (dto.UserResponse, error)
	Delete(ctx context.Context, actor ActivityActor, id uint) error
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.Validate
	activity  ActivityRecorder
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewUserService constructs the user service. activity may be nil.
func NewUserService(repo repository.UserRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) UserService {
	return &userService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) Register(ctx context.Context, actor ActivityActor, req dto.RegisterRequest) (dto.UserResponse, error) {
	req.Email = models.NormalizeEmail(req.Email)
	req.Name = cleanText(s.sanitizer, req.Name)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}
	if req.Role == "" {
		req.Role = models.RoleEmployee
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return dto.UserResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.UserResponse{}, err
	}

	user := models.User{Name: req.Name, Email: req.Email, Role: req.Role}
	if err := user.SetPassword(req.Password); err != nil {
		return dto.UserResponse{}, fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.UserResponse{}, ErrEmailTaken
		}
		return dto.UserResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, actor, models.ActionUserRegistered, models.EntityUser, &user.ID, map[string]interface{}{
		"email": user.Email,
		"role":  user.Role,
	})

	return dto.NewUserResponse(user), nil
}

func (s *userService) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, _, err := s.repo.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, dto.NewUserResponse(user))
	}
	return responses, nil
}

func (s *userService) UpdateRole(ctx context.Context, actor ActivityActor, id uint, req dto.UpdateRoleRequest) (dto.UserResponse, error) {
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}
	if actor.ID == id && req.Role != models.RoleAdmin {
		return dto.UserResponse{}, fmt.Errorf("cannot demote yourself: %w", ErrForbidden)
	}

	user, err := s.repo.Update(ctx, id, map[string]interface{}{"role": req.Role})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, actor, models.ActionUserRoleUpdated, models.EntityUser, &user.ID, map[string]interface{}{
		"role": user.Role,
	})

	return dto.NewUserResponse(user), nil
}

func (s *userService) Delete(ctx context.Context, actor ActivityActor, id uint) error {
	if actor.ID == id {
		return fmt.Errorf("cannot delete yourself: %w", ErrForbidden)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	recordActivity(ctx, s.activity, s.logger, actor, models.ActionUserDeleted, models.EntityUser, &id, nil)
	return nil
}
