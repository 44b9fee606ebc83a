// Package accounts manages customer and administrator accounts: registration, login and
// the admin user-management operations.
package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joao-fontenele/beverageshop/internal/auth"
	"github.com/joao-fontenele/beverageshop/internal/domain"
)

var (
	errUserNotFound      = domain.NotFound("Không tìm thấy người dùng")
	errBadCredentials    = domain.Invalid("Tên đăng nhập hoặc mật khẩu không đúng")
	errAccountLocked     = domain.Invalid("Tài khoản đã bị khóa")
	errProtectedRole     = domain.Conflict("Không thể thay đổi quyền tài khoản hệ thống!")
	errProtectedStatus   = domain.Conflict("Không thể khóa tài khoản hệ thống!")
	errProtectedDelete   = domain.Conflict("Không thể xóa tài khoản hệ thống!")
	errLastAdmin         = domain.Conflict("Phải có ít nhất 1 Admin trong hệ thống!")
	errUserHasOrders     = domain.Conflict("Không thể xóa người dùng đã có đơn hàng!")
	errMissingCredential = domain.Invalid("Tên đăng nhập và mật khẩu không được để trống")
)

type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Store interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateProfile(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id int64) error
	HasOrders(ctx context.Context, id int64) (bool, error)
	CountActiveAdmins(ctx context.Context) (int, error)
}

type Service struct {
	tx     Transactor
	users  Store
	tokens *auth.TokenIssuer
	logger *slog.Logger
}

func NewService(tx Transactor, users Store, tokens *auth.TokenIssuer, logger *slog.Logger) *Service {
	return &Service{tx: tx, users: users, tokens: tokens, logger: logger}
}

type Registration struct {
	Username string
	Password string
	Email    string
	FullName string
	Phone    string
	Address  string
}

// Register creates a customer account and signs the caller in.
func (s *Service) Register(ctx context.Context, reg Registration) (*domain.User, string, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	if reg.Username == "" || reg.Password == "" {
		return nil, "", errMissingCredential
	}

	existing, err := s.users.GetByUsername(ctx, reg.Username)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", errDuplicateUsername
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: hash,
		FullName:     reg.FullName,
		Phone:        reg.Phone,
		Address:      reg.Address,
		Role:         domain.RoleCustomer,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, token, nil
}

// Login checks the credentials and issues a token. A password stored under the legacy
// digest is replaced by a bcrypt hash on the first successful login.
func (s *Service) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", errBadCredentials
	}

	ok, rehash := auth.VerifyPassword(password, user.PasswordHash)
	if !ok {
		s.logger.Warn("login failed", "username", user.Username)
		return nil, "", errBadCredentials
	}
	if !user.IsActive {
		return nil, "", errAccountLocked
	}

	if rehash {
		if hash, err := auth.HashPassword(password); err != nil {
			s.logger.Error("failed to hash password", "error", err, "user_id", user.ID)
		} else if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
			s.logger.Error("failed to upgrade password hash", "error", err, "user_id", user.ID)
		} else {
			user.PasswordHash = hash
			s.logger.Info("password hash upgraded", "user_id", user.ID)
		}
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// ensureAnotherAdmin refuses to remove u from the set of active admins when it is the
// last one. It must run inside a transaction.
func (s *Service) ensureAnotherAdmin(ctx context.Context, u *domain.User) error {
	if u.Role != domain.RoleAdmin || !u.IsActive {
		return nil
	}
	count, err := s.users.CountActiveAdmins(ctx)
	if err != nil {
		return err
	}
	if count <= 1 {
		return errLastAdmin
	}
	return nil
}

// modify loads the user with its row locked and hands it to fn inside one transaction.
// The active admin rows are locked first, so every change to the admin set takes its
// locks in the same order as ensureAnotherAdmin.
func (s *Service) modify(ctx context.Context, id int64, fn func(ctx context.Context, u *domain.User) error) (*domain.User, error) {
	var user *domain.User
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.CountActiveAdmins(ctx); err != nil {
			return err
		}

		var err error
		user, err = s.users.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return errUserNotFound
		}
		return fn(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) UpdateRole(ctx context.Context, id int64, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.Invalid("Quyền không hợp lệ")
	}

	return s.modify(ctx, id, func(ctx context.Context, u *domain.User) error {
		if u.IsSystemAdmin() {
			return errProtectedRole
		}
		if u.Role == role {
			return nil
		}
		if err := s.ensureAnotherAdmin(ctx, u); err != nil {
			return err
		}

		previous := u.Role
		u.Role = role
		if err := s.users.UpdateProfile(ctx, u); err != nil {
			return err
		}
		s.logger.Info("user role updated", "user_id", u.ID, "from", previous, "to", role)
		return nil
	})
}

// ToggleStatus flips the active flag of a user and returns the updated account.
func (s *Service) ToggleStatus(ctx context.Context, id int64) (*domain.User, error) {
	return s.modify(ctx, id, func(ctx context.Context, u *domain.User) error {
		if u.IsActive {
			if u.IsSystemAdmin() {
				return errProtectedStatus
			}
			if err := s.ensureAnotherAdmin(ctx, u); err != nil {
				return err
			}
		}

		u.IsActive = !u.IsActive
		if err := s.users.UpdateProfile(ctx, u); err != nil {
			return err
		}
		s.logger.Info("user status updated", "user_id", u.ID, "is_active", u.IsActive)
		return nil
	})
}

type Profile struct {
	Email    string
	FullName string
	Phone    string
	Address  string
	Role     domain.Role
	IsActive bool
}

// UpdateProfile replaces the account details. The system administrator keeps its role and
// stays active whatever the request says.
func (s *Service) UpdateProfile(ctx context.Context, id int64, p Profile) (*domain.User, error) {
	return s.modify(ctx, id, func(ctx context.Context, u *domain.User) error {
		u.Email = p.Email
		u.FullName = p.FullName
		u.Phone = p.Phone
		u.Address = p.Address

		if !u.IsSystemAdmin() {
			if !p.Role.Valid() {
				return domain.Invalid("Quyền không hợp lệ")
			}
			if p.Role != domain.RoleAdmin || !p.IsActive {
				if err := s.ensureAnotherAdmin(ctx, u); err != nil {
					return err
				}
			}
			u.Role = p.Role
			u.IsActive = p.IsActive
		}

		if err := s.users.UpdateProfile(ctx, u); err != nil {
			return err
		}
		s.logger.Info("user updated", "user_id", u.ID)
		return nil
	})
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	_, err := s.modify(ctx, id, func(ctx context.Context, u *domain.User) error {
		if u.IsSystemAdmin() {
			return errProtectedDelete
		}

		hasOrders, err := s.users.HasOrders(ctx, u.ID)
		if err != nil {
			return err
		}
		if hasOrders {
			return errUserHasOrders
		}

		if err := s.ensureAnotherAdmin(ctx, u); err != nil {
			return err
		}

		if err := s.users.Delete(ctx, u.ID); err != nil {
			return err
		}
		s.logger.Info("user deleted", "user_id", u.ID, "username", u.Username)
		return nil
	})
	return err
}
