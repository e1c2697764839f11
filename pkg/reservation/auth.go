package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const timingEqualizerPassword = "tablebook-unknown-manager"

// ManagerAuthOption configures a ManagerAuth instance.
type ManagerAuthOption func(*ManagerAuth)

// ManagerAuth verifies manager credentials against bcrypt hashes.
type ManagerAuth struct {
	store         ManagerStore
	logger        OperationLogger
	cost          int
	equalizerOnce sync.Once
	equalizerHash []byte
}

// WithAuthLogger wires an operation logger into ManagerAuth.
func WithAuthLogger(logger OperationLogger) ManagerAuthOption {
	return func(auth *ManagerAuth) {
		auth.logger = logger
	}
}

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) ManagerAuthOption {
	return func(auth *ManagerAuth) {
		auth.cost = cost
	}
}

// NewManagerAuth wires a ManagerAuth.
func NewManagerAuth(store ManagerStore, options ...ManagerAuthOption) (*ManagerAuth, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: manager store dependency is nil", ErrInvalidServiceConfig)
	}
	auth := &ManagerAuth{store: store, cost: bcrypt.DefaultCost}
	for _, option := range options {
		if option != nil {
			option(auth)
		}
	}
	if auth.cost < bcrypt.MinCost || auth.cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d out of range", ErrInvalidServiceConfig, auth.cost)
	}
	return auth, nil
}

// CreateManager stores a new manager account with a hashed password.
func (auth *ManagerAuth) CreateManager(ctx context.Context, rawLoginID string, password string) (LoginID, error) {
	loginID, operationError := NewLoginID(rawLoginID)
	if operationError == nil && strings.TrimSpace(password) == "" {
		operationError = newValidationError(fieldPassword, messageEmptyPassword, ErrInvalidPassword)
	}
	if operationError == nil {
		operationError = auth.storeCredential(ctx, loginID, password)
	}
	auth.logOperation(ctx, OperationLog{
		Operation: operationCreateManager,
		LoginID:   loginID,
		Error:     operationError,
	})
	if operationError != nil {
		return LoginID{}, operationError
	}
	return loginID, nil
}

// Authenticate reports whether the login and password match a stored manager.
// Unknown logins and wrong passwords are indistinguishable; only storage failures return an error.
func (auth *ManagerAuth) Authenticate(ctx context.Context, rawLoginID string, password string) (bool, error) {
	authenticated, operationError := auth.verify(ctx, rawLoginID, password)
	entry := OperationLog{Operation: operationAuthenticate, Error: operationError}
	if loginID, err := NewLoginID(rawLoginID); err == nil {
		entry.LoginID = loginID
	}
	if operationError == nil && !authenticated {
		entry.Error = ErrInvalidCredentials
	}
	auth.logOperation(ctx, entry)
	return authenticated, operationError
}

func (auth *ManagerAuth) storeCredential(ctx context.Context, loginID LoginID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), auth.cost)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPassword, err)
	}
	credential, err := NewManagerCredential(loginID, string(hash))
	if err != nil {
		return err
	}
	return auth.store.CreateManager(ctx, credential)
}

func (auth *ManagerAuth) verify(ctx context.Context, rawLoginID string, password string) (bool, error) {
	loginID, err := NewLoginID(rawLoginID)
	if err != nil || password == "" {
		auth.equalizeTiming(password)
		return false, nil
	}
	credential, err := auth.store.GetManager(ctx, loginID)
	if errors.Is(err, ErrManagerNotFound) {
		auth.equalizeTiming(password)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash()), []byte(password)) != nil {
		return false, nil
	}
	return true, nil
}

// equalizeTiming burns one bcrypt comparison so unknown logins cost as much as known ones.
func (auth *ManagerAuth) equalizeTiming(password string) {
	auth.equalizerOnce.Do(func() {
		auth.equalizerHash, _ = bcrypt.GenerateFromPassword([]byte(timingEqualizerPassword), auth.cost)
	})
	_ = bcrypt.CompareHashAndPassword(auth.equalizerHash, []byte(password))
}

func (auth *ManagerAuth) logOperation(ctx context.Context, entry OperationLog) {
	if auth.logger == nil {
		return
	}
	if entry.Error != nil {
		entry.Status = operationStatusError
	} else {
		entry.Status = operationStatusOK
	}
	auth.logger.LogOperation(ctx, entry)
}
