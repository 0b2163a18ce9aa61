package service

import (
	"fmt"

	"marketplace-escrow/internal/model"

	"github.com/casbin/casbin/v2"
)

// AuthorizationService answers "may this user perform this action on this
// resource". It is the capability check in front of privileged settlement
// operations — in particular, only administrators may resolve disputes.
type AuthorizationService struct {
	enforcer *casbin.Enforcer
}

// NewAuthorizationService loads the RBAC model and policy files.
func NewAuthorizationService(modelPath, policyPath string) (*AuthorizationService, error) {
	enforcer, err := casbin.NewEnforcer(modelPath, policyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RBAC enforcer: %w", err)
	}
	return &AuthorizationService{enforcer: enforcer}, nil
}

// CheckPermission evaluates the policy for the user's role.
func (s *AuthorizationService) CheckPermission(user *model.User, resource, action string) (bool, error) {
	allowed, err := s.enforcer.Enforce(string(user.Role), resource, action)
	if err != nil {
		return false, fmt.Errorf("permission check failed: %w", err)
	}
	return allowed, nil
}
