package identity

import (
	"regexp"
	"strings"

	"github.com/meditrack/backend/internal/domain/shared"
)

// BranchStatus represents the status of a branch
type BranchStatus string

const (
	BranchStatusActive   BranchStatus = "active"
	BranchStatusInactive BranchStatus = "inactive"
)

// Branch represents a pharmacy branch. The code is the business key and
// stays unique locally even when a cloud copy carries a different id.
type Branch struct {
	shared.BaseEntity
	Code    string
	Name    string
	Address string
	Phone   string
	Email   string
	Status  BranchStatus
	IsMain  bool
}

var branchCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,50}$`)

// NewBranch creates a new branch with required fields
func NewBranch(code, name string) (*Branch, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if !branchCodePattern.MatchString(code) {
		return nil, shared.NewDomainError("INVALID_BRANCH_CODE", "Branch code must be 2-50 alphanumeric characters")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_BRANCH_NAME", "Branch name is required")
	}
	return &Branch{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
		Status:     BranchStatusActive,
	}, nil
}

// IsActive returns true if the branch is active
func (b *Branch) IsActive() bool {
	return b.Status == BranchStatusActive
}
