package authz

import (
	"fmt"

	"github.com/wholesale-portal/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

const roleCartReader = "cart_reader"

// BuiltinRoleSeeds 门户预置角色矩阵：管理员只读，零售商与销售代表可读写
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: roleCartReader,
			Policies: []Policy{
				{Object: "/carts", Action: "GET"},
				{Object: "/carts/:channel", Action: "GET"},
				{Object: "/carts/closeout/lists/:list_id", Action: "GET"},
			},
		},
		{
			Role:     constants.RoleAdmin,
			Inherits: []string{roleCartReader},
		},
		{
			Role:     constants.RoleRetailer,
			Inherits: []string{roleCartReader},
			Policies: []Policy{
				{Object: "/carts/:channel", Action: "DELETE"},
				{Object: "/carts/:channel/items", Action: "POST"},
				{Object: "/carts/:channel/items", Action: "PATCH"},
				{Object: "/carts/:channel/items/:product_id/:variant_id", Action: "DELETE"},
			},
		},
		{
			Role:     constants.RoleSalesRep,
			Inherits: []string{constants.RoleRetailer},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略（幂等）
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
