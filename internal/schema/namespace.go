package schema

import (
	"slices"

	"github.com/roach88/fieldir/internal/metadata"
)

// NamespaceAnnotation is what one role brings to a field it may see: the
// model's select filter and the argument presets applied on its behalf.
type NamespaceAnnotation struct {
	Filter          *metadata.Predicate
	ArgumentPresets []metadata.ArgumentPreset
}

// Namespace gates visibility by role. The zero value is visible to every
// role; Restricted namespaces are visible only to the roles they list.
type Namespace struct {
	restricted bool
	roles      map[metadata.Role]*NamespaceAnnotation
}

// Restricted returns a namespace visible only to roles.
func Restricted(roles map[metadata.Role]*NamespaceAnnotation) Namespace {
	return Namespace{restricted: true, roles: roles}
}

// Visible reports whether role may see the annotated element.
func (n Namespace) Visible(role metadata.Role) bool {
	if !n.restricted {
		return true
	}
	_, ok := n.roles[role]
	return ok
}

// Annotation returns the role's namespace annotation. Unrestricted
// namespaces return nil and true.
func (n Namespace) Annotation(role metadata.Role) (*NamespaceAnnotation, bool) {
	if !n.restricted {
		return nil, true
	}
	a, ok := n.roles[role]
	return a, ok
}

// IsRestricted reports whether the namespace lists roles.
func (n Namespace) IsRestricted() bool {
	return n.restricted
}

// Roles returns the listed roles in sorted order.
func (n Namespace) Roles() []metadata.Role {
	roles := make([]metadata.Role, 0, len(n.roles))
	for r := range n.roles {
		roles = append(roles, r)
	}
	slices.Sort(roles)
	return roles
}

// modelNamespace lists the roles with select permission on model.
func modelNamespace(model *metadata.Model) Namespace {
	roles := make(map[metadata.Role]*NamespaceAnnotation, len(model.Permissions))
	for role, perm := range model.Permissions {
		roles[role] = &NamespaceAnnotation{
			Filter:          perm.Filter,
			ArgumentPresets: perm.ArgumentPresets,
		}
	}
	return Restricted(roles)
}

// argumentNamespace lists the roles that see model but do not preset
// argument.
func argumentNamespace(model *metadata.Model, argument string) Namespace {
	roles := make(map[metadata.Role]*NamespaceAnnotation, len(model.Permissions))
	for role, perm := range model.Permissions {
		if slices.ContainsFunc(perm.ArgumentPresets, func(p metadata.ArgumentPreset) bool {
			return p.Argument == argument
		}) {
			continue
		}
		roles[role] = &NamespaceAnnotation{
			Filter:          perm.Filter,
			ArgumentPresets: perm.ArgumentPresets,
		}
	}
	return Restricted(roles)
}
