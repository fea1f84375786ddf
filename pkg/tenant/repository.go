package tenant

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// RepositoryHelper provides tenant-aware query building for MongoDB
// repositories. Embed in repository structs to add tenant filtering.
type RepositoryHelper struct {
	// EnforceTenant when true, returns an error if tenant context is missing.
	EnforceTenant bool
}

// NewRepositoryHelper creates a new RepositoryHelper.
func NewRepositoryHelper(enforceTenant bool) *RepositoryHelper {
	return &RepositoryHelper{EnforceTenant: enforceTenant}
}

// WithTenantFilter adds tenant filtering to a MongoDB query filter.
func (h *RepositoryHelper) WithTenantFilter(ctx context.Context, filter bson.M) (bson.M, error) {
	tc, err := FromContext(ctx)
	if err != nil {
		if h.EnforceTenant {
			return nil, err
		}
		return filter, nil
	}
	return scoped(tc, filter), nil
}

// WithTenantFilterOptional adds tenant filtering without requiring tenant
// context; the filter is returned unchanged when the context has none.
func (h *RepositoryHelper) WithTenantFilterOptional(ctx context.Context, filter bson.M) bson.M {
	return scoped(FromContextOptional(ctx), filter)
}

// WithNetworkFilter widens the filter to the caller's whole network: a shift
// published into a network is visible to every member tenant.
func (h *RepositoryHelper) WithNetworkFilter(ctx context.Context, filter bson.M) bson.M {
	tc := FromContextOptional(ctx)

	out := bson.M{}
	for k, v := range filter {
		out[k] = v
	}

	switch {
	case tc.NetworkID != "":
		out["$or"] = bson.A{
			bson.M{"tenantId": tc.TenantID},
			bson.M{"networkId": tc.NetworkID},
		}
	case tc.TenantID != "":
		out["tenantId"] = tc.TenantID
	}
	return out
}

// ValidateOwnership verifies that a fetched resource belongs to the tenant
// scope in context.
func (h *RepositoryHelper) ValidateOwnership(ctx context.Context, resourceTenantID, resourceNetworkID string) error {
	tc, err := FromContext(ctx)
	if err != nil {
		if h.EnforceTenant {
			return err
		}
		return nil
	}
	return tc.ValidateOwnership(resourceTenantID, resourceNetworkID)
}

func scoped(tc *Context, filter bson.M) bson.M {
	out := bson.M{}
	for k, v := range filter {
		out[k] = v
	}
	if tc.TenantID != "" {
		out["tenantId"] = tc.TenantID
	}
	return out
}
