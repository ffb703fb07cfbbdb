package features

import (
	"fmt"

	apperrors "github.com/louisbranch/featureadmin/internal/platform/errors"
)

// Enabled reports whether feat is on for user. A nil user is anonymous and
// only sees features switched on for everyone.
func Enabled(feat Feature, user *User) bool {
	if feat.Everyone {
		return true
	}
	if user == nil {
		return false
	}
	if feat.Admins && user.Admin {
		return true
	}
	if feat.Staff && user.Staff {
		return true
	}
	for _, ref := range feat.Cohorts {
		if user.InCohort(ref.Name) {
			return true
		}
	}
	return false
}

// Snapshot is the stored state of every known feature at one point in time.
type Snapshot struct {
	Features []Feature `json:"features"`
}

// Client evaluates flags by name against a snapshot.
type Client struct {
	registry *Registry
	byName   map[string]Feature
}

// NewClient builds a client for the registry's features. Registry features
// missing from the snapshot evaluate as off.
func NewClient(registry *Registry, snapshot Snapshot) *Client {
	byName := make(map[string]Feature, len(snapshot.Features))
	for _, feat := range snapshot.Features {
		byName[feat.Name] = feat
	}
	return &Client{registry: registry, byName: byName}
}

// Enabled evaluates the named feature for user.
func (c *Client) Enabled(name string, user *User) (bool, error) {
	if _, ok := c.registry.Lookup(name); !ok {
		return false, apperrors.WithMetadata(apperrors.CodeFeatureUnknown,
			fmt.Sprintf("unknown feature %q", name),
			map[string]string{"Name": name})
	}
	feat, ok := c.byName[name]
	if !ok {
		return false, nil
	}
	return Enabled(feat, user), nil
}

// All evaluates every registry feature for user.
func (c *Client) All(user *User) map[string]bool {
	out := make(map[string]bool, c.registry.Len())
	for _, name := range c.registry.Names() {
		feat, ok := c.byName[name]
		out[name] = ok && Enabled(feat, user)
	}
	return out
}
