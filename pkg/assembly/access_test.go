package assembly

import (
	"context"
	"errors"
	"testing"
)

// teamAccessChecker 按名单拒绝特定分片的测试检查器。
type teamAccessChecker struct {
	denied       map[string]bool
	failing      map[string]bool
	tokenFailing bool
	version      string
}

func (c *teamAccessChecker) CanRead(ctx context.Context, userID, entityID string) (bool, error) {
	if c.failing[entityID] {
		return false, errors.New("acl lookup failed")
	}
	return !c.denied[entityID], nil
}

func (c *teamAccessChecker) ScopeToken(ctx context.Context, userID string) (string, error) {
	if c.tokenFailing {
		return "", errors.New("scope service unavailable")
	}
	return "team:" + userID, nil
}

func (c *teamAccessChecker) Version() string {
	return c.version
}

func accessCandidates(ids ...string) []*SourceCandidate {
	result := make([]*SourceCandidate, 0, len(ids))
	for _, id := range ids {
		result = append(result, &SourceCandidate{EntityID: id, RelationshipType: "contacts"})
	}
	return result
}

func TestAccessFilter_NoopIsIdentity(t *testing.T) {
	f := NewAccessFilter(nil, nil)
	if f.Enabled() {
		t.Error("expected filter to be disabled without a checker")
	}

	candidates := accessCandidates("c1", "c2")
	kept, removed := f.Apply(context.Background(), candidates, "user-1")
	if len(kept) != 2 || len(removed) != 0 {
		t.Errorf("expected identity, got kept=%d removed=%d", len(kept), len(removed))
	}
}

func TestAccessFilter_EmptyUserIsIdentity(t *testing.T) {
	f := NewAccessFilter(&teamAccessChecker{denied: map[string]bool{"c1": true}}, nil)

	kept, removed := f.Apply(context.Background(), accessCandidates("c1", "c2"), "")
	if len(kept) != 2 || len(removed) != 0 {
		t.Errorf("expected identity without a user, got kept=%d removed=%d", len(kept), len(removed))
	}
}

func TestAccessFilter_RemovesDenied(t *testing.T) {
	f := NewAccessFilter(&teamAccessChecker{denied: map[string]bool{"c2": true}}, nil)
	if !f.Enabled() {
		t.Fatal("expected filter to be enabled")
	}

	kept, removed := f.Apply(context.Background(), accessCandidates("c1", "c2", "c3"), "user-1")
	if len(kept) != 2 {
		t.Fatalf("expected 2 kept, got %d", len(kept))
	}
	if kept[0].EntityID != "c1" || kept[1].EntityID != "c3" {
		t.Errorf("expected order preserved, got %s %s", kept[0].EntityID, kept[1].EntityID)
	}
	if len(removed) != 1 || removed[0].EntityID != "c2" {
		t.Errorf("expected c2 removed, got %v", removed)
	}
}

func TestAccessFilter_CheckErrorExcludes(t *testing.T) {
	// 检查失败按不可见处理，宁可少给也不泄露
	f := NewAccessFilter(&teamAccessChecker{failing: map[string]bool{"c1": true}}, nil)

	kept, removed := f.Apply(context.Background(), accessCandidates("c1", "c2"), "user-1")
	if len(kept) != 1 || kept[0].EntityID != "c2" {
		t.Errorf("expected only c2 kept, got %v", kept)
	}
	if len(removed) != 1 || removed[0].EntityID != "c1" {
		t.Errorf("expected c1 removed on check error, got %v", removed)
	}
}
