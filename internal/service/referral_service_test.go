package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/uplink-next/internal/models"
)

func TestRegisterResolvesSponsorCode(t *testing.T) {
	env := newServiceTestEnv(t, "referral_register", testCommissionSetting())
	root, err := env.referral.Register(RegisterMemberInput{ReferralCode: "root01", DisplayName: "Root"})
	if err != nil {
		t.Fatalf("register root failed: %v", err)
	}
	if root.SponsorID != nil || root.ReferralCode != "ROOT01" {
		t.Fatalf("unexpected root: %+v", root)
	}

	child, err := env.referral.Register(RegisterMemberInput{SponsorCode: "ROOT01", DisplayName: "Child"})
	if err != nil {
		t.Fatalf("register child failed: %v", err)
	}
	if child.SponsorID == nil || *child.SponsorID != root.ID {
		t.Fatalf("child should be attached to root: %+v", child)
	}
	if len(child.ReferralCode) != referralCodeLength {
		t.Fatalf("generated code has unexpected length: %q", child.ReferralCode)
	}

	if _, err := env.referral.Register(RegisterMemberInput{ReferralCode: "ROOT01"}); !errors.Is(err, ErrReferralCodeExists) {
		t.Fatalf("want ErrReferralCodeExists got %v", err)
	}
}

func TestRegisterFallsBackToDefaultRoot(t *testing.T) {
	setting := testCommissionSetting()
	setting.DefaultRootCode = "HOUSE"
	env := newServiceTestEnv(t, "referral_default_root", setting)
	house := env.createMember(t, "HOUSE", nil)

	member, err := env.referral.Register(RegisterMemberInput{SponsorCode: "UNKNOWN"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if member.SponsorID == nil || *member.SponsorID != house.ID {
		t.Fatalf("unresolved code should fall back to default root: %+v", member)
	}

	orphan := env.createMember(t, "ORPHAN", nil)
	attached, err := env.referral.Attach(orphan.ID, nil)
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if attached.SponsorID == nil || *attached.SponsorID != house.ID {
		t.Fatalf("attach without sponsor should use default root: %+v", attached)
	}

	self, err := env.referral.Attach(house.ID, nil)
	if err != nil {
		t.Fatalf("attach default root failed: %v", err)
	}
	if self.SponsorID != nil {
		t.Fatalf("default root must stay a root: %+v", self)
	}
}

func TestAttachRejectsCycles(t *testing.T) {
	env := newServiceTestEnv(t, "referral_cycle", testCommissionSetting())
	a := env.createMember(t, "A", nil)
	b := env.createMember(t, "B", a)
	c := env.createMember(t, "C", b)

	sponsorID := c.ID
	if _, err := env.referral.Attach(a.ID, &sponsorID); !errors.Is(err, ErrReferralCycle) {
		t.Fatalf("want ErrReferralCycle got %v", err)
	}
	if _, err := env.referral.Move(a.ID, &sponsorID); !errors.Is(err, ErrReferralCycle) {
		t.Fatalf("move: want ErrReferralCycle got %v", err)
	}
	selfID := a.ID
	if _, err := env.referral.Move(a.ID, &selfID); !errors.Is(err, ErrGraph) {
		t.Fatalf("self sponsor should be a graph error, got %v", err)
	}
	if env.reloadMember(t, a.ID).SponsorID != nil {
		t.Fatalf("rejected assignment must not change the graph")
	}

	missing := uint(99999)
	if _, err := env.referral.Move(c.ID, &missing); !errors.Is(err, ErrSponsorNotFound) {
		t.Fatalf("want ErrSponsorNotFound got %v", err)
	}
	moved, err := env.referral.Move(c.ID, nil)
	if err != nil {
		t.Fatalf("move to root failed: %v", err)
	}
	if moved.SponsorID != nil {
		t.Fatalf("moved member should be root")
	}
}

func TestDownlineHandlesDeepChain(t *testing.T) {
	env := newServiceTestEnv(t, "referral_deep", testCommissionSetting())
	const depth = 300
	root := env.createMember(t, "DEEP0", nil)
	prev := root
	for i := 1; i < depth; i++ {
		prev = env.createMember(t, fmt.Sprintf("DEEP%d", i), prev)
	}

	stats, err := env.referral.Stats(root.ID)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Frontline != 1 || stats.GroupCount != depth-1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	upline, err := env.referral.Upline(prev.ID, 1000)
	if err != nil {
		t.Fatalf("upline failed: %v", err)
	}
	if len(upline) != depth-1 || upline[len(upline)-1].ID != root.ID {
		t.Fatalf("upline should end at root, got %d members", len(upline))
	}
}

func TestTraversalDetectsCorruptedCycle(t *testing.T) {
	env := newServiceTestEnv(t, "referral_corrupt", testCommissionSetting())
	a := env.createMember(t, "A", nil)
	b := env.createMember(t, "B", a)
	c := env.createMember(t, "C", b)
	// 绕过服务层直接写入环 A -> C
	if err := env.db.Model(&models.Member{}).Where("id = ?", a.ID).Update("sponsor_id", c.ID).Error; err != nil {
		t.Fatalf("corrupt graph failed: %v", err)
	}

	if _, err := env.referral.Downline(a.ID); !errors.Is(err, ErrGraphCycle) {
		t.Fatalf("downline: want ErrGraphCycle got %v", err)
	}
	if _, err := env.referral.Upline(c.ID, 10); !errors.Is(err, ErrGraphCycle) {
		t.Fatalf("upline: want ErrGraphCycle got %v", err)
	}
	if _, err := env.stats.Overview(b.ID); !errors.Is(err, ErrGraphCycle) {
		t.Fatalf("overview: want ErrGraphCycle got %v", err)
	}
}

func TestRemoveReparentsChildren(t *testing.T) {
	env := newServiceTestEnv(t, "referral_remove", testCommissionSetting())
	a := env.createMember(t, "A", nil)
	b := env.createMember(t, "B", a)
	c1 := env.createMember(t, "C1", b)
	c2 := env.createMember(t, "C2", b)

	if err := env.referral.Remove(b.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	for _, child := range []*models.Member{c1, c2} {
		reloaded := env.reloadMember(t, child.ID)
		if reloaded.SponsorID == nil || *reloaded.SponsorID != a.ID {
			t.Fatalf("child %d should be reparented to A: %+v", child.ID, reloaded)
		}
	}
	if _, err := env.referral.GetMember(b.ID); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("removed member should not be found, got %v", err)
	}
	stats, err := env.referral.Stats(a.ID)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Frontline != 2 || stats.GroupCount != 2 {
		t.Fatalf("unexpected stats after remove: %+v", stats)
	}

	if err := env.referral.Remove(a.ID); err != nil {
		t.Fatalf("remove root failed: %v", err)
	}
	if env.reloadMember(t, c1.ID).SponsorID != nil {
		t.Fatalf("children of a removed root become roots")
	}
}

func TestTreeRespectsDepth(t *testing.T) {
	env := newServiceTestEnv(t, "referral_tree", testCommissionSetting())
	a := env.createMember(t, "A", nil)
	b1 := env.createMember(t, "B1", a)
	env.createMember(t, "B2", a)
	c := env.createMember(t, "C", b1)
	env.createMember(t, "D", c)

	tree, err := env.referral.Tree(a.ID, 2)
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	if tree.ID != a.ID || len(tree.Children) != 2 {
		t.Fatalf("unexpected root node: %+v", tree)
	}
	if tree.Children[0].ID != b1.ID {
		t.Fatalf("children should keep insertion order: %+v", tree.Children)
	}
	if len(tree.Children[0].Children) != 1 || tree.Children[0].Children[0].ID != c.ID {
		t.Fatalf("unexpected grandchildren: %+v", tree.Children[0].Children)
	}
	if len(tree.Children[0].Children[0].Children) != 0 {
		t.Fatalf("tree should stop at depth 2")
	}
}
