package service

import (
	"errors"
	"testing"
)

func TestNetworkOverviewCountsByDepth(t *testing.T) {
	env := newServiceTestEnv(t, "stats_overview", testCommissionSetting())
	root := env.createMember(t, "ROOT", nil)
	b1 := env.createMember(t, "B1", root)
	b2 := env.createMember(t, "B2", root)
	env.createMember(t, "C1", b1)
	env.createMember(t, "C2", b1)
	c3 := env.createMember(t, "C3", b2)
	env.createMember(t, "D1", c3)
	if err := env.referral.SetActive(b2.ID, false); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	overview, err := env.stats.Overview(root.ID)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if overview.Frontline != 2 || overview.GroupCount != 6 || overview.ActiveCount != 5 || overview.MaxDepth != 3 {
		t.Fatalf("unexpected overview: %+v", overview)
	}
	want := []int{2, 3, 1}
	if len(overview.Depths) != len(want) {
		t.Fatalf("unexpected depths: %+v", overview.Depths)
	}
	for i, count := range want {
		if overview.Depths[i].Depth != i+1 || overview.Depths[i].Count != count {
			t.Fatalf("depth %d: want %d got %+v", i+1, count, overview.Depths[i])
		}
	}

	stats, err := env.stats.Stats(b1.ID)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Frontline != 2 || stats.GroupCount != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	leaf, err := env.stats.Overview(c3.ID)
	if err != nil {
		t.Fatalf("leaf overview failed: %v", err)
	}
	if leaf.GroupCount != 1 || leaf.MaxDepth != 1 {
		t.Fatalf("unexpected leaf overview: %+v", leaf)
	}

	if _, err := env.stats.Overview(99999); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("want ErrMemberNotFound got %v", err)
	}
}
