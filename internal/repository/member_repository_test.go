package repository

import (
	"testing"
)

func TestMemberRepositoryChildrenAndReparent(t *testing.T) {
	db := openRepositoryTestDB(t, "member_repo_reparent")
	repo := NewMemberRepository(db)

	root := createRepoTestMember(t, db, "ROOT01", nil, "0")
	mid := createRepoTestMember(t, db, "MID001", &root.ID, "0")
	leafA := createRepoTestMember(t, db, "LEAF0A", &mid.ID, "0")
	leafB := createRepoTestMember(t, db, "LEAF0B", &mid.ID, "0")

	children, err := repo.ListBySponsorIDs([]uint{mid.ID})
	if err != nil {
		t.Fatalf("list children failed: %v", err)
	}
	if len(children) != 2 || children[0].ID != leafA.ID || children[1].ID != leafB.ID {
		t.Fatalf("unexpected children: %+v", children)
	}

	moved, err := repo.ReparentChildren(mid.ID, &root.ID)
	if err != nil {
		t.Fatalf("reparent failed: %v", err)
	}
	if moved != 2 {
		t.Fatalf("expected 2 moved, got %d", moved)
	}
	count, err := repo.CountBySponsorID(root.ID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected root frontline 3, got %d", count)
	}

	if err := repo.Delete(mid.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	gone, err := repo.GetByID(mid.ID)
	if err != nil {
		t.Fatalf("get deleted failed: %v", err)
	}
	if gone != nil {
		t.Fatalf("soft deleted member should not be returned")
	}
}

func TestMemberRepositoryGetByReferralCodeCaseInsensitive(t *testing.T) {
	db := openRepositoryTestDB(t, "member_repo_code")
	repo := NewMemberRepository(db)
	created := createRepoTestMember(t, db, "ABC123", nil, "0")

	got, err := repo.GetByReferralCode("  abc123 ")
	if err != nil {
		t.Fatalf("get by code failed: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("expected member %d, got %+v", created.ID, got)
	}
	none, err := repo.GetByReferralCode("")
	if err != nil || none != nil {
		t.Fatalf("empty code should return nil")
	}
}
