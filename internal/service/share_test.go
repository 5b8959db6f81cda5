package service

import (
	"context"
	"errors"
	"testing"

	"taskdrive/internal/domain"
	"taskdrive/internal/domain/models"
)

func TestShareGrantAndUpdate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	folder := env.seedFolder(t, "alice", "docs", nil)

	granted, err := env.shareSvc.Share(ctx, "alice", models.SubjectFolder, folder.ID, &models.ShareRequest{
		UserIDs:    []string{"bob", "carol"},
		Permission: models.PermissionView,
	})
	if err != nil {
		t.Fatalf("Share: %v", err)
	}
	if len(granted) != 2 {
		t.Fatalf("granted = %d, want 2", len(granted))
	}

	// Re-sharing the same grantee updates the level in place.
	_, err = env.shareSvc.Share(ctx, "alice", models.SubjectFolder, folder.ID, &models.ShareRequest{
		UserIDs:    []string{"bob"},
		Permission: models.PermissionEdit,
	})
	if err != nil {
		t.Fatalf("re-share: %v", err)
	}

	shares, err := env.shareSvc.ListShares(ctx, "alice", models.SubjectFolder, folder.ID)
	if err != nil {
		t.Fatalf("ListShares: %v", err)
	}
	if len(shares) != 2 {
		t.Fatalf("shares = %d, want 2 after upsert", len(shares))
	}
	for _, share := range shares {
		if share.GranteeID == "bob" && share.Permission != models.PermissionEdit {
			t.Errorf("bob permission = %q, want upgraded to edit", share.Permission)
		}
	}
}

func TestShareValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	folder := env.seedFolder(t, "alice", "docs", nil)

	tests := []struct {
		name string
		req  models.ShareRequest
	}{
		{"empty user list", models.ShareRequest{Permission: models.PermissionView}},
		{"bad permission", models.ShareRequest{UserIDs: []string{"bob"}, Permission: "admin"}},
		{"empty grantee", models.ShareRequest{UserIDs: []string{""}, Permission: models.PermissionView}},
		{"self grant", models.ShareRequest{UserIDs: []string{"alice"}, Permission: models.PermissionView}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.shareSvc.Share(ctx, "alice", models.SubjectFolder, folder.ID, &tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestShareOwnerOnly(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	folder := env.seedFolder(t, "alice", "docs", nil)
	env.grant(t, models.SubjectFolder, folder.ID, "bob", models.PermissionEdit)

	// Even an edit grant does not allow managing shares.
	_, err := env.shareSvc.Share(ctx, "bob", models.SubjectFolder, folder.ID, &models.ShareRequest{
		UserIDs:    []string{"carol"},
		Permission: models.PermissionView,
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("share err = %v, want forbidden", err)
	}

	if _, err := env.shareSvc.ListShares(ctx, "bob", models.SubjectFolder, folder.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("list err = %v, want forbidden", err)
	}

	if err := env.shareSvc.Unshare(ctx, "bob", models.SubjectFolder, folder.ID, "bob"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("unshare err = %v, want forbidden", err)
	}
}

func TestUnshareRevokesAccess(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	file := env.seedFile(t, "alice", "doc.txt", nil, "x")
	env.grant(t, models.SubjectFile, file.ID, "bob", models.PermissionView)

	if err := env.shareSvc.Unshare(ctx, "alice", models.SubjectFile, file.ID, "bob"); err != nil {
		t.Fatalf("Unshare: %v", err)
	}

	perm, err := env.resolver.ResolveFile(ctx, file.ID, "bob")
	if err != nil {
		t.Fatalf("ResolveFile: %v", err)
	}
	if perm != models.PermissionNone {
		t.Errorf("permission after revoke = %q, want none", perm)
	}
}
