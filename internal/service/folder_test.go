package service

import (
	"context"
	"errors"
	"testing"

	"taskdrive/internal/domain"
	"taskdrive/internal/domain/models"
)

func TestCreateFolder(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	folder, err := env.folderSvc.CreateFolder(ctx, "alice", &models.CreateFolderRequest{Name: "  docs  "})
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if folder.Name != "docs" {
		t.Errorf("name = %q, want trimmed %q", folder.Name, "docs")
	}
	if folder.StorageKeyPrefix != "users/alice/docs/" {
		t.Errorf("storage prefix = %q", folder.StorageKeyPrefix)
	}

	t.Run("duplicate name conflicts with existing id", func(t *testing.T) {
		_, err := env.folderSvc.CreateFolder(ctx, "alice", &models.CreateFolderRequest{Name: "docs"})
		var conflict *domain.ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("err = %v, want ConflictError", err)
		}
		if conflict.ResourceID != folder.ID {
			t.Errorf("conflict id = %q, want %q", conflict.ResourceID, folder.ID)
		}
	})

	t.Run("slash in name rejected", func(t *testing.T) {
		_, err := env.folderSvc.CreateFolder(ctx, "alice", &models.CreateFolderRequest{Name: "a/b"})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("creating in foreign folder requires edit grant", func(t *testing.T) {
		_, err := env.folderSvc.CreateFolder(ctx, "bob", &models.CreateFolderRequest{
			Name:     "inside",
			ParentID: &folder.ID,
		})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("err = %v, want forbidden", err)
		}

		env.grant(t, models.SubjectFolder, folder.ID, "bob", models.PermissionEdit)
		created, err := env.folderSvc.CreateFolder(ctx, "bob", &models.CreateFolderRequest{
			Name:     "inside",
			ParentID: &folder.ID,
		})
		if err != nil {
			t.Fatalf("CreateFolder after grant: %v", err)
		}
		if created.OwnerID != "bob" {
			t.Errorf("owner = %q, want bob", created.OwnerID)
		}
	})
}

func TestUpdateFolderMove(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a := env.seedFolder(t, "alice", "a", nil)
	b := env.seedFolder(t, "alice", "b", a)
	c := env.seedFolder(t, "alice", "c", b)
	sibling := env.seedFolder(t, "alice", "side", nil)

	t.Run("move into own subtree rejected", func(t *testing.T) {
		_, err := env.folderSvc.UpdateFolder(ctx, "alice", a.ID, &models.UpdateFolderRequest{ParentID: &c.ID})
		if !errors.Is(err, domain.ErrCyclicMove) {
			t.Errorf("err = %v, want cyclic move", err)
		}
	})

	t.Run("move onto itself rejected", func(t *testing.T) {
		_, err := env.folderSvc.UpdateFolder(ctx, "alice", a.ID, &models.UpdateFolderRequest{ParentID: &a.ID})
		if !errors.Is(err, domain.ErrInvalidMove) {
			t.Errorf("err = %v, want invalid move", err)
		}
	})

	t.Run("valid move keeps storage prefix", func(t *testing.T) {
		moved, err := env.folderSvc.UpdateFolder(ctx, "alice", c.ID, &models.UpdateFolderRequest{ParentID: &sibling.ID})
		if err != nil {
			t.Fatalf("UpdateFolder: %v", err)
		}
		if moved.ParentID == nil || *moved.ParentID != sibling.ID {
			t.Errorf("parent = %v, want %s", moved.ParentID, sibling.ID)
		}
		if moved.StorageKeyPrefix != c.StorageKeyPrefix {
			t.Errorf("storage prefix changed on move: %q -> %q", c.StorageKeyPrefix, moved.StorageKeyPrefix)
		}
	})

	t.Run("rename onto existing sibling conflicts", func(t *testing.T) {
		name := "side"
		_, err := env.folderSvc.UpdateFolder(ctx, "alice", a.ID, &models.UpdateFolderRequest{Name: &name})
		if !errors.Is(err, domain.ErrConflict) {
			t.Errorf("err = %v, want conflict", err)
		}
	})

	t.Run("move to root via empty parent id", func(t *testing.T) {
		empty := ""
		moved, err := env.folderSvc.UpdateFolder(ctx, "alice", b.ID, &models.UpdateFolderRequest{ParentID: &empty})
		if err != nil {
			t.Fatalf("UpdateFolder: %v", err)
		}
		if moved.ParentID != nil {
			t.Errorf("parent = %v, want root", moved.ParentID)
		}
	})
}

func TestDeleteFolderRemovesBlobs(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	folder := env.seedFolder(t, "alice", "docs", nil)
	env.seedFile(t, "alice", "a.txt", folder, "aaa")
	env.seedFile(t, "alice", "b.txt", folder, "bbb")
	outside := env.seedFile(t, "alice", "keep.txt", nil, "keep")

	if err := env.folderSvc.DeleteFolder(ctx, "alice", folder.ID); err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}

	keys, err := env.blobs.ListPrefix(ctx, folder.StorageKeyPrefix)
	if err != nil {
		t.Fatalf("ListPrefix: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("blobs remaining under deleted folder: %v", keys)
	}

	if _, err := env.blobs.Size(ctx, outside.StorageKey); err != nil {
		t.Errorf("unrelated blob removed: %v", err)
	}

	if _, err := env.folders.GetByID(ctx, folder.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("folder row still present, err = %v", err)
	}
}

// Deleting a folder removes every descendant folder and file row, not just
// the folder itself.
func TestDeleteFolderCascadesToDescendants(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	top := env.seedFolder(t, "alice", "docs", nil)
	sub := env.seedFolder(t, "alice", "reports", top)
	deep := env.seedFolder(t, "alice", "archive", sub)
	inSub := env.seedFile(t, "alice", "q1.txt", sub, "numbers")
	inDeep := env.seedFile(t, "alice", "old.txt", deep, "history")

	if err := env.folderSvc.DeleteFolder(ctx, "alice", top.ID); err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}

	for _, id := range []string{top.ID, sub.ID, deep.ID} {
		if _, err := env.folders.GetByID(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("folder %s survived cascade, err = %v", id, err)
		}
	}
	for _, file := range []*models.File{inSub, inDeep} {
		if _, err := env.files.GetByID(ctx, file.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("file %s survived cascade, err = %v", file.Name, err)
		}
	}

	keys, err := env.blobs.ListPrefix(ctx, top.StorageKeyPrefix)
	if err != nil {
		t.Fatalf("ListPrefix: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("blobs remaining under deleted subtree: %v", keys)
	}
}

func TestDeleteFolderRequiresEdit(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	folder := env.seedFolder(t, "alice", "docs", nil)
	env.grant(t, models.SubjectFolder, folder.ID, "bob", models.PermissionView)

	if err := env.folderSvc.DeleteFolder(ctx, "bob", folder.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("err = %v, want forbidden", err)
	}
}

func TestListChildren(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	mine := env.seedFolder(t, "alice", "mine", nil)
	env.seedFolder(t, "bob", "theirs", nil)
	env.seedFile(t, "alice", "root.txt", nil, "x")

	t.Run("root shows only own items", func(t *testing.T) {
		contents, err := env.folderSvc.ListChildren(ctx, "alice", nil)
		if err != nil {
			t.Fatalf("ListChildren: %v", err)
		}
		if len(contents.Folders) != 1 || contents.Folders[0].ID != mine.ID {
			t.Errorf("folders = %+v, want only %s", contents.Folders, mine.Name)
		}
		if len(contents.Files) != 1 {
			t.Errorf("files = %+v, want one", contents.Files)
		}
		if contents.CurrentFolder != nil {
			t.Errorf("root listing has a current folder")
		}
	})

	t.Run("folder listing includes breadcrumbs", func(t *testing.T) {
		child := env.seedFolder(t, "alice", "child", mine)
		env.seedFile(t, "alice", "inner.txt", child, "y")

		contents, err := env.folderSvc.ListChildren(ctx, "alice", &child.ID)
		if err != nil {
			t.Fatalf("ListChildren: %v", err)
		}
		if len(contents.Breadcrumbs) != 2 {
			t.Fatalf("breadcrumbs = %+v, want 2 entries", contents.Breadcrumbs)
		}
		if contents.Breadcrumbs[0].ID != mine.ID || contents.Breadcrumbs[1].ID != child.ID {
			t.Errorf("breadcrumbs not root-first: %+v", contents.Breadcrumbs)
		}
		if len(contents.Files) != 1 {
			t.Errorf("files = %+v, want one", contents.Files)
		}
	})

	t.Run("no access means forbidden", func(t *testing.T) {
		_, err := env.folderSvc.ListChildren(ctx, "bob", &mine.ID)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("err = %v, want forbidden", err)
		}
	})
}
