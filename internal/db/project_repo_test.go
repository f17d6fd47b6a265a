package db

import (
	"context"
	"testing"
)

func TestProjectRepoCRUD(t *testing.T) {
	database, _ := openTestDB(t)
	repo := NewProjectRepo(database.SQL())
	ctx := context.Background()

	project := &Project{
		Name:        "shop",
		Description: "storefront",
		Location:    "/home/dev/shop",
		Status:      StatusInProgress,
	}
	if err := repo.Create(ctx, project); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if project.ID == "" {
		t.Fatal("Create should assign an id")
	}
	if project.CreatedAt.IsZero() || project.UpdatedAt.IsZero() {
		t.Fatal("Create should assign timestamps")
	}

	got, err := repo.Get(ctx, project.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for existing project")
	}
	if got.Name != "shop" || got.Location != "/home/dev/shop" || got.Status != StatusInProgress {
		t.Errorf("Get returned %+v", got)
	}

	got.Description = "online storefront"
	got.Status = StatusCompleted
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}

	updated, err := repo.Get(ctx, project.ID)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if updated.Description != "online storefront" || updated.Status != StatusCompleted {
		t.Errorf("update not persisted: %+v", updated)
	}

	deleted, err := repo.Delete(ctx, project.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Error("Delete should report true for existing project")
	}

	gone, err := repo.Get(ctx, project.ID)
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if gone != nil {
		t.Error("project should be gone after delete")
	}
}

func TestProjectRepoGetMissing(t *testing.T) {
	database, _ := openTestDB(t)
	repo := NewProjectRepo(database.SQL())

	got, err := repo.Get(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get missing project = %+v, want nil", got)
	}
}

func TestProjectRepoListFilter(t *testing.T) {
	database, _ := openTestDB(t)
	repo := NewProjectRepo(database.SQL())
	ctx := context.Background()

	for _, p := range []*Project{
		{Name: "a", Location: "/a", Status: StatusInProgress},
		{Name: "b", Location: "/b", Status: StatusOnHold},
		{Name: "c", Location: "/c", Status: StatusInProgress},
	} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create %s: %v", p.Name, err)
		}
	}

	all, err := repo.List(ctx, ProjectFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List all = %d projects, want 3", len(all))
	}

	inProgress, err := repo.List(ctx, ProjectFilter{Status: StatusInProgress})
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(inProgress) != 2 {
		t.Errorf("List in_progress = %d projects, want 2", len(inProgress))
	}
}

func TestProjectRepoUpdateMissing(t *testing.T) {
	database, _ := openTestDB(t)
	repo := NewProjectRepo(database.SQL())

	err := repo.Update(context.Background(), &Project{ID: "ghost", Name: "x", Location: "/x", Status: StatusOnHold})
	if err == nil {
		t.Fatal("expected error updating missing project, got nil")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusInitialStage, StatusInProgress, StatusCompleted, StatusOnHold, StatusAbandoned} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false, want true", s)
		}
	}
	if ValidStatus("finished") {
		t.Error(`ValidStatus("finished") = true, want false`)
	}
}
