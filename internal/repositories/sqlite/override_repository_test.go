package sqlite

import (
	"context"
	"testing"

	"github.com/asakaida/monban/internal/entities"
)

func TestOverrideRepository_AddIsNotAnUpsert(t *testing.T) {
	repo := NewOverrideRepository(setupTestDB(t))
	ctx := context.Background()

	for _, kind := range entities.SubjectKinds {
		t.Run(string(kind), func(t *testing.T) {
			created, err := repo.Add(ctx, &entities.SubjectOverride{
				Kind: kind, GuildID: "1", SubjectID: "42", Command: "say", Allow: false,
			})
			if err != nil || !created {
				t.Fatalf("Add() = %v, %v, want true, nil", created, err)
			}

			created, err = repo.Add(ctx, &entities.SubjectOverride{
				Kind: kind, GuildID: "1", SubjectID: "42", Command: "say", Allow: true,
			})
			if err != nil {
				t.Fatalf("second Add() error = %v", err)
			}
			if created {
				t.Error("second Add() created = true, want false")
			}

			got, err := repo.Get(ctx, kind, "1", "42", "say")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got == nil || got.Allow {
				t.Errorf("Get() = %+v, want original deny", got)
			}
		})
	}
}

func TestOverrideRepository_KindsAreSeparate(t *testing.T) {
	repo := NewOverrideRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.Add(ctx, &entities.SubjectOverride{
		Kind: entities.SubjectUser, GuildID: "1", SubjectID: "42", Command: "say", Allow: true,
	}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	for _, kind := range []entities.SubjectKind{entities.SubjectChannel, entities.SubjectRole} {
		got, err := repo.Get(ctx, kind, "1", "42", "say")
		if err != nil {
			t.Fatalf("Get(%s) error = %v", kind, err)
		}
		if got != nil {
			t.Errorf("Get(%s) = %+v, want nil", kind, got)
		}
	}
}

func TestOverrideRepository_ExactMatchOnly(t *testing.T) {
	repo := NewOverrideRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.Add(ctx, &entities.SubjectOverride{
		Kind: entities.SubjectRole, GuildID: "1", SubjectID: "10", Command: "admin", Allow: false,
	}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	for _, command := range []string{"admin.shutdown", "Admin", "admi"} {
		got, err := repo.Get(ctx, entities.SubjectRole, "1", "10", command)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", command, err)
		}
		if got != nil {
			t.Errorf("Get(%s) = %+v, want nil", command, got)
		}
	}
}

func TestOverrideRepository_DeleteAndList(t *testing.T) {
	repo := NewOverrideRepository(setupTestDB(t))
	ctx := context.Background()

	for _, subject := range []string{"42", "43"} {
		if _, err := repo.Add(ctx, &entities.SubjectOverride{
			Kind: entities.SubjectChannel, GuildID: "1", SubjectID: subject, Command: "say",
		}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	list, err := repo.List(ctx, entities.SubjectChannel, "1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].SubjectID != "42" || list[0].Kind != entities.SubjectChannel {
		t.Errorf("List() = %+v", list)
	}

	deleted, err := repo.Delete(ctx, entities.SubjectChannel, "1", "42", "say")
	if err != nil || !deleted {
		t.Fatalf("Delete() = %v, %v, want true, nil", deleted, err)
	}
	deleted, err = repo.Delete(ctx, entities.SubjectChannel, "1", "42", "say")
	if err != nil || deleted {
		t.Errorf("second Delete() = %v, %v, want false, nil", deleted, err)
	}

	if _, err := repo.Get(ctx, entities.SubjectKind("webhook"), "1", "42", "say"); err == nil {
		t.Error("Get() with unknown kind should fail")
	}
}
