package services

import (
	"context"
	"errors"
	"testing"

	"kaari_back_end/internal/models"
)

func TestCheckPath(t *testing.T) {
	tests := []struct {
		name    string
		actor   models.Actor
		path    string
		want    string
		wantErr error
	}{
		{"own user folder", tenant, "users/u1/avatar.png", "users/u1/avatar.png", nil},
		{"own property folder", tenant, "/properties/u1/p1/photo.jpg", "properties/u1/p1/photo.jpg", nil},
		{"other user", tenant, "users/u2/avatar.png", "", ErrUnauthorized},
		{"traversal", tenant, "users/u1/../u2/avatar.png", "", ErrUnauthorized},
		{"prefix trick", tenant, "users/u10/avatar.png", "", ErrUnauthorized},
		{"admin anywhere", admin, "exports/report.csv", "exports/report.csv", nil},
		{"empty", admin, "", "", ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckPath(tt.actor, tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("CheckPath() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestStorageWithoutClient(t *testing.T) {
	svc := NewStorageService(nil, "kaari")
	ctx := context.Background()

	if _, err := svc.SignedUploadURL(ctx, tenant, "users/u1/a.png", "image/png"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	// L'autorisation est vérifiée avant la disponibilité
	if _, err := svc.SignedDownloadURLs(ctx, tenant, []string{"users/u2/a.png"}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}
