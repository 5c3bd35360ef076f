package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"kaari_back_end/internal/models"
)

const SignedURLTTL = 15 * time.Minute

// StorageService gère les fichiers (photos d'annonces, justificatifs) dans MinIO
type StorageService struct {
	client *minio.Client
	bucket string
}

func NewStorageService(client *minio.Client, bucket string) *StorageService {
	return &StorageService{client: client, bucket: bucket}
}

// CheckPath vérifie que l'acteur peut accéder au chemin : un non-admin reste
// sous users/<uid>/ ou properties/<uid>/.
func CheckPath(actor models.Actor, objectPath string) (string, error) {
	clean := strings.TrimPrefix(path.Clean("/"+objectPath), "/")
	if clean == "" || clean == "." {
		return "", validationError("chemin requis")
	}
	if actor.IsAdmin() {
		return clean, nil
	}
	for _, root := range []string{"users/", "properties/"} {
		if strings.HasPrefix(clean, root+actor.ID+"/") {
			return clean, nil
		}
	}
	return "", fmt.Errorf("%w: accès refusé à %s", ErrUnauthorized, clean)
}

func (s *StorageService) ready() error {
	if s == nil || s.client == nil {
		return fmt.Errorf("%w: MinIO non initialisé", ErrUnavailable)
	}
	return nil
}

// UploadFile envoie un fichier et retourne son URL
func (s *StorageService) UploadFile(ctx context.Context, actor models.Actor, objectPath string, r io.Reader, size int64, contentType string) (string, error) {
	key, err := CheckPath(actor, objectPath)
	if err != nil {
		return "", err
	}
	if err := s.ready(); err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.client.EndpointURL().JoinPath(s.bucket, key).String(), nil
}

// SignedUploadURL retourne une URL PUT présignée valable 15 minutes
func (s *StorageService) SignedUploadURL(ctx context.Context, actor models.Actor, objectPath, contentType string) (string, error) {
	key, err := CheckPath(actor, objectPath)
	if err != nil {
		return "", err
	}
	if err := s.ready(); err != nil {
		return "", err
	}
	var headers http.Header
	if contentType != "" {
		headers = http.Header{"Content-Type": []string{contentType}}
	}
	u, err := s.client.PresignHeader(ctx, http.MethodPut, s.bucket, key, SignedURLTTL, url.Values{}, headers)
	if err != nil {
		return "", fmt.Errorf("URL signée %s: %w", key, err)
	}
	return u.String(), nil
}

// SignedDownloadURLs retourne une URL GET présignée par chemin autorisé
func (s *StorageService) SignedDownloadURLs(ctx context.Context, actor models.Actor, paths []string) (map[string]string, error) {
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		key, err := CheckPath(actor, p)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(paths))
	for i, key := range keys {
		u, err := s.client.PresignedGetObject(ctx, s.bucket, key, SignedURLTTL, url.Values{})
		if err != nil {
			return nil, fmt.Errorf("URL signée %s: %w", key, err)
		}
		out[paths[i]] = u.String()
	}
	return out, nil
}

func (s *StorageService) DeleteFile(ctx context.Context, actor models.Actor, objectPath string) error {
	key, err := CheckPath(actor, objectPath)
	if err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("suppression %s: %w", key, err)
	}
	return nil
}
