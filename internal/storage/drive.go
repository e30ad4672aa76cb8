package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveStore keeps blobs in a Google Drive folder shared by link
type DriveStore struct {
	client   *drive.Service
	folderID string
}

// NewDriveStore authenticates with a service account credentials file
func NewDriveStore(ctx context.Context, credentialsPath, folderID string, opts ...option.ClientOption) (*DriveStore, error) {
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DriveStore{client: client, folderID: folderID}, nil
}

// Store uploads the file and makes it readable by anyone with the link
func (s *DriveStore) Store(ctx context.Context, upload Upload, category string) (string, error) {
	if err := Validate(upload); err != nil {
		return "", err
	}

	file := &drive.File{
		Name:     category + "_" + objectName(upload),
		MimeType: mimetype.Detect(upload.Data).String(),
	}
	if s.folderID != "" {
		file.Parents = []string{s.folderID}
	}

	created, err := s.client.Files.Create(file).
		Media(bytes.NewReader(upload.Data)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload to drive: %w", err)
	}

	_, err = s.client.Permissions.Create(created.Id, &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to share drive file: %w", err)
	}

	return fmt.Sprintf("https://drive.google.com/uc?id=%s", created.Id), nil
}
