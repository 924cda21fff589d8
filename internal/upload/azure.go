package upload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"github.com/breeze-rmm/screengrab/internal/config"
)

// azureSink stores captures in an Azure Blob Storage container.
type azureSink struct {
	container string
	client    *azblob.Client
}

func newAzureSink(cfg *config.Config) (*azureSink, error) {
	if cfg.AzureConnectionString == "" {
		return nil, errors.New("azure_connection_string is required")
	}
	if cfg.AzureContainer == "" {
		return nil, errors.New("azure_container is required")
	}

	client, err := azblob.NewClientFromConnectionString(cfg.AzureConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}
	return &azureSink{
		container: cfg.AzureContainer,
		client:    client,
	}, nil
}

func (s *azureSink) Name() string { return "azure" }

func (s *azureSink) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	_, err := s.client.UploadStream(ctx, s.container, key, r, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("azure upload failed: %w", err)
	}
	return nil
}

func (s *azureSink) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("azure list failed: %w", err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			o := Object{Key: *item.Name}
			if item.Properties != nil {
				if item.Properties.ContentLength != nil {
					o.Size = *item.Properties.ContentLength
				}
				if item.Properties.LastModified != nil {
					o.ModTime = *item.Properties.LastModified
				}
			}
			objects = append(objects, o)
		}
	}
	return objects, nil
}

func (s *azureSink) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteBlob(ctx, s.container, key, nil)
	if err != nil {
		return fmt.Errorf("azure delete failed: %w", err)
	}
	return nil
}

func (s *azureSink) Close() error { return nil }
