package export

import (
	"context"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/logging"
)

// BlobAPI is the subset of *azblob.Client used by BlobPersister.
type BlobAPI interface {
	CreateContainer(ctx context.Context, containerName string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error)
	UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
	DownloadStream(ctx context.Context, containerName string, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error)
}

// BlobOptions configures a BlobPersister.
type BlobOptions struct {
	// Prefix is prepended to every blob name.
	Prefix string
	Logger logging.Logger
}

// BlobPersister stores every run as <prefix>/<run id>.yaml in an Azure
// Blob Storage container. The container is created on first use.
type BlobPersister struct {
	client    BlobAPI
	container string
	opts      BlobOptions

	mu            sync.Mutex
	containerInit bool
}

// NewBlobPersister wraps an existing client.
func NewBlobPersister(client BlobAPI, container string, optFns ...func(o *BlobOptions)) (*BlobPersister, error) {
	if client == nil {
		return nil, fmt.Errorf("blob client is required")
	}
	if container == "" {
		return nil, fmt.Errorf("container name is required")
	}
	opts := BlobOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &BlobPersister{client: client, container: container, opts: opts}, nil
}

// NewBlobPersisterFromConnectionString connects with a storage connection
// string, as used by Azurite and the Azure portal.
func NewBlobPersisterFromConnectionString(connectionString, container string, optFns ...func(o *BlobOptions)) (*BlobPersister, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	return NewBlobPersister(client, container, optFns...)
}

func (p *BlobPersister) blobName(runID string) string {
	return path.Join(p.opts.Prefix, runID+".yaml")
}

func (p *BlobPersister) ensureContainer(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.containerInit {
		return nil
	}
	if _, err := p.client.CreateContainer(ctx, p.container, nil); err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("failed to ensure container: %w", err)
	}
	p.containerInit = true
	return nil
}

// Persist uploads the snapshot.
func (p *BlobPersister) Persist(ctx context.Context, s core.Snapshot) error {
	if s.RunID == "" {
		return fmt.Errorf("invalid run id %q", s.RunID)
	}
	if err := p.ensureContainer(ctx); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	name := p.blobName(s.RunID)
	_, err = p.client.UploadBuffer(ctx, p.container, name, data, &azblob.UploadBufferOptions{
		Metadata: map[string]*string{
			"run_id": to.Ptr(s.RunID),
			"type":   to.Ptr(s.Type),
		},
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: to.Ptr("application/yaml"),
		},
	})
	if err != nil {
		p.opts.Logger.Error("failed to upload snapshot", "blob", name, "size", len(data), "error", err)
		return fmt.Errorf("blob upload failed: %w", err)
	}
	p.opts.Logger.Debug("uploaded snapshot", "blob", name, "size", len(data))
	return nil
}

// Load downloads the snapshot of runID.
func (p *BlobPersister) Load(ctx context.Context, runID string) (core.Snapshot, error) {
	resp, err := p.client.DownloadStream(ctx, p.container, p.blobName(runID), nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return core.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("failed to download blob: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("failed to read blob data: %w", err)
	}
	return unmarshalSnapshot(data)
}
