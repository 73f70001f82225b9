package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/spboyer/agentra/models"
)

// blobUploader is the part of *azblob.Client the publisher needs.
type blobUploader interface {
	UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// BlobOptions configures a [BlobPublisher].
type BlobOptions struct {
	// Prefix is prepended to every blob name, e.g. "nightly/".
	Prefix string

	// Credential overrides the default Azure credential chain.
	Credential azcore.TokenCredential
}

// BlobPublisher uploads evaluation results to an Azure Blob Storage container so
// that runs from CI can be collected in one place.
type BlobPublisher struct {
	client    blobUploader
	container string
	prefix    string

	// now is swapped in tests.
	now func() time.Time
}

// NewBlobPublisher creates a publisher for the storage account at accountURL
// (https://<account>.blob.core.windows.net/). Without an explicit credential the
// DefaultAzureCredential chain is used.
func NewBlobPublisher(accountURL, container string, opts *BlobOptions) (*BlobPublisher, error) {
	if accountURL == "" || container == "" {
		return nil, errors.New("blob publishing needs an account URL and a container")
	}
	if opts == nil {
		opts = &BlobOptions{}
	}

	cred := opts.Credential
	if cred == nil {
		dc, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("creating Azure credential: %w", err)
		}
		cred = dc
	}

	client, err := azblob.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}

	return newBlobPublisher(client, container, opts.Prefix), nil
}

// NewBlobPublisherFromConnectionString creates a publisher from a storage account
// connection string.
func NewBlobPublisherFromConnectionString(connectionString, container, prefix string) (*BlobPublisher, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}
	return newBlobPublisher(client, container, prefix), nil
}

func newBlobPublisher(client blobUploader, container, prefix string) *BlobPublisher {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &BlobPublisher{
		client:    client,
		container: container,
		prefix:    prefix,
		now:       time.Now,
	}
}

// Publish uploads result as JSON and returns the blob name. The blob carries the
// system name, status and score as metadata.
func (p *BlobPublisher) Publish(ctx context.Context, result *models.EvaluationResult) (string, error) {
	if result == nil {
		return "", errors.New("no result to publish")
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling result: %w", err)
	}

	name := result.Name
	if name == "" {
		name = result.SystemName
	}
	if name == "" {
		name = "evaluation"
	}
	blobName := fmt.Sprintf("%s%s_%s.json", p.prefix, name, p.now().UTC().Format(timestampLayout))

	_, err = p.client.UploadBuffer(ctx, p.container, blobName, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr("application/json")},
		Metadata: map[string]*string{
			"system": to.Ptr(result.SystemName),
			"status": to.Ptr(string(result.Status)),
			"score":  to.Ptr(strconv.FormatFloat(result.Score, 'f', 4, 64)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s to container %s: %w", blobName, p.container, err)
	}

	slog.DebugContext(ctx, "Published evaluation result", "container", p.container, "blob", blobName)
	return blobName, nil
}
