package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/lstvlab/dicomsync/internal/models"
	"github.com/lstvlab/dicomsync/internal/services"
	"google.golang.org/api/iterator"
)

// FirestoreCatalog exposes one Firestore collection of study documents
// through the services.Catalog interface.
type FirestoreCatalog struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreCatalog creates a Firestore client for the given project and
// collection. It centralizes client creation for all commands.
func NewFirestoreCatalog(ctx context.Context, projectID, collection, credentialsFile string) (*FirestoreCatalog, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID, clientOptions(credentialsFile)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &FirestoreCatalog{client: client, collection: collection}, nil
}

// ListStudies reads every document in the collection.
func (c *FirestoreCatalog) ListStudies(ctx context.Context) ([]services.CatalogDoc, error) {
	it := c.client.Collection(c.collection).Documents(ctx)
	defer it.Stop()

	var docs []services.CatalogDoc
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list %s documents: %w", c.collection, err)
		}

		var study models.StudyDocument
		if err := snap.DataTo(&study); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", snap.Ref.ID, err)
		}
		docs = append(docs, services.CatalogDoc{DocID: snap.Ref.ID, Study: &study})
	}
	return docs, nil
}

// SetStudy fully overwrites the document at key.
func (c *FirestoreCatalog) SetStudy(ctx context.Context, key string, doc *models.StudyDocument) error {
	if _, err := c.client.Collection(c.collection).Doc(key).Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to set document %s: %w", key, err)
	}
	return nil
}

// DeleteStudy removes the document at key.
func (c *FirestoreCatalog) DeleteStudy(ctx context.Context, key string) error {
	if _, err := c.client.Collection(c.collection).Doc(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Firestore client.
func (c *FirestoreCatalog) Close() error {
	return c.client.Close()
}
