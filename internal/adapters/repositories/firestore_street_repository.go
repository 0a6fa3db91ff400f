package repositories

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mail-route-tracker/internal/domain"
	"mail-route-tracker/internal/platform/obs"
	"mail-route-tracker/internal/ports"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DefaultStreetsCollection = "streets"

// NewFirestoreClient builds a Firestore client from base64-encoded service account
// credentials. With no credentials the application default credentials are used.
func NewFirestoreClient(ctx context.Context, encodedCreds, projectID string) (*firestore.Client, error) {
	var opts []option.ClientOption
	if encodedCreds != "" {
		creds, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("firestore: decode credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: init firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore: get client: %w", err)
	}
	return client, nil
}

// FirestoreStreetRepository stores one document per street. Firestore provides the
// change feed itself through query snapshots.
type FirestoreStreetRepository struct {
	Client     *firestore.Client
	Collection string
}

func NewFirestoreStreetRepository(client *firestore.Client, collection string) *FirestoreStreetRepository {
	if collection == "" {
		collection = DefaultStreetsCollection
	}
	return &FirestoreStreetRepository{Client: client, Collection: collection}
}

func (r *FirestoreStreetRepository) col() *firestore.CollectionRef {
	return r.Client.Collection(r.Collection)
}

func (r *FirestoreStreetRepository) decodeAll(docs []*firestore.DocumentSnapshot) ([]*domain.Street, error) {
	streets := make([]*domain.Street, 0, len(docs))
	for _, doc := range docs {
		s, err := decodeStreet(doc.Ref.ID, doc.Data())
		if err != nil {
			return nil, err
		}
		streets = append(streets, s)
	}
	return streets, nil
}

func (r *FirestoreStreetRepository) ListStreets(ctx context.Context) (_ []*domain.Street, err error) {
	defer obs.Time(ctx, "streets.firestore.List")(&err)

	iter := r.col().Documents(ctx)
	defer iter.Stop()

	streets := make([]*domain.Street, 0, 64)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list streets: iterate documents: %w", err)
		}

		s, err := decodeStreet(doc.Ref.ID, doc.Data())
		if err != nil {
			return nil, fmt.Errorf("list streets: %w", err)
		}
		streets = append(streets, s)
	}

	return streets, nil
}

func (r *FirestoreStreetRepository) GetStreet(ctx context.Context, id string) (*domain.Street, error) {
	doc, err := r.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("get street %q: %w", id, ports.ErrStreetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get street %q: %w", id, err)
	}

	s, err := decodeStreet(doc.Ref.ID, doc.Data())
	if err != nil {
		return nil, fmt.Errorf("get street: %w", err)
	}
	return s, nil
}

func (r *FirestoreStreetRepository) CreateStreet(ctx context.Context, s *domain.Street) (_ *domain.Street, err error) {
	defer obs.Time(ctx, "streets.firestore.Create")(&err)

	if s == nil {
		return nil, errors.New("create street: street is nil")
	}

	created := s.Clone()
	if created.ID == "" {
		created.ID = uuid.NewString()
	}

	_, err = r.col().Doc(created.ID).Create(ctx, encodeStreet(created))
	if status.Code(err) == codes.AlreadyExists {
		return nil, fmt.Errorf("create street %q: %w", created.ID, ports.ErrStreetExists)
	}
	if err != nil {
		return nil, fmt.Errorf("create street %q: %w", created.ID, err)
	}
	return created, nil
}

// PatchStreet reads the document and writes only the patched fields in one transaction.
func (r *FirestoreStreetRepository) PatchStreet(
	ctx context.Context,
	id string,
	patch domain.StreetPatch,
) (_ *domain.Street, err error) {
	defer obs.Time(ctx, "streets.firestore.Patch")(&err)

	ref := r.col().Doc(id)
	var updated *domain.Street

	err = r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("patch street %q: %w", id, ports.ErrStreetNotFound)
		}
		if err != nil {
			return fmt.Errorf("patch street %q: get: %w", id, err)
		}

		s, err := decodeStreet(doc.Ref.ID, doc.Data())
		if err != nil {
			return fmt.Errorf("patch street: %w", err)
		}
		patch.Apply(s)
		updated = s

		updates := patchUpdates(patch, s)
		if len(updates) == 0 {
			return nil
		}
		return tx.Update(ref, updates)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *FirestoreStreetRepository) DeleteStreet(ctx context.Context, id string) (err error) {
	defer obs.Time(ctx, "streets.firestore.Delete")(&err)

	_, err = r.col().Doc(id).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("delete street %q: %w", id, ports.ErrStreetNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete street %q: %w", id, err)
	}
	return nil
}

// UpsertStreets writes whole documents through a BulkWriter.
func (r *FirestoreStreetRepository) UpsertStreets(ctx context.Context, streets []*domain.Street) (err error) {
	defer obs.Time(ctx, "streets.firestore.Upsert")(&err)

	if len(streets) == 0 {
		return nil
	}

	bw := r.Client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(streets))
	for _, s := range streets {
		if s == nil || s.ID == "" {
			bw.End()
			return errors.New("upsert streets: street with empty id")
		}

		job, err := bw.Set(r.col().Doc(s.ID), encodeStreet(s))
		if err != nil {
			bw.End()
			return fmt.Errorf("upsert streets: street %q: %w", s.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("upsert streets: street %q: %w", streets[i].ID, err)
		}
	}
	return nil
}

// Subscribe streams collection snapshots until ctx is done.
func (r *FirestoreStreetRepository) Subscribe(ctx context.Context, fn func([]*domain.Street)) error {
	it := r.col().Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("subscribe streets: %w", err)
		}

		docs, err := snap.Documents.GetAll()
		if err != nil {
			return fmt.Errorf("subscribe streets: read snapshot: %w", err)
		}
		streets, err := r.decodeAll(docs)
		if err != nil {
			return fmt.Errorf("subscribe streets: %w", err)
		}
		fn(streets)
	}
}
