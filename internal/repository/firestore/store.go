// Package firestore implements repository.DocumentStore on Cloud Firestore
// through the Firebase Admin SDK.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gearshare-backend/internal/config"
	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/metrics"
	"gearshare-backend/internal/repository"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewClient opens a Firestore client for the configured Firebase project.
func NewClient(ctx context.Context, cfg config.DocStoreConfig) (*firestore.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open firestore: %w", err)
	}
	return client, nil
}

type store struct {
	client    *firestore.Client
	namespace string
}

// NewStore prefixes every collection with namespace, so several
// environments can share one project.
func NewStore(client *firestore.Client, namespace string) repository.DocumentStore {
	return &store{client: client, namespace: namespace}
}

func (s *store) collection(name string) *firestore.CollectionRef {
	if s.namespace == "" {
		return s.client.Collection(name)
	}
	return s.client.Collection(s.namespace + "_" + name)
}

func (s *store) Create(ctx context.Context, collection string, data domain.Fields) (id string, err error) {
	defer observe("Create", time.Now(), &err)

	ref, _, err := s.collection(collection).Add(ctx, map[string]any(data))
	if err != nil {
		return "", fmt.Errorf("create %s document: %w", collection, err)
	}
	return ref.ID, nil
}

func (s *store) Get(ctx context.Context, collection, id string) (doc *repository.Document, err error) {
	defer observe("Get", time.Now(), &err)

	snap, err := s.collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get %s document %s: %w", collection, id, mapError(err))
	}
	return &repository.Document{ID: snap.Ref.ID, Data: domain.Fields(snap.Data())}, nil
}

func (s *store) Update(ctx context.Context, collection, id string, data domain.Fields) (err error) {
	defer observe("Update", time.Now(), &err)

	updates := make([]firestore.Update, 0, len(data))
	for k, v := range data {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	if len(updates) == 0 {
		return nil
	}
	if _, err := s.collection(collection).Doc(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("update %s document %s: %w", collection, id, mapError(err))
	}
	return nil
}

func (s *store) Delete(ctx context.Context, collection, id string) (err error) {
	defer observe("Delete", time.Now(), &err)

	if _, err := s.collection(collection).Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return fmt.Errorf("delete %s document %s: %w", collection, id, mapError(err))
	}
	return nil
}

func (s *store) Query(ctx context.Context, collection string, filters ...repository.Filter) (docs []repository.Document, err error) {
	defer observe("Query", time.Now(), &err)

	q := s.collection(collection).Query
	for _, f := range filters {
		op, err := whereOp(f.Op)
		if err != nil {
			return nil, err
		}
		q = q.Where(f.Field, op, f.Value)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query %s documents: %w", collection, err)
		}
		docs = append(docs, repository.Document{ID: snap.Ref.ID, Data: domain.Fields(snap.Data())})
	}
	return docs, nil
}

func whereOp(op repository.Op) (string, error) {
	switch op {
	case repository.OpEq, "":
		return "==", nil
	case repository.OpNeq:
		return "!=", nil
	case repository.OpGte:
		return ">=", nil
	}
	return "", fmt.Errorf("unsupported operator %q", op)
}

func mapError(err error) error {
	if status.Code(err) == codes.NotFound {
		return domain.ErrNotFound
	}
	return err
}

func observe(operation string, started time.Time, err *error) {
	metrics.ObserveBackendCall(repository.BackendDocuments, operation, time.Since(started).Seconds(), *err)
	logger.ExternalServiceResult(repository.BackendDocuments, operation, started, *err)
}
