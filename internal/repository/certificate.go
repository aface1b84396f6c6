package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sslguardian/dashboard/internal/model"
)

// ErrNotFound is returned when a certificate id has no document.
var ErrNotFound = errors.New("certificate not found")

// CertificateRepository reads the scan documents the crawler writes into
// the certificates collection.
type CertificateRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewCertificateRepository(coll *mongo.Collection) *CertificateRepository {
	return &CertificateRepository{coll: coll, now: time.Now}
}

// List returns one page of certificates matching the query.
func (r *CertificateRepository) List(ctx context.Context, q ListQuery) (model.CertificatePage, error) {
	now := r.now().UTC()
	filter := buildFilter(q, now)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return model.CertificatePage{}, fmt.Errorf("count certificates: %w", err)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = 10
	}

	opts := options.Find().
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize)).
		SetSort(bson.D{{Key: "parsed.validity.end", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return model.CertificatePage{}, fmt.Errorf("find certificates: %w", err)
	}
	defer cursor.Close(ctx)

	certs := []model.Certificate{}
	for cursor.Next(ctx) {
		var raw rawCertificate
		if err := cursor.Decode(&raw); err != nil {
			return model.CertificatePage{}, fmt.Errorf("decode certificate: %w", err)
		}
		certs = append(certs, serialize(&raw, now))
	}
	if err := cursor.Err(); err != nil {
		return model.CertificatePage{}, fmt.Errorf("iterate certificates: %w", err)
	}

	return model.CertificatePage{
		Certificates: certs,
		Pagination:   model.NewPagination(page, pageSize, int(total)),
	}, nil
}

// GetByID returns a single certificate or ErrNotFound.
func (r *CertificateRepository) GetByID(ctx context.Context, id string) (model.Certificate, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Certificate{}, ErrNotFound
	}

	var raw rawCertificate
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Certificate{}, ErrNotFound
	}
	if err != nil {
		return model.Certificate{}, fmt.Errorf("find certificate %s: %w", id, err)
	}
	return serialize(&raw, r.now().UTC()), nil
}

// Stream walks every certificate matching the query in validity order and
// hands each to fn. Used by the CSV download so arbitrarily large result
// sets never materialize in memory.
func (r *CertificateRepository) Stream(ctx context.Context, q ListQuery, fn func(model.Certificate) error) error {
	now := r.now().UTC()
	filter := buildFilter(q, now)

	opts := options.Find().
		SetSort(bson.D{{Key: "parsed.validity.end", Value: 1}}).
		SetBatchSize(500)

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("find certificates: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var raw rawCertificate
		if err := cursor.Decode(&raw); err != nil {
			return fmt.Errorf("decode certificate: %w", err)
		}
		if err := fn(serialize(&raw, now)); err != nil {
			return err
		}
	}
	return cursor.Err()
}
