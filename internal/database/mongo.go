package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CertificatesCollection is the collection populated by the scan crawler.
const CertificatesCollection = "certificates"

// Connect opens a MongoDB client and verifies the connection with a ping.
func Connect(url string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the dashboard queries depend on:
// expiration date, lint-error flag, domain, issuer organization,
// signature algorithm and key algorithm.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "parsed.validity.end", Value: 1}}},
		{Keys: bson.D{{Key: "zlint.errors_present", Value: 1}}},
		{Keys: bson.D{{Key: "domain", Value: 1}}},
		{Keys: bson.D{{Key: "parsed.issuer.organization", Value: 1}}},
		{Keys: bson.D{{Key: "parsed.signature_algorithm.name", Value: 1}}},
		{Keys: bson.D{{Key: "parsed.subject_key_info.key_algorithm.name", Value: 1}}},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}
