package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sslguardian/dashboard/internal/client"
	"github.com/sslguardian/dashboard/internal/config"
	"github.com/sslguardian/dashboard/internal/export"
	"github.com/sslguardian/dashboard/internal/model"
)

// pageSize is the listing page size used while walking the API.
const pageSize = 100

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	var (
		out        = flag.String("out", "certificates.csv", "output CSV path, - for stdout")
		status     = flag.String("status", "", "filter by status: VALID, EXPIRED, EXPIRING_SOON, WEAK")
		issuer     = flag.String("issuer", "", "filter by issuer substring")
		countryArg = flag.String("country", "", "filter by country name or ISO code")
		search     = flag.String("search", "", "free-text search over domain and issuer")
		vulnerable = flag.Bool("vulnerable", false, "only certificates with lint errors")
	)
	flag.Parse()

	cfg := config.LoadClient()
	api := client.New(cfg.APIBaseURL)

	query := client.CertificateQuery{
		Status:             model.Status(*status),
		Issuer:             *issuer,
		Country:            *countryArg,
		Search:             *search,
		HasVulnerabilities: *vulnerable,
		PageSize:           pageSize,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	certs, err := fetchAll(ctx, api, query)
	if err != nil {
		slog.Error("export fetch failed", "error", err)
		os.Exit(1)
	}

	w := os.Stdout
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			slog.Error("cannot create output file", "path", *out, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if err := export.Write(w, certs); err != nil {
		slog.Error("csv write failed", "error", err)
		os.Exit(1)
	}
	slog.Info("export complete", "certificates", len(certs), "path", *out)
}

// fetchAll walks every page of the listing for the given filter.
func fetchAll(ctx context.Context, api *client.Client, query client.CertificateQuery) ([]model.Certificate, error) {
	var certs []model.Certificate
	for page := 1; ; page++ {
		query.Page = page
		result, err := api.Certificates(ctx, query)
		if err != nil {
			return nil, err
		}
		certs = append(certs, result.Certificates...)
		if page >= result.Pagination.TotalPages {
			return certs, nil
		}
	}
}
