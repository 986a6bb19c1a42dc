package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/gosight/gameperf/internal/config"
	"github.com/gosight/gameperf/internal/report"
)

// GCS archives report documents in a bucket.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCS(ctx context.Context, cfg config.GCSConfig) (*GCS, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCS{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (g *GCS) Name() string {
	return "gcs"
}

func (g *GCS) Store(ctx context.Context, r *report.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	w := g.client.Bucket(g.bucket).Object(objectName(g.prefix, r)).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write error: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close error: %w", err)
	}
	return nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

// objectName returns prefix/page/YYYYMMDD-HHMMSS-runid.json.
func objectName(prefix string, r *report.Report) string {
	page := strings.Trim(strings.ReplaceAll(r.Page, "/", "_"), "_")
	if page == "" {
		page = "unknown"
	}

	name := r.GeneratedAt.UTC().Format("20060102-150405")
	if r.RunID != "" {
		name += "-" + r.RunID
	}

	return path.Join(prefix, page, name+".json")
}
