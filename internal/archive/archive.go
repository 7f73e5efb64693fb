// Package archive uploads mission exports to S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/signalsfoundry/coverage-planner/export"
	"github.com/signalsfoundry/coverage-planner/internal/config"
	"github.com/signalsfoundry/coverage-planner/internal/logging"
	"github.com/signalsfoundry/coverage-planner/model"
)

// Archiver stores the exports of a saved mission.
type Archiver interface {
	ArchiveMission(ctx context.Context, m *model.Mission) error
}

// Noop discards everything. It is used when archiving is disabled.
type Noop struct{}

// ArchiveMission implements Archiver.
func (Noop) ArchiveMission(context.Context, *model.Mission) error { return nil }

// objectStore is the subset of *minio.Client the archive needs.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Store archives missions into a bucket under missions/{name}/.
type Store struct {
	client objectStore
	bucket string
	region string
	log    logging.Logger
	now    func() time.Time

	bucketOnce sync.Once
	bucketErr  error
}

var _ Archiver = (*Store)(nil)

// New returns an Archiver for cfg: Noop when disabled, otherwise a Store
// backed by minio-go.
func New(cfg config.ArchiveConfig, log logging.Logger) (Archiver, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return newStore(client, cfg.Bucket, cfg.Region, log), nil
}

func newStore(client objectStore, bucket, region string, log logging.Logger) *Store {
	if log == nil {
		log = logging.Noop()
	}
	return &Store{client: client, bucket: bucket, region: region, log: log, now: time.Now}
}

// ObjectKey returns the object name for one export of a mission.
func ObjectKey(name, id, ext string) string {
	return path.Join("missions", export.SanitizeName(name), id+"."+ext)
}

func (s *Store) ensureBucket(ctx context.Context) error {
	s.bucketOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.bucketErr = fmt.Errorf("check bucket %s: %w", s.bucket, err)
			return
		}
		if exists {
			return
		}
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			s.bucketErr = fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	})
	return s.bucketErr
}

// ArchiveMission uploads the GeoJSON path, the flat JSON record and the
// survey polygon of m.
func (s *Store) ArchiveMission(ctx context.Context, m *model.Mission) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}

	exportedAt := s.now()
	for _, format := range []string{export.FormatGeoJSON, export.FormatJSON} {
		enc, err := export.Encode(m, format, exportedAt)
		if err != nil {
			return fmt.Errorf("encode %s: %w", format, err)
		}
		if err := s.put(ctx, ObjectKey(m.Name, m.ID, format), enc.ContentType, enc.Body); err != nil {
			return err
		}
	}

	area, err := json.Marshal(export.PolygonFeature(m.Polygon, map[string]any{"name": m.Name, "id": m.ID}))
	if err != nil {
		return fmt.Errorf("encode area: %w", err)
	}
	if err := s.put(ctx, ObjectKey(m.Name, m.ID, "area.geojson"), "application/geo+json", area); err != nil {
		return err
	}

	s.log.Info(ctx, "mission archived",
		logging.String("mission", m.Name),
		logging.String("mission_id", m.ID),
		logging.String("bucket", s.bucket),
	)
	return nil
}

func (s *Store) put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
