package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"slices"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const defaultPrefix = "records"

// GCS mirrors records to a Google Cloud Storage bucket, one JSON object per
// record. The object's generation number serves as the concurrency token.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS connects to the given bucket. credentialsFile may be empty to use
// application default credentials.
func NewGCS(
	ctx context.Context,
	bucket, credentialsFile string,
) (*GCS, error) {
	var opts []option.ClientOption

	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &GCS{
		client: client,
		bucket: bucket,
		prefix: defaultPrefix,
	}, nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}

func (g *GCS) objectName(key string) string {
	return path.Join(g.prefix, key+".json")
}

func (g *GCS) keyFromObject(name string) string {
	base := path.Base(name)

	return strings.TrimSuffix(base, ".json")
}

func recordTypeFromKey(key string) string {
	recordType, _, _ := strings.Cut(key, "_")

	return recordType
}

func mapGCSError(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrNotFound
	}

	if errors.Is(err, storage.ErrBucketNotExist) {
		return NotProvisioned(err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusPreconditionFailed:
			return ErrPreconditionFailed
		}
	}

	return err
}

func (g *GCS) GetRecord(ctx context.Context, key string) (*Record, error) {
	obj := g.client.Bucket(g.bucket).Object(g.objectName(key))

	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, mapGCSError(err)
	}
	defer r.Close()

	var fields map[string]any

	err = json.NewDecoder(r).Decode(&fields)
	if err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", key, err)
	}

	return &Record{
		Type:       recordTypeFromKey(key),
		Key:        key,
		Fields:     fields,
		ChangeTag:  r.Attrs.Generation,
		ModifiedAt: r.Attrs.LastModified,
	}, nil
}

func (g *GCS) BatchWrite(
	ctx context.Context,
	save []*Record,
	del []string,
	_ bool,
) []WriteResult {
	// GCS offers no multi-object transaction, so every batch is
	// best-effort regardless of the atomic flag.
	results := make([]WriteResult, 0, len(save)+len(del))

	for _, rec := range save {
		results = append(
			results,
			WriteResult{Key: rec.Key, Err: g.writeRecord(ctx, rec)},
		)
	}

	for _, key := range del {
		obj := g.client.Bucket(g.bucket).Object(g.objectName(key))

		err := obj.Delete(ctx)
		if err != nil {
			err = mapGCSError(err)
		}

		results = append(results, WriteResult{Key: key, Err: err})
	}

	return results
}

func (g *GCS) writeRecord(ctx context.Context, rec *Record) error {
	obj := g.client.Bucket(g.bucket).Object(g.objectName(rec.Key))

	var conds storage.Conditions
	if rec.ChangeTag == 0 {
		conds.DoesNotExist = true
	} else {
		conds.GenerationMatch = rec.ChangeTag
	}

	w := obj.If(conds).NewWriter(ctx)
	w.ContentType = "application/json"

	err := json.NewEncoder(w).Encode(rec.Fields)
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("encoding record %s: %w", rec.Key, err)
	}

	err = w.Close()
	if err != nil {
		return mapGCSError(err)
	}

	return nil
}

func (g *GCS) QueryPage(
	ctx context.Context,
	recordType, cursor string,
	pageSize int,
) ([]*Record, string, error) {
	query := &storage.Query{
		Prefix: path.Join(g.prefix, recordType+"_"),
	}

	it := g.client.Bucket(g.bucket).Objects(ctx, query)

	var attrs []*storage.ObjectAttrs

	pager := iterator.NewPager(it, pageSize, cursor)

	next, err := pager.NextPage(&attrs)
	if err != nil {
		return nil, "", mapGCSError(err)
	}

	// Objects list lexicographically; order the page by modification
	// time so last-write-wins applies older versions first. Ordering is
	// only per-page, which the pull protocol tolerates.
	slices.SortFunc(attrs, func(a, b *storage.ObjectAttrs) int {
		return a.Updated.Compare(b.Updated)
	})

	records := make([]*Record, 0, len(attrs))

	for _, attr := range attrs {
		rec, err := g.GetRecord(ctx, g.keyFromObject(attr.Name))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Deleted between listing and fetch.
				continue
			}

			return nil, "", err
		}

		records = append(records, rec)
	}

	return records, next, nil
}

func (g *GCS) DeleteRecord(
	ctx context.Context,
	key string,
	ifMatch int64,
) error {
	obj := g.client.Bucket(g.bucket).Object(g.objectName(key))

	err := obj.If(storage.Conditions{GenerationMatch: ifMatch}).Delete(ctx)
	if err != nil {
		return mapGCSError(err)
	}

	return nil
}
