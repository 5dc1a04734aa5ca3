// Package export writes a list's records as CSV to S3.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/pkg/logger"
	"github.com/ignite/directmail/internal/service/lists"
)

// Header is the first row of every export.
var Header = []string{
	"first_name", "last_name", "company", "address", "city",
	"state", "zip", "email", "phone", "status", "tags",
}

const exportPageSize = 500

// Uploader is the subset of the S3 client used for uploads.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Presigner produces time-limited download links.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// RecordSource pages through a list's records.
type RecordSource interface {
	ListRecords(ctx context.Context, orgID, listID string, q lists.RecordQuery) ([]domain.Record, int, error)
}

// Exporter uploads list exports.
type Exporter struct {
	uploader  Uploader
	presigner Presigner
	linkTTL   time.Duration
	records   RecordSource
	bucket    string
	prefix    string
	now       func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithPresigner makes ExportList return a presigned download URL valid for ttl.
func WithPresigner(p Presigner, ttl time.Duration) Option {
	return func(e *Exporter) {
		e.presigner = p
		e.linkTTL = ttl
	}
}

// NewExporter creates an exporter writing under <prefix>/ in bucket.
func NewExporter(uploader Uploader, records RecordSource, bucket, prefix string, opts ...Option) *Exporter {
	e := &Exporter{
		uploader: uploader,
		records:  records,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		linkTTL:  15 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Options narrows an export.
type Options struct {
	Status string `json:"status"`
	Tag    string `json:"tag"`
}

// Result describes an uploaded export.
type Result struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Rows   int    `json:"rows"`
	Bytes  int    `json:"bytes"`
	URL    string `json:"url"`
}

// ExportList writes every matching record of the list to
// <prefix>/<orgID>/<listID>/<timestamp>.csv and returns where it went.
func (e *Exporter) ExportList(ctx context.Context, orgID, listID string, opts Options) (*Result, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	rows := 0
	for offset := 0; ; offset += exportPageSize {
		recs, total, err := e.records.ListRecords(ctx, orgID, listID, lists.RecordQuery{
			Status: opts.Status,
			Tag:    opts.Tag,
			Limit:  exportPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			if err := w.Write(row(r)); err != nil {
				return nil, fmt.Errorf("write row: %w", err)
			}
			rows++
		}
		if len(recs) == 0 || offset+len(recs) >= total {
			break
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	key := fmt.Sprintf("%s/%s/%s/%s.csv", e.prefix, orgID, listID, e.now().UTC().Format("20060102T150405Z"))
	key = strings.TrimPrefix(key, "/")
	size := buf.Len()

	_, err := e.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(e.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(buf.Bytes()),
		ContentType:        aws.String("text/csv"),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", listID+".csv")),
	})
	if err != nil {
		return nil, fmt.Errorf("putting object to S3: %w", err)
	}

	res := &Result{Bucket: e.bucket, Key: key, Rows: rows, Bytes: size, URL: fmt.Sprintf("s3://%s/%s", e.bucket, key)}
	if e.presigner != nil {
		req, err := e.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(e.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(e.linkTTL))
		if err != nil {
			logger.Warn("export presign failed", "key", key, "error", err)
		} else {
			res.URL = req.URL
		}
	}

	logger.Info("list exported", "org_id", orgID, "list_id", listID, "key", key, "rows", rows, "bytes", size)
	return res, nil
}

func row(r domain.Record) []string {
	return []string{
		cell(r.FirstName), cell(r.LastName), cell(r.Company), cell(r.Address), cell(r.City),
		r.State, r.Zip, cell(r.Email), cell(r.Phone), string(r.Status), cell(strings.Join(r.Tags, ";")),
	}
}

// cell neutralises values a spreadsheet would evaluate as a formula.
func cell(s string) string {
	if s != "" && strings.ContainsRune("=+-@", rune(s[0])) {
		return "'" + s
	}
	return s
}
