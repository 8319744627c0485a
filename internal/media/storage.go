package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"
	"github.com/kdblegal/kdbweb/pkg"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultListLimit = 200
	MaxListLimit     = 500

	// DeleteObjects accepts at most this many keys per call
	deleteBatchSize = 1000
)

var (
	ErrPrefixNotAllowed = errors.New("prefix not allowed")
	ErrKeyNotAllowed    = errors.New("key outside the allowed prefixes")
	ErrAlreadyExists    = errors.New("object already exists")
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

//go:generate mockgen -source=storage.go -destination=storage_mocks_test.go -package=media

type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type presigner interface {
	PresignPostObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignPostOptions)) (*s3.PresignedPostRequest, error)
}

type Config struct {
	Bucket        string
	Region        string
	PublicBaseURL string
	// Prefixes are the key prefixes media may live under, the first one is
	// the default. Empty means the whole bucket.
	Prefixes       []string
	UploadMaxBytes int64
	UploadExpires  time.Duration
}

type Storage struct {
	client    s3API
	presigner presigner
	cfg       Config
	prefixes  []string
	newID     func() string
}

func NewStorage(client s3API, presigner presigner, cfg Config) *Storage {
	prefixes := make([]string, 0, len(cfg.Prefixes))
	for _, p := range cfg.Prefixes {
		prefixes = append(prefixes, normalizePrefix(p))
	}
	if len(prefixes) == 0 {
		prefixes = []string{""}
	}

	return &Storage{
		client:    client,
		presigner: presigner,
		cfg:       cfg,
		prefixes:  prefixes,
		newID: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}
}

type UploadRequest struct {
	Filename    string      `json:"filename"`
	ContentType string      `json:"content_type"`
	Size        pkg.FlexInt `json:"size"`
	Prefix      *string     `json:"prefix"`
}

type PresignedPost struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

type Upload struct {
	Post        PresignedPost `json:"post"`
	Key         string        `json:"key"`
	URL         string        `json:"url"`
	ContentType string        `json:"content_type"`
	MaxBytes    int64         `json:"max_bytes"`
	ExpiresIn   int           `json:"expires_in"`
}

type Item struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
}

type Listing struct {
	Items     []Item  `json:"items"`
	NextToken *string `json:"next_token"`
	Prefix    string  `json:"prefix"`
}

func normalizePrefix(p string) string {
	p = strings.TrimLeft(strings.TrimSpace(p), "/")
	if p != "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

func hasTraversal(key string) bool {
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return true
		}
	}
	return false
}

// resolvePrefix returns the default prefix for a nil or empty override,
// otherwise the normalized override when it falls under an allowed prefix.
func (s *Storage) resolvePrefix(override *string) (string, error) {
	if override == nil || strings.TrimSpace(*override) == "" {
		return s.prefixes[0], nil
	}
	p := normalizePrefix(*override)
	if hasTraversal(p) {
		return "", ErrPrefixNotAllowed
	}
	for _, allowed := range s.prefixes {
		if strings.HasPrefix(p, allowed) {
			return p, nil
		}
	}
	return "", ErrPrefixNotAllowed
}

func (s *Storage) keyAllowed(key string) bool {
	if key == "" || hasTraversal(key) {
		return false
	}
	for _, allowed := range s.prefixes {
		if strings.HasPrefix(key, allowed) {
			return true
		}
	}
	return false
}

func (s *Storage) isRootPrefix(p string) bool {
	for _, allowed := range s.prefixes {
		if p == allowed {
			return true
		}
	}
	return false
}

// PublicURL is the address the site serves the object from.
func (s *Storage) PublicURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if base := strings.TrimRight(s.cfg.PublicBaseURL, "/"); base != "" {
		return base + "/" + escaped
	}
	if s.cfg.Region != "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, escaped)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.cfg.Bucket, escaped)
}

func (s *Storage) safeName(name, fallback string) string {
	safe := strings.Trim(unsafeNameChars.ReplaceAllString(path.Base(strings.TrimSpace(name)), "-"), "-")
	if safe == "" || safe == "." || safe == ".." {
		return fallback + "-" + s.newID()
	}
	return safe
}

func isImageType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}

func (s *Storage) PresignUpload(ctx context.Context, req UploadRequest) (_ *Upload, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.media.presign")
	defer func() { tracing.EndSpan(span, err) }()

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		return nil, pkg.NewValidationError("filename is required")
	}

	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(filename))
		if contentType == "" {
			contentType = "application/octet-stream"
		} else if !isImageType(contentType) {
			return nil, pkg.NewValidationError("only images are accepted")
		}
	} else if !isImageType(contentType) {
		return nil, pkg.NewValidationError("only images are accepted")
	}

	if int64(req.Size) > s.cfg.UploadMaxBytes {
		return nil, pkg.NewValidationError("image exceeds the maximum allowed size of %d bytes", s.cfg.UploadMaxBytes)
	}

	prefix, err := s.resolvePrefix(req.Prefix)
	if err != nil {
		return nil, err
	}

	key := prefix + s.newID() + "_" + s.safeName(filename, "upload")
	span.SetAttributes(attribute.String("key", key))

	post, err := s.presigner.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = s.cfg.UploadExpires
		o.Conditions = []interface{}{
			map[string]string{"Content-Type": contentType},
			[]interface{}{"content-length-range", 1, s.cfg.UploadMaxBytes},
		}
	})
	if err != nil {
		return nil, fmt.Errorf("presign post for %s: %w", key, err)
	}

	fields := make(map[string]string, len(post.Values)+1)
	for k, v := range post.Values {
		fields[k] = v
	}
	fields["Content-Type"] = contentType

	return &Upload{
		Post:        PresignedPost{URL: post.URL, Fields: fields},
		Key:         key,
		URL:         s.PublicURL(key),
		ContentType: contentType,
		MaxBytes:    s.cfg.UploadMaxBytes,
		ExpiresIn:   int(s.cfg.UploadExpires.Seconds()),
	}, nil
}

// List returns one page of objects under the prefix, folder markers excluded.
func (s *Storage) List(ctx context.Context, prefixOverride *string, limit int, continuation string) (_ *Listing, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.media.list")
	defer func() { tracing.EndSpan(span, err) }()

	prefix, err := s.resolvePrefix(prefixOverride)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("prefix", prefix), attribute.Int("limit", limit))

	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.cfg.Bucket),
		MaxKeys: aws.Int32(int32(limit)),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	if continuation != "" {
		input.ContinuationToken = aws.String(continuation)
	}

	out, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("list objects under [%s]: %w", prefix, err)
	}

	listing := &Listing{
		Items:  []Item{},
		Prefix: prefix,
	}
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		if key == "" || strings.HasSuffix(key, "/") {
			continue
		}
		item := Item{
			Key:  key,
			URL:  s.PublicURL(key),
			Size: aws.ToInt64(obj.Size),
		}
		if obj.LastModified != nil {
			item.LastModified = obj.LastModified.UTC().Format(time.RFC3339)
		}
		listing.Items = append(listing.Items, item)
	}
	if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
		listing.NextToken = out.NextContinuationToken
	}

	return listing, nil
}

// exists reports whether an object with the key is present.
func (s *Storage) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "404":
			return false, nil
		}
	}
	return false, fmt.Errorf("head object %s: %w", key, err)
}

// Rename moves the object to newName within the same folder. An extension
// missing from newName is taken from the current key.
func (s *Storage) Rename(ctx context.Context, key, newName string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.media.rename")
	defer func() { tracing.EndSpan(span, err) }()

	key = strings.TrimSpace(key)
	newName = strings.TrimSpace(newName)
	if key == "" || newName == "" {
		return "", pkg.NewValidationError("key and new_name are required")
	}
	if !s.keyAllowed(key) {
		return "", ErrKeyNotAllowed
	}

	dir := ""
	if i := strings.LastIndex(key, "/"); i >= 0 {
		dir = key[:i+1]
	}
	name := s.safeName(newName, "upload")
	if !strings.Contains(name, ".") {
		name += path.Ext(path.Base(key))
	}
	newKey := dir + name
	span.SetAttributes(attribute.String("key", key), attribute.String("new_key", newKey))

	if !s.keyAllowed(newKey) {
		return "", ErrKeyNotAllowed
	}
	if newKey == key {
		return "", pkg.NewValidationError("new name is the same as the current one")
	}

	found, err := s.exists(ctx, newKey)
	if err != nil {
		return "", err
	}
	if found {
		return "", ErrAlreadyExists
	}

	if _, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.cfg.Bucket),
		CopySource: aws.String(url.PathEscape(s.cfg.Bucket) + "/" + (&url.URL{Path: key}).EscapedPath()),
		Key:        aws.String(newKey),
	}); err != nil {
		return "", fmt.Errorf("copy %s to %s: %w", key, newKey, err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return "", fmt.Errorf("delete renamed %s: %w", key, err)
	}

	return newKey, nil
}

// CreateFolder puts an empty marker object "<prefix><name>/".
func (s *Storage) CreateFolder(ctx context.Context, name string, prefixOverride *string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.media.create_folder")
	defer func() { tracing.EndSpan(span, err) }()

	if strings.TrimSpace(name) == "" {
		return "", pkg.NewValidationError("folder_name is required")
	}
	prefix, err := s.resolvePrefix(prefixOverride)
	if err != nil {
		return "", err
	}

	key := prefix + s.safeName(name, "folder") + "/"
	span.SetAttributes(attribute.String("key", key))

	found, err := s.exists(ctx, key)
	if err != nil {
		return "", err
	}
	if found {
		return "", ErrAlreadyExists
	}

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return "", fmt.Errorf("put folder marker %s: %w", key, err)
	}
	return key, nil
}

// DeleteFolder removes every object under the folder, marker included, and
// returns how many objects went away. Allowed root prefixes cannot be deleted.
func (s *Storage) DeleteFolder(ctx context.Context, folder string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.media.delete_folder")
	defer func() { tracing.EndSpan(span, err) }()

	if strings.TrimSpace(folder) == "" {
		return 0, pkg.NewValidationError("prefix is required")
	}
	prefix, err := s.resolvePrefix(&folder)
	if err != nil {
		return 0, err
	}
	if s.isRootPrefix(prefix) {
		return 0, pkg.NewValidationError("cannot delete a root folder")
	}
	span.SetAttributes(attribute.String("prefix", prefix))

	deleted := 0
	var continuation *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.cfg.Bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return deleted, fmt.Errorf("list folder %s: %w", prefix, err)
		}

		for start := 0; start < len(out.Contents); start += deleteBatchSize {
			end := min(start+deleteBatchSize, len(out.Contents))
			ids := make([]types.ObjectIdentifier, 0, end-start)
			for _, obj := range out.Contents[start:end] {
				ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
			}
			if _, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.cfg.Bucket),
				Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
			}); err != nil {
				return deleted, fmt.Errorf("delete objects under %s: %w", prefix, err)
			}
			deleted += len(ids)
		}

		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		continuation = out.NextContinuationToken
	}

	span.SetAttributes(attribute.Int("deleted", deleted))
	return deleted, nil
}

func (s *Storage) Delete(ctx context.Context, key string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.media.delete")
	defer func() { tracing.EndSpan(span, err) }()

	key = strings.TrimSpace(key)
	if key == "" {
		return pkg.NewValidationError("key is required")
	}
	if !s.keyAllowed(key) {
		return ErrKeyNotAllowed
	}
	span.SetAttributes(attribute.String("key", key))

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
