package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/singleflight"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

var ErrNoBucket = errors.New("storage: bucket not configured")

// Presigner rewrites storage URLs into signed ones.
type Presigner interface {
	// KeyFor reports the object key of rawURL when it points into the bucket.
	KeyFor(rawURL string) (string, bool)
	// PresignGet returns a time-limited GET URL for key.
	PresignGet(ctx context.Context, key string) (string, error)
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	TTL       time.Duration
}

type signedURL struct {
	url     string
	expires time.Time
}

// S3Presigner presigns GET requests with aws-sdk-go-v2. Signed URLs are
// reused until a fifth of their lifetime remains, and concurrent requests
// for one key share a single signing call.
type S3Presigner struct {
	cfg    S3Config
	client *s3.PresignClient

	mu    sync.Mutex
	cache map[string]signedURL
	group singleflight.Group
	now   func() time.Time
}

func NewS3Presigner(ctx context.Context, cfg S3Config) (*S3Presigner, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Presigner{
		cfg:    cfg,
		client: s3.NewPresignClient(client),
		cache:  make(map[string]signedURL),
		now:    time.Now,
	}, nil
}

func (p *S3Presigner) KeyFor(rawURL string) (string, bool) {
	return ExtractKey(rawURL, p.cfg.Endpoint, p.cfg.Bucket)
}

func (p *S3Presigner) PresignGet(ctx context.Context, key string) (string, error) {
	if u, ok := p.cached(key); ok {
		return u, nil
	}

	// waiters share the leader's result
	signCtx := context.WithoutCancel(ctx)
	v, err, _ := p.group.Do(key, func() (any, error) {
		if u, ok := p.cached(key); ok {
			return u, nil
		}

		bucket := p.cfg.Bucket
		req, err := presignGetObject(p.client, signCtx, &s3.GetObjectInput{
			Bucket: &bucket,
			Key:    aws.String(key),
		}, s3.WithPresignExpires(p.cfg.TTL))
		if err != nil {
			return "", err
		}

		p.mu.Lock()
		p.cache[key] = signedURL{url: req.URL, expires: p.now().Add(p.cfg.TTL)}
		p.mu.Unlock()
		return req.URL, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (p *S3Presigner) cached(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.cache[key]
	if !ok {
		return "", false
	}
	if p.now().After(s.expires.Add(-p.cfg.TTL / 5)) {
		delete(p.cache, key)
		return "", false
	}
	return s.url, true
}
