package storage

import (
	"net/url"
	"regexp"
	"strings"
)

// s3HostRe matches S3 hosts. The first group is the bucket of a
// virtual-hosted URL and is empty for path-style hosts.
var s3HostRe = regexp.MustCompile(`^(?:(.+)\.)?s3(?:[.-][a-z0-9-]+)*\.amazonaws\.com$`)

// ExtractKey returns the object key of a storage URL. Both virtual-hosted
// (<bucket>.s3.<region>.amazonaws.com/<key>) and path-style
// (s3.<region>.amazonaws.com/<bucket>/<key>) AWS URLs are recognized. When
// endpoint is set, URLs of the form <endpoint>/<bucket>/<key> are recognized
// too. A non-empty bucket rejects URLs that point into any other bucket.
// Query strings are dropped.
func ExtractKey(rawURL, endpoint, bucket string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || strings.HasPrefix(rawURL, "data:") {
		return "", false
	}
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}

	if key, ok, matched := awsKey(rawURL, bucket); matched {
		return key, ok
	}

	if endpoint == "" || bucket == "" {
		return "", false
	}
	prefix := strings.TrimRight(endpoint, "/") + "/" + bucket + "/"
	if strings.HasPrefix(rawURL, prefix) {
		return unescape(strings.TrimPrefix(rawURL, prefix))
	}
	return "", false
}

// awsKey extracts the key of an S3 URL. matched is false when rawURL is not
// an S3 URL at all.
func awsKey(rawURL, bucket string) (key string, ok, matched bool) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false, false
	}
	m := s3HostRe.FindStringSubmatch(strings.ToLower(u.Hostname()))
	if m == nil {
		return "", false, false
	}

	owner, path := m[1], strings.TrimPrefix(u.EscapedPath(), "/")
	if owner == "" {
		owner, path, _ = strings.Cut(path, "/")
	}
	if bucket != "" && owner != bucket {
		return "", false, true
	}
	key, ok = unescape(path)
	return key, ok, true
}

func unescape(key string) (string, bool) {
	if k, err := url.PathUnescape(key); err == nil {
		key = k
	}
	if key == "" {
		return "", false
	}
	return key, true
}
