package storage

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// S3Config reúne lo necesario para firmar peticiones compatibles con S3.
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicDomain string
	HTTPClient   *http.Client
}

// S3Uploader sube objetos con firma SigV4 (S3, R2, MinIO).
type S3Uploader struct {
	cfg    S3Config
	client *http.Client
	signer sigV4
}

func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &S3Uploader{
		cfg:    cfg,
		client: client,
		signer: sigV4{accessKey: cfg.AccessKey, secretKey: cfg.SecretKey, region: cfg.Region, service: "s3", now: time.Now},
	}, nil
}

// Upload hace un PUT del objeto y devuelve la URL pública si hay dominio configurado.
func (u *S3Uploader) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if strings.TrimSpace(input.Key) == "" {
		return nil, errors.New("storage: clave del objeto obligatoria")
	}
	if len(input.Body) == 0 {
		return nil, errors.New("storage: cuerpo vacío")
	}

	contentType := strings.TrimSpace(input.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	escapedKey := (&url.URL{Path: strings.TrimLeft(input.Key, "/")}).EscapedPath()
	target := fmt.Sprintf("%s/%s/%s", strings.TrimRight(u.cfg.Endpoint, "/"), u.cfg.Bucket, escapedKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(input.Body))
	if err != nil {
		return nil, err
	}
	req.ContentLength = int64(len(input.Body))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Length", strconv.Itoa(len(input.Body)))
	if cc := strings.TrimSpace(input.CacheControl); cc != "" {
		req.Header.Set("Cache-Control", cc)
	}
	u.signer.sign(req, input.Body)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("storage: subida fallida (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	publicURL := target
	if domain := strings.TrimSpace(u.cfg.PublicDomain); domain != "" {
		publicURL = strings.TrimRight(domain, "/") + "/" + escapedKey
	}
	return &UploadResult{URL: publicURL, ETag: strings.Trim(resp.Header.Get("ETag"), `"`)}, nil
}

func (cfg S3Config) validate() error {
	required := []struct{ value, name string }{
		{cfg.Endpoint, "S3_ENDPOINT"},
		{cfg.Region, "S3_REGION"},
		{cfg.Bucket, "S3_BUCKET"},
		{cfg.AccessKey, "S3_ACCESS_KEY"},
		{cfg.SecretKey, "S3_SECRET_KEY"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("storage: falta %s", r.name)
		}
	}
	if !strings.HasPrefix(cfg.Endpoint, "http://") && !strings.HasPrefix(cfg.Endpoint, "https://") {
		return errors.New("storage: S3_ENDPOINT debe incluir http:// o https://")
	}
	return nil
}

// sigV4 firma peticiones con AWS Signature Version 4 sobre cabeceras.
type sigV4 struct {
	accessKey string
	secretKey string
	region    string
	service   string
	now       func() time.Time
}

func (s sigV4) sign(req *http.Request, body []byte) {
	now := s.now().UTC()
	amzDate := now.Format("20060102T150405Z")
	day := now.Format("20060102")

	sum := sha256.Sum256(body)
	payloadHash := hex.EncodeToString(sum[:])
	req.Header.Set("x-amz-content-sha256", payloadHash)
	req.Header.Set("x-amz-date", amzDate)
	req.Header.Set("Host", req.URL.Host)

	headers, signed := canonicalHeaders(req.Header)
	canonical := strings.Join([]string{
		req.Method,
		canonicalURI(req.URL.Path),
		canonicalQuery(req.URL.Query()),
		headers,
		signed,
		payloadHash,
	}, "\n")

	scope := fmt.Sprintf("%s/%s/%s/aws4_request", day, s.region, s.service)
	hashed := sha256.Sum256([]byte(canonical))
	toSign := strings.Join([]string{"AWS4-HMAC-SHA256", amzDate, scope, hex.EncodeToString(hashed[:])}, "\n")

	key := hmacSHA256([]byte("AWS4"+s.secretKey), []byte(day))
	key = hmacSHA256(key, []byte(s.region))
	key = hmacSHA256(key, []byte(s.service))
	key = hmacSHA256(key, []byte("aws4_request"))
	signature := hex.EncodeToString(hmacSHA256(key, []byte(toSign)))

	req.Header.Set("Authorization", fmt.Sprintf(
		"AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		s.accessKey, scope, signed, signature,
	))
}

func canonicalURI(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return uriEncode(path, false)
}

func canonicalQuery(values url.Values) string {
	var parts []string
	for _, key := range slices.Sorted(maps.Keys(values)) {
		vals := slices.Clone(values[key])
		slices.Sort(vals)
		for _, v := range vals {
			parts = append(parts, uriEncode(key, true)+"="+uriEncode(v, true))
		}
	}
	return strings.Join(parts, "&")
}

// canonicalHeaders devuelve el bloque de cabeceras y la lista SignedHeaders.
func canonicalHeaders(h http.Header) (string, string) {
	merged := make(map[string][]string, len(h))
	for k, vals := range h {
		lower := strings.ToLower(k)
		if lower == "authorization" {
			continue
		}
		for _, v := range vals {
			merged[lower] = append(merged[lower], strings.TrimSpace(v))
		}
	}

	keys := slices.Sorted(maps.Keys(merged))
	var lines strings.Builder
	for _, k := range keys {
		lines.WriteString(k + ":" + strings.Join(merged[k], ",") + "\n")
	}
	return lines.String(), strings.Join(keys, ";")
}

func uriEncode(input string, encodeSlash bool) string {
	var b strings.Builder
	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'),
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		case c == '/' && !encodeSlash:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
