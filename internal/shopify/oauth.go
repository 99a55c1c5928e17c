package shopify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
)

var shopDomainRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

// NormalizeShop lower-cases and trims a shop domain.
func NormalizeShop(shop string) string {
	return strings.ToLower(strings.TrimSpace(shop))
}

func IsValidShopDomain(shop string) bool {
	return shopDomainRegex.MatchString(shop)
}

func AuthorizeURL(shop, apiKey string, scopes []string, redirectURI, state string) string {
	u := url.URL{Scheme: "https", Host: shop, Path: "/admin/oauth/authorize"}
	q := url.Values{}
	q.Set("client_id", apiKey)
	q.Set("scope", strings.Join(scopes, ","))
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

// VerifyQueryHMAC checks the hmac parameter Shopify attaches to OAuth
// redirects: every other parameter sorted, joined as k=v with '&', signed
// with HMAC-SHA256 and hex encoded.
func VerifyQueryHMAC(query url.Values, secret string) bool {
	given := query.Get("hmac")
	if given == "" {
		return false
	}
	return hmacEqualHex(signQuery(query, "hmac", "signature"), secret, given)
}

// VerifyAppProxySignature checks the signature parameter on app proxy
// requests. The k=v pairs themselves are sorted, then joined with no
// separator; multi-valued parameters are comma joined.
func VerifyAppProxySignature(query url.Values, secret string) bool {
	given := query.Get("signature")
	if given == "" {
		return false
	}
	return hmacEqualHex(appProxyMessage(query), secret, given)
}

// VerifyWebhookHMAC checks X-Shopify-Hmac-Sha256: base64 HMAC-SHA256 of
// the raw body.
func VerifyWebhookHMAC(body []byte, header, secret string) bool {
	if header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	given, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, given)
}

// signQuery sorts by key, as the OAuth redirect hmac expects.
func signQuery(query url.Values, exclude ...string) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		if !slices.Contains(exclude, k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(query[k], ","))
	}
	return strings.Join(parts, "&")
}

// appProxyMessage sorts the joined pairs, so "p1=x" precedes "p=y".
func appProxyMessage(query url.Values) string {
	parts := make([]string, 0, len(query))
	for k, v := range query {
		if k == "signature" {
			continue
		}
		parts = append(parts, k+"="+strings.Join(v, ","))
	}
	sort.Strings(parts)
	return strings.Join(parts, "")
}

func hmacEqualHex(message, secret, givenHex string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	expected := mac.Sum(nil)

	given, err := hex.DecodeString(givenHex)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, given)
}

// SignQuery produces the hex value VerifyQueryHMAC expects.
func SignQuery(query url.Values, secret string) string {
	return signHex(signQuery(query, "hmac", "signature"), secret)
}

// SignAppProxyQuery produces the hex value VerifyAppProxySignature expects.
func SignAppProxyQuery(query url.Values, secret string) string {
	return signHex(appProxyMessage(query), secret)
}

func signHex(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

type AccessToken struct {
	Token string
	Scope string
}

// OAuthClient performs the authorization code exchange.
type OAuthClient struct {
	httpClient *http.Client
	apiKey     string
	apiSecret  string
	endpoint   func(shop string) string
}

func NewOAuthClient(apiKey, apiSecret string, timeout time.Duration) *OAuthClient {
	return &OAuthClient{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		endpoint: func(shop string) string {
			return fmt.Sprintf("https://%s/admin/oauth/access_token", shop)
		},
	}
}

func (c *OAuthClient) ExchangeCode(ctx context.Context, shop, code string) (AccessToken, error) {
	body, err := json.Marshal(map[string]string{
		"client_id":     c.apiKey,
		"client_secret": c.apiSecret,
		"code":          code,
	})
	if err != nil {
		return AccessToken{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(shop), bytes.NewReader(body))
	if err != nil {
		return AccessToken{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return AccessToken{}, classify(fmt.Errorf("token exchange: %w", err))
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return AccessToken{}, classify(fmt.Errorf("read token response: %w", err))
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return AccessToken{}, classify(&StatusError{Status: res.StatusCode, Body: truncate(string(raw), 512)})
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
	}
	if err := json.Unmarshal(raw, &tok); err != nil || tok.AccessToken == "" {
		return AccessToken{}, commonerrors.ErrUpstream.WithCause(fmt.Errorf("invalid token response: %v", err))
	}
	return AccessToken{Token: tok.AccessToken, Scope: tok.Scope}, nil
}
