// Package auth handles the optional session cookie store presented to the
// browser before navigation. The store is read-only from the pipeline's
// point of view; capturing cookies is out of scope.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// StoredCookie mirrors the platform-native cookie JSON format.
type StoredCookie struct {
	Domain   string  `json:"domain"`
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	Secure   bool    `json:"secure"`
	HTTPOnly bool    `json:"httpOnly"`
}

// CookieStore reads session cookies from a JSON file on disk.
type CookieStore struct {
	path string
}

// NewCookieStore creates a cookie store backed by the given path. An empty
// path disables the store.
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path}
}

// Load retrieves cookies from disk, dropping any that have expired. A
// missing or unconfigured store returns no cookies and no error.
func (cs *CookieStore) Load() ([]StoredCookie, error) {
	if cs.path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(cs.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var cookies []StoredCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, err
	}

	now := time.Now()
	valid := cookies[:0]
	for _, c := range cookies {
		// Expires == 0 means a session cookie; keep it.
		if c.Expires > 0 && time.Unix(int64(c.Expires), 0).Before(now) {
			continue
		}
		valid = append(valid, c)
	}

	return valid, nil
}

// HasSession reports whether the store holds a usable platform session
// cookie.
func (cs *CookieStore) HasSession() bool {
	cookies, err := cs.Load()
	if err != nil {
		return false
	}
	for _, c := range cookies {
		if c.Name == "sessionid" && c.Value != "" {
			return true
		}
	}
	return false
}

// InjectInto sets cookies in the given tab context before navigation. Only
// cookies scoped to the source platform are injected.
func InjectInto(ctx context.Context, cookies []StoredCookie) error {
	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				if !platformDomain(c.Domain) {
					continue
				}
				err := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly).
					Do(ctx)
				if err != nil {
					return err
				}
			}
			return nil
		}),
	)
}

func platformDomain(domain string) bool {
	domain = strings.TrimPrefix(domain, ".")
	return domain == "instagram.com" || strings.HasSuffix(domain, ".instagram.com")
}
