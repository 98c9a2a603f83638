package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		fallback string
		country  string
		want     string
	}{
		{
			name: "x-locale overrides",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "TH")
			},
			country: "US",
			want:    "th",
		},
		{
			name: "accept-language used",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "en-US,en;q=0.9")
			},
			want: "en",
		},
		{
			name: "accept-language thai preference",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "th-TH,en;q=0.8")
			},
			want: "th",
		},
		{
			name:    "country th overrides",
			country: "TH",
			want:    "th",
		},
		{
			name:    "country non-th falls back to en",
			country: "US",
			want:    "en",
		},
		{
			name:     "configured fallback",
			fallback: "en",
			want:     "en",
		},
		{
			name: "default to th",
			want: "th",
		},
		{
			name: "unsupported x-locale maps to default",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "!!")
			},
			want: "th",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.setup != nil {
				tc.setup(r)
			}
			if got := detectLocale(r, tc.fallback, tc.country); got != tc.want {
				t.Fatalf("detectLocale = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestI18NMiddlewareStoresContext(t *testing.T) {
	var gotLocale, gotCountry string
	h := I18N("th", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLocale = LocaleFromContext(r.Context())
		gotCountry = CountryFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Language", "th-TH")
	r.Header.Set("CF-IPCountry", "th")
	h.ServeHTTP(httptest.NewRecorder(), r)

	if gotLocale != "th" {
		t.Fatalf("locale = %q, want th", gotLocale)
	}
	if gotCountry != "TH" {
		t.Fatalf("country = %q, want TH", gotCountry)
	}
}

func TestResolveCountryGeoIPFallback(t *testing.T) {
	lookup := func(ip string) (string, error) {
		if ip != "203.0.113.9" {
			t.Fatalf("lookup ip = %q", ip)
		}
		return "th", nil
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	if got := ResolveCountry(r, lookup); got != "TH" {
		t.Fatalf("country = %q, want TH", got)
	}
}

func TestLocaleFromContextDefault(t *testing.T) {
	if got := LocaleFromContext(context.Background()); got != "th" {
		t.Fatalf("default locale = %q, want th", got)
	}
}
