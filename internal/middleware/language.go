package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type languageKey struct{}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// countryLanguages maps caller countries to a default vocal language for
// requests that do not declare one. The declared language field and script
// evidence in the lyrics always win over this hint.
var countryLanguages = map[string]string{
	"IN": "hindi",
	"PK": "urdu",
	"BD": "bengali",
	"NP": "hindi",
	"LK": "tamil",
}

// LanguageHint attaches a best-effort default language to the request
// context: X-Language header first, then the GeoIP country, then fallback.
func LanguageHint(fallback string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// A language already on the context (a token claim) wins.
			if LanguageFromContext(r.Context()) != "" {
				next.ServeHTTP(w, r)
				return
			}
			lang := detectLanguage(r, fallback, lookup)
			ctx := context.WithValue(r.Context(), languageKey{}, lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLanguage(r *http.Request, fallback string, lookup CountryLookup) string {
	if v := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Language"))); v != "" {
		return v
	}
	if lookup != nil {
		if country, err := lookup(ClientIP(r)); err == nil {
			if lang, ok := countryLanguages[strings.ToUpper(country)]; ok {
				return lang
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return "english"
}

func contextWithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageKey{}, lang)
}

func LanguageFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(languageKey{}).(string); ok {
		return v
	}
	return ""
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip != "" && net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
