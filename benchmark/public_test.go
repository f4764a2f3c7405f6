package benchmark

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
)

// portalURL is the running portal to benchmark, PORTAL_URL or localhost.
func portalURL() string {
	if u := os.Getenv("PORTAL_URL"); u != "" {
		return u
	}
	return "http://localhost:8000"
}

func get(b *testing.B, url string, token string) {
	r, _ := http.NewRequest("GET", url, nil)
	if token != "" {
		r.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	resp, err := http.DefaultClient.Do(r)
	if err != nil {
		b.Fatal(err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func BenchmarkPublicEndpoints(b *testing.B) {
	base := portalURL()
	if _, err := http.Get(base + "/healthz"); err != nil {
		b.Skipf("portal is not running at %s", base)
	}

	for _, path := range []string{
		"/healthz",
		"/api/v1/conference/list",
		"/api/v1/conference/active",
		"/api/v1/faq/categories",
	} {
		b.Run("GET "+path, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				get(b, base+path, "")
			}
		})
	}
}

// BenchmarkAdminPages measures a permission checked listing. The first
// request warms the role-permission cache.
func BenchmarkAdminPages(b *testing.B) {
	token := os.Getenv("PORTAL_ADMIN_TOKEN")
	if token == "" {
		b.Skip("PORTAL_ADMIN_TOKEN is not set")
	}
	url := portalURL() + "/api/v1/admin/location/pages?page_size=20"
	get(b, url, token)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			r, _ := http.NewRequest("GET", url, nil)
			r.Header.Add("Authorization", "Bearer "+token)
			resp, err := http.DefaultClient.Do(r)
			if err != nil {
				b.Error(err)
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
	})
}
