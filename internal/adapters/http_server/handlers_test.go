package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	httpserver "skardu_hotels/internal/adapters/http_server"
	"skardu_hotels/internal/adapters/tfidf"
	"skardu_hotels/internal/adapters/vectorindex/memory"
	"skardu_hotels/internal/app"
	"skardu_hotels/internal/domain"
	"skardu_hotels/internal/storage/artifacts"
)

type stubAnswerer struct{ err error }

func (a stubAnswerer) Answer(_ context.Context, q string, hits []domain.SearchHit) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return "best match: " + hits[0].Hotel.Name, nil
}

func hotels() []domain.Hotel {
	return []domain.Hotel{
		{ID: "h1", Name: "Shangrila Resort", Description: "lakeside chalets", StarRating: 4,
			ContactInfo: domain.ContactInfo{City: "Skardu"},
			PriceRange:  domain.PriceRange{MinPrice: 20000, MaxPrice: 24000, Currency: "PKR", PricePerNight: true}},
		{ID: "h2", Name: "Hunza Serena", Description: "mountain views", StarRating: 5,
			ContactInfo: domain.ContactInfo{City: "Hunza"}},
		{Name: "Concordia Motel", Description: "budget rooms", StarRating: 2,
			ContactInfo: domain.ContactInfo{City: "Skardu"},
			PriceRange:  domain.PriceRange{MinPrice: 3000, MaxPrice: 3600, Currency: "PKR", PricePerNight: true}},
	}
}

func newTestServer(t *testing.T, a domain.Answerer) *httptest.Server {
	t.Helper()
	hs := hotels()
	svc := app.NewSearchService(tfidf.NewEmbedder(), memory.New(), nil, a, time.Minute)
	if err := svc.Index(context.Background(), hs); err != nil {
		t.Fatal(err)
	}
	s := httpserver.New(zerolog.Nop(), 0)
	s.MountHandlers(&httpserver.Handlers{
		Hotels: app.NewHotelService(artifacts.NewCatalog(hs), nil, time.Minute),
		Search: svc,
	})
	ts := httptest.NewServer(s.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string, hdr map[string]string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)
	if resp := get(t, ts.URL+"/healthz", nil); resp.StatusCode != 200 {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestGetHotel_ETag(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := get(t, ts.URL+"/v1/hotels/h1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	etag := resp.Header.Get("ETag")
	if !strings.HasPrefix(etag, `W/"`) {
		t.Fatalf("missing weak etag: %q", etag)
	}
	h := decode[domain.Hotel](t, resp)
	if h.Name != "Shangrila Resort" {
		t.Fatalf("unexpected hotel %+v", h)
	}

	resp = get(t, ts.URL+"/v1/hotels/h1", map[string]string{"If-None-Match": etag})
	if resp.StatusCode != http.StatusNotModified {
		t.Fatalf("want 304, got %d", resp.StatusCode)
	}

	// hotels without an id are addressable by their synthesized key
	key := hotels()[2].Key()
	if resp := get(t, ts.URL+"/v1/hotels/"+key, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("synthesized key lookup: %d", resp.StatusCode)
	}
}

func TestGetHotel_NotFoundIsProblem(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := get(t, ts.URL+"/v1/hotels/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type %q", ct)
	}
	p := decode[map[string]any](t, resp)
	if p["status"] != 404.0 || p["title"] != "Not Found" {
		t.Fatalf("problem body %+v", p)
	}
}

func TestListHotels(t *testing.T) {
	ts := newTestServer(t, nil)

	body := decode[struct {
		Count  int            `json:"count"`
		Hotels []domain.Hotel `json:"hotels"`
	}](t, get(t, ts.URL+"/v1/hotels?city=skardu", nil))
	if body.Count != 2 || len(body.Hotels) != 2 {
		t.Fatalf("city filter: %+v", body)
	}

	if resp := get(t, ts.URL+"/v1/hotels?limit=abc", nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad limit: %d", resp.StatusCode)
	}
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := get(t, ts.URL+"/v1/search?q=lakeside+chalets&k=2", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	body := decode[struct {
		Hits []domain.SearchHit `json:"hits"`
	}](t, resp)
	if len(body.Hits) == 0 || body.Hits[0].Hotel.ID != "h1" {
		t.Fatalf("unexpected hits %+v", body.Hits)
	}

	body = decode[struct {
		Hits []domain.SearchHit `json:"hits"`
	}](t, get(t, ts.URL+"/v1/search?q=rooms&max_price=5000", nil))
	if len(body.Hits) != 1 || body.Hits[0].Hotel.Name != "Concordia Motel" {
		t.Fatalf("price filter: %+v", body.Hits)
	}

	for _, bad := range []string{"", "?q=", "?q=x&k=0", "?q=x&min_stars=9", "?q=x&max_price=-1"} {
		if resp := get(t, ts.URL+"/v1/search"+bad, nil); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%q: want 400, got %d", bad, resp.StatusCode)
		}
	}
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAnswer(t *testing.T) {
	ts := newTestServer(t, stubAnswerer{})
	resp := post(t, ts.URL+"/v1/answer", `{"query": "lakeside chalets", "k": 1}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	ans := decode[domain.Answer](t, resp)
	if ans.Text != "best match: Shangrila Resort" || len(ans.Hits) != 1 {
		t.Fatalf("unexpected answer %+v", ans)
	}

	if resp := post(t, ts.URL+"/v1/answer", `{"question": "x"}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field: %d", resp.StatusCode)
	}
	if resp := post(t, ts.URL+"/v1/answer", `{"query": "  "}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty query: %d", resp.StatusCode)
	}
}

func TestAnswer_NotConfiguredAndUpstreamFailure(t *testing.T) {
	ts := newTestServer(t, nil)
	if resp := post(t, ts.URL+"/v1/answer", `{"query": "lake"}`); resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("want 501, got %d", resp.StatusCode)
	}

	ts = newTestServer(t, stubAnswerer{err: errors.New("quota")})
	if resp := post(t, ts.URL+"/v1/answer", `{"query": "lake"}`); resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("want 502, got %d", resp.StatusCode)
	}
}

func TestMetricsMount(t *testing.T) {
	s := httpserver.New(zerolog.Nop(), time.Second)
	s.Mount("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hotels_http_requests_total 1"))
	}))
	ts := httptest.NewServer(s.Mux())
	defer ts.Close()
	if resp := get(t, ts.URL+"/metrics", nil); resp.StatusCode != 200 {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func TestLogger_RecordsSearchAndHotelFields(t *testing.T) {
	hs := hotels()
	svc := app.NewSearchService(tfidf.NewEmbedder(), memory.New(), nil, nil, time.Minute)
	if err := svc.Index(context.Background(), hs); err != nil {
		t.Fatal(err)
	}
	var buf lockedBuffer
	s := httpserver.New(zerolog.New(&buf), 0)
	s.MountHandlers(&httpserver.Handlers{
		Hotels: app.NewHotelService(artifacts.NewCatalog(hs), nil, time.Minute),
		Search: svc,
	})
	ts := httptest.NewServer(s.Mux())
	defer ts.Close()

	for _, path := range []string{"/v1/search?q=budget+rooms&city=Skardu&k=2", "/v1/hotels/h1"} {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		_ = res.Body.Close()
	}

	var lines []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		if err := json.Unmarshal([]byte(l), &m); err != nil {
			t.Fatalf("log line %q: %v", l, err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("want 2 request lines, got %d", len(lines))
	}
	search, hotel := lines[0], lines[1]
	if search["route"] != "/v1/search" || search["query"] != "budget rooms" || search["city"] != "Skardu" {
		t.Fatalf("search line: %v", search)
	}
	if hits, _ := search["hits"].(float64); hits < 1 {
		t.Fatalf("search line should count hits: %v", search)
	}
	if hotel["hotel_key"] != "h1" || hotel["query"] != nil {
		t.Fatalf("hotel line: %v", hotel)
	}
}
