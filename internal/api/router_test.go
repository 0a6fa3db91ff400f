package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mail-route-tracker/internal/adapters/repositories"
	"mail-route-tracker/internal/api/dto"
	"mail-route-tracker/internal/domain"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/text/language"
)

type staticWalkOrder domain.WalkOrder

func (s staticWalkOrder) WalkOrder(ctx context.Context) (domain.WalkOrder, error) {
	return domain.WalkOrder(s), nil
}

var testNow = time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := testNow.AddDate(0, 0, -n)
	return &t
}

func newTestServer(t *testing.T, rps float64) (*httptest.Server, *repositories.JSONStreetStore) {
	t.Helper()

	store, err := repositories.NewJSONStreetStore(filepath.Join(t.TempDir(), "streets.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	err = store.UpsertStreets(context.Background(), []*domain.Street{
		{ID: "a", Name: "Ahornweg", Area: "14", LastDelivered: daysAgo(3)},
		{ID: "b", Name: "Birkenweg", Area: "14", LastDelivered: daysAgo(15), IsBig: true},
		{ID: "c", Name: "Cedernweg", Area: "14"},
		{ID: "d", Name: "Dorfstraße", Area: "14", LastDelivered: daysAgo(8), DeliveryTimes: []int{20, 30}},
		{ID: "z", Name: "Zollweg", Area: "15", LastDelivered: daysAgo(1)},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	h := NewRouter(Deps{
		Repo:         store,
		WalkOrders:   staticWalkOrder{"14": {"d", "a"}},
		Collation:    language.German,
		RateLimitRPS: rps,
		Now:          func() time.Time { return testNow },
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()

	if out != nil && res.StatusCode < 300 && res.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return res.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, 0)

	res, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	if res.Header.Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestWorklistUrgencyOrder(t *testing.T) {
	srv, _ := newTestServer(t, 0)

	var wl dto.WorklistResponse
	if code := doJSON(t, http.MethodGet, srv.URL+"/areas/14/worklist", nil, &wl); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}

	want := []string{"c", "b", "d", "a"}
	if len(wl.Entries) != len(want) {
		t.Fatalf("entries = %d, want %d", len(wl.Entries), len(want))
	}
	for i, id := range want {
		if wl.Entries[i].Street.ID != id {
			t.Fatalf("entries[%d] = %q, want %q", i, wl.Entries[i].Street.ID, id)
		}
	}

	if wl.Entries[0].Tier != "never" || wl.Entries[0].DaysSince != nil {
		t.Fatalf("never-delivered entry = %+v", wl.Entries[0])
	}
	if wl.TierCounts["critical"] != 1 || wl.TierCounts["warning"] != 1 || wl.TierCounts["normal"] != 1 {
		t.Fatalf("tier counts = %v", wl.TierCounts)
	}
	// never 10 + big 15 + median 25 + small 10
	if wl.EstimatedTotalMinutes != 60 {
		t.Fatalf("estimated total = %d, want 60", wl.EstimatedTotalMinutes)
	}
}

func TestWorklistOptimized(t *testing.T) {
	srv, _ := newTestServer(t, 0)

	var wl dto.WorklistResponse
	if code := doJSON(t, http.MethodGet, srv.URL+"/areas/14/worklist?optimize=true", nil, &wl); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}

	// walk path first, then big-first heuristic, then oldest
	want := []string{"d", "a", "b", "c"}
	for i, id := range want {
		if wl.Entries[i].Street.ID != id {
			t.Fatalf("entries[%d] = %q, want %q", i, wl.Entries[i].Street.ID, id)
		}
	}
	if !wl.Optimized {
		t.Fatal("expected optimized flag")
	}
}

func TestWorklistBadParams(t *testing.T) {
	srv, _ := newTestServer(t, 0)

	if code := doJSON(t, http.MethodGet, srv.URL+"/areas/14/worklist?date=20-03-2026", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d, want 400", code)
	}
	if code := doJSON(t, http.MethodGet, srv.URL+"/areas/14/worklist?optimize=maybe", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad optimize status = %d, want 400", code)
	}
}

func TestBlankAreaIsClientError(t *testing.T) {
	srv, _ := newTestServer(t, 0)

	for _, path := range []string{"/areas/%20/worklist", "/areas/%20/groups", "/areas/%20/forecast"} {
		var body map[string]string
		res, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		err = json.NewDecoder(res.Body).Decode(&body)
		res.Body.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		if res.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s status = %d, want 400", path, res.StatusCode)
		}
		if body["error"] != "area must be non-empty" {
			t.Fatalf("%s error = %q", path, body["error"])
		}
	}
}

func TestGroupsIncludeEmptyTiers(t *testing.T) {
	srv, _ := newTestServer(t, 0)

	var res dto.GroupsResponse
	if code := doJSON(t, http.MethodGet, srv.URL+"/areas/15/groups", nil, &res); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(res.Groups) != len(domain.Tiers) {
		t.Fatalf("groups = %d, want %d", len(res.Groups), len(domain.Tiers))
	}
	if res.Groups[0].Tier != "never" || len(res.Groups[0].Streets) != 0 {
		t.Fatalf("first group = %+v, want empty never group", res.Groups[0])
	}
	if last := res.Groups[len(res.Groups)-1]; last.Tier != "normal" || len(last.Streets) != 1 {
		t.Fatalf("last group = %+v, want one normal street", last)
	}
}

func TestForecastWeeks(t *testing.T) {
	srv, _ := newTestServer(t, 0)

	var res dto.ForecastResponse
	if code := doJSON(t, http.MethodGet, srv.URL+"/areas/14/forecast?weeks=2", nil, &res); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(res.Days) != 14 {
		t.Fatalf("days = %d, want 14", len(res.Days))
	}
	if res.Days[0].Date != "2026-03-20" {
		t.Fatalf("first day = %q, want 2026-03-20", res.Days[0].Date)
	}

	for _, weeks := range []string{"0", "9", "x"} {
		if code := doJSON(t, http.MethodGet, srv.URL+"/areas/14/forecast?weeks="+weeks, nil, nil); code != http.StatusBadRequest {
			t.Fatalf("weeks=%s status = %d, want 400", weeks, code)
		}
	}
}

func TestInsights(t *testing.T) {
	srv, _ := newTestServer(t, 0)

	var res dto.InsightsResponse
	if code := doJSON(t, http.MethodGet, srv.URL+"/insights?area=15", nil, &res); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if res.EnoughData || len(res.Insights) != 1 {
		t.Fatalf("insights = %+v, want not enough data", res)
	}
}

func TestDeliveryLifecycle(t *testing.T) {
	srv, store := newTestServer(t, 0)

	var s dto.StreetResponse
	code := doJSON(t, http.MethodPost, srv.URL+"/streets/c/deliveries", map[string]any{"minutes": 12}, &s)
	if code != http.StatusOK {
		t.Fatalf("mark status = %d, want 200", code)
	}
	if s.LastDelivered == nil || !s.LastDelivered.Equal(testNow) {
		t.Fatalf("lastDelivered = %v, want %v", s.LastDelivered, testNow)
	}
	if s.AverageTime == nil || *s.AverageTime != 12 {
		t.Fatalf("averageTime = %v, want 12", s.AverageTime)
	}

	if code := doJSON(t, http.MethodDelete, srv.URL+"/streets/c/deliveries", nil, &s); code != http.StatusOK {
		t.Fatalf("undo status = %d, want 200", code)
	}
	got, _ := store.GetStreet(context.Background(), "c")
	if got.LastDelivered != nil || len(got.DeliveryTimes) != 1 {
		t.Fatalf("after undo = %+v", got)
	}
}

func TestDeliveryValidation(t *testing.T) {
	srv, _ := newTestServer(t, 0)

	future := testNow.Add(time.Hour)
	cases := []struct {
		name string
		url  string
		body any
		want int
	}{
		{"future", "/streets/a/deliveries", map[string]any{"delivered_at": future}, http.StatusBadRequest},
		{"zero minutes", "/streets/a/deliveries", map[string]any{"minutes": 0}, http.StatusBadRequest},
		{"unknown field", "/streets/a/deliveries", map[string]any{"mins": 5}, http.StatusBadRequest},
		{"missing street", "/streets/nope/deliveries", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code := doJSON(t, http.MethodPost, srv.URL+tc.url, tc.body, nil); code != tc.want {
				t.Fatalf("status = %d, want %d", code, tc.want)
			}
		})
	}
}

func TestStreetCRUD(t *testing.T) {
	srv, _ := newTestServer(t, 0)

	var created dto.StreetResponse
	code := doJSON(t, http.MethodPost, srv.URL+"/streets", map[string]any{"name": "Eschenweg", "area": "15", "is_big": true}, &created)
	if code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", code)
	}
	if created.ID == "" || !created.IsBig {
		t.Fatalf("created = %+v", created)
	}

	if code := doJSON(t, http.MethodPost, srv.URL+"/streets", map[string]any{"name": "No Area"}, nil); code != http.StatusBadRequest {
		t.Fatalf("invalid create status = %d, want 400", code)
	}

	code = doJSON(t, http.MethodPost, srv.URL+"/streets", map[string]any{"id": "a", "name": "Ahornweg", "area": "15"}, nil)
	if code != http.StatusConflict {
		t.Fatalf("duplicate create status = %d, want 409", code)
	}

	var list dto.ListStreetsResponse
	doJSON(t, http.MethodGet, srv.URL+"/streets?area=15", nil, &list)
	if len(list.Streets) != 2 {
		t.Fatalf("area 15 streets = %d, want 2", len(list.Streets))
	}

	if code := doJSON(t, http.MethodDelete, srv.URL+"/streets/"+created.ID, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", code)
	}
	if code := doJSON(t, http.MethodGet, srv.URL+"/streets/"+created.ID, nil, nil); code != http.StatusNotFound {
		t.Fatalf("get deleted status = %d, want 404", code)
	}
}

func TestStartCycle(t *testing.T) {
	srv, store := newTestServer(t, 0)

	var res dto.CycleResponse
	if code := doJSON(t, http.MethodPost, srv.URL+"/areas/14/cycle", nil, &res); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if res.Streets != 4 {
		t.Fatalf("streets = %d, want 4", res.Streets)
	}

	s, _ := store.GetStreet(context.Background(), "a")
	if s.CycleStartDate == nil || !s.CycleStartDate.Equal(testNow) {
		t.Fatalf("cycleStartDate = %v, want %v", s.CycleStartDate, testNow)
	}
	z, _ := store.GetStreet(context.Background(), "z")
	if z.CycleStartDate != nil {
		t.Fatal("other area must not be touched")
	}
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, 1)

	limited := false
	for i := 0; i < 10; i++ {
		if code := doJSON(t, http.MethodGet, srv.URL+"/health", nil, nil); code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("expected a 429 after exhausting the burst")
	}
}
