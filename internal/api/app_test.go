package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kalambet/lookbook/internal/favorites"
	"github.com/kalambet/lookbook/internal/feedback"
	"github.com/kalambet/lookbook/internal/intel"
	"github.com/kalambet/lookbook/internal/metrics"
	"github.com/kalambet/lookbook/internal/outfit"
	"github.com/kalambet/lookbook/internal/preferences"
	"github.com/kalambet/lookbook/internal/storage"
	"github.com/kalambet/lookbook/internal/wardrobe"
	"github.com/kalambet/lookbook/internal/watchlist"
	"github.com/kalambet/lookbook/internal/weather"
)

const testToken = "test-token-12345"

func newTestDeps(kv storage.KV) AppDeps {
	ledger := feedback.NewLedger(kv, nil)
	prefs := preferences.NewStore(kv)
	return AppDeps{
		Ledger:      ledger,
		Preferences: prefs,
		Watchlist:   watchlist.NewStore(kv),
		Wardrobe:    wardrobe.NewStore(kv),
		Favorites:   favorites.NewStore(kv),
		Narrator:    intel.NewNarrator(kv, ledger, prefs, 0),
		Weather:     weather.Static{TemperatureF: 50},
		Generator:   outfit.NewGenerator(),
	}
}

func setupAppHandler(t *testing.T, token string) (http.Handler, *storage.MemoryKV) {
	t.Helper()
	kv := storage.NewMemoryKV()
	deps := newTestDeps(kv)
	deps.Token = token
	return NewAppHandler(deps), kv
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func do(t *testing.T, h http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(method, url, body, testToken))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rr.Body.String(), err)
	}
	return v
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func seedWardrobe(t *testing.T, h http.Handler) {
	t.Helper()
	for _, body := range []string{
		`{"id":"t1","category":"Tops","name":"oxford"}`,
		`{"id":"b1","category":"bottoms","name":"chinos"}`,
		`{"id":"s1","category":"shoes","name":"loafers"}`,
		`{"id":"o1","category":"outerwear","name":"peacoat"}`,
	} {
		if rr := do(t, h, http.MethodPost, "/wardrobe", body); rr.Code != http.StatusCreated {
			t.Fatalf("seeding wardrobe: status %d, body %s", rr.Code, rr.Body.String())
		}
	}
}

func TestAuth(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"health is public", "/health", "", http.StatusOK},
		{"metrics is public", "/metrics", "", http.StatusOK},
		{"missing token", "/watchlist", "", http.StatusUnauthorized},
		{"wrong token", "/watchlist", "nope", http.StatusUnauthorized},
		{"valid token", "/watchlist", testToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, authReq(http.MethodGet, tt.path, "", tt.token))
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestAuth_CountsRejections(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)
	missing := testutil.ToFloat64(metrics.AuthFailures.WithLabelValues("missing"))
	mismatch := testutil.ToFloat64(metrics.AuthFailures.WithLabelValues("mismatch"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/watchlist", "", ""))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/watchlist", "", "nope"))

	if got := testutil.ToFloat64(metrics.AuthFailures.WithLabelValues("missing")) - missing; got != 1 {
		t.Errorf("missing rejections = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.AuthFailures.WithLabelValues("mismatch")) - mismatch; got != 1 {
		t.Errorf("mismatch rejections = %v, want 1", got)
	}
	if body := decode[errorBody](t, rr); body.Error.Type != "authentication_error" {
		t.Errorf("error type = %q, want authentication_error", body.Error.Type)
	}
}

func TestAuth_DisabledWithoutToken(t *testing.T) {
	h, _ := setupAppHandler(t, "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/feedback/stats", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestFeedback_RecordAndStats(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := do(t, h, http.MethodPost, "/feedback", `{"subject_id":"o-1","kind":"like"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	resp := decode[FeedbackResponse](t, rr)
	if resp.Record.SubjectID != "o-1" || resp.Record.Kind != feedback.Like {
		t.Errorf("record = %+v", resp.Record)
	}
	if resp.Acknowledgment != intel.AckLike {
		t.Errorf("acknowledgment = %q", resp.Acknowledgment)
	}

	do(t, h, http.MethodPost, "/feedback", `{"subject_id":"o-2","kind":"dislike","reason":"fit"}`)
	do(t, h, http.MethodPost, "/feedback", `{"subject_id":"o-3","kind":"dislike","reason":"fit"}`)

	stats := decode[feedback.Stats](t, do(t, h, http.MethodGet, "/feedback/stats", ""))
	if stats.Total != 3 || stats.LikeCount != 1 || stats.DislikeCount != 2 || stats.ReasonCounts[feedback.ReasonFit] != 2 || stats.LikeRate != 33 {
		t.Errorf("stats = %+v", stats)
	}

	rec := decode[feedback.Record](t, do(t, h, http.MethodGet, "/feedback/o-2", ""))
	if rec.Reason != feedback.ReasonFit {
		t.Errorf("reason = %q", rec.Reason)
	}
	if rr := do(t, h, http.MethodGet, "/feedback/unknown", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown subject status = %d", rr.Code)
	}

	if rr := do(t, h, http.MethodDelete, "/feedback", ""); rr.Code != http.StatusNoContent {
		t.Errorf("reset status = %d", rr.Code)
	}
	if all := decode[[]feedback.Record](t, do(t, h, http.MethodGet, "/feedback", "")); len(all) != 0 {
		t.Errorf("records after reset = %d", len(all))
	}
}

func TestFeedback_Validation(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing subject", `{"kind":"like"}`, "subject_id is required"},
		{"bad kind", `{"subject_id":"o-1","kind":"meh"}`, "kind must be one of"},
		{"bad reason", `{"subject_id":"o-1","kind":"dislike","reason":"price"}`, "reason must be one of"},
		{"malformed", `{`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/feedback", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rr.Code)
			}
			eb := decode[errorBody](t, rr)
			if eb.Error.Type != "invalid_request_error" || !strings.Contains(eb.Error.Message, tt.want) {
				t.Errorf("error = %+v, want message containing %q", eb.Error, tt.want)
			}
		})
	}
}

func TestPreferences(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	empty := decode[PreferencesResponse](t, do(t, h, http.MethodGet, "/preferences", ""))
	if empty.Preferences != nil || empty.HasPreferences {
		t.Errorf("empty = %+v", empty)
	}

	rr := do(t, h, http.MethodPut, "/preferences", `{"hair":"brown","eyes":"green"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	got := decode[PreferencesResponse](t, rr)
	if !got.HasPreferences || got.Preferences.Hair != "brown" || got.Summary != "Hair: brown. Eyes: green." {
		t.Errorf("saved = %+v", got)
	}

	got = decode[PreferencesResponse](t, do(t, h, http.MethodPut, "/preferences", `{"skin":"olive"}`))
	if got.Preferences.Hair != "" || got.Preferences.Skin != "olive" {
		t.Errorf("save should overwrite wholesale, got %+v", got.Preferences)
	}

	if rr := do(t, h, http.MethodDelete, "/preferences", ""); rr.Code != http.StatusNoContent {
		t.Errorf("clear status = %d", rr.Code)
	}
	if got := decode[PreferencesResponse](t, do(t, h, http.MethodGet, "/preferences", "")); got.Preferences != nil {
		t.Errorf("after clear = %+v", got)
	}
}

func TestWatchlist(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)
	dune := `{"id":"438631","title":"Dune","year":"2021"}`

	rr := do(t, h, http.MethodPost, "/watchlist", dune)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodPost, "/watchlist", dune)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", rr.Code)
	}
	var dup map[string]any
	json.Unmarshal(rr.Body.Bytes(), &dup)
	if dup["success"] != false || dup["message"] == "" {
		t.Errorf("duplicate body = %v", dup)
	}

	if rr := do(t, h, http.MethodPost, "/watchlist", `{"id":"1"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("missing title status = %d", rr.Code)
	}

	m := decode[watchlist.Movie](t, do(t, h, http.MethodGet, "/watchlist/438631", ""))
	if m.Title != "Dune" {
		t.Errorf("movie = %+v", m)
	}

	res := decode[watchlist.Result](t, do(t, h, http.MethodDelete, "/watchlist/nope", ""))
	if !res.Success {
		t.Error("removing an unknown id should succeed")
	}
	do(t, h, http.MethodDelete, "/watchlist/438631", "")
	if list := decode[[]watchlist.Movie](t, do(t, h, http.MethodGet, "/watchlist", "")); len(list) != 0 {
		t.Errorf("list = %+v", list)
	}
	if rr := do(t, h, http.MethodGet, "/watchlist/438631", ""); rr.Code != http.StatusNotFound {
		t.Errorf("get removed status = %d", rr.Code)
	}
}

func TestWardrobe(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)
	seedWardrobe(t, h)

	if rr := do(t, h, http.MethodPost, "/wardrobe", `{"id":"t1","category":"tops"}`); rr.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/wardrobe", `{"id":"x"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("missing category status = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodDelete, "/wardrobe/o1", ""); rr.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodDelete, "/wardrobe/o1", ""); rr.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", rr.Code)
	}
	if items := decode[[]wardrobe.Item](t, do(t, h, http.MethodGet, "/wardrobe", "")); len(items) != 3 {
		t.Errorf("items = %d, want 3", len(items))
	}
}

func TestGenerateOutfit(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := do(t, h, http.MethodPost, "/outfits/generate", `{}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty wardrobe status = %d", rr.Code)
	}
	if eb := decode[errorBody](t, rr); eb.Error.Type != "wardrobe_too_small" {
		t.Errorf("error type = %q", eb.Error.Type)
	}

	seedWardrobe(t, h)

	rr = do(t, h, http.MethodPost, "/outfits/generate", `{"occasion":"work","styles":["classic"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	o := decode[outfit.Outfit](t, rr)
	if o.Title != "Work · Classic" {
		t.Errorf("title = %q", o.Title)
	}
	if len(o.Items) != 4 {
		t.Errorf("items = %d, want 4 at 50°F", len(o.Items))
	}
	if o.Tip != outfit.TipLayering {
		t.Errorf("tip = %q", o.Tip)
	}

	for _, body := range []string{
		`{"occasion":"brunch"}`,
		`{"styles":["classic","minimal","edgy"]}`,
		`{"styles":["grunge"]}`,
	} {
		if rr := do(t, h, http.MethodPost, "/outfits/generate", body); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, rr.Code)
		}
	}
}

func TestWeather(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)
	r := decode[weather.Reading](t, do(t, h, http.MethodGet, "/weather", ""))
	if r.TemperatureF != 50 || r.TempDisplay != "50°F" {
		t.Errorf("reading = %+v", r)
	}
}

func TestIntel(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	if rr := do(t, h, http.MethodGet, "/intel/proactive", ""); rr.Code != http.StatusNoContent {
		t.Errorf("nothing to say status = %d", rr.Code)
	}

	do(t, h, http.MethodPost, "/feedback", `{"subject_id":"o-1","kind":"like"}`)
	rr := do(t, h, http.MethodGet, "/intel/proactive", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if msg := decode[intel.Message](t, rr); msg.ID != intel.FirstFeedback {
		t.Errorf("message = %+v", msg)
	}
	if rr := do(t, h, http.MethodGet, "/intel/proactive", ""); rr.Code != http.StatusNoContent {
		t.Errorf("second call inside cooldown status = %d", rr.Code)
	}

	st := decode[intel.State](t, do(t, h, http.MethodGet, "/intel/state", ""))
	if len(st.MessagesShown) != 1 || st.LastShown == nil {
		t.Errorf("state = %+v", st)
	}
	if rr := do(t, h, http.MethodDelete, "/intel/state", ""); rr.Code != http.StatusNoContent {
		t.Errorf("reset status = %d", rr.Code)
	}

	ack := decode[map[string]string](t, do(t, h, http.MethodGet, "/intel/ack?kind=dislike", ""))
	if ack["text"] != intel.AckDislike {
		t.Errorf("ack = %v", ack)
	}
	if rr := do(t, h, http.MethodGet, "/intel/ack?kind=love", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad kind status = %d", rr.Code)
	}
}

func TestFavorites(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	tr := decode[ToggleResponse](t, do(t, h, http.MethodPost, "/favorites/outfit/o-1/toggle", ""))
	if !tr.Favorite || tr.Count != 1 {
		t.Errorf("toggle on = %+v", tr)
	}
	do(t, h, http.MethodPost, "/favorites/outfit/o-2/toggle", "")
	tr = decode[ToggleResponse](t, do(t, h, http.MethodPost, "/favorites/outfit/o-1/toggle", ""))
	if tr.Favorite || tr.Count != 1 {
		t.Errorf("toggle off = %+v", tr)
	}

	fr := decode[FavoritesResponse](t, do(t, h, http.MethodGet, "/favorites/outfit", ""))
	if fr.Count != 1 || fr.IDs[0] != "o-2" {
		t.Errorf("favorites = %+v", fr)
	}
	if rr := do(t, h, http.MethodGet, "/favorites/movie", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown kind status = %d", rr.Code)
	}
}

func TestCatalog(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)
	var cat struct {
		Occasions []outfit.Option `json:"occasions"`
		Styles    []outfit.Option `json:"styles"`
		MaxStyles int             `json:"max_styles"`
	}
	rr := do(t, h, http.MethodGet, "/catalog", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &cat); err != nil {
		t.Fatal(err)
	}
	if len(cat.Occasions) != len(outfit.Occasions) || len(cat.Styles) != len(outfit.Styles) || cat.MaxStyles != 2 {
		t.Errorf("catalog = %+v", cat)
	}
}

func TestRateLimit(t *testing.T) {
	deps := newTestDeps(storage.NewMemoryKV())
	deps.RequestsPerMinute = 2
	h := NewAppHandler(deps)

	codes := make([]int, 3)
	for i := range codes {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		h.ServeHTTP(rr, req)
		codes[i] = rr.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestStorageFailureSurfacesAsError(t *testing.T) {
	deps := newTestDeps(brokenKV{})
	deps.Token = testToken
	h := NewAppHandler(deps)

	if rr := do(t, h, http.MethodPost, "/feedback", `{"subject_id":"o-1","kind":"like"}`); rr.Code != http.StatusInternalServerError {
		t.Errorf("feedback status = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/watchlist", `{"id":"1","title":"Alien"}`); rr.Code != http.StatusInternalServerError {
		t.Errorf("watchlist status = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/watchlist", ""); rr.Code != http.StatusOK {
		t.Errorf("list should fail closed to 200 [], got %d", rr.Code)
	}
}

func TestWardrobeStorageFailureHidesCause(t *testing.T) {
	deps := newTestDeps(brokenKV{})
	deps.Token = testToken
	h := NewAppHandler(deps)

	cases := []struct {
		method, path, body, want string
	}{
		{http.MethodPost, "/wardrobe", `{"id":"t1","category":"tops"}`, "wardrobe item could not be saved"},
		{http.MethodDelete, "/wardrobe/t1", "", "wardrobe item could not be removed"},
	}
	for _, tc := range cases {
		rr := do(t, h, tc.method, tc.path, tc.body)
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("%s %s status = %d", tc.method, tc.path, rr.Code)
			continue
		}
		var env struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			t.Fatalf("decoding error body: %v", err)
		}
		if env.Error.Message != tc.want {
			t.Errorf("%s %s message = %q, want %q", tc.method, tc.path, env.Error.Message, tc.want)
		}
		if strings.Contains(rr.Body.String(), io.ErrUnexpectedEOF.Error()) {
			t.Errorf("%s %s leaked storage error: %s", tc.method, tc.path, rr.Body.String())
		}
	}
}

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) (string, bool, error) {
	return "", false, io.ErrUnexpectedEOF
}
func (brokenKV) Set(context.Context, string, string) error { return io.ErrUnexpectedEOF }
func (brokenKV) Remove(context.Context, string) error      { return io.ErrUnexpectedEOF }
