package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertmeta/morning-cli/model"
	"github.com/robertmeta/morning-cli/recommend"
	"github.com/robertmeta/morning-cli/store"
	"github.com/robertmeta/morning-cli/weather"
)

const testMenuCSV = `name,tag,time,weather_match
Oatmeal,light,5,C
Stew,hot,40,R
`

type testEnv struct {
	server     *httptest.Server
	store      *store.Store
	weatherSrv *httptest.Server
	catalog    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	catalogPath := filepath.Join(t.TempDir(), "menu.csv")
	require.NoError(t, os.WriteFile(catalogPath, []byte(testMenuCSV), 0644))

	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.EnsureUser("admin", "1234"))

	weatherSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"current_weather":{"temperature":8.0,"weathercode":63}}`)
	}))
	t.Cleanup(weatherSrv.Close)

	wc := weather.NewClient(37.5665, 126.9780, 2*time.Second)
	wc.SetBaseURL(weatherSrv.URL)

	engine := recommend.New(st, rand.New(rand.NewSource(1)))
	srv := New(st, engine, wc, catalogPath, zerolog.Nop())

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, store: st, weatherSrv: weatherSrv, catalog: catalogPath}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set(sessionHeader, token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()

	resp := e.request(t, http.MethodPost, "/login", "", map[string]string{
		"user_id": "admin", "password": "1234",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sess struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sess))
	require.NotEmpty(t, sess.Token)
	return sess.Token
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		userID   string
		password string
		status   int
	}{
		{name: "valid credentials", userID: "admin", password: "1234", status: http.StatusOK},
		{name: "wrong password", userID: "admin", password: "nope", status: http.StatusUnauthorized},
		{name: "unknown user", userID: "ghost", password: "1234", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.request(t, http.MethodPost, "/login", "", map[string]string{
				"user_id": tt.userID, "password": tt.password,
			})
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	resp := env.request(t, http.MethodPost, "/logout", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The token is dead now.
	resp = env.request(t, http.MethodPost, "/logout", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRecommendationAnonymous(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/recommendation?mode=holiday", "", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Mode           model.Mode          `json:"mode"`
		Weather        weather.Observation `json:"weather"`
		Recommendation struct {
			Item         model.MenuItem `json:"item"`
			Personalized bool           `json:"personalized"`
		} `json:"recommendation"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	assert.Equal(t, model.ModeHoliday, out.Mode)
	assert.Equal(t, "rain", out.Weather.Condition)
	assert.False(t, out.Recommendation.Personalized)
	assert.Contains(t, []string{"Oatmeal", "Stew"}, out.Recommendation.Item.Name)
}

func TestRecommendationIdentified(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	resp := env.request(t, http.MethodGet, "/recommendation?mode=commute", token, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Recommendation struct {
			Item         model.MenuItem `json:"item"`
			Personalized bool           `json:"personalized"`
		} `json:"recommendation"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	assert.True(t, out.Recommendation.Personalized)
	// Stew (40 min) is filtered out in commute mode.
	assert.Equal(t, "Oatmeal", out.Recommendation.Item.Name)
}

func TestRecommendationInvalidMode(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/recommendation?mode=weekend", "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecommendationCatalogUnavailable(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.Remove(env.catalog))

	resp := env.request(t, http.MethodGet, "/recommendation?mode=holiday", "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestFeedbackRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/feedback", "", map[string]string{
		"menu_name": "Oatmeal", "feedback": "like",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFeedbackRecorded(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	resp := env.request(t, http.MethodPost, "/feedback", token, map[string]string{
		"menu_name": "Stew", "feedback": "dislike",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	disliked, err := env.store.DislikedItems("admin")
	require.NoError(t, err)
	assert.True(t, disliked["Stew"])
}

func TestFeedbackInvalidType(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	resp := env.request(t, http.MethodPost, "/feedback", token, map[string]string{
		"menu_name": "Stew", "feedback": "meh",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWeatherEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/weather", "", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var obs weather.Observation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&obs))
	assert.Equal(t, "rain", obs.Condition)
	assert.Equal(t, 8.0, obs.Temperature)
}

func TestMenuEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/menu", "", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []model.MenuItem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	assert.Len(t, items, 2)
}
