package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pprforecast/internal/adapters/http/api"
	"github.com/okian/pprforecast/internal/adapters/repository"
)

type mockLeaderboard struct {
	topN     []api.Entry
	rank     api.Entry
	rankErr  error
	topNErr  error
	lastName string
	lastN    int
}

func (m *mockLeaderboard) TopN(_ context.Context, n int) ([]api.Entry, error) {
	m.lastN = n
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockLeaderboard) Rank(_ context.Context, name string) (api.Entry, error) {
	m.lastName = name
	if m.rankErr != nil {
		return api.Entry{}, m.rankErr
	}
	return m.rank, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func sampleEntries() []api.Entry {
	return []api.Entry{
		{Rank: 1, Name: "CeeDee Lamb", Prediction: 260.5},
		{Rank: 2, Name: "Breece Hall", Prediction: 210},
		{Rank: 3, Name: "Tony Pollard", Prediction: 180.2},
	}
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		lb := &mockLeaderboard{topN: sampleEntries(), rank: sampleEntries()[2]}
		server := api.NewServer(lb, &mockStatsProvider{stats: map[string]interface{}{"players": 3}}, 100)
		mux := http.NewServeMux()
		server.Register(mux)

		for _, path := range []string{"/healthz", "/stats", "/leaderboard?limit=2", "/rank/Tony%20Pollard"} {
			path := path
			Convey(fmt.Sprintf("Then GET %s should be served", path), func() {
				req := httptest.NewRequest(http.MethodGet, path, nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		}

		Convey("Then unknown paths should not be served", func() {
			req := httptest.NewRequest(http.MethodGet, "/events", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestLeaderboardHandler(t *testing.T) {
	Convey("Given a leaderboard handler", t, func() {
		lb := &mockLeaderboard{topN: sampleEntries()}
		h := api.NewLeaderboardHandler(lb, 50)

		Convey("When requesting top N entries", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit=2", nil)
			w := httptest.NewRecorder()
			h.HandleGetLeaderboard(w, req)

			Convey("Then it should return the top N entries", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
				var got []api.Entry
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[0].Name, ShouldEqual, "CeeDee Lamb")
				So(got[1].Prediction, ShouldEqual, 210)
			})

			Convey("Then the JSON should use snake case fields", func() {
				So(w.Body.String(), ShouldContainSubstring, `"name":"CeeDee Lamb"`)
				So(w.Body.String(), ShouldContainSubstring, `"prediction":260.5`)
				So(w.Body.String(), ShouldContainSubstring, `"rank":1`)
			})
		})

		Convey("When no limit is specified", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboard", nil)
			w := httptest.NewRecorder()
			h.HandleGetLeaderboard(w, req)

			Convey("Then the default page size should be used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(lb.lastN, ShouldEqual, 10)
			})
		})

		Convey("When the limit is not a positive integer", func() {
			for _, limit := range []string{"0", "-3", "ten"} {
				req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit="+limit, nil)
				w := httptest.NewRecorder()
				h.HandleGetLeaderboard(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, `"code":"bad_request"`)
			}
		})

		Convey("When the limit exceeds the maximum", func() {
			req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit=51", nil)
			w := httptest.NewRecorder()
			h.HandleGetLeaderboard(w, req)

			Convey("Then it should return 400 limit_exceeded", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "limit_exceeded")
			})
		})

		Convey("When the leaderboard returns an error", func() {
			lb.topNErr = errors.New("boom")
			req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit=1", nil)
			w := httptest.NewRecorder()
			h.HandleGetLeaderboard(w, req)

			Convey("Then it should return internal server error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldContainSubstring, "api.get_leaderboard: boom")
			})
		})

		Convey("When the method is not GET", func() {
			req := httptest.NewRequest(http.MethodPost, "/leaderboard?limit=1", nil)
			w := httptest.NewRecorder()
			h.HandleGetLeaderboard(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRankHandler(t *testing.T) {
	Convey("Given a rank handler", t, func() {
		lb := &mockLeaderboard{rank: api.Entry{Rank: 3, Name: "Tony Pollard", Prediction: 180.2}}
		h := api.NewRankHandler(lb)

		Convey("When requesting rank for a player with a space in the name", func() {
			req := httptest.NewRequest(http.MethodGet, "/rank/Tony%20Pollard", nil)
			w := httptest.NewRecorder()
			h.HandleGetRank(w, req)

			Convey("Then the decoded name should be looked up", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(lb.lastName, ShouldEqual, "Tony Pollard")
				var got api.Entry
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.Rank, ShouldEqual, 3)
			})
		})

		Convey("When the player is unknown", func() {
			lb.rankErr = repository.ErrNotFound
			req := httptest.NewRequest(http.MethodGet, "/rank/Nobody", nil)
			w := httptest.NewRecorder()
			h.HandleGetRank(w, req)

			Convey("Then it should return not found status", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(w.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
			})
		})

		Convey("When the leaderboard returns another error", func() {
			lb.rankErr = errors.New("database exploded")
			req := httptest.NewRequest(http.MethodGet, "/rank/A", nil)
			w := httptest.NewRecorder()
			h.HandleGetRank(w, req)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When the name is missing or nested", func() {
			for _, path := range []string{"/rank/", "/rank/a/b"} {
				req := httptest.NewRequest(http.MethodGet, path, nil)
				w := httptest.NewRecorder()
				h.HandleGetRank(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given a health handler", t, func() {
		h := api.NewHealthHandler()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()
		h.HandleHealth(w, req)

		Convey("Then it should serve the metrics exposition", func() {
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "pprforecast_")
		})
	})

	Convey("Given a stats handler", t, func() {
		h := api.NewStatsHandler(&mockStatsProvider{stats: map[string]interface{}{"players": 3, "model_test_r2": 0.5}})
		req := httptest.NewRequest(http.MethodGet, "/stats", nil)
		w := httptest.NewRecorder()
		h.HandleStats(w, req)

		Convey("Then it should return the provider's stats", func() {
			So(w.Code, ShouldEqual, http.StatusOK)
			var got map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
			So(got["players"], ShouldEqual, float64(3))
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given API errors", t, func() {
		err := api.WrapKind("api.get_rank", api.ErrBadRequest, repository.ErrNotFound)

		Convey("Then both kind and cause should match", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.get_rank: bad request: player not found")
		})

		Convey("Then Wrap of nil should be nil", func() {
			So(api.Wrap("op", nil), ShouldBeNil)
			So(strings.HasPrefix(api.NewKind("op", api.ErrServe).Error(), "op: "), ShouldBeTrue)
		})
	})
}
