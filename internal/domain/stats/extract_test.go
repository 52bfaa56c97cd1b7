package stats_test

import (
	"errors"
	"testing"

	"github.com/okian/pprforecast/internal/domain/model"
	"github.com/okian/pprforecast/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func seasonRecord() stats.Record {
	return stats.Record{
		{Stat: "g", Text: "17"},
		{Stat: "gs", Text: "16"},
		{Stat: "rush_att", Text: "200"},
		{Stat: "rush_yds", Text: "100"},
		{Stat: "rush_td", Text: "1"},
		{Stat: "rush_yds_per_g", Text: "5.9"},
		{Stat: "rec", Text: "5"},
		{Stat: "rec_yds", Text: "50"},
		{Stat: "rec_td", Text: ""},
		{Stat: "catch_pct", Text: "62.5%"},
		{Stat: "fumbles", Text: " 1 "},
	}
}

func TestFantasyPPR(t *testing.T) {
	Convey("Given a stat line with known values", t, func() {
		values := map[string]float64{
			"rush_yds": 100, "rush_td": 1, "rec_yds": 50, "rec_td": 0, "rec": 5, "fumbles": 1,
		}

		Convey("When computing fantasy points", func() {
			points, err := stats.FantasyPPR(values)

			Convey("Then it should apply the PPR weights", func() {
				So(err, ShouldBeNil)
				So(points, ShouldEqual, 24.0)
			})
		})

		Convey("When a scoring input is missing", func() {
			delete(values, "fumbles")
			_, err := stats.FantasyPPR(values)

			Convey("Then it should report the missing field", func() {
				So(errors.Is(err, stats.ErrMissingField), ShouldBeTrue)
				var fe *stats.FieldError
				So(errors.As(err, &fe), ShouldBeTrue)
				So(fe.Field, ShouldEqual, "fumbles")
			})
		})

		Convey("When the raw total has more than one decimal", func() {
			values["rush_yds"] = 1234
			values["rec_yds"] = 567
			points, err := stats.FantasyPPR(values)

			Convey("Then it should round to one decimal", func() {
				So(err, ShouldBeNil)
				So(points, ShouldEqual, 189.1)
			})
		})
	})
}

func TestRoundTenth(t *testing.T) {
	Convey("Given values needing rounding", t, func() {
		So(stats.RoundTenth(24.04), ShouldEqual, 24.0)
		So(stats.RoundTenth(24.06), ShouldEqual, 24.1)
		So(stats.RoundTenth(-3.25), ShouldEqual, -3.3)
		So(stats.RoundTenth(0.15), ShouldEqual, 0.2)
		So(stats.RoundTenth(2.25), ShouldEqual, 2.3)
		So(stats.RoundTenth(0), ShouldEqual, 0)
	})
}

func TestExtract(t *testing.T) {
	Convey("Given a raw season record", t, func() {
		rec := seasonRecord()

		Convey("When extracting", func() {
			season, err := stats.Extract(rec)

			Convey("Then values should be normalized", func() {
				So(err, ShouldBeNil)
				v, ok := season.Get("catch_pct")
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 62.5)
				v, ok = season.Get("rec_td")
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 0)
				v, _ = season.Get("fumbles")
				So(v, ShouldEqual, 1)
				So(season.Games(), ShouldEqual, 17)
			})

			Convey("And per-game categories should be dropped", func() {
				_, ok := season.Get("rush_yds_per_g")
				So(ok, ShouldBeFalse)
				So(season.Categories(), ShouldNotContain, "rush_yds_per_g")
			})

			Convey("And fantasy_ppr should be derived last", func() {
				So(season.FantasyPPR(), ShouldEqual, 24.0)
				cats := season.Categories()
				So(cats[len(cats)-1], ShouldEqual, model.FantasyPPRKey)
				So(cats[0], ShouldEqual, "g")
			})
		})

		Convey("When a cell is not numeric", func() {
			rec = append(rec, stats.Cell{Stat: "av", Text: "n/a"})
			_, err := stats.Extract(rec)

			Convey("Then it should fail with a parse error naming the field", func() {
				So(errors.Is(err, stats.ErrParse), ShouldBeTrue)
				var fe *stats.FieldError
				So(errors.As(err, &fe), ShouldBeTrue)
				So(fe.Field, ShouldEqual, "av")
				So(fe.Value, ShouldEqual, "n/a")
			})
		})

		Convey("When a PPR input is absent from the page", func() {
			_, err := stats.Extract(rec[:5])

			Convey("Then it should fail with a missing field error", func() {
				So(errors.Is(err, stats.ErrMissingField), ShouldBeTrue)
			})
		})
	})
}
