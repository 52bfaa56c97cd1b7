package ranking

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pprforecast/internal/domain/model"
)

func rows(pairs ...any) []model.RankedPrediction {
	out := make([]model.RankedPrediction, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.RankedPrediction{Name: pairs[i].(string), Prediction: pairs[i+1].(float64)})
	}
	return out
}

func names(rs []model.RankedPrediction) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func TestRank(t *testing.T) {
	Convey("Given predictions with a league-average row", t, func() {
		in := rows("Tony Pollard", 180.2, "League Average", 400.0, "CeeDee Lamb", 260.5, "", 999.0, "Breece Hall", 210.0)
		r := New(WithSentinels([]string{"League Average"}))

		Convey("When ranking", func() {
			out := r.Rank(in)

			Convey("Then sentinel and empty rows should be dropped", func() {
				So(names(out), ShouldResemble, []string{"CeeDee Lamb", "Breece Hall", "Tony Pollard"})
			})

			Convey("Then ranks should be 1-based positions", func() {
				So(out[0].Rank, ShouldEqual, 1)
				So(out[2].Rank, ShouldEqual, 3)
			})

			Convey("Then the input should be untouched", func() {
				So(in[0].Rank, ShouldEqual, 0)
				So(in[0].Name, ShouldEqual, "Tony Pollard")
			})
		})
	})

	Convey("Given equal predictions", t, func() {
		out := New().Rank(rows("A", 10.0, "B", 20.0, "C", 10.0, "D", 10.0))

		Convey("Then ties should keep input order", func() {
			So(names(out), ShouldResemble, []string{"B", "A", "C", "D"})
		})
	})

	Convey("Given no rows", t, func() {
		So(New().Rank(nil), ShouldBeEmpty)
	})
}
