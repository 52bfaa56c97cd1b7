package dedupe_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	dedupe "github.com/okian/pprforecast/internal/domain/dedupe"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should be empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording names", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the name is new", func() {
				seen := d.SeenAndRecord(ctx, "Tony Pollard")

				Convey("Then it should return false and record the name", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the name was already seen with extra spacing", func() {
				d.SeenAndRecord(ctx, "Tony Pollard")
				seen := d.SeenAndRecord(ctx, "  Tony Pollard ")

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the name is empty", func() {
				Convey("Then it should never be recorded", func() {
					So(d.SeenAndRecord(ctx, ""), ShouldBeFalse)
					So(d.SeenAndRecord(ctx, "   "), ShouldBeFalse)
					So(d.Size(), ShouldEqual, 0)
				})
			})

			Convey("And a name is unrecorded", func() {
				d.SeenAndRecord(ctx, "Tony Pollard")
				d.Unrecord(ctx, "Tony Pollard")
				d.Unrecord(ctx, "never seen")

				Convey("Then it can be recorded again", func() {
					So(d.Size(), ShouldEqual, 0)
					So(d.SeenAndRecord(ctx, "Tony Pollard"), ShouldBeFalse)
				})
			})
		})

		Convey("When seeded from an existing output file", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithSeed([]string{"A", "B", "A"}))

			Convey("Then the seeded names should be seen", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(ctx, "A"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "C"), ShouldBeFalse)
			})
		})

		Convey("When a case-folding normalizer is used", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithNormalizer(strings.ToLower))
			d.SeenAndRecord(ctx, "CeeDee Lamb")

			Convey("Then case variants should collide", func() {
				So(d.SeenAndRecord(ctx, "ceedee lamb"), ShouldBeTrue)
			})
		})

		Convey("When recording concurrently", func() {
			d := dedupe.NewInMemoryDeduper()
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 100; i++ {
						if !d.SeenAndRecord(ctx, fmt.Sprintf("player-%d", i)) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each name should be new exactly once", func() {
				So(fresh, ShouldEqual, 100)
				So(d.Size(), ShouldEqual, 100)
			})
		})
	})
}
