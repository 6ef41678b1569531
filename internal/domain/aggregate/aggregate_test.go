package aggregate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/podium/internal/domain/model"
)

func res(driver, team string, pos model.Position) model.ParticipantResult {
	return model.ParticipantResult{EntityID: driver, TeamID: team, Position: pos}
}

func keysOf(groups []Group) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Key)
	}
	return out
}

func membersOf(g Group) []string {
	out := make([]string, 0, len(g.Results))
	for _, r := range g.Results {
		out = append(out, r.EntityID)
	}
	return out
}

func TestByEntity(t *testing.T) {
	Convey("Given one race classification", t, func() {
		results := []model.ParticipantResult{
			res("verstappen", "red-bull", model.Classified(1)),
			res("hamilton", "mercedes", model.Classified(2)),
			res("perez", "red-bull", model.Classified(4)),
			res("bottas", "mercedes", model.Classified(3)),
			res("latifi", "williams", model.Unclassified("DNF")),
			res("russell", "williams", model.Classified(12)),
			res("mazepin", "haas", model.Unclassified("DNS")),
		}

		Convey("When grouping by team", func() {
			groups := ByEntity(results, ByTeam)

			Convey("Then teams come in first-appearance order", func() {
				So(cmp.Diff([]string{"red-bull", "mercedes", "williams"}, keysOf(groups)), ShouldBeEmpty)
			})

			Convey("And members are sorted by position", func() {
				So(cmp.Diff([]string{"hamilton", "bottas"}, membersOf(groups[1])), ShouldBeEmpty)
			})

			Convey("And non-finishers are excluded", func() {
				So(cmp.Diff([]string{"russell"}, membersOf(groups[2])), ShouldBeEmpty)
			})
		})

		Convey("When grouping by driver", func() {
			groups := ByEntity(results, ByDriver)

			Convey("Then each classified driver is its own group", func() {
				So(len(groups), ShouldEqual, 5)
				So(groups[0].Key, ShouldEqual, "verstappen")
			})
		})

		Convey("When listing participants", func() {
			Convey("Then non-finishers are included", func() {
				So(Participants(results), ShouldContain, "latifi")
				So(Participants(results), ShouldContain, "mazepin")
				So(len(Participants(results)), ShouldEqual, 7)
			})
		})

		Convey("When the input is grouped", func() {
			_ = ByEntity(results, ByTeam)

			Convey("Then the input order is untouched", func() {
				So(results[3].EntityID, ShouldEqual, "bottas")
			})
		})
	})
}

func TestSortByPosition(t *testing.T) {
	Convey("Given results with equal positions", t, func() {
		results := []model.ParticipantResult{
			res("b", "t", model.Classified(2)),
			res("a", "t", model.Classified(1)),
			res("c", "t", model.Classified(2)),
		}

		Convey("When sorting", func() {
			SortByPosition(results)

			Convey("Then ties keep input order", func() {
				So(cmp.Diff([]string{"a", "b", "c"}, membersOf(Group{Results: results})), ShouldBeEmpty)
			})
		})
	})
}

func TestDuplicates(t *testing.T) {
	Convey("Given a classification listing a driver twice", t, func() {
		results := []model.ParticipantResult{
			res("a", "t", model.Classified(1)),
			res("b", "t", model.Classified(2)),
			res("a", "t", model.Classified(3)),
		}

		Convey("Then the duplicate is reported once", func() {
			So(Duplicates(results), ShouldResemble, []string{"a"})
		})

		Convey("And a clean classification has none", func() {
			So(Duplicates(results[:2]), ShouldBeEmpty)
		})
	})
}

func TestKeepFirst(t *testing.T) {
	Convey("Given a classification listing a driver twice", t, func() {
		results := []model.ParticipantResult{
			res("a", "t", model.Classified(1)),
			res("a", "t", model.Classified(2)),
			res("b", "u", model.Classified(3)),
		}

		Convey("When keeping first listings", func() {
			kept, repeats := KeepFirst(results)

			Convey("Then the later listing is split off", func() {
				So(kept, ShouldResemble, []model.ParticipantResult{results[0], results[2]})
				So(repeats, ShouldResemble, []model.ParticipantResult{results[1]})
			})
		})

		Convey("When the classification is clean", func() {
			kept, repeats := KeepFirst(results[1:])

			Convey("Then nothing is split off", func() {
				So(kept, ShouldHaveLength, 2)
				So(repeats, ShouldBeEmpty)
			})
		})
	})
}

func TestMostFrequent(t *testing.T) {
	Convey("Given second seat holders over a season", t, func() {
		Convey("Then the most frequent one wins", func() {
			id, ok := MostFrequent([]string{"bottas", "hamilton", "hamilton"})
			So(ok, ShouldBeTrue)
			So(id, ShouldEqual, "hamilton")
		})

		Convey("And a tie goes to the earliest listed", func() {
			id, ok := MostFrequent([]string{"perez", "albon", "albon", "perez"})
			So(ok, ShouldBeTrue)
			So(id, ShouldEqual, "perez")
		})

		Convey("And an empty list has none", func() {
			_, ok := MostFrequent(nil)
			So(ok, ShouldBeFalse)
		})
	})
}
