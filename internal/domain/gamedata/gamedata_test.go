package gamedata

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestExperienceTable(t *testing.T) {
	Convey("Given the experience catalog", t, func() {
		Convey("Known IDs resolve with their names", func() {
			e, ok := ExperienceByID(ExpRevive)
			So(ok, ShouldBeTrue)
			So(e.Name, ShouldEqual, "Revive")
		})

		Convey("Unknown IDs fall back to a placeholder name", func() {
			So(ExperienceName("99999"), ShouldEqual, "Unknown 99999")
		})

		Convey("Squad-scoped IDs chain to their unscoped parents", func() {
			So(Parents(ExpSquadHeal), ShouldResemble, []string{ExpHeal})
			So(Parents(ExpSquadRevive), ShouldResemble, []string{ExpRevive})
			So(Parents(ExpSquadResupply), ShouldResemble, []string{ExpResupply})
			So(Parents(ExpSquadShieldRepair), ShouldResemble, []string{ExpShieldRepair})
		})

		Convey("The chain table is total: unknown keys return nil", func() {
			So(Parents("99999"), ShouldBeNil)
			So(Parents(ExpHeal), ShouldBeNil)
		})

		Convey("Every declared parent is itself a catalog entry", func() {
			for id := range experiences {
				for _, parent := range Parents(id) {
					_, ok := ExperienceByID(parent)
					So(ok, ShouldBeTrue)
				}
			}
		})

		Convey("Revive-class detection covers solo and squad revives only", func() {
			So(IsReviveExp(ExpRevive), ShouldBeTrue)
			So(IsReviveExp(ExpSquadRevive), ShouldBeTrue)
			So(IsReviveExp(ExpHeal), ShouldBeFalse)
		})

		Convey("Deployable-destroy detection matches the ID set", func() {
			So(IsDeployableDestroyExp("270"), ShouldBeTrue)
			So(IsDeployableDestroyExp(ExpRouterKill), ShouldBeTrue)
			So(IsDeployableDestroyExp(ExpHeal), ShouldBeFalse)
		})
	})
}

func TestLoadoutTable(t *testing.T) {
	Convey("Given the loadout table", t, func() {
		Convey("Each faction resolves all six classes", func() {
			for _, id := range []string{"1", "3", "4", "5", "6", "7"} {
				l, ok := LoadoutByID(id)
				So(ok, ShouldBeTrue)
				So(l.Faction, ShouldEqual, FactionNC)
			}
			So(ClassOf("13"), ShouldEqual, ClassHeavyAssault)
			So(ClassOf("18"), ShouldEqual, ClassMedic)
			So(ClassOf("45"), ShouldEqual, ClassMAX)
		})

		Convey("Unknown loadouts resolve to ClassUnknown and empty faction", func() {
			So(ClassOf("999"), ShouldEqual, ClassUnknown)
			So(FactionOf("999"), ShouldEqual, "")
		})

		Convey("Faction names resolve with a placeholder fallback", func() {
			So(FactionName(FactionTR), ShouldEqual, "TR")
			So(FactionName("9"), ShouldEqual, "Unknown 9")
		})
	})
}

func TestWorldTables(t *testing.T) {
	Convey("Given the zone and vehicle tables", t, func() {
		So(ZoneName("2"), ShouldEqual, "Indar")
		So(ZoneName("12345"), ShouldEqual, "Unknown 12345")
		So(VehicleName("11"), ShouldEqual, "Galaxy")
		So(VehicleName("54321"), ShouldEqual, "Unknown 54321")
	})
}
