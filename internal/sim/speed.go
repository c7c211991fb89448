package sim

import (
	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/fixed"
	"github.com/drevilslab/openbw/internal/iscript"
	"github.com/drevilslab/openbw/internal/iscript/vm"
	"github.com/drevilslab/openbw/internal/world"
)

// speedProbeSteps is how many frames of the Walking animation are sampled
// to derive the top speed of an iscript driven unit.
const speedProbeSteps = 32

var speedUpgrades = map[data.UnitTypeID]data.UpgradeID{
	data.TerranVulture:        data.UpgradeIonThrusters,
	data.HeroJimRaynorVulture: data.UpgradeIonThrusters,
	data.ZergOverlord:         data.UpgradePneumatizedCarapace,
	data.ZergZergling:         data.UpgradeMetabolicBoost,
	data.ZergHydralisk:        data.UpgradeMuscularAugments,
	data.ProtossZealot:        data.UpgradeLegEnhancements,
	data.ProtossScout:         data.UpgradeGraviticThrusters,
	data.ProtossShuttle:       data.UpgradeGraviticDrive,
	data.ProtossObserver:      data.UpgradeGraviticBoosters,
	data.ZergUltralisk:        data.UpgradeAnabolicSynthesis,
}

// UpdateUnitSpeedUpgrades sets the speed and cooldown upgrade flags of u
// from its owner's upgrades and recomputes its speed when they change.
// Flags are only ever added.
func (g *Game) UpdateUnitSpeedUpgrades(u *world.Unit) {
	id := u.Type.ID
	cooldown := id == data.HeroDevouringOne ||
		(id == data.ZergZergling && g.st.Upgraded(u.Owner, data.UpgradeAdrenalGlands))

	speed := false
	if upg, ok := speedUpgrades[id]; ok && g.st.Upgraded(u.Owner, upg) {
		speed = true
	}
	switch id {
	case data.HeroHunterKiller, data.HeroYggdrasill, data.HeroFenixZealot, data.HeroMojo, data.HeroArtanis, data.ZergLurker:
		speed = true
	}

	if cooldown == u.Status(world.StatusCooldownUpgrade) && speed == u.Status(world.StatusSpeedUpgrade) {
		return
	}
	if cooldown {
		u.SetStatus(world.StatusCooldownUpgrade, true)
	}
	if speed {
		u.SetStatus(world.StatusSpeedUpgrade, true)
	}
	g.UpdateUnitSpeed(u)
}

// UpdateUnitSpeed recomputes the top speed of u. Movement types 0 and 1
// take the flingy table values. Type 2 units walk their Walking animation
// in probe mode and average the distance moved.
func (g *Game) UpdateUnitSpeed(u *world.Unit) {
	fl := u.Type.Flingy
	if fl.MovementType == 0 || fl.MovementType == 1 {
		u.TopSpeed = world.ModifiedUnitSpeed(u, fixed.UFP8Raw(fl.TopSpeed.Raw()))
		u.Acceleration = world.ModifiedUnitAcceleration(u, fixed.UFP8Raw(fl.Acceleration.Raw()))
		u.TurnRate = world.ModifiedUnitTurnRate(u, fl.TurnRate)
		return
	}
	if u.MovementType != 2 {
		return
	}

	img := g.st.MainImage(g.st.SpriteOf(u))
	if img == nil {
		invariant.Fatalf("unit %d: no main image", u.Index)
	}
	script := img.Iscript.Script
	if script == nil || int(iscript.AnimWalking) >= len(script.Anims) {
		invariant.Fatalf("unit %d: script has no Walking animation", u.Index)
	}
	probe := iscript.State{
		Script:    script,
		Animation: iscript.AnimWalking,
		PC:        script.AnimPC(iscript.AnimWalking),
	}
	ctx := vm.Context{Unit: u, OrderUnit: u}
	var total fixed.UFP8
	for range speedProbeSteps {
		var moved fixed.UFP8
		g.vm.Execute(ctx, img, &probe, true, &moved)
		// the acceleration modifier is what the legacy engine applies here
		total = total.Add(world.ModifiedUnitAcceleration(u, moved))
	}
	u.TopSpeed = total.DivInt(speedProbeSteps)
}
