package outline

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

type Time struct {
	Time time.Time
	Dt   time.Duration
}

type TimeModule struct {
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Time: time.Now(),
		Dt:   0,
	})
	app.UseSystem(System(timeSystem).InStage(Prelude))
	app.UseSystem(System(spinSystem).InStage(Update))
}

func timeSystem(timeResource *Time) {
	now := time.Now()

	timeResource.Dt = now.Sub(timeResource.Time)
	timeResource.Time = now
}

func spinSystem(t *Time, cmd *Commands) {
	dt := float32(t.Dt.Seconds())
	if dt <= 0 {
		return
	}
	MakeQuery2[SpinComponent, TransformComponent](cmd).Map(func(eid EntityId, spin *SpinComponent, tr *TransformComponent) bool {
		if spin.Axis.Len() == 0 {
			return true
		}
		step := mgl32.QuatRotate(spin.Speed*dt, spin.Axis.Normalize())
		tr.Rotation = step.Mul(tr.Rotation).Normalize()
		return true
	})
}
