package outline

// LifetimeComponent despawns an entity once TimeLeft (seconds) runs out.
type LifetimeComponent struct {
	TimeLeft float32
}

type LifecycleModule struct{}

func (mod LifecycleModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(lifetimeSystem).
			InStage(PostUpdate),
	)
}

// Despawn removes an entity, first dropping its outline material
// reference so a material shared with nothing else is freed.
func Despawn(cmd *Commands, server *AssetServer, entity EntityId) {
	if mat, ok := GetComponent[OutlineMaterialComponent](cmd, entity); ok {
		server.ReleaseOutlineMaterial(mat.Material)
	}
	cmd.RemoveEntity(entity)
}

func lifetimeSystem(time *Time, cmd *Commands, server *AssetServer, log Logger) {
	dt := float32(time.Dt.Seconds())
	if dt <= 0 {
		return
	}
	MakeQuery1[LifetimeComponent](cmd).Map(func(eid EntityId, lt *LifetimeComponent) bool {
		lt.TimeLeft -= dt
		if lt.TimeLeft <= 0 {
			log.Debugf("lifetime of entity %d expired", eid)
			Despawn(cmd, server, eid)
		}
		return true
	})
}
