package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type MockModule struct {
	installed bool
	order     *[]string
	name      string
}

func (m *MockModule) Install(app *App, commands *Commands) {
	m.installed = true
	if m.order != nil {
		*m.order = append(*m.order, m.name)
	}
}

type spawningModule struct{}

func (spawningModule) Install(app *App, commands *Commands) {
	commands.AddEntity(CameraComponent{})
}

func TestAppBuilder_Empty(t *testing.T) {
	app := NewAppBuilder().Build()

	if app.ecs == nil {
		t.Fatalf("Expected an ECS")
	}
	if len(app.stages) != len(defaultStages()) {
		t.Errorf("Expected %d stages, got %d", len(defaultStages()), len(app.stages))
	}
	if app.Frame() != 0 {
		t.Errorf("Expected frame 0, got %d", app.Frame())
	}
}

func TestAppBuilder_InstallsModulesInOrder(t *testing.T) {
	var order []string
	m1 := &MockModule{order: &order, name: "first"}
	m2 := &MockModule{order: &order, name: "second"}

	NewAppBuilder().UseModule(m1).UseModule(m2).Build()

	if !m1.installed || !m2.installed {
		t.Errorf("Expected both modules to be installed")
	}
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestAppBuilder_FlushesInstallCommands(t *testing.T) {
	app := NewAppBuilder().UseModule(spawningModule{}).Build()

	count := 0
	MakeQuery1[CameraComponent](app.Commands()).Map(func(EntityId, *CameraComponent) bool {
		count++
		return true
	})
	assert.Equal(t, 1, count)
}
