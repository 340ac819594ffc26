package stagecraft

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// scriptStep is a single action in a scene script.
type scriptStep struct {
	Action string `yaml:"action"`
	Key    string `yaml:"key"`
	Target string `yaml:"target"`
	Frames int    `yaml:"frames"`
	Data   any    `yaml:"data"`
}

// sceneScript is the top-level structure of a scene script.
type sceneScript struct {
	Steps []scriptStep `yaml:"steps"`
}

// ScriptRunner plays a sequence of scene operations across frames, one
// step per frame. Attach it to a Game with SetScriptRunner.
//
// Actions are the SceneOp names (start, stop, pause, resume, sleep, wake,
// switch, run, remove, bringToTop, sendToBack, moveUp, moveDown, moveAbove,
// moveBelow, swapPosition), plus "wait" for a number of frames and "dump"
// to log the scene list.
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadSceneScript parses a YAML or JSON scene script.
func LoadSceneScript(data []byte) (*ScriptRunner, error) {
	var script sceneScript
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("stagecraft: parse scene script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("stagecraft: parse scene script: no steps")
	}
	for i, st := range script.Steps {
		if st.Action == "wait" || st.Action == "dump" {
			continue
		}
		if _, ok := parseSceneOp(st.Action); !ok {
			return nil, fmt.Errorf("stagecraft: parse scene script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: script.Steps}, nil
}

func parseSceneOp(name string) (SceneOp, bool) {
	for i, n := range sceneOpNames {
		if n == name {
			return SceneOp(i), true
		}
	}
	return 0, false
}

// SetScriptRunner attaches r to the game. Its steps run at the start of each
// Step, before the scene manager updates.
func (g *Game) SetScriptRunner(r *ScriptRunner) {
	g.script = r
}

// Done reports whether every step has run.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// step advances the runner by one frame.
func (r *ScriptRunner) step(g *Game) {
	if r.done {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "dump":
		g.LogScenes()
	default:
		op, _ := parseSceneOp(st.Action)
		g.scene.QueueOp(op, st.Key, st.Target, st.Data)
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}
