package base

import (
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Mission is a named sequence of steps loaded from YAML
type Mission struct {
	Name  string `yaml:"name"`
	Home  *Pose  `yaml:"home,omitempty"`
	Steps []Step `yaml:"steps"`
}

// Step is one mission entry. Action selects which of the other fields apply.
type Step struct {
	Action string `yaml:"action"`

	Target    Pose  `yaml:"target,omitempty"`
	Backward  bool  `yaml:"backward,omitempty"`
	MaxSpeed  uint8 `yaml:"max_speed,omitempty"`
	SkipQueue bool  `yaml:"skip_queue,omitempty"`

	Kp float32 `yaml:"kp,omitempty"`
	Ki float32 `yaml:"ki,omitempty"`
	Kd float32 `yaml:"kd,omitempty"`

	Pin   uint8 `yaml:"pin,omitempty"`
	Angle uint8 `yaml:"angle,omitempty"`
	Steps int32 `yaml:"steps,omitempty"`

	// Wait blocks until the queue drains before the next step
	Wait bool `yaml:"wait,omitempty"`
	// Pause sleeps after the step is queued
	Pause time.Duration `yaml:"pause,omitempty"`
}

var stepActions = map[string]func(b *Base, s Step) error{
	"go_to": func(b *Base, s Step) error {
		return b.GoTo(s.Target, s.goToOptions()...)
	},
	"orient": func(b *Base, s Step) error {
		return b.OrientToPoint(s.Target, s.goToOptions()...)
	},
	"keep": func(b *Base, s Step) error {
		return b.KeepCurrentPosition()
	},
	"stop": func(b *Base, s Step) error {
		return b.Stop()
	},
	"enable_pid": func(b *Base, s Step) error {
		return b.EnablePID(s.SkipQueue)
	},
	"disable_pid": func(b *Base, s Step) error {
		return b.DisablePID(s.SkipQueue)
	},
	"reset": func(b *Base, s Step) error {
		return b.ResetOdometry(s.SkipQueue)
	},
	"set_home": func(b *Base, s Step) error {
		return b.SetHome(s.Target, s.SkipQueue)
	},
	"set_pid": func(b *Base, s Step) error {
		return b.SetPID(s.Kp, s.Ki, s.Kd, s.SkipQueue)
	},
	"servo": func(b *Base, s Step) error {
		return b.ServoGoTo(s.Pin, s.Angle, s.SkipQueue)
	},
	"stepper": func(b *Base, s Step) error {
		return b.StepperStep(s.Pin, s.Steps, s.SkipQueue)
	},
	"wait": func(b *Base, s Step) error {
		return nil
	},
}

func (s Step) goToOptions() []GoToOption {
	var opts []GoToOption
	if s.Backward {
		opts = append(opts, Backward())
	}
	if s.MaxSpeed != 0 {
		opts = append(opts, MaxSpeed(s.MaxSpeed))
	}
	if s.SkipQueue {
		opts = append(opts, SkipQueue())
	}
	return opts
}

// ParseMission decodes and checks a YAML mission
func ParseMission(data []byte) (*Mission, error) {
	var m Mission
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "failed to parse mission")
	}
	for i, s := range m.Steps {
		if _, ok := stepActions[s.Action]; !ok {
			return nil, errors.Errorf("step %d: unknown action %q", i+1, s.Action)
		}
		if s.Action == "servo" && s.Angle > 180 {
			return nil, errors.Errorf("step %d: servo angle %d out of range", i+1, s.Angle)
		}
	}
	return &m, nil
}

// LoadMission reads a mission file
func LoadMission(path string) (*Mission, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read mission %s", path)
	}
	return ParseMission(data)
}

// Run queues the mission's steps on b and waits for the queue to drain.
// timeout bounds each wait.
func (m *Mission) Run(b *Base, timeout time.Duration) error {
	if m.Home != nil {
		if err := b.SetHome(*m.Home, false); err != nil {
			return err
		}
	}

	for i, s := range m.Steps {
		if err := stepActions[s.Action](b, s); err != nil {
			return errors.Wrapf(err, "step %d (%s)", i+1, s.Action)
		}
		if s.Pause > 0 {
			time.Sleep(s.Pause)
		}
		if s.Wait || s.Action == "wait" {
			if err := b.WaitIdle(timeout); err != nil {
				return errors.Wrapf(err, "step %d (%s)", i+1, s.Action)
			}
		}
	}
	return b.WaitIdle(timeout)
}
