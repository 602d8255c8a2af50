// Package character implements the avatar locomotion state machine of
// spec.md §4.E: floor probing with a 500ms hit cache, a Ground/Takeoff/
// InAir/Hover/Seated state machine, stuck-contact detection, step-up
// synthesis, and follow-target micro-teleportation.
package character

import "gopkg.in/yaml.v3"

// Config is the CharacterControllerConfig of spec.md §6: options an outer
// application sets once per avatar, never mutated by the state machine
// itself.
type Config struct {
	FlyingAllowed        bool    `yaml:"flyingAllowed"`
	CollisionlessAllowed bool    `yaml:"collisionlessAllowed"`
	Gravity              float32 `yaml:"gravity"`
	ScaleFactor          float32 `yaml:"scaleFactor"`
	StepUpEnabled        bool    `yaml:"stepUpEnabled"`
	Seated               bool    `yaml:"seated"`
}

// LoadConfigYAML parses a CharacterControllerConfig from YAML, the format
// per-avatar presets are authored in (e.g. a "flying" or "seated-npc"
// preset shipped alongside an entity's other YAML-authored content).
func LoadConfigYAML(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// defaultGravity is the backend default used when Config.Gravity is zero
// (spec.md §4.E: "otherwise backend default (-5 m/s^2 along currentUp)").
const defaultGravity = 5.0

func (c Config) gravityMagnitude() float64 {
	if c.Gravity != 0 {
		return float64(c.Gravity)
	}
	return defaultGravity
}

func (c Config) scale() float64 {
	if c.ScaleFactor != 0 {
		return float64(c.ScaleFactor)
	}
	return 1.0
}
