package emulator

import (
	"fmt"
	"maps"

	"gopkg.in/yaml.v3"

	"github.com/ezrec/iarm/cpu"
)

// Snapshot is a serializable copy of the emulator state.
type Snapshot struct {
	Title     string            `yaml:"title,omitempty"`
	Config    cpu.Config        `yaml:"config"`
	Steps     int               `yaml:"steps"`
	Registers map[string]uint64 `yaml:"registers"`
	Flags     string            `yaml:"flags"`
	Memory    map[uint64]uint8  `yaml:"memory,omitempty"`
	Labels    map[string]uint64 `yaml:"labels,omitempty"`
	Equates   map[string]string `yaml:"equates,omitempty"`
	Program   []string          `yaml:"program,omitempty"`
}

// Snapshot copies the current state.
func (emu *Emulator) Snapshot() (snap *Snapshot) {
	snap = &Snapshot{
		Title:     emu.Title(),
		Config:    emu.Config,
		Steps:     emu.Steps,
		Registers: maps.Collect(emu.Registers()),
		Flags:     emu.FlagString(),
		Memory:    maps.Collect(emu.Memory.Cells()),
		Labels:    emu.Labels(),
		Equates:   emu.Equates(),
	}

	for index, ins := range emu.Program.Instructions {
		snap.Program = append(snap.Program, fmt.Sprintf("%d: %v", index, ins.Line))
	}

	return
}

// YAML renders the snapshot as a YAML document.
func (snap *Snapshot) YAML() ([]byte, error) {
	return yaml.Marshal(snap)
}
