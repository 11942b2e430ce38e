// Package stats collects per-channel controller counters into a single
// run report and renders it as YAML, preserving the original tool's fixed
// command / request-type ordering (from
// original_source/src/aimulator/src/dram_controller/impl/AiM_controller_done.cpp's
// print_stats) so output is diffable against it.
package stats

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/comsys-lab/PIM-NDP-Sim/internal/controller"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/dram"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/request"
)

// Count is one named counter. A slice of Count (rather than a map)
// preserves declaration order through YAML marshaling.
type Count struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}

// ChannelReport is one channel's counters.
type ChannelReport struct {
	Channel          int     `yaml:"channel"`
	Commands         []Count `yaml:"commands"`
	IdleCycles       int64   `yaml:"idle_cycles"`
	ActiveCycles     int64   `yaml:"active_cycles"`
	PrechargedCycles int64   `yaml:"precharged_cycles"`
}

// RequestTypeReport is one request type's cycles from arrival at its
// controller to departure, totalled and averaged across the whole run. The
// cycle a request's first command issues is not recorded, so time spent
// queued in a buffer is included.
type RequestTypeReport struct {
	Type         string  `yaml:"type"`
	Count        int64   `yaml:"count"`
	TotalCycles  int64   `yaml:"total_cycles"`
	AverageCycles float64 `yaml:"average_cycles"`
}

// Report is the complete run's statistics document.
type Report struct {
	Channels     []ChannelReport     `yaml:"channels"`
	RequestTypes []RequestTypeReport `yaml:"request_types"`
}

var requestTypeOrder = []request.Type{
	request.TypeRead, request.TypeWrite, request.TypePIMBank, request.TypePIMNoBank,
}

// Collect builds a Report from spec's command name table and one
// controller per channel.
func Collect(spec *dram.Spec, ctrls []*controller.Controller) Report {
	var report Report

	totalCycles := make(map[request.Type]int64)
	totalCount := make(map[request.Type]int64)

	for i, c := range ctrls {
		counts := c.CommandCounts()
		named := make([]Count, len(spec.Commands))
		for j, name := range spec.Commands {
			named[j] = Count{Name: name, Value: counts[j]}
		}
		report.Channels = append(report.Channels, ChannelReport{
			Channel:          i,
			Commands:         named,
			IdleCycles:       c.IdleCycles(),
			ActiveCycles:     c.ActiveCycles(),
			PrechargedCycles: c.PrechargedCycles(),
		})
		for t, v := range c.RequestTypeCycles() {
			totalCycles[t] += v
		}
		for t, v := range c.RequestTypeCount() {
			totalCount[t] += v
		}
	}

	for _, t := range requestTypeOrder {
		cnt := totalCount[t]
		var avg float64
		if cnt > 0 {
			avg = float64(totalCycles[t]) / float64(cnt)
		}
		report.RequestTypes = append(report.RequestTypes, RequestTypeReport{
			Type:          t.String(),
			Count:         cnt,
			TotalCycles:   totalCycles[t],
			AverageCycles: avg,
		})
	}

	return report
}

// WriteYAML renders report as a YAML document to w.
func WriteYAML(w io.Writer, report Report) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(report)
}
