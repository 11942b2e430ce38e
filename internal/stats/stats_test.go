package stats

import (
	"strings"
	"testing"

	"github.com/comsys-lab/PIM-NDP-Sim/internal/controller"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/dram"
	"github.com/comsys-lab/PIM-NDP-Sim/internal/scheduler"
)

func TestCollectOrdersRequestTypesRegardlessOfMapIteration(t *testing.T) {
	spec := dram.NewGDDR6Spec(dram.DefaultGDDR6Organization(), dram.DefaultGDDR6Timing())
	dev := dram.NewDevice(spec, nil)
	c := controller.New(0, dev, scheduler.FRFCFS{}, controller.DefaultConfig(), nil)

	report := Collect(spec, []*controller.Controller{c})
	if len(report.RequestTypes) != 4 {
		t.Fatalf("expected all 4 request types present even with zero activity, got %d", len(report.RequestTypes))
	}
	want := []string{"read", "write", "pim_bank", "pim_no_bank"}
	for i, rt := range report.RequestTypes {
		if rt.Type != want[i] {
			t.Fatalf("expected fixed request-type order %v, got %q at index %d", want, rt.Type, i)
		}
	}
}

func TestCollectNamesEveryCommandPerChannel(t *testing.T) {
	spec := dram.NewGDDR6Spec(dram.DefaultGDDR6Organization(), dram.DefaultGDDR6Timing())
	dev := dram.NewDevice(spec, nil)
	c := controller.New(0, dev, scheduler.FRFCFS{}, controller.DefaultConfig(), nil)

	report := Collect(spec, []*controller.Controller{c})
	if len(report.Channels) != 1 {
		t.Fatalf("expected one channel report, got %d", len(report.Channels))
	}
	if len(report.Channels[0].Commands) != len(spec.Commands) {
		t.Fatalf("expected one named counter per command, got %d want %d", len(report.Channels[0].Commands), len(spec.Commands))
	}
}

func TestWriteYAMLProducesParsableOutput(t *testing.T) {
	spec := dram.NewGDDR6Spec(dram.DefaultGDDR6Organization(), dram.DefaultGDDR6Timing())
	dev := dram.NewDevice(spec, nil)
	c := controller.New(0, dev, scheduler.FRFCFS{}, controller.DefaultConfig(), nil)
	report := Collect(spec, []*controller.Controller{c})

	var buf strings.Builder
	if err := WriteYAML(&buf, report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "channels:") || !strings.Contains(out, "request_types:") {
		t.Fatalf("expected top-level keys in rendered YAML, got: %s", out)
	}
}
