package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/poweraware/dcsim/allocation"
	"github.com/poweraware/dcsim/broker"
	"github.com/poweraware/dcsim/cloudlet"
	"github.com/poweraware/dcsim/config"
	"github.com/poweraware/dcsim/datacenter"
	"github.com/poweraware/dcsim/host"
	"github.com/poweraware/dcsim/kernel"
	"github.com/poweraware/dcsim/report"
	"github.com/poweraware/dcsim/rng"
	"github.com/poweraware/dcsim/trace"
	"github.com/poweraware/dcsim/vm"
	"github.com/poweraware/dcsim/vmselect"
	"github.com/poweraware/dcsim/vmsched"
	"github.com/poweraware/dcsim/workload"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a power-aware datacenter simulation from a YAML config",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configPath)
		if err != nil {
			logrus.Fatalf("loading config: %v", err)
		}
		if err := runSimulation(cfg); err != nil {
			logrus.Fatalf("simulation failed: %v", err)
		}
	},
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "dcsim.yaml", "Path to the experiment config")
}

func runSimulation(cfg *config.Config) error {
	rngs := rng.New(cfg.Seed)

	sim := kernel.New(
		kernel.WithMinEventGap(cfg.MinEventGap),
		kernel.WithTerminateAt(cfg.SimulationLimit),
	)

	oversubscribe := cfg.OversubscribeEnabled()

	hosts := make([]*host.Host, 0, len(cfg.Hosts))
	for _, hs := range cfg.Hosts {
		sched := vmsched.NewVmScheduler(hs.VMScheduler)
		power := host.NewPowerModel(hs.PowerModel, 0)
		h := host.New(host.ID(hs.ID), hs.NominalMipsPerPE, hs.RAM, hs.BW, sched, power, oversubscribe)
		hosts = append(hosts, h)
	}
	if len(hosts) == 0 {
		return fmt.Errorf("config defines no hosts")
	}

	var policy allocation.VmAllocationPolicy
	switch cfg.Allocation.Policy {
	case "", "simple":
		policy = allocation.NewSimple(oversubscribe)
	case "migration":
		detector := allocation.NewOverloadDetector(cfg.Allocation.OverloadDetector)
		selector := vmselect.New(cfg.Allocation.VmSelection, rngs.For("vm-selection"))
		policy = allocation.NewMigration(detector, selector, oversubscribe)
	default:
		return fmt.Errorf("unknown allocation policy %q", cfg.Allocation.Policy)
	}

	if !trace.IsValidLevel(cfg.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", cfg.TraceLevel)
	}

	energy := datacenter.PowerAwareEnergy
	dc := datacenter.New("datacenter-0", hosts, policy, cfg.SchedulingInterval, cfg.DisableMigrations, energy)
	dc.SetTrace(trace.New(trace.Level(cfg.TraceLevel)))
	dcID := sim.Register(dc)

	vms := make([]*vm.VM, 0, len(cfg.VMs))
	for _, vs := range cfg.VMs {
		vms = append(vms, vm.New(vm.ID(vs.ID), vs.OwnerID, vs.MipsPerPE, vs.NumPEs, vs.RAM, vs.BW, vs.ImageSize))
	}

	arrivals, err := buildArrivals(cfg, vms)
	if err != nil {
		return err
	}

	br := broker.New("broker-0", dc, dcID, vms, arrivals)
	brokerID := sim.Register(br)
	dc.SetBroker(brokerID)

	finalClock := sim.Run()

	row := report.Row{
		ExperimentName:        cfg.ExperimentName,
		SimulationTime:        finalClock,
		EnergyWs:              dc.TotalEnergy(),
		Migrations:            dc.MigrationCount(),
		SLAViolationPct:       dc.SLAViolationPct(),
		HostsSwitchedOffTicks: dc.HostsSwitchedOffTicks(),
	}
	if err := report.WriteFile(cfg.ReportPath, row); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	logrus.Infof("simulation complete: t=%.3f energy=%.2fWs migrations=%d sla_violation_pct=%.3f",
		finalClock, row.EnergyWs, row.Migrations, row.SLAViolationPct)
	if dc.Trace != nil && cfg.TraceLevel == string(trace.LevelDecisions) {
		logrus.Infof("trace: %d placement decisions, %d migration decisions recorded",
			len(dc.Trace.Placements), len(dc.Trace.Migrations))
	}
	return nil
}

// buildArrivals converts the configured workload trace into cloudlet
// arrivals, round-robining jobs across the broker's fixed VM fleet.
func buildArrivals(cfg *config.Config, vms []*vm.VM) ([]broker.Arrival, error) {
	if cfg.Workload.Path == "" || len(vms) == 0 {
		return nil, nil
	}

	switch cfg.Workload.Format {
	case "", "swf":
		jobs, err := workload.ParseSWF(cfg.Workload.Path)
		if err != nil {
			return nil, fmt.Errorf("parsing SWF workload: %w", err)
		}
		rating := cfg.Workload.Rating
		if rating <= 0 {
			rating = 1000 // MIPS; a conservative single-core default
		}
		arrivals := make([]broker.Arrival, 0, len(jobs))
		for i, job := range jobs {
			target := vms[i%len(vms)]
			c := cloudlet.New(cloudlet.ID(job.JobID), target.OwnerID, job.CloudletLengthMI(rating), job.NumProcs, 0, 0)
			arrivals = append(arrivals, broker.Arrival{Time: job.SubmitTime, Cloudlet: c, VMID: target.ID})
		}
		return arrivals, nil

	case "planetlab":
		traces, err := workload.ParsePlanetLabDay(cfg.Workload.Path)
		if err != nil {
			return nil, fmt.Errorf("parsing PlanetLab workload: %w", err)
		}
		arrivals := make([]broker.Arrival, 0, len(traces))
		for i, t := range traces {
			target := vms[i%len(vms)]
			c := cloudlet.New(cloudlet.ID(i), target.OwnerID, target.TotalRequestedMips()*workload.PlanetLabSampleInterval*float64(len(t.Samples)), target.NumPEs, 0, 0)
			c.Utilization = t.UtilizationModel()
			arrivals = append(arrivals, broker.Arrival{Time: 0, Cloudlet: c, VMID: target.ID})
		}
		return arrivals, nil

	default:
		return nil, fmt.Errorf("unknown workload format %q", cfg.Workload.Format)
	}
}
