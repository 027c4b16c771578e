package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/tankfarm-sim/tankfarm-sim/sim"
)

var (
	// CLI flags for the run configuration
	scenarioPath string  // Path to a YAML scenario file (flags below override it)
	outputDir    string  // Directory for the CSV output files
	logLevel     string  // Log verbosity level
	seed         int64   // RNG seed; 0 derives one from the config hash
	startStr     string  // Simulation start, yyyy-MM-ddTHH:mm
	horizonDays  float64 // Scheduling window in days

	processingRate float64 // Refinery processing rate, bbl/day
	numTanks       int     // Number of storage tanks
	usablePerTank  float64 // Usable volume per tank, bbl
	deadBottom     float64 // Dead bottom per tank, bbl
	bufferVolume   float64 // Buffer volume per tank, bbl

	settlingDays  float64 // Settling time after a full fill, days
	labHours      float64 // Lab testing time after settling, hours
	dischargeRate float64 // Cargo pumping rate, bbl/hr

	snapshotIntervalMinutes int // Tick size and snapshot cadence, minutes

	minReadyTanks      int // READY-tank gate for subsequent cargos
	firstCargoMinReady int // READY-tank window for the first cargo
	firstCargoMaxReady int

	tankGapHours     float64 // Preparation time after a tank empties, hours
	tankFillGapHours float64 // Gap between partial fills on one tank, hours
	berthGapHoursMin float64 // Inter-arrival gap bounds per berth, hours
	berthGapHoursMax float64
	preDischargeDays float64 // Delay between arrival and discharge, days

	vlccCapacity  float64 // Nominal cargo volumes per type; 0 disables a type
	suezCapacity  float64
	afraCapacity  float64
	panaCapacity  float64
	handyCapacity float64
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "tankfarm-sim",
	Short: "Discrete-event simulator for a crude-oil refinery tank farm",
}

// runCmd executes the simulation using parameters from the scenario file
// and/or CLI flags, then writes the four CSV output streams.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the tank farm simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := baseConfig()
		if scenarioPath != "" {
			scenario, err := LoadScenario(scenarioPath)
			if err != nil {
				logrus.Fatalf("Unable to load scenario: %v", err)
			}
			cfg, err = scenario.Config()
			if err != nil {
				logrus.Fatalf("Invalid scenario: %v", err)
			}
			applyFlagOverrides(cmd, &cfg)
		}

		logrus.Infof("Starting simulation: %d tanks, rate=%v bbl/day, horizon=%v days",
			cfg.NumTanks, cfg.ProcessingRate, cfg.HorizonDays)

		startTime := time.Now()

		s, err := sim.NewSimulator(cfg)
		if err != nil {
			logrus.Fatalf("Cannot start simulation: %v", err)
		}
		result := s.Run()

		if result.Infeasible {
			logrus.Warnf("Simulation infeasible: %s", result.InfeasibleReason)
		}

		if err := WriteResultCSVs(result, cfg.NumTanks, outputDir); err != nil {
			logrus.Fatalf("Unable to write output files: %v", err)
		}

		logrus.Infof("Simulation complete in %v: %d events, %d days, %d cargos, %d snapshots",
			time.Since(startTime).Round(time.Millisecond),
			len(result.Events), len(result.DailySummaries), len(result.CargoRows), len(result.Snapshots))
	},
}

// baseConfig assembles the engine config from flags alone.
func baseConfig() sim.Config {
	start, err := time.Parse(startLayout, startStr)
	if err != nil {
		logrus.Fatalf("Invalid --start %q (want %s)", startStr, startLayout)
	}
	return sim.Config{
		ProcessingRate:          processingRate,
		NumTanks:                numTanks,
		Start:                   start,
		HorizonDays:             horizonDays,
		UsablePerTank:           usablePerTank,
		DeadBottom:              deadBottom,
		BufferVolume:            bufferVolume,
		SettlingDays:            settlingDays,
		LabHours:                labHours,
		DischargeRate:           dischargeRate,
		SnapshotIntervalMinutes: snapshotIntervalMinutes,
		MinReadyTanks:           minReadyTanks,
		FirstCargoMinReady:      firstCargoMinReady,
		FirstCargoMaxReady:      firstCargoMaxReady,
		TankGapHours:            tankGapHours,
		TankFillGapHours:        tankFillGapHours,
		BerthGapHoursMin:        berthGapHoursMin,
		BerthGapHoursMax:        berthGapHoursMax,
		PreDischargeDays:        preDischargeDays,
		CargoDefs: map[sim.CargoType]float64{
			sim.CargoVLCC:  vlccCapacity,
			sim.CargoSuez:  suezCapacity,
			sim.CargoAfra:  afraCapacity,
			sim.CargoPana:  panaCapacity,
			sim.CargoHandy: handyCapacity,
		},
		Seed: seed,
	}
}

// applyFlagOverrides lets explicitly-set flags win over scenario values.
func applyFlagOverrides(cmd *cobra.Command, cfg *sim.Config) {
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("horizon-days") {
		cfg.HorizonDays = horizonDays
	}
	if cmd.Flags().Changed("processing-rate") {
		cfg.ProcessingRate = processingRate
	}
	if cmd.Flags().Changed("start") {
		start, err := time.Parse(startLayout, startStr)
		if err != nil {
			logrus.Fatalf("Invalid --start %q (want %s)", startStr, startLayout)
		}
		cfg.Start = start
	}
	if cmd.Flags().Changed("snapshot-interval-minutes") {
		cfg.SnapshotIntervalMinutes = snapshotIntervalMinutes
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file (flags override selected values)")
	runCmd.Flags().StringVar(&outputDir, "out", ".", "Directory for the CSV output files")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed (0 derives one from the config)")

	runCmd.Flags().StringVar(&startStr, "start", "2026-01-01T00:00", "Simulation start (yyyy-MM-ddTHH:mm)")
	runCmd.Flags().Float64Var(&horizonDays, "horizon-days", 30, "Scheduling window in days")
	runCmd.Flags().Float64Var(&processingRate, "processing-rate", 600000, "Processing rate in bbl/day")
	runCmd.Flags().IntVar(&numTanks, "num-tanks", 10, "Number of storage tanks")
	runCmd.Flags().Float64Var(&usablePerTank, "usable-per-tank", 589750, "Usable volume per tank in bbl")
	runCmd.Flags().Float64Var(&deadBottom, "dead-bottom", 10000, "Dead bottom per tank in bbl")
	runCmd.Flags().Float64Var(&bufferVolume, "buffer-volume", 500, "Buffer volume per tank in bbl")
	runCmd.Flags().Float64Var(&settlingDays, "settling-days", 1, "Settling time in days")
	runCmd.Flags().Float64Var(&labHours, "lab-hours", 24, "Lab testing time in hours")
	runCmd.Flags().Float64Var(&dischargeRate, "discharge-rate", 50000, "Discharge rate in bbl/hr")
	runCmd.Flags().IntVar(&snapshotIntervalMinutes, "snapshot-interval-minutes", 30, "Tick size and snapshot cadence in minutes")
	runCmd.Flags().IntVar(&minReadyTanks, "min-ready-tanks", 2, "Minimum READY tanks to admit subsequent cargos")
	runCmd.Flags().IntVar(&firstCargoMinReady, "first-cargo-min-ready", 8, "Minimum READY tanks for the first cargo")
	runCmd.Flags().IntVar(&firstCargoMaxReady, "first-cargo-max-ready", 9, "Maximum READY tanks for the first cargo")
	runCmd.Flags().Float64Var(&tankGapHours, "tank-gap-hours", 0, "Preparation time after a tank empties, hours")
	runCmd.Flags().Float64Var(&tankFillGapHours, "tank-fill-gap-hours", 0, "Gap between partial fills on one tank, hours")
	runCmd.Flags().Float64Var(&berthGapHoursMin, "berth-gap-hours-min", 0, "Minimum berth inter-arrival gap, hours")
	runCmd.Flags().Float64Var(&berthGapHoursMax, "berth-gap-hours-max", 0, "Maximum berth inter-arrival gap, hours")
	runCmd.Flags().Float64Var(&preDischargeDays, "pre-discharge-days", 0, "Delay between arrival and discharge, days")
	runCmd.Flags().Float64Var(&vlccCapacity, "vlcc-capacity", 2000000, "VLCC cargo volume in bbl (0 disables)")
	runCmd.Flags().Float64Var(&suezCapacity, "suez-capacity", 1000000, "Suezmax cargo volume in bbl (0 disables)")
	runCmd.Flags().Float64Var(&afraCapacity, "afra-capacity", 700000, "Aframax cargo volume in bbl (0 disables)")
	runCmd.Flags().Float64Var(&panaCapacity, "pana-capacity", 500000, "Panamax cargo volume in bbl (0 disables)")
	runCmd.Flags().Float64Var(&handyCapacity, "handy-capacity", 300000, "Handymax cargo volume in bbl (0 disables)")

	rootCmd.AddCommand(runCmd)
}
