package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	sim "github.com/tankfarm-sim/tankfarm-sim/sim"
)

// Output file names, matching the original report set.
const (
	logFileName      = "simulation_log.csv"
	summaryFileName  = "daily_summary.csv"
	cargoFileName    = "cargo_report.csv"
	snapshotFileName = "tank_snapshots.csv"
)

// WriteResultCSVs serializes the four result streams into dir. Column order
// and header strings are part of the external contract.
func WriteResultCSVs(result *sim.Result, numTanks int, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := writeEventLog(result, numTanks, filepath.Join(dir, logFileName)); err != nil {
		return err
	}
	if err := writeDailySummary(result, numTanks, filepath.Join(dir, summaryFileName)); err != nil {
		return err
	}
	if err := writeCargoReport(result, filepath.Join(dir, cargoFileName)); err != nil {
		return err
	}
	if err := writeSnapshots(result, numTanks, filepath.Join(dir, snapshotFileName)); err != nil {
		return err
	}
	logrus.Infof("Wrote simulation outputs to %s", dir)
	return nil
}

func writeRows(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header of %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows of %s: %w", path, err)
	}
	w.Flush()
	return w.Error()
}

func writeEventLog(result *sim.Result, numTanks int, path string) error {
	header := []string{"Timestamp", "Level", "Event", "Tank", "Cargo", "Message"}
	for tid := 1; tid <= numTanks; tid++ {
		header = append(header, fmt.Sprintf("Tank%d", tid))
	}

	rows := make([][]string, 0, len(result.Events))
	for i := range result.Events {
		ev := &result.Events[i]
		tank := ""
		if ev.Tank > 0 {
			tank = fmt.Sprintf("Tank %d", ev.Tank)
		}
		row := []string{ev.At.Format(), string(ev.Level), ev.Name(), tank, ev.Cargo, ev.Message}
		for tid := 1; tid <= numTanks; tid++ {
			row = append(row, string(ev.TankStates[tid]))
		}
		rows = append(rows, row)
	}
	return writeRows(path, header, rows)
}

func writeDailySummary(result *sim.Result, numTanks int, path string) error {
	header := []string{"Date", "Opening Stock (bbl)", "cert stk", "uncert stk",
		"Processing (bbl)", "Closing Stock (bbl)", "Ready Tanks", "Empty Tanks"}
	for tid := 1; tid <= numTanks; tid++ {
		header = append(header, fmt.Sprintf("Tank%d", tid))
	}

	rows := make([][]string, 0, len(result.DailySummaries))
	for _, day := range result.DailySummaries {
		row := []string{
			day.Date.Format(),
			sim.FormatBBL(day.OpeningStock),
			sim.FormatBBL(day.OpeningCertified),
			sim.FormatBBL(day.OpeningUncertified),
			sim.FormatBBL(day.Processed),
			sim.FormatBBL(day.ClosingStock),
			fmt.Sprintf("%d", day.ReadyTanks),
			fmt.Sprintf("%d", day.EmptyTanks),
		}
		for tid := 1; tid <= numTanks; tid++ {
			row = append(row, string(day.TankStates[tid]))
		}
		rows = append(rows, row)
	}
	return writeRows(path, header, rows)
}

func writeCargoReport(result *sim.Result, path string) error {
	header := []string{"Vessel Name", "Cargo Type", "Berth",
		"Arrival Date", "Arrival Time",
		"Discharge Start Date", "Discharge Start Time",
		"Discharge End Date", "Discharge End Time",
		"BERTH GAP (hrs)", "Discharge Duration (hours)",
		"Total Volume Discharged (bbl)", "Tanks Filled", "Tank Fill Details"}

	rows := make([][]string, 0, len(result.CargoRows))
	for _, c := range result.CargoRows {
		gap := "N/A"
		if c.BerthGapKnown {
			gap = fmt.Sprintf("%.2f", c.BerthGapHours)
		}
		endDate, endTime := "", ""
		if c.DischargeEndSet {
			endDate = c.DischargeEndAt.FormatDate()
			endTime = c.DischargeEndAt.FormatClock()
		}
		rows = append(rows, []string{
			c.VesselName,
			string(c.Type),
			fmt.Sprintf("BERTH %d", c.Berth),
			c.ArrivalAt.FormatDate(),
			c.ArrivalAt.FormatClock(),
			c.DischargeStartAt.FormatDate(),
			c.DischargeStartAt.FormatClock(),
			endDate,
			endTime,
			gap,
			fmt.Sprintf("%.2f", c.DischargeHours),
			sim.FormatBBL(c.TotalVolume),
			fmt.Sprintf("%.2f", c.TanksFilled),
			c.FillDetails,
		})
	}
	return writeRows(path, header, rows)
}

func writeSnapshots(result *sim.Result, numTanks int, path string) error {
	header := []string{"Timestamp"}
	for tid := 1; tid <= numTanks; tid++ {
		header = append(header, fmt.Sprintf("Tank%d", tid))
	}
	for tid := 1; tid <= numTanks; tid++ {
		header = append(header, fmt.Sprintf("State%d", tid))
	}

	rows := make([][]string, 0, len(result.Snapshots))
	for _, snap := range result.Snapshots {
		row := []string{snap.At.Format()}
		for tid := 1; tid <= numTanks; tid++ {
			row = append(row, sim.FormatBBL(snap.Volumes[tid]))
		}
		for tid := 1; tid <= numTanks; tid++ {
			row = append(row, string(snap.States[tid]))
		}
		rows = append(rows, row)
	}
	return writeRows(path, header, rows)
}
