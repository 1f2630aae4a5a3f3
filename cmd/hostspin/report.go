package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"example.com/hostspin/internal/model"
)

func statusColor(s model.CycleStatus) *color.Color {
	switch {
	case s == model.StatusSuccess:
		return color.New(color.FgGreen, color.Bold)
	case s.Failed():
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgYellow, color.Bold)
	}
}

func printReport(w io.Writer, rep *model.CycleReport) {
	fmt.Fprintf(w, "cycle %s: %s (%s)\n", rep.ID, statusColor(rep.Status).Sprint(rep.Status), rep.Duration().Round(1e6))
	if rep.Err != "" {
		fmt.Fprintf(w, "error: %s\n", rep.Err)
	}
	if rep.Hint != "" {
		fmt.Fprintln(w, color.YellowString(rep.Hint))
	}

	if len(rep.Domains) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DOMAIN\tIP\tLATENCY")
		for _, o := range rep.Domains {
			if !o.Reachable() {
				fmt.Fprintf(tw, "%s\t%s\t-\n", o.Domain, color.RedString("unreachable"))
				continue
			}
			for _, p := range o.Probes {
				if p.IP == o.Winner {
					fmt.Fprintf(tw, "%s\t%s\t%dms\n", o.Domain, color.GreenString(p.IP), p.LatencyMs())
					break
				}
			}
		}
		tw.Flush()
	}

	if rep.Backup != "" {
		fmt.Fprintf(w, "backup: %s\n", rep.Backup)
	}
	if rep.DryRun && rep.Diff != "" {
		fmt.Fprintln(w, color.CyanString("dry run, hosts file not written:"))
		fmt.Fprint(w, rep.Diff)
	}
}
