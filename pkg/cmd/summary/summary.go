package summary

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/log"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/cmd/util"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/config"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/session"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/summary"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/telemetry"
)

var eventName string

func NewSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "prints the lap summary of an event",
		RunE: func(cmd *cobra.Command, args []string) error {
			util.SetupLogger()
			da := util.NewDataAccess()
			id, err := util.NewResolver(da).Resolve(cmd.Context(), config.Year, eventName)
			if err != nil {
				log.Error("could not resolve event", log.ErrorField(err))
				return err
			}
			store := session.NewStore(da)
			defer store.Close()
			data, _, err := store.Load(cmd.Context(), id)
			if err != nil {
				log.Error("could not load session", log.ErrorField(err))
				return err
			}
			Render(os.Stdout, data)
			return nil
		},
	}
	cmd.Flags().StringVar(&eventName, "event", "", "official name of the event")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

// Render prints the summary of all drivers and the diagnostics of drivers
// without fastest lap telemetry.
func Render(w io.Writer, data *model.SessionData) {
	fmt.Fprintf(w, "%s\n", data.Identity)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Driver", "Pos", "Best lap", "Samples"})

	series, diags := telemetry.ExtractBatch(data, data.Drivers())
	samples := make(map[string]int, len(series))
	for _, s := range series {
		samples[s.Driver] = len(s.Samples)
	}
	for _, e := range summary.Summarize(data.Laps) {
		var pos, best any = "-", "-"
		if v, ok := e.FinalPosition.Get(); ok {
			pos = v
		}
		if v, ok := e.BestLapSeconds.Get(); ok {
			best = formatLap(v)
		}
		t.AppendRow(table.Row{e.Driver, pos, best, samples[e.Driver]})
	}
	t.Render()
	for _, d := range diags {
		fmt.Fprintf(w, "%s: %s\n", d.Driver, d.Reason)
	}
}

// formatLap formats seconds as m:ss.fff
func formatLap(secs float64) string {
	m := int(secs) / 60
	return fmt.Sprintf("%d:%06.3f", m, secs-float64(m*60))
}
