package events

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/log"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/cmd/util"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/config"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/model"
)

func NewEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "lists the events of a season",
		RunE: func(cmd *cobra.Command, args []string) error {
			util.SetupLogger()
			da := util.NewDataAccess()
			events, err := util.NewResolver(da).Events(cmd.Context(), config.Year)
			if err != nil {
				log.Error("could not list events", log.ErrorField(err))
				return err
			}
			Render(os.Stdout, events)
			return nil
		},
	}
	return cmd
}

func Render(w io.Writer, events []model.Event) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Round", "Date", "Location", "Event"})
	for _, e := range events {
		var round any = "-"
		if e.Round > 0 {
			round = e.Round
		}
		t.AppendRow(table.Row{round, e.Date.Format("2006-01-02"), e.Location, e.OfficialName})
	}
	t.Render()
}
