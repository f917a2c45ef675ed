package eval

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/clambin/go-common/charmer"
	"github.com/clambin/homeshift/internal/calendar"
	"github.com/clambin/homeshift/internal/configuration"
	"github.com/clambin/homeshift/internal/controller"
	"github.com/clambin/homeshift/internal/controller/rules"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	Cmd = cobra.Command{
		Use:   "eval",
		Short: "evaluate the day mode for a (hypothetical) day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configuration.Load(viper.GetViper())
			if err != nil {
				return err
			}
			in, err := inputFromFlags(viper.GetViper())
			if err != nil {
				return err
			}
			r, err := evaluateAll(cfg, viper.GetString("household"), in, cfg.Logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			r.writeTo(cmd.OutOrStdout())
			return nil
		},
	}

	args = charmer.Arguments{
		"date":      {Default: "", Help: "date to evaluate (YYYY-MM-DD). Default: today"},
		"event":     {Default: "", Help: "message of the calendar event on that date"},
		"start":     {Default: "", Help: "start of the event (YYYY-MM-DD HH:MM:SS)"},
		"end":       {Default: "", Help: "end of the event (YYYY-MM-DD HH:MM:SS)"},
		"holiday":   {Default: false, Help: "the date is a holiday"},
		"household": {Default: "", Help: "household to evaluate. Default: all households"},
	}
)

func init() {
	_ = charmer.SetPersistentFlags(&Cmd, viper.GetViper(), args)
}

// Input describes the day to evaluate.
type Input struct {
	Date    time.Time
	Event   string
	Start   string
	End     string
	Holiday bool
}

func inputFromFlags(v *viper.Viper) (Input, error) {
	in := Input{
		Date:    time.Now(),
		Event:   v.GetString("event"),
		Start:   v.GetString("start"),
		End:     v.GetString("end"),
		Holiday: v.GetBool("holiday"),
	}
	if date := v.GetString("date"); date != "" {
		var err error
		if in.Date, err = time.ParseInLocation(time.DateOnly, date, time.Local); err != nil {
			return Input{}, fmt.Errorf("invalid date: %w", err)
		}
	}
	return in, nil
}

func evaluateAll(cfg configuration.Configuration, household string, in Input, logger *slog.Logger) (results, error) {
	var r results
	for _, h := range cfg.Households {
		if household != "" && h.Name != household {
			continue
		}
		r = append(r, Evaluate(h.Controller(logger), in))
	}
	if len(r) == 0 {
		return nil, fmt.Errorf("%q: %w", household, controller.ErrUnknownHousehold)
	}
	return r, nil
}

// Evaluate determines the day mode a household would have on the day described by in, without an override
// or absence mode in place.
func Evaluate(cfg controller.Configuration, in Input) Result {
	result := Result{
		Household: cfg.Name,
		Date:      in.Date.Format(time.DateOnly),
		Weekend:   rules.IsWeekend(in.Date),
		Holiday:   in.Holiday,
	}

	event := calendar.Event{State: calendar.StateOn, Message: in.Event, Start: in.Start, End: in.End}
	if event.Active() {
		result.Period = event.Period()
		result.TodayType = cfg.TodayType(event.Message)
	}

	action := rules.Resolve(rules.StateAt(in.Date, result.TodayType, in.Holiday), cfg.Rules())
	result.Reason = action.Reason
	if mode, ok := cfg.DayModes.Resolve(action.Mode); ok {
		result.DayMode = mode
	} else if action.Mode != "" {
		result.Reason += " (unknown mode " + action.Mode + ")"
	}
	return result
}

// Result is the outcome of Evaluate.
type Result struct {
	Household string
	Date      string
	Weekend   bool
	Holiday   bool
	Period    calendar.Period
	TodayType string
	Reason    string
	DayMode   string
}

const formatString = "%-12s %-10s %-7v %-7v %-9s %-20s %-40s %s\n"

type results []Result

func (r results) writeTo(w io.Writer) {
	if len(r) > 0 {
		_, _ = fmt.Fprintf(w, formatString, "HOUSEHOLD", "DATE", "WEEKEND", "HOLIDAY", "PERIOD", "TODAY", "REASON", "DAY MODE")
		for _, res := range r {
			res.writeTo(w)
		}
	}
}

func (r Result) writeTo(w io.Writer) {
	_, _ = fmt.Fprintf(w, formatString, r.Household, r.Date, r.Weekend, r.Holiday, orDash(string(r.Period)), orDash(r.TodayType), r.Reason, orDash(r.DayMode))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
