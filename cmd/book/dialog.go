package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wolfman30/padel-booking/internal/bookingflow"
	appconfig "github.com/wolfman30/padel-booking/internal/config"
	"github.com/wolfman30/padel-booking/pkg/logging"
	"github.com/wolfman30/padel-booking/pkg/padelapi"
)

var errQuit = errors.New("booking cancelled")

func newRootCmd(cfg *appconfig.Config) *cobra.Command {
	var apiURL, format, logLevel string

	cmd := &cobra.Command{
		Use:           "book",
		Short:         "Book a padel court from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewWithWriter(logLevel, cmd.ErrOrStderr())
			defer func() { _ = logger.Sync() }()

			client := padelapi.New(apiURL, padelapi.WithLogger(logger))
			out := cmd.OutOrStdout()
			flow := bookingflow.New(client, client,
				bookingflow.WithLogger(logger),
				bookingflow.WithNotifier(bookingflow.NotifierFunc(func(n bookingflow.Notice) {
					mark := "+"
					if n.Kind == bookingflow.NoticeError {
						mark = "!"
					}
					fmt.Fprintf(out, "%s %s\n", mark, n.Message)
				})),
			)
			err := runDialog(cmd.Context(), flow, format, cmd.InOrStdin(), out)
			if errors.Is(err, errQuit) {
				fmt.Fprintln(out, "Bye.")
				return nil
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", cfg.APIBaseURL, "Booking API base URL")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Preselected format (open_game, training, subscription, corporate)")
	cmd.Flags().StringVar(&logLevel, "log-level", "error", "Log level for diagnostics on stderr")
	return cmd
}

// dialog reads answers line by line.
type dialog struct {
	in   *bufio.Scanner
	out  io.Writer
	flow *bookingflow.Flow
}

// runDialog walks the flow until a booking is made or the user quits.
func runDialog(ctx context.Context, flow *bookingflow.Flow, format string, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	d := &dialog{in: bufio.NewScanner(in), out: out, flow: flow}

	if err := flow.Open(ctx, format); err != nil {
		return err
	}
	defer flow.Close()

	for flow.IsOpen() {
		var err error
		switch flow.State().Phase() {
		case bookingflow.PhaseDate:
			err = d.pickDate()
		case bookingflow.PhaseTime:
			err = d.pickTime()
		case bookingflow.PhaseContact:
			err = d.contact(ctx)
		default:
			return fmt.Errorf("unexpected phase %s", flow.State().Phase())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *dialog) ask(prompt string) (string, error) {
	fmt.Fprint(d.out, prompt)
	if !d.in.Scan() {
		if err := d.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	answer := strings.TrimSpace(d.in.Text())
	if strings.EqualFold(answer, "q") {
		return "", errQuit
	}
	return answer, nil
}

func (d *dialog) pickDate() error {
	dates := d.flow.SelectableDates()
	if len(dates) == 0 {
		fmt.Fprintln(d.out, "No dates are open for booking.")
		return errQuit
	}
	fmt.Fprintln(d.out, "Step 1/3: choose a date")
	for i, date := range dates {
		fmt.Fprintf(d.out, "  %d) %s\n", i+1, date)
	}
	answer, err := d.ask("Date (number or YYYY-MM-DD, q to quit): ")
	if err != nil {
		return err
	}
	if n, convErr := strconv.Atoi(answer); convErr == nil && n >= 1 && n <= len(dates) {
		answer = dates[n-1]
	}
	if err := d.flow.SelectDate(answer); err != nil {
		fmt.Fprintln(d.out, "That date is not on the schedule.")
	}
	return nil
}

func (d *dialog) pickTime() error {
	st := d.flow.State()
	slots := d.flow.Slots()
	fmt.Fprintf(d.out, "Step 2/3: choose a time on %s\n", st.Date)
	if len(slots) == 0 {
		fmt.Fprintln(d.out, "  no slots on this day")
	}
	for i, slot := range slots {
		suffix := ""
		if !slot.Available {
			suffix = " (taken)"
		}
		fmt.Fprintf(d.out, "  %d) %s%s\n", i+1, slot.Time, suffix)
	}
	answer, err := d.ask("Time (number or HH:MM, b to go back): ")
	if err != nil {
		return err
	}
	if strings.EqualFold(answer, "b") {
		return d.flow.Back()
	}
	if n, convErr := strconv.Atoi(answer); convErr == nil && n >= 1 && n <= len(slots) {
		answer = string(slots[n-1].ID)
	}
	switch err := d.flow.SelectTime(answer); {
	case errors.Is(err, bookingflow.ErrSlotUnavailable):
		fmt.Fprintln(d.out, "That slot is already taken.")
	case err != nil:
		fmt.Fprintln(d.out, "That time is not on the schedule.")
	}
	return nil
}

func (d *dialog) contact(ctx context.Context) error {
	st := d.flow.State()
	fmt.Fprintf(d.out, "Step 3/3: %s at %s\n", st.Date, st.Time)

	name, err := d.askWithDefault("Name", st.Name)
	if err != nil || name == "b" {
		return d.backOr(err)
	}
	phone, err := d.askWithDefault("Phone", st.Phone)
	if err != nil || phone == "b" {
		return d.backOr(err)
	}
	options := d.flow.Formats()
	for i, opt := range options {
		fmt.Fprintf(d.out, "  %d) %s, %s\n", i+1, opt.Label, opt.Price)
	}
	format, err := d.askWithDefault("Format", st.Format)
	if err != nil || format == "b" {
		return d.backOr(err)
	}
	if n, convErr := strconv.Atoi(format); convErr == nil && n >= 1 && n <= len(options) {
		format = options[n-1].Value
	}

	if err := d.flow.SetName(name); err != nil {
		return err
	}
	if err := d.flow.SetPhone(phone); err != nil {
		return err
	}
	if format != "" {
		if err := d.flow.SetFormat(format); err != nil {
			fmt.Fprintln(d.out, "Unknown format.")
			return nil
		}
	}

	booking, err := d.flow.Submit(ctx)
	if err != nil {
		// The notifier already told the user; stay on this step.
		return nil
	}
	fmt.Fprintf(d.out, "Booking %s: %s %s\n", booking.ID, booking.Date, booking.Time)
	return nil
}

func (d *dialog) askWithDefault(label, current string) (string, error) {
	prompt := label + " (b to go back): "
	if current != "" {
		prompt = fmt.Sprintf("%s [%s] (b to go back): ", label, current)
	}
	answer, err := d.ask(prompt)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(answer, "b") {
		return "b", nil
	}
	if answer == "" {
		return current, nil
	}
	return answer, nil
}

func (d *dialog) backOr(err error) error {
	if err != nil {
		return err
	}
	return d.flow.Back()
}
