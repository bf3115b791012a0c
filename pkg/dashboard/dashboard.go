package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/mum4k/termdash"
	"github.com/mum4k/termdash/cell"
	"github.com/mum4k/termdash/container"
	"github.com/mum4k/termdash/keyboard"
	"github.com/mum4k/termdash/linestyle"
	"github.com/mum4k/termdash/terminal/tcell"
	"github.com/mum4k/termdash/terminal/terminalapi"
	"github.com/mum4k/termdash/widgets/linechart"
	"github.com/mum4k/termdash/widgets/text"
	pkgerrors "github.com/pkg/errors"

	"github.com/batterytool/batterytool/pkg/cycler"
	"github.com/batterytool/batterytool/pkg/events"
	"github.com/batterytool/batterytool/pkg/types"
)

const historySize = 500

// Run draws charge and health over time from evs until ctx is done, evs is
// closed, or the user presses q or Esc.
func Run(ctx context.Context, evs <-chan events.Event, targetHealth int) error {
	t, err := tcell.New()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to open terminal")
	}
	defer t.Close()

	chart, err := linechart.New(
		linechart.AxesCellOpts(cell.FgColor(cell.ColorWhite)),
		linechart.YLabelCellOpts(cell.FgColor(cell.ColorWhite)),
		linechart.XLabelCellOpts(cell.FgColor(cell.ColorWhite)),
		linechart.YAxisCustomScale(0, 100),
	)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create chart")
	}

	status, err := text.New(text.WrapAtWords())
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create status widget")
	}
	log, err := text.New(text.RollContent(), text.WrapAtWords())
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create log widget")
	}

	c, err := container.New(
		t,
		container.Border(linestyle.Light),
		container.BorderTitle("batterytool - q: quit"),
		container.SplitHorizontal(
			container.Top(
				container.Border(linestyle.Light),
				container.BorderTitle("Charge (green) and health (red) %"),
				container.PlaceWidget(chart),
			),
			container.Bottom(
				container.SplitVertical(
					container.Left(
						container.Border(linestyle.Light),
						container.BorderTitle("Latest reading"),
						container.PlaceWidget(status),
					),
					container.Right(
						container.Border(linestyle.Light),
						container.BorderTitle("Events"),
						container.PlaceWidget(log),
					),
					container.SplitPercent(40),
				),
			),
			container.SplitPercent(60),
		),
	)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create layout")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h := NewHistory(historySize)
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-evs:
				if !ok {
					return
				}
				now := time.Now()
				h.AddLine(now, ev.Name, string(ev.Data))
				_ = log.Write(h.Lines()[len(h.Lines())-1] + "\n")
				if ev.Name != cycler.EventBatteryReading {
					continue
				}
				r, err := events.DecodeAs[types.Reading](ev)
				if err != nil {
					continue
				}
				h.AddReading(now, r)
				if err := redraw(chart, status, h, targetHealth); err != nil {
					_ = log.Write(fmt.Sprintf("redraw failed: %v\n", err), text.WriteCellOpts(cell.FgColor(cell.ColorRed)))
				}
			}
		}
	}()

	quitter := func(k *terminalapi.Keyboard) {
		if k.Key == 'q' || k.Key == 'Q' || k.Key == keyboard.KeyEsc {
			cancel()
		}
	}

	return termdash.Run(ctx, t, c, termdash.KeyboardSubscriber(quitter), termdash.RedrawInterval(time.Second))
}

func redraw(chart *linechart.LineChart, status *text.Text, h *History, targetHealth int) error {
	charge, health, labels := h.Series()
	if err := chart.Series("charge", charge,
		linechart.SeriesCellOpts(cell.FgColor(cell.ColorGreen)),
		linechart.SeriesXLabels(labels),
	); err != nil {
		return err
	}
	if err := chart.Series("health", health,
		linechart.SeriesCellOpts(cell.FgColor(cell.ColorRed)),
		linechart.SeriesXLabels(labels),
	); err != nil {
		return err
	}

	r, ok := h.Latest()
	if !ok {
		return nil
	}
	status.Reset()
	for _, line := range statusLines(r, targetHealth) {
		if err := status.Write(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func statusLines(r types.Reading, targetHealth int) []string {
	charging := "disabled (discharging)"
	if r.ChargingEnabled {
		charging = "allowed"
	}
	return []string{
		fmt.Sprintf("Charge: %.1f%%", r.Percentage),
		fmt.Sprintf("Health: %.1f%% (target %d%%)", r.Health, targetHealth),
		fmt.Sprintf("Cycle count: %d", r.CycleCount),
		fmt.Sprintf("Plugged in: %v", r.IsPluggedIn),
		fmt.Sprintf("Charging: %s", charging),
	}
}
