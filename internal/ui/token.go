package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javiermolinar/rocinante/internal/conflict"
	"github.com/javiermolinar/rocinante/internal/dateutil"
	"github.com/javiermolinar/rocinante/internal/interval"
	"github.com/javiermolinar/rocinante/internal/palette"
	"github.com/javiermolinar/rocinante/internal/slotgrid"
)

func (a *App) tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the resource slot grid",
		Long: `Tokens are placeable resources with a finite quantity.

Placing a token takes one unit and puts it in the lowest free column of
a slot cell; removing the placement gives the unit back.`,
	}

	cmd.AddCommand(a.tokenAddCmd())
	cmd.AddCommand(a.tokenListCmd())
	cmd.AddCommand(a.tokenRestockCmd())
	cmd.AddCommand(a.tokenPlaceCmd())
	cmd.AddCommand(a.tokenRemoveCmd())
	return cmd
}

// loadGrid restores the stored grid with the current rules.
func (a *App) loadGrid(ctx context.Context) (*slotgrid.Grid, error) {
	engine, err := a.engine(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := a.store.LoadGrid(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading grid: %w", err)
	}
	return slotgrid.Restore(a.config.SlotGridConfig(), engine, snap, a.log)
}

func (a *App) saveGrid(ctx context.Context, g *slotgrid.Grid) error {
	if err := a.store.SaveGrid(ctx, g.Snapshot()); err != nil {
		return fmt.Errorf("saving grid: %w", err)
	}
	return nil
}

func (a *App) tokenAddCmd() *cobra.Command {
	var (
		quantity int
		duration int
		color    string
	)

	cmd := &cobra.Command{
		Use:     "add [label]",
		Short:   "Add a token",
		Example: `  rocinante token add Lego --quantity 2 --duration 60`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if color != "" && !palette.ValidHex(color) {
				return fmt.Errorf("color %q: %w", color, palette.ErrInvalidColor)
			}
			ctx := cmd.Context()
			g, err := a.loadGrid(ctx)
			if err != nil {
				return err
			}
			if duration == 0 {
				duration = g.Config().SlotMinutes
			}

			tok, err := g.AddToken(args[0], quantity, duration)
			if err != nil {
				return err
			}
			if color != "" {
				if tok, err = g.SetColor(tok.ID, color); err != nil {
					return err
				}
			}
			if err := a.saveGrid(ctx, g); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Created token %s %s (%d units, %dm)\n",
				formatMuted(shortID(tok.ID)), formatLabel(tok.Label), tok.Remaining, tok.DefaultDuration)
			return nil
		},
	}

	cmd.Flags().IntVarP(&quantity, "quantity", "n", 1, "Units available")
	cmd.Flags().IntVarP(&duration, "duration", "d", 0, "Minutes one placement covers (default: one slot)")
	cmd.Flags().StringVar(&color, "color", "", "Display color (#rrggbb)")
	return cmd
}

func (a *App) tokenListCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tokens and placements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.loadGrid(cmd.Context())
			if err != nil {
				return err
			}

			tokens := g.Tokens()
			if len(tokens) == 0 {
				fmt.Fprintln(a.out, "No tokens defined.")
				return nil
			}

			fmt.Fprintln(a.out, formatHeader("Tokens"))
			labels := make(map[string]string, len(tokens))
			for _, t := range tokens {
				labels[t.ID] = t.Label
				fmt.Fprintf(a.out, "  %s  %-16s %s\n", formatMuted(shortID(t.ID)), formatLabel(t.Label),
					formatStats(fmt.Sprintf("%d left, used %d, %dm", t.Remaining, t.Usage, t.DefaultDuration)))
			}

			var placements []*slotgrid.Placement
			if date != "" {
				day, err := dateutil.ParseDay(date, a.now())
				if err != nil {
					return err
				}
				placements = g.Placements(day)
			} else {
				for _, p := range g.Snapshot().Placements {
					placements = append(placements, &p)
				}
			}
			if len(placements) == 0 {
				return nil
			}

			cfg := g.Config()
			fmt.Fprintln(a.out)
			fmt.Fprintln(a.out, formatHeader("Placements"))
			for _, p := range placements {
				fmt.Fprintf(a.out, "  %s  %s %s-%s  col %d  %s\n",
					formatMuted(shortID(p.ID)),
					interval.ScopeKey(p.Date),
					formatTime(cfg.SlotToTime(p.Slot)),
					formatTime(cfg.SlotToTime(p.Slot+p.Span)),
					p.Column+1,
					formatLabel(labels[p.TokenID]))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Only show placements on this day")
	return cmd
}

func (a *App) tokenRestockCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "restock [token] [quantity]",
		Short:   "Add units to a token (negative removes)",
		Example: `  rocinante token restock Lego 3`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity %q: %w", args[1], err)
			}
			ctx := cmd.Context()
			g, err := a.loadGrid(ctx)
			if err != nil {
				return err
			}
			tok, err := findToken(g, args[0])
			if err != nil {
				return err
			}
			if tok, err = g.Restock(tok.ID, quantity); err != nil {
				return err
			}
			if err := a.saveGrid(ctx, g); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s now has %d units\n", formatLabel(tok.Label), tok.Remaining)
			return nil
		},
	}
}

func (a *App) tokenPlaceCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "place [token] [day] [HH:MM]",
		Short: "Place one unit of a token",
		Long: `Place one unit of a token in the slot containing HH:MM.

The token goes to the lowest free column over its whole span. A
placement that breaks a restriction rule is refused unless --force is
given.`,
		Example: `  rocinante token place Lego today 10:00
  rocinante token place Lego mon 10:30 --force`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			day, err := dateutil.ParseDay(args[1], a.now())
			if err != nil {
				return err
			}
			minutes, err := interval.ParseTime(args[2])
			if err != nil {
				return err
			}

			g, err := a.loadGrid(ctx)
			if err != nil {
				return err
			}
			tok, err := findToken(g, args[0])
			if err != nil {
				return err
			}

			slot := g.Config().MinutesToSlot(minutes)
			res, err := g.PlaceToken(tok.ID, day, slot, slotgrid.PlaceOptions{Force: force})
			if err != nil {
				var cf *conflict.Conflict
				if errors.As(err, &cf) {
					return fmt.Errorf("blocked: %w (use --force to place anyway)", err)
				}
				return err
			}
			if err := a.saveGrid(ctx, g); err != nil {
				return err
			}

			cfg := g.Config()
			p := res.Placement
			fmt.Fprintf(a.out, "Placed %s %s on %s %s-%s (column %d, placement %s)\n",
				formatLabel(tok.Label),
				formatMuted(fmt.Sprintf("[%d left]", tok.Remaining-1)),
				dateutil.Format(p.Date),
				formatTime(cfg.SlotToTime(p.Slot)),
				formatTime(cfg.SlotToTime(p.Slot+p.Span)),
				p.Column+1,
				shortID(p.ID))
			if res.Conflict != nil {
				fmt.Fprintf(a.out, "%s %s\n", formatConflict("Warning:"), res.Conflict.Error())
				a.log.Info("forced token placement",
					zap.String("token", tok.Label),
					zap.String("placement", p.ID))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Place even when a restriction rule is violated")
	return cmd
}

func (a *App) tokenRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove [placement]",
		Aliases: []string{"rm"},
		Short:   "Remove a placement and return its unit",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := a.loadGrid(ctx)
			if err != nil {
				return err
			}

			var match []string
			for _, p := range g.Snapshot().Placements {
				if p.ID == args[0] {
					match = []string{p.ID}
					break
				}
				if len(args[0]) >= 4 && strings.HasPrefix(p.ID, args[0]) {
					match = append(match, p.ID)
				}
			}
			switch len(match) {
			case 0:
				return fmt.Errorf("placement %q: %w", args[0], slotgrid.ErrPlacementNotFound)
			case 1:
			default:
				return fmt.Errorf("placement prefix %q is ambiguous (%d matches)", args[0], len(match))
			}

			p, err := g.RemovePlacement(match[0])
			if err != nil {
				return err
			}
			if err := a.saveGrid(ctx, g); err != nil {
				return err
			}

			label := ""
			if tok, ok := g.Token(p.TokenID); ok {
				label = tok.Label
			}
			fmt.Fprintf(a.out, "Removed %s from %s %s\n",
				formatLabel(label), dateutil.Format(p.Date), formatTime(g.Config().SlotToTime(p.Slot)))
			return nil
		},
	}
}

// findToken resolves a token by id, unique id prefix or label.
func findToken(g *slotgrid.Grid, ref string) (*slotgrid.Token, error) {
	var found []*slotgrid.Token
	for _, t := range g.Tokens() {
		if t.ID == ref {
			return t, nil
		}
		if strings.EqualFold(t.Label, ref) || (len(ref) >= 4 && strings.HasPrefix(t.ID, ref)) {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("token %q: %w", ref, slotgrid.ErrTokenNotFound)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("token %q is ambiguous (%d matches)", ref, len(found))
	}
}
