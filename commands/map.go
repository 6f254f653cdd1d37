package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plcscope/plcscope/internal/config"
	"github.com/plcscope/plcscope/internal/core/mapview"
	"github.com/plcscope/plcscope/internal/data/parser"
	"github.com/plcscope/plcscope/internal/util"
)

var (
	mapLayout string
	mapUnits  string
	mapColors string
	mapParser string
	mapTz     string
	mapTail   int

	mapCmd = &cobra.Command{
		Use:   "map <log-file>",
		Short: "Replay a log through the facility map state model",
		Long: `Map folds log entries through a device-to-unit mapping and a color
policy, the same model the graphical facility view uses. It prints every
unit color change in order, then a final state summary.

The unit map and color policy live in YAML config files; --colors defaults
to the --units file so a single combined file works. An optional --layout
XML file cross-checks that every touched unit exists on the map.`,
		Args: cobra.ExactArgs(1),
		RunE: runMap,
	}
)

func init() {
	mapCmd.Flags().StringVar(&mapLayout, "layout", "",
		"Facility layout XML for cross-checking unit ids")
	mapCmd.Flags().StringVar(&mapUnits, "units", "",
		"Device-to-unit mapping YAML (falls back to units in the config file)")
	mapCmd.Flags().StringVar(&mapColors, "colors", "",
		"Color policy YAML (default: the --units file)")
	mapCmd.Flags().StringVar(&mapParser, "parser", "",
		"Force a specific parser (default auto-detect)")
	mapCmd.Flags().StringVar(&mapTz, "timezone", "Local",
		"Timezone for displayed timestamps")
	mapCmd.Flags().IntVar(&mapTail, "tail", 0,
		"Print only the last N state changes (0 = all)")

	rootCmd.AddCommand(mapCmd)
}

func runMap(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig()
	if err != nil {
		return err
	}
	if err := initRuntime(cfg, mapTz); err != nil {
		return err
	}

	unitsPath := mapUnits
	if unitsPath == "" {
		unitsPath = cfg.UnitMapPath
	}
	if unitsPath == "" {
		return fmt.Errorf("no unit map: pass --units or set units in the config file")
	}
	colorsPath := mapColors
	if colorsPath == "" {
		colorsPath = cfg.ColorsPath
	}
	if colorsPath == "" {
		colorsPath = unitsPath
	}
	layoutPath := mapLayout
	if layoutPath == "" {
		layoutPath = cfg.LayoutPath
	}

	units, _, err := mapview.LoadConfig(config.MustExpand(unitsPath))
	if err != nil {
		return err
	}
	_, colors, err := mapview.LoadConfig(config.MustExpand(colorsPath))
	if err != nil {
		return err
	}

	var layout *mapview.Layout
	if layoutPath != "" {
		layout, err = mapview.ParseLayout(config.MustExpand(layoutPath))
		if err != nil {
			return err
		}
	}

	path, err := config.ExpandPath(args[0])
	if err != nil {
		return err
	}
	result := parser.NewDefaultRegistry().Parse(path, mapParser)
	if !result.Success() {
		return fmt.Errorf("parse %s: %s", path, parseFailureMessage(result))
	}

	states := mapview.NewUnitStateModel(units, colors)
	changes := states.Replay(result.Data.Entries)

	provider := util.GetTimeProvider()
	printed := changes
	if mapTail > 0 && len(changes) > mapTail {
		printed = changes[len(changes)-mapTail:]
		fmt.Printf("... %d earlier changes\n", len(changes)-mapTail)
	}
	for _, c := range printed {
		line := fmt.Sprintf("%s  %-20s -> %s",
			provider.Format(c.Timestamp, "2006-01-02 15:04:05.000"), c.UnitID, c.Color)
		if c.Overlay != nil {
			line += fmt.Sprintf(" [%s]", c.Overlay.Char)
		}
		fmt.Println(line)
	}

	final := states.States()
	fmt.Printf("\nFinal state (%d units, %d changes):\n", len(final), len(changes))
	for _, s := range final {
		marker := ""
		if layout != nil {
			if _, ok := layout.Get(s.UnitID); !ok {
				marker = "  (not on layout)"
			}
		}
		fmt.Printf("  %-20s %s%s\n", s.UnitID, s.Color, marker)
	}
	if layout != nil {
		fmt.Printf("Layout: %d objects\n", layout.Len())
	}
	return nil
}
