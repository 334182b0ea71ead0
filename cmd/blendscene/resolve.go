package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/blendscene/internal/importer"
	"github.com/Faultbox/blendscene/internal/logger"
	"github.com/Faultbox/blendscene/internal/scene"
	"github.com/Faultbox/blendscene/pkg/blend"
)

var resolveJSON bool

func init() {
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "Print the scene as JSON")
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <dump.json> [address...]",
	Short: "Resolve objects (all of them by default) and print the scene tree",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadDump(args[0])
		if err != nil {
			return err
		}

		b := importer.NewBuilder(f, cfg.Import, importer.WithLogger(logger.Named("importer")))

		var res *importer.SceneResult
		if len(args) > 1 {
			addrs := make([]blend.Address, 0, len(args)-1)
			for _, s := range args[1:] {
				addr, err := parseAddress(s)
				if err != nil {
					return err
				}
				addrs = append(addrs, addr)
			}
			res = b.ResolveAll(addrs)
		} else if res, err = b.ResolveScene(); err != nil {
			return err
		}

		for _, w := range b.Warnings() {
			logger.Log.Warn(w.String())
		}
		logger.Log.Info("scene resolved",
			zap.Int("roots", len(res.Roots)),
			zap.Int("objects", b.Cache().Len()),
			zap.Int("skipped", res.Skipped),
			zap.Int("warnings", len(b.Warnings())))

		out := cmd.OutOrStdout()
		if resolveJSON {
			if err := writeSceneJSON(out, res.Roots); err != nil {
				return err
			}
		} else {
			writeSceneTree(out, res.Roots)
		}

		if len(res.Errors) > 0 {
			addrs := make([]blend.Address, 0, len(res.Errors))
			for addr := range res.Errors {
				addrs = append(addrs, addr)
			}
			sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
			for _, addr := range addrs {
				logger.Log.Error("object failed", zap.Stringer("addr", addr), zap.Error(res.Errors[addr]))
			}
			return fmt.Errorf("%d object(s) could not be resolved", len(res.Errors))
		}
		return nil
	},
}

// nodeView is the JSON form of a scene node.
type nodeView struct {
	Name        string         `json:"name"`
	Kind        string         `json:"kind"`
	Address     string         `json:"address"`
	Visible     bool           `json:"visible"`
	Mirrored    bool           `json:"mirrored,omitempty"`
	Translation [3]float32     `json:"translation"`
	Rotation    [4]float32     `json:"rotation"`
	Scale       [3]float32     `json:"scale"`
	UserData    map[string]any `json:"userData,omitempty"`
	Children    []nodeView     `json:"children,omitempty"`
}

func newNodeView(n *scene.Node) nodeView {
	v := nodeView{
		Name:        n.Name,
		Kind:        n.Kind.String(),
		Address:     n.Address.String(),
		Visible:     n.Visible,
		Mirrored:    n.Mirrored,
		Translation: n.Local.Translation.Array(),
		Rotation:    [4]float32{n.Local.Rotation.X, n.Local.Rotation.Y, n.Local.Rotation.Z, n.Local.Rotation.W},
		Scale:       n.Local.Scale.Array(),
	}
	for key, val := range n.UserData {
		if key == importer.PropertiesKey {
			continue
		}
		if v.UserData == nil {
			v.UserData = make(map[string]any)
		}
		v.UserData[key] = val
	}
	for _, c := range n.Children {
		v.Children = append(v.Children, newNodeView(c))
	}
	return v
}

func writeSceneJSON(w io.Writer, roots []*scene.Node) error {
	views := make([]nodeView, 0, len(roots))
	for _, r := range roots {
		views = append(views, newNodeView(r))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(views)
}

func writeSceneTree(w io.Writer, roots []*scene.Node) {
	for _, r := range roots {
		depth := map[*scene.Node]int{r: 0}
		r.Walk(func(n *scene.Node) bool {
			d := depth[n]
			for _, c := range n.Children {
				depth[c] = d + 1
			}
			t := n.Local
			fmt.Fprintf(w, "%s%s [%s] %s t=(%g, %g, %g) s=(%g, %g, %g)",
				strings.Repeat("  ", d), n.Name, n.Kind, n.Address,
				t.Translation.X, t.Translation.Y, t.Translation.Z,
				t.Scale.X, t.Scale.Y, t.Scale.Z)
			if !n.Visible {
				fmt.Fprint(w, " hidden")
			}
			fmt.Fprintln(w)
			return true
		})
	}
}
