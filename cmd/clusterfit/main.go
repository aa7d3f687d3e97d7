// Command clusterfit fits a cluster grid for a camera setup and prints it. With --lights it
// also runs the light assignment with every cell visible, on the software device or with --gpu
// on a wgpu adapter.
package main

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"

	"github.com/Carmen-Shannon/oxy-cls/engine"
	"github.com/Carmen-Shannon/oxy-cls/engine/camera"
	"github.com/Carmen-Shannon/oxy-cls/engine/cluster"
	"github.com/Carmen-Shannon/oxy-cls/engine/cluster/clustersoft"
	"github.com/Carmen-Shannon/oxy-cls/engine/config"
	"github.com/Carmen-Shannon/oxy-cls/engine/gpu"
	"github.com/Carmen-Shannon/oxy-cls/engine/gpu/soft"
	"github.com/Carmen-Shannon/oxy-cls/engine/light"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	width      int
	height     int
	fov        float64
	near       float64
	far        float64
	ipd        float64
	lights     int
	seed       uint64
	gpu        bool
	verbose    bool
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:          "clusterfit",
		Short:        "Fit a light cluster grid to a camera setup",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "engine TOML configuration file")
	f.IntVar(&o.width, "width", 1920, "frame width in pixels")
	f.IntVar(&o.height, "height", 1080, "frame height in pixels")
	f.Float64Var(&o.fov, "fov", 90, "vertical field of view in degrees")
	f.Float64Var(&o.near, "near", 0.1, "near plane distance")
	f.Float64Var(&o.far, "far", 100, "far plane distance")
	f.Float64Var(&o.ipd, "ipd", 0, "interpupillary distance; a positive value fits a stereo pair")
	f.IntVar(&o.lights, "lights", 0, "number of random point lights to assign")
	f.Uint64Var(&o.seed, "seed", 1, "seed for the random lights")
	f.BoolVar(&o.gpu, "gpu", false, "assign lights on a wgpu device instead of the software device")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "log engine debug output to stderr")
	return cmd
}

func run(cmd *cobra.Command, o options) error {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return err
		}
	}

	rig := camera.NewRig()
	params := cluster.NewParameters(cfg.Cluster, rig.WldToHmd())
	cams := cameras(rig, o)

	computed, err := fit(params, cams)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fr := computed.Frustum
	fmt.Fprintf(out, "projection: %s\n", params.Projection)
	fmt.Fprintf(out, "dimensions: %d x %d x %d\n", computed.Dimensions[0], computed.Dimensions[1], computed.Dimensions[2])
	fmt.Fprintf(out, "clusters:   %d\n", computed.ClusterCount())
	fmt.Fprintf(out, "frustum:    x [%.6f, %.6f] y [%.6f, %.6f] z [%.6f, %.6f]\n", fr.X0, fr.X1, fr.Y0, fr.Y1, fr.Z0, fr.Z1)

	if o.lights <= 0 {
		return nil
	}

	var logger *slog.Logger
	if o.verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	lights := randomLights(o.lights, o.seed)

	if o.gpu {
		dev, err := gpu.NewWGPUDevice(gpu.WithShaderValidation(cfg.Device.Validate))
		if err != nil {
			return err
		}
		defer dev.Release()
		r, err := assign(dev, logger, params, cams, lights)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "lights:     %d uploaded to the GPU\n", r.LightCount())
		return nil
	}

	dev := soft.NewDevice(soft.WithWorkers(cfg.Device.Workers))
	clustersoft.Register(dev)
	r, err := assign(dev, logger, params, cams, lights)
	if err != nil {
		return err
	}

	profiling, _ := r.Buffer(cluster.RoleProfiling)
	stats := cluster.UnmarshalGPUProfiling(dev.Bytes(profiling))
	fmt.Fprintf(out, "lights:     %d uploaded\n", r.LightCount())
	fmt.Fprintf(out, "active:     %d clusters\n", stats.ActiveClusters)
	fmt.Fprintf(out, "indices:    %d assigned, %d dropped\n", stats.LightIndices, stats.Dropped)
	return nil
}

// assign clusters one frame on dev with every cell marked visible and runs the light assignment.
func assign(dev gpu.Device, logger *slog.Logger, params cluster.Parameters, cams []camera.Parameters, lights []light.Light) (*cluster.Resources, error) {
	e, err := engine.NewEngine(dev, engine.WithLogger(logger), engine.WithMaxRenderTargets(1))
	if err != nil {
		return nil, err
	}

	e.BeginFrame()
	idx, err := e.Cluster(params, cams...)
	if err != nil {
		return nil, err
	}
	r, _ := e.Resources(idx)

	frag, _ := r.Buffer(cluster.RoleFragmentCounts)
	ones := make([]uint32, r.Computed().ClusterCount())
	for i := range ones {
		ones[i] = 1
	}
	dev.WriteBuffer(frag, 0, gpu.MarshalU32s(ones))

	if err := e.Execute(idx, lights); err != nil {
		return nil, err
	}
	e.EndFrame()
	return r, nil
}

// cameras builds one camera, or a stereo pair when an interpupillary distance is given.
func cameras(rig camera.Rig, o options) []camera.Parameters {
	base := []camera.CameraBuilderOption{
		camera.WithRig(rig),
		camera.WithFov(o.fov * math.Pi / 180),
		camera.WithNear(o.near),
		camera.WithFar(o.far),
		camera.WithFrameDims(o.width, o.height),
	}
	if o.ipd <= 0 {
		return []camera.Parameters{camera.NewCamera(base...).Parameters()}
	}
	left := append(append([]camera.CameraBuilderOption(nil), base...), camera.WithEyeOffset(-o.ipd/2))
	right := append(append([]camera.CameraBuilderOption(nil), base...), camera.WithEyeOffset(o.ipd/2))
	return []camera.Parameters{camera.NewCamera(left...).Parameters(), camera.NewCamera(right...).Parameters()}
}

// fit turns the fitter's configuration panics into errors.
func fit(params cluster.Parameters, cams []camera.Parameters) (c cluster.Computed, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()
	return cluster.Fit(params, cams), nil
}

// randomLights scatters point lights through a 20 unit cube around the origin.
func randomLights(n int, seed uint64) []light.Light {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	coord := func() float32 { return float32(rng.Float64()*20 - 10) }

	out := make([]light.Light, n)
	for i := range out {
		out[i] = light.NewLight(light.LightTypePoint,
			light.WithPosition(coord(), coord(), coord()),
			light.WithRange(float32(0.5+rng.Float64()*2.5)),
		)
	}
	return out
}
