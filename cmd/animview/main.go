// Command animview runs a headless preview server: it drives demo animation
// instances at a fixed tick rate and broadcasts machine snapshots over
// websockets for tooling to visualize.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Lint111/animgraph"
	"github.com/Lint111/animgraph/authoring"
	"github.com/Lint111/animgraph/graph"
	"github.com/Lint111/animgraph/internal/feed"
	"github.com/Lint111/animgraph/logging"
	loggingauthoring "github.com/Lint111/animgraph/logging/authoring"
	"github.com/Lint111/animgraph/logging/sinks"
)

func main() {
	var (
		addr      string
		graphPath string
		layerPath string
		tickRate  int
		watch     bool
		jsonLog   string
	)
	flag.StringVar(&addr, "addr", ":8080", "listen address")
	flag.StringVar(&graphPath, "graph", "", "graph document to preview; embedded locomotion sample when omitted")
	flag.StringVar(&layerPath, "layer", "", "additional layer document; embedded upperbody sample when previewing the default graph")
	flag.IntVar(&tickRate, "tick", 30, "simulation ticks per second")
	flag.BoolVar(&watch, "watch", false, "re-bake the graph document on save (requires -graph)")
	flag.StringVar(&jsonLog, "log-json", "", "also write events as JSON lines to this file")
	flag.Parse()

	if err := run(addr, graphPath, layerPath, tickRate, watch, jsonLog); err != nil {
		log.Fatalf("animview: %v", err)
	}
}

func run(addr, graphPath, layerPath string, tickRate int, watch bool, jsonLog string) error {
	logConfig := logging.DefaultConfig()
	named := []logging.NamedSink{
		{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout, logConfig.Console)},
	}
	if jsonLog != "" {
		file, err := os.OpenFile(jsonLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer file.Close()
		named = append(named, logging.NamedSink{Name: "json", Sink: sinks.NewJSON(file, logConfig.JSON.FlushInterval)})
	}
	router, err := logging.NewRouter(nil, logConfig, named)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cerr := router.Close(ctx); cerr != nil {
			log.Printf("close logging router: %v", cerr)
		}
	}()

	cfg, err := demoActor(graphPath, layerPath, tickRate)
	if err != nil {
		return err
	}

	hub := feed.NewHub(feed.HubConfig{TickRate: tickRate, Publisher: router})
	if err := hub.AddActor(cfg); err != nil {
		return err
	}

	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	if watch {
		if graphPath == "" {
			return fmt.Errorf("-watch requires -graph")
		}
		watcher, err := authoring.Watch(filepath.Dir(graphPath))
		if err != nil {
			return fmt.Errorf("watch %s: %w", graphPath, err)
		}
		defer watcher.Close()
		go rebakeOnChange(watcher, hub, router, graphPath, layerPath, tickRate)
	}

	handler := feed.NewHandler(hub, feed.HandlerConfig{})
	srv := &http.Server{Addr: addr, Handler: handler}
	log.Printf("animview listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// demoActor assembles the previewed actor from documents on disk or from the
// embedded samples, with a scripted parameter driver cycling through the
// sample graph's phases.
func demoActor(graphPath, layerPath string, tickRate int) (feed.ActorConfig, error) {
	var (
		base   *graph.Graph
		layers []*graph.Graph
		err    error
	)
	if graphPath != "" {
		base, err = authoring.Load(graphPath)
		if err != nil {
			return feed.ActorConfig{}, err
		}
		if layerPath != "" {
			layer, err := authoring.Load(layerPath)
			if err != nil {
				return feed.ActorConfig{}, err
			}
			layers = append(layers, layer)
		}
	} else {
		base, err = authoring.LoadSample("locomotion.json")
		if err != nil {
			return feed.ActorConfig{}, err
		}
		layer, err := authoring.LoadSample("upperbody.yaml")
		if err != nil {
			return feed.ActorConfig{}, err
		}
		layers = append(layers, layer)
	}

	return feed.ActorConfig{
		ID:     "demo",
		Graph:  base,
		Layers: layers,
		Clips:  clipTableFor(append([]*graph.Graph{base}, layers...)...),
		Drive:  demoDrive(uint64(tickRate)),
	}, nil
}

// clipTableFor sizes a uniform one-second clip table to the highest clip
// index any of the graphs references. Real hosts supply real durations; the
// preview only needs consistent cursors.
func clipTableFor(graphs ...*graph.Graph) animgraph.ClipSource {
	maxClip := 0
	for _, g := range graphs {
		for i := 0; i < g.NumStates(); i++ {
			state := g.State(i)
			if state.Kind == graph.KindSingleClip && state.Clip > maxClip {
				maxClip = state.Clip
			}
			for _, clip := range state.Clips {
				if clip > maxClip {
					maxClip = clip
				}
			}
		}
	}
	table := animgraph.NewClipTable()
	for i := 0; i <= maxClip; i++ {
		table.Add(fmt.Sprintf("clip-%d", i), 1)
	}
	return table
}

// demoDrive cycles idle, locomotion, strafing, and attacking so every state
// kind and transition source shows up in the feed. Parameter names that a
// custom graph does not declare are simply dropped by the store.
func demoDrive(rate uint64) feed.DriveFunc {
	if rate == 0 {
		rate = 30
	}
	phaseLen := 3 * rate
	return func(tick uint64, params *animgraph.Parameters) {
		phase := (tick / phaseLen) % 4
		inPhase := tick % phaseLen

		params.SetBoolByName("moving", phase == 1)
		params.SetBoolByName("strafing", phase == 2)
		params.SetBoolByName("attack", phase == 3 && inPhase < rate/4)
		params.SetBoolByName("dead", false)

		// Ramp locomotion speed across the move phase.
		params.SetFloatByName("speed", 6*float32(inPhase)/float32(phaseLen))

		angle := 2 * math.Pi * float64(inPhase) / float64(phaseLen)
		params.SetFloatByName("moveX", float32(math.Cos(angle)))
		params.SetFloatByName("moveY", float32(math.Sin(angle)))

		params.SetIntByName("combo", int32(tick/phaseLen)%4)
	}
}

func rebakeOnChange(watcher *authoring.Watcher, hub *feed.Hub, pub logging.Publisher, graphPath, layerPath string, tickRate int) {
	actor := logging.EntityRef{ID: "animview", Kind: logging.EntityKindSystem}
	for {
		select {
		case path, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(path) != filepath.Clean(graphPath) {
				continue
			}
			cfg, err := demoActor(graphPath, layerPath, tickRate)
			if err != nil {
				loggingauthoring.ReloadFailed(context.Background(), pub, 0, actor, loggingauthoring.ReloadFailedPayload{
					Path:  path,
					Error: err.Error(),
				}, nil)
				continue
			}
			if err := hub.ReplaceActor("demo", cfg); err != nil {
				loggingauthoring.ReloadFailed(context.Background(), pub, 0, actor, loggingauthoring.ReloadFailedPayload{
					Path:  path,
					Error: err.Error(),
				}, nil)
				continue
			}
			loggingauthoring.Loaded(context.Background(), pub, 0, actor, loggingauthoring.LoadedPayload{
				Path:   path,
				Graph:  cfg.Graph.Name(),
				States: cfg.Graph.NumStates(),
				Params: len(cfg.Graph.Params()),
			}, nil)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("animview: watch error: %v", err)
		}
	}
}
