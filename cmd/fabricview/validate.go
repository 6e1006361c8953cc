package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fabricview/internal/domain"
	"fabricview/internal/loader"
)

type validation struct {
	source string
	graph  *domain.Graph
	err    error
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dataset>...",
		Short: "Load topology documents and report problems",
		Long: "Fetch, decode and validate each dataset the way the viewer would.\n" +
			"Datasets are catalogue labels or source references.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			ld := loader.New(loader.Options{
				BaseDir: cfg.DatasetDir,
				Timeout: cfg.Fetch.Timeout.Duration(),
			})

			results := make([]validation, len(args))
			var mu sync.Mutex

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(4)
			for i, arg := range args {
				source := cfg.ResolveDataset(arg)
				g.Go(func() error {
					graph, err := ld.Load(ctx, source)
					mu.Lock()
					results[i] = validation{source: source, graph: graph, err: err}
					mu.Unlock()
					return nil
				})
			}
			_ = g.Wait()

			return report(results)
		},
	}
}

func report(results []validation) error {
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Printf("  %s %s\n", bad.Sprint("✗"), r.source)
			fmt.Printf("    %s\n", bad.Sprint(r.err))
			continue
		}

		counts := make(map[domain.NodeType]int)
		for _, n := range r.graph.Nodes {
			counts[n.Type]++
		}
		fmt.Printf("  %s %s %s\n", good.Sprint("✓"), r.source,
			subtle.Sprintf("(%d nodes, %d links: %d switches, %d HCAs, %d routers, %d unknown)",
				len(r.graph.Nodes), len(r.graph.Links),
				counts[domain.NodeTypeSwitch], counts[domain.NodeTypeHCA],
				counts[domain.NodeTypeRouter], counts[domain.NodeTypeUnknown]))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d datasets failed validation", failed, len(results))
	}
	return nil
}
