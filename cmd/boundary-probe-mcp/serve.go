package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/ProbeWorks/boundary-probe-mcp/internal/pipeline"
	"github.com/ProbeWorks/boundary-probe-mcp/internal/selfupdate"
	"github.com/ProbeWorks/boundary-probe-mcp/internal/tools"
	"github.com/ProbeWorks/boundary-probe-mcp/internal/watcher"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// runServe is the default mode: MCP over stdio with the poll watcher keeping
// indexed projects fresh in the background.
func runServe() int {
	cfg := loadConfig()

	router, err := openRouter(cfg)
	if err != nil {
		log.Fatalf("store open err=%v", err)
	}

	srv := tools.NewServer(router, tools.Options{
		Seed:       cfg.Seed,
		HarnessDir: cfg.HarnessDir,
		Ignore:     cfg.Ignore,
		Version:    version,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The watcher shares the index lock with the index_project tool so a
	// poll-triggered reindex never interleaves with a requested one.
	indexFn := func(ctx context.Context, projectName, rootPath string) error {
		st, err := router.ForProject(projectName)
		if err != nil {
			return err
		}
		mu := srv.IndexLock()
		mu.Lock()
		defer mu.Unlock()

		p := pipeline.New(ctx, st, rootPath)
		p.ProjectName = projectName
		p.Seed = cfg.Seed
		p.Ignore = cfg.Ignore
		_, err = p.Run()
		return err
	}
	go watcher.New(router, indexFn, cfg.Ignore).Run(ctx)

	go func() {
		if version == "dev" {
			return
		}
		if notice, ok := selfupdate.UpdateNotice(ctx, version); ok {
			slog.Warn("update.available", "notice", notice)
		}
	}()

	runErr := srv.MCPServer().Run(ctx, &mcp.StdioTransport{})
	cancel()
	router.CloseAll()
	if runErr != nil {
		log.Fatalf("server err=%v", runErr)
	}
	return 0
}
