package cli

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

// previewOpts holds the command-line flags for the preview command.
type previewOpts struct {
	addr string
}

var previewPage = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html>
<head>
<title>{{.Name}}</title>
<style>
body { margin: 0; background: #1e1e1e; display: flex; justify-content: center; }
img { max-width: 100vw; max-height: 100vh; background: white; }
</style>
</head>
<body>
<img src="/map.svg" alt="{{.Name}}">
</body>
</html>
`))

// previewCommand creates the preview command, which serves a rendered
// document over HTTP for inspection in a browser.
func (c *CLI) previewCommand() *cobra.Command {
	opts := previewOpts{addr: "127.0.0.1:8473"}

	cmd := &cobra.Command{
		Use:   "preview <out.svg>",
		Short: "Serve a rendered document in the browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPreview(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, input string, opts *previewOpts) error {
	logger := loggerFromContext(ctx)

	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("stat %s: %w", input, err)
	}
	name := filepath.Base(input)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = previewPage.Execute(w, struct{ Name string }{Name: name})
	})
	r.Get("/map.svg", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		http.ServeFile(w, req, input)
	})

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	printInfo("Serving %s at http://%s", name, opts.addr)
	printDetail("Press Ctrl+C to stop")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", "err", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
