package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/andresmejia3/facemask/internal/proxy"
	"github.com/andresmejia3/facemask/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the detection proxy",
	Long:  "Serves POST /detection-proxy, forwarding uploads to FACE_API_URL with FACE_API_KEY attached.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default :8080, env: PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		utils.ShowError("Failed to load configuration", err)
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	pcfg := cfg.Proxy()
	if !pcfg.Complete() {
		log.Printf("[proxy] FACE_API_URL or FACE_API_KEY missing; requests will be rejected")
	}

	var rec proxy.Recorder
	if cfg.AuditDB != "" {
		if err := openStore(ctx, cfg); err != nil {
			utils.ShowError("Audit database unavailable", err)
			return err
		}
		rec = DB
	}

	srv := proxy.NewServer(cfg.Addr, proxy.New(pcfg, rec), pcfg.Timeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("🚀 Detection proxy listening on %s (timeout %v)", cfg.Addr, pcfg.Timeout)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// The parent context is already cancelled; give in-flight requests their own budget.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), pcfg.Timeout+5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		utils.ShowError("Server stopped", err)
		return err
	}
	log.Printf("Server stopped")
	return nil
}
