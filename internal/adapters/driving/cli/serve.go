package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agencyctl/internal/assets"
	"agencyctl/internal/devstub"

	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local development backend",
		Long:  "Starts a stub of the CMS REST API on SERVER_ADDR, backed by a JSON file under DATA_DIR, so the admin commands can be exercised without the real backend.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(assets.BannerString)
			log.Printf("Starting development backend...")

			repo, err := devstub.NewRepository(a.cfg.DataDir)
			if err != nil {
				return fmt.Errorf("could not create repository: %w", err)
			}

			if seed {
				log.Println("INFO: Seeding demo content.")
				if err := repo.Seed(devstub.DemoSeeds()); err != nil {
					return fmt.Errorf("could not seed demo content: %w", err)
				}
			}

			handler := devstub.NewHandler(repo, a.reg, devstub.Credentials{}, a.cfg.UploadDir)

			appCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			setupSignalHandler(cancel)

			if err := runServer(appCtx, a.cfg.ServerAddr, handler.SetupRoutes()); err != nil {
				return err
			}

			log.Println("Server exiting gracefully...")
			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "seed demo content into empty resources")
	return cmd
}

// setupSignalHandler configures a listener for OS signals to trigger a graceful shutdown.
func setupSignalHandler(cancelFunc context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutdown signal received...")
		cancelFunc()
	}()
}

func runServer(appCtx context.Context, addr string, routes http.Handler) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      routes,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("ERROR: Server listen error: %v", err)
		}
	}()

	<-appCtx.Done()
	log.Println("Context cancelled, initiating server shutdown.")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %v", err)
	}

	return nil
}
