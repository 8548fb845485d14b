// Package cli implements the command-line interface for dicomsync.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lstvlab/dicomsync/internal/config"
	"github.com/lstvlab/dicomsync/internal/gcp"
	"github.com/lstvlab/dicomsync/internal/services"
	"github.com/spf13/cobra"
)

var configPath string

// cmdContext holds the constructed clients shared by the commands.
type cmdContext struct {
	Config  *config.Config
	Store   services.ObjectStore
	Catalog services.Catalog

	close func() error
}

// Close releases resources held by cmdContext.
func (c *cmdContext) Close() {
	if c.close != nil {
		_ = c.close()
	}
}

// initContext loads the configuration and connects both clients.
func initContext(ctx context.Context) *cmdContext {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitError("%v", err)
	}

	store, err := gcp.NewBucketStore(ctx, cfg.Bucket, cfg.CredentialsFile)
	if err != nil {
		exitError("failed to connect to storage: %v", err)
	}
	catalog, err := gcp.NewFirestoreCatalog(ctx, cfg.ProjectID, cfg.Collection, cfg.CredentialsFile)
	if err != nil {
		exitError("failed to connect to the catalog: %v", err)
	}

	return &cmdContext{Config: cfg, Store: store, Catalog: catalog, close: catalog.Close}
}

var rootCmd = &cobra.Command{
	Use:   "dicomsync",
	Short: "DICOM upload and catalog reconciliation",
	Long: `dicomsync uploads study/series/instance DICOM trees into object storage
and keeps the per-study metadata catalog consistent with what is actually
stored. The sync command previews and applies catalog repairs, ingest
performs idempotent batch uploads, and cleanup deletes catalog entries
interactively.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the config file (default "+config.DefaultFile+")")
}

// exitError prints an error message and exits with status 1.
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// confirm asks the operator a yes/no question on stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s (yes/no): ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(strings.ToLower(line)) == "yes"
}
