// Package cli provides the askdocs command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
)

// Services used by the commands. Set by the composition root or by tests.
var (
	chatService     driving.ChatService
	ingestService   driving.IngestService
	documentService driving.DocumentService
	settingsService driving.SettingsService
	closeServices   func() error
)

// noServices marks commands that run without the composition root.
const noServices = "askdocs.no-services"

// Options carries the global flags into the composition root.
type Options struct {
	ConfigDir string
	Verbose   bool
}

// Services holds the driving ports the commands call.
type Services struct {
	Chat      driving.ChatService
	Ingest    driving.IngestService
	Documents driving.DocumentService
	Settings  driving.SettingsService

	// Close releases adapters held by the services. Optional.
	Close func() error
}

// Bootstrap builds the services once global flags are parsed.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var bootstrap Bootstrap

// SetBootstrap registers the composition root.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs services directly, bypassing the bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	chatService = s.Chat
	ingestService = s.Ingest
	documentService = s.Documents
	settingsService = s.Settings
	closeServices = s.Close
}

var rootCmd = &cobra.Command{
	Use:   "askdocs",
	Short: "Ask questions about your documents",
	Long: `askdocs indexes the documents in a Google Drive folder (or a local
directory) and answers questions about them with citations.

Get started:
  askdocs settings set source.folder_id <folder-id>
  askdocs index all
  askdocs chat`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print pipeline steps and timings")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default ~/.askdocs)")
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap == nil || !needsServices(cmd) {
		return nil
	}

	svc, err := bootstrap(cmd.Context(), Options{ConfigDir: configDir, Verbose: verbose})
	if err != nil {
		return err
	}
	SetServices(svc)
	return nil
}

func teardown() error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

func needsServices(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[noServices]; ok {
			return false
		}
	}
	return cmd.Name() != "help" && cmd.Name() != "completion"
}

// Execute runs the root command and prints a classified error on failure.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		//nolint:errcheck // already failing
		teardown()
		printError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

func printError(w io.Writer, err error) {
	c := domain.Classify(err)
	fmt.Fprintf(w, "Error: %s\n", c.Message)
	if c.Remediation != "" {
		fmt.Fprintf(w, "  %s\n", c.Remediation)
	}
}

// errNotConfigured reports a command run without its service.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
