// Command hostspin pins domains to their fastest reachable IP in the
// system hosts file.
package main

import (
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"

	"example.com/hostspin/internal/config"
	"example.com/hostspin/internal/domain"
)

var version = "dev"

type globalFlags struct {
	configPath string
	verbose    bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.WithError(err).Error("hostspin")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "hostspin",
		Short:         "Pin domains to their fastest reachable IP in the hosts file",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetHandler(cli.Default)
			if g.verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable verbose log output")

	root.AddCommand(runCommand(g), serveCommand(g), restoreCommand(), versionCommand())
	return root
}

// loadConfig reads the configuration named by --config. Without one the
// defaults apply.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.configPath, false)
	if err != nil {
		return nil, err
	}
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil && !g.verbose {
		log.SetLevel(lvl)
	}
	return cfg, nil
}

// cycleFlags are the per-run overrides of the configuration.
type cycleFlags struct {
	source      string
	hosts       string
	match       string
	dryRun      bool
	backup      bool
	domainsFile string
}

func (f *cycleFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.source, "source", "", "URL or path of the candidate list")
	flags.StringVar(&f.hosts, "hosts", "", "Hosts file to update")
	flags.StringVar(&f.match, "match", "", "Line removal rule: substring or hostname")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Compute the new hosts file without writing it")
	flags.BoolVar(&f.backup, "backup", false, "Save a timestamped backup before writing")
	flags.StringVar(&f.domainsFile, "domains-file", "", "Only handle the domains listed in this file")
}

func (f *cycleFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if f.source != "" {
		cfg.SourceURL = f.source
	}
	if f.hosts != "" {
		cfg.HostsPath = f.hosts
	}
	if f.match != "" {
		cfg.Match = f.match
	}
	if cmd.Flags().Changed("backup") {
		cfg.Backup = f.backup
	}
	if f.domainsFile != "" {
		ds, err := domain.ReadDomainsFromFile(f.domainsFile)
		if err != nil {
			return err
		}
		cfg.Domains = append(cfg.Domains, ds...)
	}
	return cfg.Validate()
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("hostspin", version)
		},
	}
}
