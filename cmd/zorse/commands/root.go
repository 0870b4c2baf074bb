package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/zorse-project/zorse/internal/app"
	"github.com/zorse-project/zorse/pkg/config"
	"github.com/zorse-project/zorse/pkg/logging"
	"github.com/zorse-project/zorse/pkg/telemetry"
	"github.com/zorse-project/zorse/pkg/version"
)

var (
	cfgFile string
	verbose bool

	// Populated by PersistentPreRunE.
	cfg      config.Config
	logger   *slog.Logger
	shutdown func(context.Context) error
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF99")).MarginBottom(1)
	flagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF99"))
)

var rootCmd = &cobra.Command{
	Use:   "zorse",
	Short: "Mainframe source corpus builder",
	Long: `zorse - Mainframe Source Corpus Builder

Collects JCL, PL/I, HLASM, BMS, COBOL, REXX and RPGLE files, filters them
by size and token count, classifies their licenses and publishes the result
as a dataset.`,
	Version:       version.Current,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdown != nil {
			return shutdown(cmd.Context())
		}
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default $HOME/.zorse.yaml)")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "json", "Log format: json or text")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log every AWS API call")
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", pf.Lookup("log-format"))

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd)
	})

	rootCmd.AddCommand(buildCmd, publishCmd, languagesCmd)
}

func initConfig() {
	// A .env file in the working directory is optional.
	_ = godotenv.Load()

	config.SetDefaults(viper.GetViper())
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.SetConfigFile(filepath.Join(home, ".zorse.yaml"))
			viper.SetConfigType("yaml")
		}
	}
	_ = config.BindEnv(viper.GetViper())
}

func setup(ctx context.Context) error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	loaded, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	cfg = loaded

	logger, err = logging.New(os.Stderr, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if !cfg.Telemetry.Disabled {
		shutdown, err = telemetry.Init(ctx, telemetry.Options{
			ServiceName:    version.AppName,
			ServiceVersion: version.Current,
			Endpoint:       cfg.Telemetry.Endpoint,
		})
		if err != nil {
			logger.Warn("telemetry disabled", "error", err)
			shutdown = nil
		}
	}
	return nil
}

func newApp(l *slog.Logger) *app.App {
	a := app.New(cfg, l)
	a.Verbose = verbose
	return a
}

func renderHelp(cmd *cobra.Command) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("ZORSE %s", version.Current)))
	if cmd.Long != "" {
		fmt.Println(cmd.Long)
	} else {
		fmt.Println(cmd.Short)
	}
	fmt.Println()

	fmt.Println(titleStyle.Render("USAGE"))
	fmt.Printf("  %s\n\n", cmd.UseLine())

	if cmd.HasAvailableSubCommands() {
		fmt.Println(titleStyle.Render("COMMANDS"))
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() {
				fmt.Printf("  %-12s %s\n", c.Name(), c.Short)
			}
		}
		fmt.Println()
	}

	if cmd.Example != "" {
		fmt.Println(titleStyle.Render("EXAMPLES"))
		fmt.Println(cmd.Example)
		fmt.Println()
	}

	fmt.Println(titleStyle.Render("FLAGS"))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-18s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "[]" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Println(flagStyle.Render(output))
	})
	fmt.Println()
}
