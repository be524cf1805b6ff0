package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jtorresq/pericias-console/internal/bus"
	"github.com/jtorresq/pericias-console/internal/gate"
	"github.com/jtorresq/pericias-console/internal/nav"
	"github.com/jtorresq/pericias-console/internal/source"
	"github.com/jtorresq/pericias-console/internal/store"
	"github.com/jtorresq/pericias-console/internal/ui"
)

var (
	noTUI    bool
	forceTUI bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the terminal viewer",
	Long: `Start the Pericias Console viewer which includes:

1. Terminal User Interface (TUI) with case list and detail views
2. Live index loading from the configured data source
3. Optional data directory watching for automatic reloads
4. Passphrase-gated export of the official matrix workbook

The serve command runs until quit (q) or interrupted (Ctrl+C).

Examples:
  # Start with TUI (default)
  pericias-console serve

  # Start without TUI (prints the index and exits)
  pericias-console serve --no-tui

  # Watch a local data directory for changes
  pericias-console serve --watch-dir ./data`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Run without the TUI: print the case index and exit")
	serveCmd.Flags().BoolVar(&forceTUI, "force-tui", false, "Force TUI mode even in unsupported terminals")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	config := GetConfig()

	// Use file logging for TUI mode to keep the terminal clean.
	var logger *log.Logger
	willUseTUI := determineTUIMode()

	if willUseTUI {
		logFile := setupFileLogger()
		if logFile != nil {
			// File for all logs, stderr for errors only.
			logger = log.New(io.MultiWriter(logFile, &errorFilterWriter{os.Stderr}), "[serve] ", log.LstdFlags)
			defer logFile.Close()
		} else {
			logger = log.New(os.Stderr, "[serve] ", log.LstdFlags)
		}
	} else {
		logger = log.New(os.Stderr, "[serve] ", log.LstdFlags)
	}

	logger.Println("Starting Pericias Console")

	session := config.Session.ID
	if session == "" {
		session = uuid.NewString()
	}
	logger.Printf("Session %s", session)

	// Initialize store
	logger.Println("Initializing database...")
	baseDir := getWorkingDir()
	resolvedDBPath := resolvePathRelativeToBase(baseDir, config.Database.Path)
	logger.Printf("Using database at %s", resolvedDBPath)
	st, err := store.NewStore(resolvedDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	// Initialize bus (Redis or Null)
	var busLogger *log.Logger = logger
	if willUseTUI {
		// Silence bus logs while the TUI is active
		busLogger = log.New(io.Discard, "", 0)
	}
	activityBus := bus.NewBus(config.Redis.URL, busLogger)
	defer activityBus.Close()

	// Data source client
	client := source.NewClient(source.Options{
		BaseURL: config.Data.URL,
		Logger:  logger,
	})

	if noTUI {
		return printIndex(ctx, client, cmd.OutOrStdout())
	}

	// Gate controller, restored from any prior unlock in this session.
	gateCtl := gate.NewController(gate.Options{
		DigestHex: config.Gate.Digest,
		SessionID: session,
		Store:     st,
		Bus:       activityBus,
		Logger:    logger,
	})
	if err := gateCtl.Restore(ctx); err != nil {
		logger.Printf("Warning: could not restore gate state: %v", err)
	}

	// Background monitor for bus health and session stats.
	monCtx, monCancel := context.WithCancel(ctx)
	defer monCancel()
	monitor := &serviceMonitor{
		store:   st,
		bus:     activityBus,
		session: session,
		logger:  logger,
		ctx:     monCtx,
	}
	if willUseTUI {
		monitor.logger = log.New(io.Discard, "", 0)
	}
	monitor.Start()
	defer monitor.Stop()

	// Optional watcher over a local data directory.
	var refresh <-chan struct{}
	if config.Data.WatchDir != "" {
		watcher := source.NewWatcher(source.WatchOptions{
			Dir:    resolvePathRelativeToBase(baseDir, config.Data.WatchDir),
			Logger: logger,
		})
		refresh = watcher.Refresh()
		go func() {
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Printf("Watcher error: %v", err)
			}
		}()
	}

	logger.Println("Starting TUI...")
	logger.Printf("Terminal info: %s", getTerminalInfo())

	if !forceTUI && !canInitializeTUI() {
		if needsPseudoTTY() {
			logger.Println("No TTY available, using script command for pseudo-TTY...")
			return runWithPseudoTTY(args)
		}
		logger.Println("TUI cannot be initialized in this terminal environment")
		logger.Println("Falling back to printing the index (same as --no-tui)")
		return printIndex(ctx, client, cmd.OutOrStdout())
	}

	uiLogger := setupUILogger(logger)

	viewer := ui.NewUI(ctx, ui.Options{
		Source:       client,
		Nav:          nav.NewController(),
		Gate:         gateCtl,
		Store:        st,
		Bus:          activityBus,
		SessionID:    session,
		ArtifactPath: resolvePathRelativeToBase(baseDir, config.Export.Artifact),
		DownloadDir:  resolvePathRelativeToBase(baseDir, config.Export.Dir),
		Refresh:      refresh,
		Logger:       uiLogger,
	})

	if err := viewer.Start(ctx); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Println("Pericias Console stopped")
	return nil
}

// printIndex loads the index once and writes it as plain text. Used by
// --no-tui and as the fallback when no TUI can be initialized.
func printIndex(ctx context.Context, client *source.Client, out io.Writer) error {
	index, err := client.LoadIndex(ctx)
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}

	fmt.Fprintf(out, "Found %d cases:\n\n", len(index))
	for i, c := range index {
		fmt.Fprintf(out, "%d. %s [%s]\n", i+1, c.Caso, c.EstadoGeneral)
		fmt.Fprintf(out, "   Tipo: %s\n", c.Tipo)
		fmt.Fprintf(out, "   Fecha hecho: %s\n", c.FechaHecho)
		fmt.Fprintf(out, "   Pericias: %d\n", c.TotalPericias)
		if c.UltimaActualizacion != "" {
			fmt.Fprintf(out, "   Actualizado: %s\n", c.UltimaActualizacion)
		}
		fmt.Fprintln(out)
	}
	return nil
}

// setupUILogger creates a file-backed logger for the UI so its output never
// corrupts the terminal.
func setupUILogger(fallback *log.Logger) *log.Logger {
	baseDir := getWorkingDir()
	logDir := filepath.Join(baseDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		fallback.Printf("Warning: could not create logs directory: %v", err)
		return log.New(io.Discard, "[UI] ", log.LstdFlags)
	}
	logPath := filepath.Join(logDir, "pericias-console-ui.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fallback.Printf("Warning: could not create UI log file at %s: %v", logPath, err)
		return log.New(io.Discard, "[UI] ", log.LstdFlags)
	}
	return log.New(logFile, "[UI] ", log.LstdFlags)
}

// canInitializeTUI tests if tcell can actually be initialized
func canInitializeTUI() bool {
	screen, err := tcell.NewScreen()
	if err != nil {
		return false
	}

	err = screen.Init()
	if err != nil {
		return false
	}

	// Clean up immediately
	screen.Fini()
	return true
}

// getTerminalInfo returns detailed terminal information
func getTerminalInfo() string {
	var info []string

	term := os.Getenv("TERM")
	if term == "" {
		info = append(info, "TERM=<not set>")
	} else {
		info = append(info, fmt.Sprintf("TERM=%s", term))
	}

	if termProgram := os.Getenv("TERM_PROGRAM"); termProgram != "" {
		info = append(info, fmt.Sprintf("TERM_PROGRAM=%s", termProgram))
	}

	if width, height := getTerminalSize(); width > 0 && height > 0 {
		info = append(info, fmt.Sprintf("Size=%dx%d", width, height))
	}

	if isTerminal() {
		info = append(info, "TTY=yes")
	} else {
		info = append(info, "TTY=no")
	}

	return strings.Join(info, ", ")
}

// getExecutableDir returns the directory of the running executable.
// Falls back to current directory on error.
func getExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// getWorkingDir returns the current working directory.
// Falls back to executable directory if os.Getwd fails.
func getWorkingDir() string {
	if wd, err := os.Getwd(); err == nil && wd != "" {
		return wd
	}
	return getExecutableDir()
}

// resolvePathRelativeToBase resolves a possibly relative path against a base directory.
// Absolute paths are returned unchanged.
func resolvePathRelativeToBase(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	p = strings.TrimPrefix(p, "./")
	return filepath.Join(base, p)
}

// isTerminal checks if stdout is a terminal
func isTerminal() bool {
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// serviceMonitor runs background health checks and periodic session stats.
type serviceMonitor struct {
	store   *store.Store
	bus     bus.Bus
	session string
	logger  *log.Logger
	ctx     context.Context

	wg      sync.WaitGroup
	running bool
}

// Start starts the background monitor goroutines.
func (sm *serviceMonitor) Start() {
	if sm.running {
		return
	}
	sm.running = true

	sm.wg.Add(1)
	go sm.runHealthMonitor()

	sm.wg.Add(1)
	go sm.runStatsCollector()

	sm.logger.Println("Background monitor started")
}

// Stop waits for the monitor goroutines to finish.
func (sm *serviceMonitor) Stop() {
	if !sm.running {
		return
	}
	sm.running = false
	sm.wg.Wait()
	sm.logger.Println("Background monitor stopped")
}

func (sm *serviceMonitor) runHealthMonitor() {
	defer sm.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sm.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(sm.ctx, 10*time.Second)
			if err := sm.bus.HealthCheck(ctx); err != nil {
				sm.logger.Printf("Bus health check failed: %v", err)
			}
			cancel()
		}
	}
}

func (sm *serviceMonitor) runStatsCollector() {
	defer sm.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-sm.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(sm.ctx, 30*time.Second)

			if stats, err := sm.bus.GetStats(ctx); err != nil {
				sm.logger.Printf("Failed to get bus stats: %v", err)
			} else {
				sm.logger.Printf("Bus stats: %+v", stats)
			}

			if entries, err := sm.store.GetActivity(ctx, sm.session, 1000); err != nil {
				sm.logger.Printf("Failed to get activity count: %v", err)
			} else {
				sm.logger.Printf("Session %s: %d activity entries", sm.session, len(entries))
			}

			cancel()
		}
	}
}

// needsPseudoTTY checks if we need to use script command for pseudo-TTY
func needsPseudoTTY() bool {
	// Try to actually open /dev/tty (not just check if it exists)
	if file, err := os.OpenFile("/dev/tty", os.O_RDWR, 0); err == nil {
		file.Close()
		return false
	}
	return true
}

// runWithPseudoTTY re-executes the command using script for pseudo-TTY
func runWithPseudoTTY(args []string) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	cmdArgs := []string{"serve"}
	cmdArgs = append(cmdArgs, args...)

	hasForceTUI := false
	for _, arg := range args {
		if arg == "--force-tui" {
			hasForceTUI = true
			break
		}
	}
	if !hasForceTUI {
		cmdArgs = append(cmdArgs, "--force-tui")
	}

	quotedExecutable := fmt.Sprintf(`"%s"`, executable)
	quotedArgs := make([]string, len(cmdArgs))
	for i, arg := range cmdArgs {
		quotedArgs[i] = fmt.Sprintf(`"%s"`, arg)
	}

	fullCmd := fmt.Sprintf("TERM=%s %s %s",
		os.Getenv("TERM"),
		quotedExecutable,
		strings.Join(quotedArgs, " "))

	scriptCmd := exec.Command("script", "-qec", fullCmd, "/dev/null")
	scriptCmd.Stdin = os.Stdin
	scriptCmd.Stdout = os.Stdout
	scriptCmd.Stderr = os.Stderr
	scriptCmd.Env = os.Environ()

	return scriptCmd.Run()
}

// determineTUIMode determines if TUI will be used (extracted for logging setup)
func determineTUIMode() bool {
	if noTUI {
		return false
	}
	if !forceTUI && !canInitializeTUI() {
		// A pseudo-TTY fallback still means TUI mode
		return needsPseudoTTY()
	}
	return true
}

// setupFileLogger creates a log file for TUI mode
func setupFileLogger() *os.File {
	baseDir := getWorkingDir()
	logDir := filepath.Join(baseDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil
	}

	logPath := filepath.Join(logDir, "pericias-console-serve.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil
	}

	return logFile
}

// errorFilterWriter only writes error messages to the underlying writer
type errorFilterWriter struct {
	writer io.Writer
}

func (w *errorFilterWriter) Write(p []byte) (n int, err error) {
	lc := strings.ToLower(string(p))

	if strings.Contains(lc, "error") ||
		strings.Contains(lc, "failed") ||
		strings.Contains(lc, "panic") {
		return w.writer.Write(p)
	}
	// Suppress non-error logs in TUI mode
	return len(p), nil
}
