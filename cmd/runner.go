package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/castctl/castctl/internal/api"
	"github.com/castctl/castctl/internal/catalog"
	"github.com/castctl/castctl/internal/repositories"
	"github.com/castctl/castctl/internal/session"
	"github.com/castctl/castctl/internal/shared"
	"github.com/castctl/castctl/internal/uploads"
	"github.com/charmbracelet/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	api      *api.Client
	session  *session.Manager
	catalog  *catalog.Client
	pipeline *uploads.Pipeline
	db       *sql.DB
	cache    *repositories.EpisodeCacheRepository
	logger   *log.Logger
	output   io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	API      *api.Client
	Session  *session.Manager
	Catalog  *catalog.Client
	Pipeline *uploads.Pipeline
	DB       *sql.DB
	Cache    *repositories.EpisodeCacheRepository
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:   opts.Config,
		api:      opts.API,
		session:  opts.Session,
		catalog:  opts.Catalog,
		pipeline: opts.Pipeline,
		db:       opts.DB,
		cache:    opts.Cache,
		logger:   opts.Logger,
		output:   opts.Output,
	}
}

// SetLogger swaps the runner's logger, e.g. to redirect logs to a file while
// the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, albumsCommand, episodesCommand, uploadCommand, playCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireAuth guards actions that talk to admin endpoints.
func (r *Runner) requireAuth() error {
	if r.session == nil || !r.session.IsAuthenticated() {
		return fmt.Errorf("%w: run 'castctl auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// newTable returns a table writer targeting the runner's output.
func (r *Runner) newTable(headers ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.output)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(headers)
	return t
}
