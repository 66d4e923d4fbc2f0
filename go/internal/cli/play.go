package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mcdev12/twinflash/go/internal/game/outbox"
	"github.com/mcdev12/twinflash/go/internal/game/session"
	"github.com/mcdev12/twinflash/go/internal/game/terminal"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	Mode    string
	Mute    bool
	LogFile string
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		Long: `Play in the terminal. Press s to start, enter or space when a shape lights up
twice in a row, m to switch mode, x to stop and q to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("create screen: %w", err)
			}
			return runPlay(ctx, rootOpts, opts, screen)
		},
	}

	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "", "initial mode (uniform|cross)")
	cmd.Flags().BoolVar(&opts.Mute, "mute", false, "disable sound")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "write logs here while the screen is in use")
	return cmd
}

// runPlay owns screen: it is initialized here and finalized on return
func runPlay(ctx context.Context, rootOpts *RootOptions, opts *PlayOptions, screen tcell.Screen) error {
	mode := rootOpts.Config.Mode()
	if opts.Mode != "" {
		m, err := session.ParseMode(opts.Mode)
		if err != nil {
			return err
		}
		mode = m
	}

	restore, err := redirectLogs(opts.LogFile)
	if err != nil {
		return err
	}
	defer restore()

	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	var sound terminal.Sound
	if !opts.Mute {
		tones, err := terminal.NewTones()
		if err != nil {
			log.Warn().Err(err).Msg("sound disabled")
		} else {
			defer tones.Close()
			sound = tones
		}
	}

	renderer := terminal.NewRenderer(screen, sound)
	sink := session.Sinks(renderer, outbox.NewSink(nil, outbox.NewLogPublisher(log.Logger)))
	host := session.NewHost(rootOpts.Config.Session(), renderer, sink)
	if err := host.SetMode(mode); err != nil {
		return err
	}

	input := terminal.NewInput(screen, host.Mode)
	host.Bind(ctx, input)

	err = input.Run(ctx, renderer.Redraw)
	if stopErr := host.Stop(context.Background()); stopErr != nil && !errors.Is(stopErr, session.ErrNotRunning) {
		log.Error().Err(stopErr).Msg("stop failed")
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// redirectLogs keeps log lines off the terminal screen
func redirectLogs(path string) (func(), error) {
	prev := log.Logger
	var w io.Writer = io.Discard
	var f *os.File
	if path != "" {
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return func() {
		log.Logger = prev
		if f != nil {
			f.Close()
		}
	}, nil
}
