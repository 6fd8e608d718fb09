package main

import (
	"context"
	"fmt"
	"log"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/voltlog/pkg/config"
	"github.com/itohio/voltlog/pkg/metrics"
	"github.com/itohio/voltlog/pkg/sample"
	"github.com/itohio/voltlog/pkg/scope"
	"github.com/itohio/voltlog/pkg/sink"
)

// activeRun tracks a running session for disconnect.
type activeRun struct {
	session *session
	cancel  context.CancelFunc
	done    chan struct{} // Closed when the run goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg        *config.Config
	configPath string
	mode       sourceMode
	metrics    *metrics.Metrics

	window      fyne.Window
	scopeWidget *scope.ScopeWidget
	plotter     *scope.Plotter
	connectBtn  *widget.Button
	status      *widget.Label

	mu  sync.Mutex
	run *activeRun // Current run (nil if not connected)
}

func runGUI(cfg *config.Config, configPath string, mode sourceMode, m *metrics.Metrics) {
	application := app.NewWithID("com.itohio.voltlog")

	window := application.NewWindow("Voltage Logger")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: configPath,
		mode:       mode,
		metrics:    m,
		window:     window,
	}

	state.scopeWidget = scope.New(&cfg.Plot)
	state.plotter = scope.NewPlotter(state.scopeWidget, scope.DefaultUpdateInterval)

	toolbar := createToolbar(state)

	content := container.NewBorder(
		toolbar,
		nil,
		nil,
		nil,
		state.scopeWidget,
	)
	window.SetContent(content)

	ctx, cancel := context.WithCancel(context.Background())
	startStatusServer(ctx, cfg.Metrics.Address, m, state.currentSource)

	window.SetOnClosed(func() {
		stopRun(state)
		cancel()
	})
	window.ShowAndRun()
}

// createToolbar creates the application toolbar with Connect and Settings
// buttons and a status line.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	state.status = widget.NewLabel("Disconnected")

	buttons := container.NewHBox(connectBtn, settingsBtn)
	return container.NewBorder(nil, nil, buttons, nil, state.status)
}

// currentSource returns the running pipeline for the status server.
func (s *appState) currentSource() metrics.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return nil
	}
	return s.run.session.pipeline
}

func (s *appState) setRun(run *activeRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run = run
}

// takeRun clears the current run and returns it.
func (s *appState) takeRun() *activeRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := s.run
	s.run = nil
	return run
}

func (s *appState) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.isRunning() {
		stopRun(state)
		return
	}
	startRun(state)
}

// startRun creates a session and runs its pipeline in a goroutine. Must be
// called on the main thread.
func startRun(state *appState) {
	ctx, cancel := context.WithCancel(context.Background())

	sess, err := newSession(ctx, state.cfg, sessionOptions{
		mode:     state.mode,
		metrics:  state.metrics,
		plotters: []sink.Plotter{state.plotter},
	})
	if err != nil {
		cancel()
		dialog.ShowError(fmt.Errorf("failed to start logging: %w", err), state.window)
		return
	}

	sess.pipeline.OnUpdate(func(history []sample.Sample) {
		if len(history) == 1 {
			fyne.Do(func() {
				state.status.SetText("Acquiring, logging to " + state.cfg.Log.File)
			})
		}
	})
	sess.pipeline.OnWarning(func(err error) {
		fyne.Do(func() {
			state.status.SetText("Warning: " + err.Error())
		})
	})

	run := &activeRun{
		session: sess,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	state.setRun(run)

	state.scopeWidget.Clear()
	state.connectBtn.SetIcon(theme.LogoutIcon())
	state.status.SetText("Connecting...")

	go func() {
		defer close(run.done)
		defer cancel()

		runErr := sess.Run(ctx)
		if err := sess.Close(); err != nil {
			log.Printf("warning: failed to close sinks: %v", err)
		}
		// Keep the final state of the run on screen
		state.plotter.Flush()

		samples := len(sess.pipeline.History())
		fyne.Do(func() {
			state.mu.Lock()
			replaced := state.run != nil && state.run != run
			if state.run == run {
				state.run = nil
			}
			state.mu.Unlock()
			if replaced {
				// A restarted run owns the toolbar now
				return
			}

			state.connectBtn.SetIcon(theme.LoginIcon())
			if runErr != nil {
				state.status.SetText("Stopped: " + runErr.Error())
				dialog.ShowError(runErr, state.window)
				return
			}
			state.status.SetText(fmt.Sprintf("Stopped, %d samples saved to %s", samples, state.cfg.Log.File))
		})
	}()
}

// stopRun cancels the current run and waits for its sinks to close.
func stopRun(state *appState) {
	run := state.takeRun()
	if run == nil {
		return
	}
	run.cancel()
	<-run.done
	log.Printf("Disconnected")
}
