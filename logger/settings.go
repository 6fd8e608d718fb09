package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/voltlog/pkg/device"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createAcquisitionTab(state),
		createWaveformTab(state),
		createLogTab(state),
		createRemoteTab(state),
		createPlotTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// saveConfig writes the configuration and reports failures in a dialog.
func saveConfig(state *appState) bool {
	if err := state.cfg.Validate(); err != nil {
		dialog.ShowError(err, state.window)
		return false
	}
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
		return false
	}
	return true
}

// restartIfRunning applies changed settings to a running acquisition.
func restartIfRunning(state *appState) {
	if !state.isRunning() {
		return
	}
	stopRun(state)
	startRun(state)
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := device.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	autodetectCheck := widget.NewCheck("Always autodetect", nil)
	autodetectCheck.SetChecked(state.cfg.Serial.Autodetect)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect, HintText: "Empty autodetects the board"},
			{Text: "Baud Rate", Widget: baudEntry},
			{Text: "", Widget: autodetectCheck},
		},
		OnSubmit: func() {
			old := state.cfg.Serial

			if portSelect.Selected != "" {
				selectedPort := portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected // Fallback to selected text
				}
				state.cfg.Serial.Port = selectedPort
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil {
				state.cfg.Serial.BaudRate = baud
			}
			state.cfg.Serial.Autodetect = autodetectCheck.Checked

			if !saveConfig(state) {
				state.cfg.Serial = old
				return
			}
			if state.cfg.Serial != old {
				restartIfRunning(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createAcquisitionTab creates the Acquisition configuration tab.
func createAcquisitionTab(state *appState) *container.TabItem {
	pollEntry := widget.NewEntry()
	pollEntry.SetText(state.cfg.Acquisition.PollInterval.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Poll Interval", Widget: pollEntry, HintText: "Wait between polls when no line is ready"},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(pollEntry.Text); err == nil && d > 0 {
				state.cfg.Acquisition.PollInterval = d
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Acquisition", form)
}

// createWaveformTab creates the Waveform configuration tab.
func createWaveformTab(state *appState) *container.TabItem {
	fileEntry := widget.NewEntry()
	fileEntry.SetText(state.cfg.Waveform.File)
	fileEntry.SetPlaceHolder("Empty disables mixing")

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Waveform File", Widget: fileEntry, HintText: "Applies to the next run"},
		},
		OnSubmit: func() {
			state.cfg.Waveform.File = fileEntry.Text
			saveConfig(state)
		},
	}

	return container.NewTabItem("Waveform", form)
}

// createLogTab creates the Logging configuration tab.
func createLogTab(state *appState) *container.TabItem {
	fileEntry := widget.NewEntry()
	fileEntry.SetText(state.cfg.Log.File)

	sqliteEntry := widget.NewEntry()
	sqliteEntry.SetText(state.cfg.Log.SQLite)
	sqliteEntry.SetPlaceHolder("Empty disables")

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "CSV File", Widget: fileEntry, HintText: "Truncated when a run starts"},
			{Text: "SQLite Database", Widget: sqliteEntry},
		},
		OnSubmit: func() {
			if fileEntry.Text != "" {
				state.cfg.Log.File = fileEntry.Text
			}
			state.cfg.Log.SQLite = sqliteEntry.Text
			saveConfig(state)
		},
	}

	return container.NewTabItem("Logging", form)
}

// createRemoteTab creates the Remote log configuration tab.
func createRemoteTab(state *appState) *container.TabItem {
	enabledCheck := widget.NewCheck("Mirror samples to the remote database", nil)
	enabledCheck.SetChecked(state.cfg.Remote.Enabled)

	urlEntry := widget.NewEntry()
	urlEntry.SetText(state.cfg.Remote.DatabaseURL)

	pathEntry := widget.NewEntry()
	pathEntry.SetText(state.cfg.Remote.Path)
	pathEntry.SetPlaceHolder(state.cfg.RemotePath())

	credentialsEntry := widget.NewEntry()
	credentialsEntry.SetText(state.cfg.Remote.CredentialsFile)

	queueEntry := widget.NewEntry()
	queueEntry.SetText(strconv.Itoa(state.cfg.Remote.QueueSize))

	retriesEntry := widget.NewEntry()
	retriesEntry.SetText(strconv.Itoa(state.cfg.Remote.Retries))

	timeoutEntry := widget.NewEntry()
	timeoutEntry.SetText(state.cfg.Remote.Timeout.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "", Widget: enabledCheck},
			{Text: "Database URL", Widget: urlEntry},
			{Text: "Path", Widget: pathEntry},
			{Text: "Credentials File", Widget: credentialsEntry, HintText: "Overridden by $" + state.cfg.Remote.CredentialsEnv},
			{Text: "Queue Size (0=synchronous)", Widget: queueEntry},
			{Text: "Retries", Widget: retriesEntry},
			{Text: "Timeout", Widget: timeoutEntry},
		},
		OnSubmit: func() {
			old := state.cfg.Remote

			state.cfg.Remote.Enabled = enabledCheck.Checked
			state.cfg.Remote.DatabaseURL = urlEntry.Text
			state.cfg.Remote.Path = pathEntry.Text
			if credentialsEntry.Text != "" {
				state.cfg.Remote.CredentialsFile = credentialsEntry.Text
			}
			if n, err := strconv.Atoi(queueEntry.Text); err == nil {
				state.cfg.Remote.QueueSize = n
			}
			if n, err := strconv.Atoi(retriesEntry.Text); err == nil {
				state.cfg.Remote.Retries = n
			}
			if d, err := time.ParseDuration(timeoutEntry.Text); err == nil {
				state.cfg.Remote.Timeout = d
			}

			if !saveConfig(state) {
				state.cfg.Remote = old
			}
		},
	}

	return container.NewTabItem("Remote", form)
}

// createPlotTab creates the Plot configuration tab.
func createPlotTab(state *appState) *container.TabItem {
	windowEntry := widget.NewEntry()
	windowEntry.SetText(strconv.FormatFloat(state.cfg.Plot.WindowSeconds, 'f', 1, 64))

	maxPointsEntry := widget.NewEntry()
	maxPointsEntry.SetText(strconv.Itoa(state.cfg.Plot.MaxPoints))

	fileEntry := widget.NewEntry()
	fileEntry.SetText(state.cfg.Plot.File)
	fileEntry.SetPlaceHolder("Empty disables")

	refreshEntry := widget.NewEntry()
	refreshEntry.SetText(state.cfg.Plot.RefreshInterval.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window (seconds)", Widget: windowEntry},
			{Text: "Max Points", Widget: maxPointsEntry},
			{Text: "PNG File", Widget: fileEntry},
			{Text: "PNG Refresh", Widget: refreshEntry},
		},
		OnSubmit: func() {
			if ws, err := strconv.ParseFloat(windowEntry.Text, 64); err == nil && ws > 0 {
				state.cfg.Plot.WindowSeconds = ws
			}
			if n, err := strconv.Atoi(maxPointsEntry.Text); err == nil && n > 0 {
				state.cfg.Plot.MaxPoints = n
			}
			state.cfg.Plot.File = fileEntry.Text
			if d, err := time.ParseDuration(refreshEntry.Text); err == nil {
				state.cfg.Plot.RefreshInterval = d
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Plot", form)
}

// createMockTab creates the Mock device configuration tab.
func createMockTab(state *appState) *container.TabItem {
	offsetEntry := widget.NewEntry()
	offsetEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.Offset))

	amplitudeEntry := widget.NewEntry()
	amplitudeEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.Amplitude))

	frequencyEntry := widget.NewEntry()
	frequencyEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.Frequency))

	noiseLevelEntry := widget.NewEntry()
	noiseLevelEntry.SetText(fmt.Sprintf("%.6f", state.cfg.Mock.NoiseLevel))

	sampleRateEntry := widget.NewEntry()
	sampleRateEntry.SetText(state.cfg.Mock.SampleRate.String())

	garbageEntry := widget.NewEntry()
	garbageEntry.SetText(strconv.Itoa(state.cfg.Mock.GarbageEvery))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Offset (V)", Widget: offsetEntry},
			{Text: "Amplitude (V)", Widget: amplitudeEntry},
			{Text: "Frequency (Hz)", Widget: frequencyEntry},
			{Text: "Noise Level (V)", Widget: noiseLevelEntry},
			{Text: "Sample Rate", Widget: sampleRateEntry},
			{Text: "Garbage Every (0=never)", Widget: garbageEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(offsetEntry.Text, 64); err == nil {
				state.cfg.Mock.Offset = v
			}
			if v, err := strconv.ParseFloat(amplitudeEntry.Text, 64); err == nil {
				state.cfg.Mock.Amplitude = v
			}
			if v, err := strconv.ParseFloat(frequencyEntry.Text, 64); err == nil {
				state.cfg.Mock.Frequency = v
			}
			if v, err := strconv.ParseFloat(noiseLevelEntry.Text, 64); err == nil {
				state.cfg.Mock.NoiseLevel = v
			}
			if d, err := time.ParseDuration(sampleRateEntry.Text); err == nil && d > 0 {
				state.cfg.Mock.SampleRate = d
			}
			if n, err := strconv.Atoi(garbageEntry.Text); err == nil && n >= 0 {
				state.cfg.Mock.GarbageEvery = n
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Mock", form)
}
