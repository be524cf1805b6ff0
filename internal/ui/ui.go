// Package ui is the terminal front end: it maps the rendered view models
// onto tview widgets and wires keyboard input to the navigation state.
package ui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/jtorresq/pericias-console/internal/bus"
	"github.com/jtorresq/pericias-console/internal/export"
	"github.com/jtorresq/pericias-console/internal/gate"
	"github.com/jtorresq/pericias-console/internal/nav"
	"github.com/jtorresq/pericias-console/internal/pericias"
	"github.com/jtorresq/pericias-console/internal/source"
	"github.com/jtorresq/pericias-console/internal/store"
	"github.com/jtorresq/pericias-console/internal/view"
)

// estadoFilterLabels are the DropDown entries; index 0 means no filter.
var estadoFilterLabels = []string{"Todos", string(pericias.EstadoNoIniciada), string(pericias.EstadoEnProceso), string(pericias.EstadoRealizada)}

// estadoForOption maps a DropDown index back to the filter value.
func estadoForOption(index int) pericias.Estado {
	if index <= 0 || index >= len(estadoFilterLabels) {
		return ""
	}
	return pericias.Estado(estadoFilterLabels[index])
}

// estadoTag picks the color tag for an estado badge.
func estadoTag(estado string) string {
	switch pericias.Estado(estado) {
	case pericias.EstadoRealizada:
		return "green"
	case pericias.EstadoEnProceso:
		return "yellow"
	default:
		return "red"
	}
}

// Options wires the UI to the rest of the application.
type Options struct {
	Source    *source.Client
	Nav       *nav.Controller
	Gate      *gate.Controller
	Store     *store.Store
	Bus       bus.Bus
	SessionID string
	// ArtifactPath is where the matrix workbook is written before download.
	ArtifactPath string
	// DownloadDir receives the downloaded copy of the artifact.
	DownloadDir string
	// Refresh signals that the data source changed and the index is stale.
	Refresh <-chan struct{}
	Logger  *log.Logger
}

// UI is the tview application around the case list and detail screens.
type UI struct {
	app    *tview.Application
	source *source.Client
	nav    *nav.Controller
	gate   *gate.Controller
	store  *store.Store
	bus    bus.Bus
	logger *log.Logger

	// List screen
	layout      *tview.Flex
	appTitle    *tview.TextView
	searchInput *tview.InputField
	estadoDrop  *tview.DropDown
	cardList    *tview.List
	statusBar   *tview.TextView

	// Detail screen
	detailHeader *tview.TextView
	detailTable  *tview.Table
	detailLayout *tview.Flex

	// State
	index     []pericias.CaseSummary
	visible   view.List
	sessionID string

	artifactPath string
	downloadDir  string
	refresh      <-chan struct{}

	running   bool
	exporting bool
	lastFocus tview.Primitive

	globalInputCapture func(*tcell.EventKey) *tcell.EventKey

	ctx    context.Context
	cancel context.CancelFunc
}

// NewUI creates the terminal user interface.
func NewUI(ctx context.Context, opts Options) *UI {
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[UI] ", log.LstdFlags)
	}

	uiCtx, cancel := context.WithCancel(ctx)

	ui := &UI{
		app:          tview.NewApplication(),
		source:       opts.Source,
		nav:          opts.Nav,
		gate:         opts.Gate,
		store:        opts.Store,
		bus:          opts.Bus,
		logger:       opts.Logger,
		sessionID:    opts.SessionID,
		artifactPath: opts.ArtifactPath,
		downloadDir:  opts.DownloadDir,
		refresh:      opts.Refresh,
		ctx:          uiCtx,
		cancel:       cancel,
	}
	if ui.nav == nil {
		ui.nav = nav.NewController()
	}
	if ui.bus == nil {
		ui.bus = bus.NewNullBus(ui.logger)
	}

	ui.setupLayout()
	ui.setupKeybindings()

	return ui
}

// Start runs the TUI application until quit or context cancellation.
func (ui *UI) Start(ctx context.Context) error {
	ui.logger.Println("Starting TUI application")

	// Show the UI immediately, load the index in the background.
	go ui.loadIndex()

	if ui.refresh != nil {
		go func() {
			for {
				select {
				case <-ui.ctx.Done():
					return
				case _, ok := <-ui.refresh:
					if !ok {
						return
					}
					ui.logger.Println("Data source changed, reloading index")
					ui.loadIndex()
				}
			}
		}()
	}

	go func() {
		select {
		case <-ctx.Done():
			ui.logger.Println("External context cancelled, stopping TUI")
		case <-ui.ctx.Done():
			ui.logger.Println("UI context cancelled, stopping TUI")
		}
		ui.cancel()
		ui.app.Stop()
	}()

	ui.running = true
	err := ui.app.Run()
	ui.running = false
	return err
}

// Stop stops the TUI application.
func (ui *UI) Stop() {
	ui.logger.Println("Stopping TUI application")
	ui.running = false
	ui.cancel()
	ui.app.Stop()
}

// setupLayout creates the list and detail screens.
func (ui *UI) setupLayout() {
	ui.appTitle = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.appTitle.SetText(" [teal]Pericias Console[-]")

	ui.searchInput = tview.NewInputField().
		SetLabel(" Buscar caso: ").
		SetFieldWidth(32)
	ui.searchInput.SetChangedFunc(func(text string) {
		// Filter on every keystroke, like typing in a search box.
		ui.nav.SetTerm(text)
		ui.applyFilter()
	})

	ui.estadoDrop = tview.NewDropDown().
		SetLabel(" Estado: ").
		SetOptions(estadoFilterLabels, func(text string, index int) {
			ui.nav.SetEstado(estadoForOption(index))
			ui.applyFilter()
		})

	filterBar := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.searchInput, 0, 2, true).
		AddItem(ui.estadoDrop, 0, 1, false)

	ui.cardList = tview.NewList()
	ui.cardList.SetTitle(" Casos ")
	ui.cardList.SetBorder(true)
	ui.cardList.SetTitleAlign(tview.AlignLeft)
	ui.cardList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		if index < 0 || index >= len(ui.visible.Cards) {
			return
		}
		ui.openCase(ui.visible.Cards[index].CasoRaw)
	})

	ui.statusBar = tview.NewTextView()
	ui.statusBar.SetDynamicColors(true)
	ui.statusBar.SetText(ui.statusHelpLine())

	ui.layout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.appTitle, 1, 0, false).
		AddItem(filterBar, 1, 0, false).
		AddItem(ui.cardList, 0, 1, true)

	// Select the no-filter option last: the selected callback repaints the
	// card list, which must exist by now.
	ui.estadoDrop.SetCurrentOption(0)

	// Detail screen
	ui.detailHeader = tview.NewTextView()
	ui.detailHeader.SetDynamicColors(true)
	ui.detailHeader.SetTitle(" Caso ")
	ui.detailHeader.SetBorder(true)
	ui.detailHeader.SetTitleAlign(tview.AlignLeft)

	ui.detailTable = tview.NewTable()
	ui.detailTable.SetTitle(" Pericias ")
	ui.detailTable.SetBorder(true)
	ui.detailTable.SetTitleAlign(tview.AlignLeft)
	ui.detailTable.SetSelectable(true, false)
	// Pin the header row so it stays visible while scrolling.
	ui.detailTable.SetFixed(1, 0)

	ui.detailLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.detailHeader, 6, 0, false).
		AddItem(ui.detailTable, 0, 1, true)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.layout, 0, 1, true).
		AddItem(ui.statusBar, 1, 0, false)
	ui.app.SetRoot(root, true)
	ui.app.SetFocus(ui.cardList)
}

// setupKeybindings installs the global key handler.
func (ui *UI) setupKeybindings() {
	ui.globalInputCapture = func(event *tcell.EventKey) *tcell.EventKey {
		// Ctrl+Alt+A opens the gate prompt from anywhere.
		if event.Key() == tcell.KeyCtrlA && event.Modifiers()&tcell.ModAlt != 0 {
			ui.showGatePrompt()
			return nil
		}

		focus := ui.app.GetFocus()
		typing := focus == ui.searchInput || focus == ui.estadoDrop

		switch event.Key() {
		case tcell.KeyCtrlC:
			ui.Stop()
			return nil
		case tcell.KeyEsc:
			if ui.nav.View() == nav.ViewDetail {
				ui.closeDetail()
				return nil
			}
			if typing {
				ui.app.SetFocus(ui.cardList)
				return nil
			}
		case tcell.KeyTab:
			if ui.nav.View() == nav.ViewList {
				ui.cycleFocus()
				return nil
			}
		case tcell.KeyRune:
			if typing {
				return event
			}
			switch event.Rune() {
			case 'q':
				ui.Stop()
				return nil
			case 'r':
				ui.setStatusDirect("[yellow]Recargando datos...[-]")
				ui.nav.Reset()
				go ui.loadIndex()
				return nil
			case '/':
				if ui.nav.View() == nav.ViewList {
					ui.app.SetFocus(ui.searchInput)
					return nil
				}
			case 'e':
				if ui.gate.Unlocked() {
					ui.startExport()
					return nil
				}
			}
		}
		return event
	}
	ui.app.SetInputCapture(ui.globalInputCapture)
}

// statusHelpLine builds the key hint line; the export hint only shows once
// the gate is unlocked.
func (ui *UI) statusHelpLine() string {
	line := "[green]q[white]:salir [green]r[white]:recargar [green]/[white]:buscar [green]Enter[white]:abrir [green]Esc[white]:volver"
	if ui.gate != nil && ui.gate.Unlocked() {
		line += " [green]e[white]:exportar matriz"
	}
	return line
}

// loadIndex fetches the index and repaints the card list. Safe to call
// from any goroutine.
func (ui *UI) loadIndex() {
	index, err := ui.source.LoadIndex(ui.ctx)
	if err != nil {
		ui.logger.Printf("Failed to load index: %v", err)
		ui.app.QueueUpdateDraw(func() {
			ui.visible = view.RenderLoadError(err)
			ui.cardList.Clear()
			ui.cardList.AddItem(fmt.Sprintf("[red]%s[-]", tview.Escape(ui.visible.Err)), "", 0, nil)
			ui.setStatusDirect("[red]%s[-]", tview.Escape(ui.visible.Err))
		})
		return
	}

	if ui.store != nil {
		_ = ui.store.AddActivity(ui.ctx, store.ActivityEntry{
			SessionID: ui.sessionID,
			Action:    store.ActionIndexLoaded,
			Details:   map[string]interface{}{"total": len(index)},
		})
	}
	_ = ui.bus.PublishActivity(ui.ctx, bus.ActivityMessage{
		SessionID: ui.sessionID,
		Action:    store.ActionIndexLoaded,
		Timestamp: time.Now().Unix(),
	})

	ui.app.QueueUpdateDraw(func() {
		ui.index = index
		ui.applyFilter()
		ui.setStatusDirect("[green]Cargados %d casos[-]", len(index))
	})
}

// applyFilter re-renders the card list from the current query. Must run on
// the UI goroutine.
func (ui *UI) applyFilter() {
	filtered := pericias.FilterIndex(ui.index, ui.nav.Query())
	ui.visible = view.RenderCards(filtered)

	ui.cardList.Clear()
	if len(ui.visible.Cards) == 0 {
		ui.cardList.AddItem("[gray]Sin resultados[-]", "", 0, nil)
		return
	}
	for _, card := range ui.visible.Cards {
		main := fmt.Sprintf("[teal]%s[-]  [%s]%s[-]",
			tview.Escape(card.Caso), estadoTag(card.EstadoBadge), tview.Escape(card.EstadoBadge))
		secondary := fmt.Sprintf("%s | %s | %s pericias | act. %s",
			tview.Escape(card.Tipo), tview.Escape(card.FechaHecho),
			tview.Escape(card.TotalPericias), tview.Escape(card.UltimaActualizacion))
		ui.cardList.AddItem(main, secondary, 0, nil)
	}
}

// openCase starts a detail fetch for the selected case. The nav token
// discards the result if the user navigated away or selected another case
// before it landed.
func (ui *UI) openCase(caso string) {
	token := ui.nav.BeginLoad()
	ui.setStatusDirect("[yellow]Cargando caso %s...[-]", tview.Escape(caso))

	go func() {
		detail, err := ui.source.LoadCase(ui.ctx, caso)
		ui.app.QueueUpdateDraw(func() {
			if err != nil {
				ui.logger.Printf("Failed to load case %s: %v", caso, err)
				ui.setStatusDirect("[red]%s[-]", tview.Escape(view.RenderLoadError(err).Err))
				return
			}
			if !ui.nav.CompleteLoad(token, detail) {
				ui.logger.Printf("Discarding stale detail fetch for %s", caso)
				return
			}
			ui.showDetail(detail)
		})

		if err == nil && ui.store != nil {
			_ = ui.store.AddActivity(ui.ctx, store.ActivityEntry{
				SessionID: ui.sessionID,
				Action:    store.ActionCaseOpened,
				Caso:      caso,
			})
		}
		if err == nil {
			_ = ui.bus.PublishActivity(ui.ctx, bus.ActivityMessage{
				SessionID: ui.sessionID,
				Action:    store.ActionCaseOpened,
				Caso:      caso,
				Timestamp: time.Now().Unix(),
			})
		}
	}()
}

// showDetail renders the detail screen and swaps the root to it. Must run
// on the UI goroutine.
func (ui *UI) showDetail(detail *pericias.CaseDetail) {
	vm := view.RenderDetail(detail)

	ui.detailHeader.SetTitle(fmt.Sprintf(" Caso %s ", tview.Escape(vm.Caso)))
	ui.detailHeader.SetText(fmt.Sprintf(
		"[teal]Caso:[-] %s\n[teal]Tipo:[-] %s\n[teal]Fecha hecho:[-] %s\n[teal]Estado general:[-] [%s]%s[-]",
		tview.Escape(vm.Caso), tview.Escape(vm.Tipo), tview.Escape(vm.FechaHecho),
		estadoTag(vm.EstadoGeneral), tview.Escape(vm.EstadoGeneral)))

	ui.detailTable.Clear()
	for col, header := range view.RowHeaders {
		ui.detailTable.SetCell(0, col, tview.NewTableCell(header).
			SetTextColor(tcell.ColorYellow).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}
	for rowIdx, row := range vm.Rows {
		for col, cell := range row.Fields() {
			ui.detailTable.SetCell(rowIdx+1, col, tview.NewTableCell(tview.Escape(cell)))
		}
	}
	if len(vm.Rows) == 0 {
		ui.detailTable.SetCell(1, 0, tview.NewTableCell("Sin pericias").
			SetTextColor(tcell.ColorGray).
			SetSelectable(false))
	}

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.detailLayout, 0, 1, true).
		AddItem(ui.statusBar, 1, 0, false)
	ui.app.SetRoot(root, true)
	ui.app.SetFocus(ui.detailTable)
	ui.setStatusDirect("[green]Caso %s: %d pericias[-]", tview.Escape(vm.Caso), len(vm.Rows))
}

// closeDetail returns to the list screen; the filter state survives the
// round trip.
func (ui *UI) closeDetail() {
	ui.nav.Back()
	ui.restoreMainLayout()
	ui.applyFilter()
}

// restoreMainLayout reinstalls the list screen as the application root.
func (ui *UI) restoreMainLayout() {
	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.layout, 0, 1, true).
		AddItem(ui.statusBar, 1, 0, false)
	ui.app.SetRoot(root, true)

	if ui.globalInputCapture != nil {
		ui.app.SetInputCapture(ui.globalInputCapture)
	}

	target := ui.lastFocus
	if target == nil {
		target = ui.cardList
	}
	ui.lastFocus = nil
	ui.app.SetFocus(target)
	ui.setStatusDirect(ui.statusHelpLine())
}

// cycleFocus cycles focus between the list screen components.
func (ui *UI) cycleFocus() {
	switch ui.app.GetFocus() {
	case ui.searchInput:
		ui.app.SetFocus(ui.estadoDrop)
	case ui.estadoDrop:
		ui.app.SetFocus(ui.cardList)
	default:
		ui.app.SetFocus(ui.searchInput)
	}
}

// showGatePrompt opens the passphrase form. A mismatch keeps the form open
// with an inline error so the user can retry.
func (ui *UI) showGatePrompt() {
	if ui.gate == nil {
		return
	}
	if ui.gate.Unlocked() {
		ui.setStatusDirect("[green]Exportación ya habilitada[-]")
		return
	}

	errorLine := tview.NewTextView()
	errorLine.SetDynamicColors(true)
	errorLine.SetTextAlign(tview.AlignCenter)

	form := tview.NewForm()
	passField := tview.NewInputField().
		SetLabel("Clave: ").
		SetFieldWidth(32).
		SetMaskCharacter('*')

	submit := func() {
		if ui.gate.Submit(ui.ctx, passField.GetText()) {
			ui.restoreMainLayout()
			ui.setStatusDirect("[green]Exportación habilitada ([green]e[white]:exportar)[-]")
			return
		}
		passField.SetText("")
		errorLine.SetText("[red]Clave incorrecta[-]")
		ui.app.SetFocus(passField)
	}

	passField.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			submit()
		}
	})

	form.AddFormItem(passField)
	form.AddButton("Desbloquear", submit)
	form.AddButton("Cancelar", func() {
		ui.restoreMainLayout()
	})
	form.SetBorder(true)
	form.SetTitle(" Habilitar exportación ")
	form.SetTitleAlign(tview.AlignCenter)

	form.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc {
			ui.restoreMainLayout()
			return nil
		}
		return event
	})

	panel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(form, 9, 0, true).
		AddItem(errorLine, 1, 0, false)

	leftPad := tview.NewBox()
	rightPad := tview.NewBox()
	centered := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(leftPad, 0, 1, false).
		AddItem(panel, 56, 0, true).
		AddItem(rightPad, 0, 1, false)

	ui.lastFocus = ui.app.GetFocus()
	ui.app.SetRoot(centered, true)
	ui.app.SetFocus(passField)
}

// startExport builds the matrix artifact from the live source and copies it
// into the download directory.
func (ui *UI) startExport() {
	if ui.exporting {
		ui.setStatusDirect("[yellow]Exportación en curso...[-]")
		return
	}
	ui.exporting = true
	ui.setStatusDirect("[yellow]Generando %s...[-]", export.SuggestedFilename)

	go func() {
		destPath, err := ui.buildAndDownload()

		ui.app.QueueUpdateDraw(func() {
			ui.exporting = false
			if err != nil {
				ui.logger.Printf("Export failed: %v", err)
				ui.setStatusDirect("[red]Error exportando: %v[-]", err)
				return
			}
			ui.setStatusDirect("[green]Exportado a %s[-]", tview.Escape(destPath))
		})

		if err == nil {
			if ui.store != nil {
				_ = ui.store.AddActivity(ui.ctx, store.ActivityEntry{
					SessionID: ui.sessionID,
					Action:    store.ActionExportDownload,
					Details:   map[string]interface{}{"path": destPath},
				})
			}
			_ = ui.bus.PublishActivity(ui.ctx, bus.ActivityMessage{
				SessionID: ui.sessionID,
				Action:    store.ActionExportDownload,
				Timestamp: time.Now().Unix(),
			})
		}
	}()
}

func (ui *UI) buildAndDownload() (string, error) {
	index, err := ui.source.LoadIndex(ui.ctx)
	if err != nil {
		return "", fmt.Errorf("load index: %w", err)
	}

	details := make(map[string]*pericias.CaseDetail, len(index))
	for _, summary := range index {
		detail, err := ui.source.LoadCase(ui.ctx, summary.Caso)
		if err != nil {
			return "", fmt.Errorf("load case %s: %w", summary.Caso, err)
		}
		details[summary.Caso] = detail
	}

	buf, err := export.BuildMatrix(index, details)
	if err != nil {
		return "", err
	}
	if err := export.WriteArtifact(buf, ui.artifactPath); err != nil {
		return "", err
	}
	return export.Download(ui.artifactPath, ui.downloadDir)
}

// setStatusDirect updates the status bar. Must run on the UI goroutine.
func (ui *UI) setStatusDirect(format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	ui.statusBar.SetText(strings.TrimSpace(text))
}
