// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"hat-editor/internal/catalog"
	"hat-editor/internal/editor"
	pimage "hat-editor/internal/image"
	"hat-editor/internal/scene"
	"hat-editor/internal/version"
	"hat-editor/ui/canvas"
	"hat-editor/ui/panels"
	"hat-editor/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	// copiedFeedback is how long the "Copied" label stays visible.
	copiedFeedback = 2 * time.Second

	hatPanelOffset = 0.75 // Hat panel takes 25% of width
)

// Options carries the window's collaborators.
type Options struct {
	Editor    *editor.Editor
	Catalog   *catalog.Catalog
	Prefs     *prefs.Prefs
	ThumbSize int
	Logger    *slog.Logger
}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	ctx    context.Context
	editor *editor.Editor
	prefs  *prefs.Prefs
	logger *slog.Logger

	canvas    *canvas.EditorCanvas
	hats      *panels.HatPanel
	split     *container.Split
	statusBar *widget.Label
	copied    *widget.Label

	openBtn     *widget.Button
	copyBtn     *widget.Button
	downloadBtn *widget.Button
	mirrorBtn   *widget.Button
	frontBtn    *widget.Button
	removeBtn   *widget.Button

	hatPanelItem *fyne.MenuItem

	mu          sync.Mutex
	copiedTimer *time.Timer
}

// New creates the main window. ctx bounds exports and sprite loading.
func New(ctx context.Context, fyneApp fyne.App, opts Options) *MainWindow {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	win := fyneApp.NewWindow(version.Title())

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		ctx:    ctx,
		editor: opts.Editor,
		prefs:  opts.Prefs,
		logger: opts.Logger,
	}

	mw.setupUI(opts.Catalog, opts.ThumbSize)
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.restoreSize()
	mw.SetHatPanelVisible(mw.prefs.Bool(prefs.KeyHatPanel, true))
	mw.updateActions()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI(cat *catalog.Catalog, thumbSize int) {
	mw.canvas = canvas.NewEditorCanvas(mw.editor, "Open a photo to start decorating")
	mw.hats = panels.NewHatPanel(cat, thumbSize, mw.onPickHat, mw.logger)
	mw.statusBar = widget.NewLabel("Ready")

	mw.copied = widget.NewLabelWithStyle("Copied", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	mw.copied.Hide()

	canvasArea := container.NewBorder(
		mw.createToolbar(), // top
		nil,                // bottom
		nil,                // left
		nil,                // right
		mw.canvas,          // center
	)

	mw.split = container.NewHSplit(canvasArea, mw.hats.Container())
	mw.split.SetOffset(hatPanelOffset)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		mw.split,                          // center
	)

	mw.SetContent(content)
}

// createToolbar creates the toolbar with file and sticker actions.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	mw.openBtn = widget.NewButtonWithIcon("Open Photo", theme.FolderOpenIcon(), mw.onOpenPhoto)
	mw.copyBtn = widget.NewButtonWithIcon("Copy", theme.ContentCopyIcon(), mw.onCopy)
	mw.downloadBtn = widget.NewButtonWithIcon("Download", theme.DownloadIcon(), mw.onDownload)
	mw.mirrorBtn = widget.NewButtonWithIcon("Mirror", theme.ViewRefreshIcon(), mw.onMirror)
	mw.frontBtn = widget.NewButtonWithIcon("Bring to Front", theme.MoveUpIcon(), mw.onBringToFront)
	mw.removeBtn = widget.NewButtonWithIcon("Remove", theme.DeleteIcon(), mw.onRemove)
	mw.openBtn.Importance = widget.HighImportance

	return container.NewHBox(
		mw.openBtn,
		widget.NewSeparator(),
		mw.copyBtn,
		mw.downloadBtn,
		mw.copied,
		widget.NewSeparator(),
		mw.mirrorBtn,
		mw.frontBtn,
		mw.removeBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Photo...", mw.onOpenPhoto),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Copy Image", mw.onCopy),
		fyne.NewMenuItem("Download Image", mw.onDownload),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Mirror Hat", mw.onMirror),
		fyne.NewMenuItem("Bring to Front", mw.onBringToFront),
		fyne.NewMenuItem("Remove Hat", mw.onRemove),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Deselect", func() { mw.editor.Select("") }),
	)

	mw.hatPanelItem = fyne.NewMenuItem("Show Hats", func() {
		mw.SetHatPanelVisible(!mw.HatPanelVisible())
	})
	viewMenu := fyne.NewMenu("View", mw.hatPanelItem)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))

	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			mw.onRemove()
		case fyne.KeyEscape:
			mw.editor.Select("")
		}
	})
}

// setupEventHandlers registers for editor events.
func (mw *MainWindow) setupEventHandlers() {
	mw.editor.OnImageStateChanged(func(loaded bool) {
		if loaded {
			mw.updateStatus("Photo loaded. Pick a hat on the right.")
		}
		mw.updateActions()
	})
	mw.editor.On(editor.EventSceneChanged, func(interface{}) {
		mw.canvas.ImageChanged()
		mw.updateActions()
	})
	mw.editor.On(editor.EventExportFailed, func(data interface{}) {
		if err, ok := data.(error); ok {
			mw.updateStatus("Export failed: " + err.Error())
		}
	})

	mw.SetCloseIntercept(func() {
		mw.saveSize()
		mw.Close()
	})
}

// HatPanelVisible reports whether the hat panel is shown.
func (mw *MainWindow) HatPanelVisible() bool {
	return mw.hats.Container().Visible()
}

// SetHatPanelVisible shows or hides the hat panel and remembers the choice.
func (mw *MainWindow) SetHatPanelVisible(visible bool) {
	panel := mw.hats.Container()
	if visible {
		panel.Show()
		mw.split.SetOffset(hatPanelOffset)
	} else {
		panel.Hide()
		mw.split.SetOffset(1)
	}
	mw.hatPanelItem.Checked = visible
	if menu := mw.MainMenu(); menu != nil {
		menu.Refresh()
	}

	mw.prefs.SetBool(prefs.KeyHatPanel, visible)
	if err := mw.prefs.Save(); err != nil {
		mw.logger.Warn("saving preferences failed", "error", err)
	}
}

// updateActions enables toolbar buttons according to the editor state.
func (mw *MainWindow) updateActions() {
	loaded := mw.editor.HasImage()
	selected := mw.editor.Selected() != ""

	setEnabled(mw.copyBtn, loaded)
	setEnabled(mw.downloadBtn, loaded)
	setEnabled(mw.mirrorBtn, selected)
	setEnabled(mw.frontBtn, selected)
	setEnabled(mw.removeBtn, selected)
}

func setEnabled(btn *widget.Button, enabled bool) {
	if enabled {
		btn.Enable()
	} else {
		btn.Disable()
	}
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used photo directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastPhotoDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastPhotoDir, filepath.Dir(filePath))
	if err := mw.prefs.Save(); err != nil {
		mw.logger.Warn("saving preferences failed", "error", err)
	}
}

func (mw *MainWindow) restoreSize() {
	w := mw.prefs.Float(prefs.KeyWindowWidth, 1100)
	h := mw.prefs.Float(prefs.KeyWindowHeight, 750)
	mw.Resize(fyne.NewSize(float32(w), float32(h)))
}

func (mw *MainWindow) saveSize() {
	size := mw.Canvas().Size()
	mw.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
	mw.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	if err := mw.prefs.Save(); err != nil {
		mw.logger.Warn("saving preferences failed", "error", err)
	}
}

// OpenFile loads the photo at path.
func (mw *MainWindow) OpenFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}
	if err := mw.editor.LoadImage(mw.ctx, data); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	mw.saveLastDir(path)
	mw.SetTitle(version.Title() + " - " + filepath.Base(path))
	return nil
}

func (mw *MainWindow) onOpenPhoto() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()

		data, err := io.ReadAll(reader)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		path := reader.URI().Path()
		if err := mw.editor.LoadImage(mw.ctx, data); err != nil {
			mw.showLoadError(err)
			return
		}
		mw.saveLastDir(path)
		mw.SetTitle(version.Title() + " - " + filepath.Base(path))
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(pimage.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) showLoadError(err error) {
	if errors.Is(err, pimage.ErrDecode) {
		dialog.ShowInformation("Not a photo", "That file could not be read as an image.", mw.Window)
		return
	}
	dialog.ShowError(err, mw.Window)
}

func (mw *MainWindow) onPickHat(hat scene.Hat) {
	err := mw.editor.RequestAddSticker(mw.ctx, hat, mw.hats.Ack)
	switch {
	case err == nil:
		mw.updateStatus(hat.Name + " added. Drag to move, use the handles to resize or rotate.")
	case errors.Is(err, scene.ErrNoImage):
		mw.updateStatus("Open a photo first")
	default:
		mw.logger.Warn("adding hat failed", "hat", hat.ID, "error", err)
		mw.updateStatus("Could not add " + hat.Name)
	}
}

func (mw *MainWindow) onCopy() {
	if !mw.editor.Copy(mw.ctx) {
		mw.updateStatus("Copy failed: the clipboard is not available. Try Download instead.")
		return
	}
	mw.showCopied()
}

// showCopied shows the "Copied" label and hides it after copiedFeedback. A
// second copy restarts the timer.
func (mw *MainWindow) showCopied() {
	mw.copied.Show()
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.copiedTimer != nil {
		mw.copiedTimer.Stop()
	}
	mw.copiedTimer = time.AfterFunc(copiedFeedback, mw.copied.Hide)
}

func (mw *MainWindow) onDownload() {
	path, err := mw.editor.Download(mw.ctx)
	if err != nil {
		if errors.Is(err, scene.ErrNoImage) {
			mw.updateStatus("Open a photo first")
			return
		}
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateStatus("Saved " + path)
}

func (mw *MainWindow) onMirror() {
	mw.editor.ToggleMirror()
}

func (mw *MainWindow) onBringToFront() {
	mw.editor.BringSelectedToFront()
}

func (mw *MainWindow) onRemove() {
	if mw.editor.RemoveSelected() {
		mw.updateStatus("Hat removed")
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About", version.String(), mw.Window)
}
