package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"chatclient/api"
	"chatclient/chat"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// FileBrowserMode determines what the browser selects
type FileBrowserMode int

const (
	FileBrowserModeFile FileBrowserMode = iota
	FileBrowserModeDirectory
)

// FileBrowserResult contains the result of file browser dialog
type FileBrowserResult struct {
	Selected bool
	Path     string
}

const useDirItem = "✔ Use this directory"

// showFileBrowser shows a file browser dialog
func (a *App) showFileBrowser(mode FileBrowserMode, initialPath string, callback func(FileBrowserResult)) {
	startDir := initialPath
	if startDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			startDir = home
		} else {
			startDir = "/"
		}
	}
	if abs, err := filepath.Abs(startDir); err == nil {
		startDir = abs
	}
	if info, err := os.Stat(startDir); err == nil && !info.IsDir() {
		startDir = filepath.Dir(startDir)
	}

	currentDir := startDir

	fileList := newDialogList("")
	fileList.ShowSecondaryText(true)

	pathInput := tview.NewInputField()
	pathInput.SetLabel(" Path: ")
	pathInput.SetFieldWidth(0)
	pathInput.SetBackgroundColor(ColorBg)
	pathInput.SetFieldBackgroundColor(ColorField)
	pathInput.SetFieldTextColor(ColorFg)
	pathInput.SetLabelColor(ColorHighlight)
	pathInput.SetText(currentDir)

	statusText := tview.NewTextView()
	statusText.SetBackgroundColor(ColorButton)
	statusText.SetTextColor(ColorTitle)
	statusText.SetTextAlign(tview.AlignCenter)
	statusText.SetText(" Enter:Select | Backspace:Up | Tab:Path | Esc:Cancel ")

	finish := func(res FileBrowserResult) {
		a.pages.RemovePage("filebrowser")
		callback(res)
	}

	populateList := func(dir string) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}

		fileList.Clear()

		if mode == FileBrowserModeDirectory {
			fileList.AddItem(useDirItem, "", 0, nil)
		}
		if dir != "/" {
			fileList.AddItem("📁 ..", "", 0, nil)
		}

		var dirs, files []os.DirEntry
		for _, entry := range entries {
			// Skip hidden files
			if strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			if entry.IsDir() {
				dirs = append(dirs, entry)
			} else {
				files = append(files, entry)
			}
		}

		sort.Slice(dirs, func(i, j int) bool {
			return strings.ToLower(dirs[i].Name()) < strings.ToLower(dirs[j].Name())
		})
		sort.Slice(files, func(i, j int) bool {
			return strings.ToLower(files[i].Name()) < strings.ToLower(files[j].Name())
		})

		for _, entry := range dirs {
			fileList.AddItem(fmt.Sprintf("📁 %s/", tview.Escape(entry.Name())), "", 0, nil)
		}

		if mode == FileBrowserModeFile {
			for _, entry := range files {
				sizeStr := ""
				if info, err := entry.Info(); err == nil {
					sizeStr = chat.FormatFileSize(info.Size())
					if info.Size() > api.MaxUploadSize {
						sizeStr += " (too large)"
					}
				}
				fileList.AddItem(fmt.Sprintf("📄 %s", tview.Escape(entry.Name())), "   "+sizeStr, 0, nil)
			}
		}

		currentDir = dir
		pathInput.SetText(dir)

		title := " Upload File "
		if mode == FileBrowserModeDirectory {
			title = " Save To "
		}
		fileList.SetTitle(fmt.Sprintf("%s- %s ", title, tview.Escape(dir)))
		return nil
	}

	// Get entry name from list item text
	getEntryName := func(text string) string {
		if strings.HasPrefix(text, "📁 ") {
			name := strings.TrimPrefix(text, "📁 ")
			return unescape(strings.TrimSuffix(name, "/"))
		}
		return unescape(strings.TrimPrefix(text, "📄 "))
	}

	goUp := func() {
		if currentDir == "/" {
			return
		}
		if err := populateList(filepath.Dir(currentDir)); err != nil {
			statusText.SetText(fmt.Sprintf(" Error: %v ", err))
		}
	}

	fileList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		if mainText == useDirItem {
			finish(FileBrowserResult{Selected: true, Path: currentDir})
			return
		}
		entryName := getEntryName(mainText)
		if entryName == ".." {
			goUp()
			return
		}

		fullPath := filepath.Join(currentDir, entryName)
		if strings.HasPrefix(mainText, "📁 ") {
			if err := populateList(fullPath); err != nil {
				statusText.SetText(fmt.Sprintf(" Error: %v ", err))
			}
			return
		}
		if mode == FileBrowserModeFile {
			finish(FileBrowserResult{Selected: true, Path: fullPath})
		}
	})

	fileList.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc:
			finish(FileBrowserResult{Selected: false})
			return nil
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			goUp()
			return nil
		case tcell.KeyTab:
			a.app.SetFocus(pathInput)
			return nil
		}
		return event
	})

	pathInput.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			newPath := pathInput.GetText()
			if info, err := os.Stat(newPath); err == nil && info.IsDir() {
				if err := populateList(newPath); err != nil {
					statusText.SetText(fmt.Sprintf(" Error: %v ", err))
				}
			} else {
				statusText.SetText(" Invalid directory ")
			}
		case tcell.KeyEsc:
			pathInput.SetText(currentDir)
		}
		a.app.SetFocus(fileList)
	})

	if err := populateList(currentDir); err != nil {
		statusText.SetText(fmt.Sprintf(" Error: %v ", err))
	}

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(pathInput, 1, 0, false).
		AddItem(fileList, 0, 1, true).
		AddItem(statusText, 1, 0, false)
	mainFlex.SetBackgroundColor(ColorBg)

	a.pages.RemovePage("filebrowser")
	a.pages.AddPage("filebrowser", centered(mainFlex, 64, 20), true, true)
	a.app.SetFocus(fileList)
}

// unescape reverses tview.Escape for names shown in the list.
func unescape(s string) string {
	return strings.ReplaceAll(s, "[]", "]")
}
