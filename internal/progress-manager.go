package internal

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rget-dev/rget/utils"
)

type ProgressInfo struct {
	OutputPath    string
	TotalSize     int64
	Downloaded    int64
	Completed     bool
	CompletedSize int64
	Failure       string
	StartTime     time.Time
}

// ProgressManager is the shared progress sink for all in-flight transfers.
// Workers report byte increments through Update; a display goroutine
// re-renders the active transfers on a ticker unless quiet mode is set.
type ProgressManager struct {
	progressMap map[string]*ProgressInfo
	mutex       sync.RWMutex
	doneCh      chan struct{}
	displayDone chan struct{}
	quiet       bool
	numLines    int
}

func NewProgressManager(quiet bool) *ProgressManager {
	return &ProgressManager{
		progressMap: make(map[string]*ProgressInfo),
		doneCh:      make(chan struct{}),
		displayDone: make(chan struct{}),
		quiet:       quiet,
	}
}

// Register adds a transfer; totalSize -1 means unknown size.
func (pm *ProgressManager) Register(outputPath string, totalSize int64) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	pm.progressMap[outputPath] = &ProgressInfo{
		OutputPath: outputPath,
		TotalSize:  totalSize,
		StartTime:  time.Now(),
	}
}

func (pm *ProgressManager) Update(outputPath string, bytesDownloaded int64) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	if info, exists := pm.progressMap[outputPath]; exists {
		info.Downloaded += bytesDownloaded
	}
}

func (pm *ProgressManager) Complete(outputPath string, totalDownloaded int64) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	if info, exists := pm.progressMap[outputPath]; exists {
		info.Completed = true
		info.CompletedSize = totalDownloaded
	}
}

func (pm *ProgressManager) ReportError(outputPath string, err error) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	if info, exists := pm.progressMap[outputPath]; exists {
		info.Completed = true
		info.Failure = fmt.Sprintf("Error: %v", err)
	}
}

func (pm *ProgressManager) StartDisplay() {
	if pm.quiet {
		return
	}
	go func() {
		defer close(pm.displayDone)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pm.updateDisplay()
			case <-pm.doneCh:
				return
			}
		}
	}()
}

// Stop halts the display goroutine and waits for it to finish its current
// render before drawing the final state, so the two never interleave.
func (pm *ProgressManager) Stop() {
	if pm.quiet {
		return
	}
	close(pm.doneCh)
	<-pm.displayDone
	pm.updateDisplay()
	fmt.Println()
}

func (pm *ProgressManager) updateDisplay() {
	pm.mutex.RLock()
	infos := pm.sortedInfos()
	pm.mutex.RUnlock()
	if pm.numLines > 0 {
		fmt.Printf("\033[%dA", pm.numLines)
	}
	barWidth := min(40, utils.GetTerminalWidth()/3)
	for _, info := range infos {
		fmt.Print("\r\033[K")
		switch {
		case info.Failure != "":
			fmt.Printf("%s %s %s\n", utils.FError(utils.StyleSymbols["fail"]), info.OutputPath, utils.FError(info.Failure))
		case info.Completed:
			fmt.Printf("%s %s (%s)\n", utils.FSuccess(utils.StyleSymbols["pass"]), info.OutputPath, utils.FormatBytes(uint64(info.CompletedSize)))
		case info.TotalSize > 0:
			fmt.Printf("%s %s %s %s/%s\n", utils.FDetail(utils.StyleSymbols["pending"]), info.OutputPath,
				utils.FormatProgressBar(info.Downloaded, info.TotalSize, barWidth),
				utils.FormatBytes(uint64(info.Downloaded)), utils.FormatBytes(uint64(info.TotalSize)))
		default:
			fmt.Printf("%s %s %s\n", utils.FDetail(utils.StyleSymbols["pending"]), info.OutputPath, utils.FormatBytes(uint64(info.Downloaded)))
		}
	}
	pm.numLines = len(infos)
}

// sortedInfos copies the current state so the display can render it
// without holding the lock.
func (pm *ProgressManager) sortedInfos() []ProgressInfo {
	infos := make([]ProgressInfo, 0, len(pm.progressMap))
	for _, info := range pm.progressMap {
		infos = append(infos, *info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].OutputPath < infos[j].OutputPath
	})
	return infos
}

func (pm *ProgressManager) ShowSummary(succeeded, total int) {
	if pm.quiet {
		return
	}
	if succeeded == total {
		utils.PrintSuccess(fmt.Sprintf("Downloaded %d/%d files", succeeded, total))
	} else {
		utils.PrintWarning(fmt.Sprintf("Downloaded %d/%d files", succeeded, total))
	}
}
