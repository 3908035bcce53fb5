/*
MIT License

Copyright (c) 2025 Yuval Adar <adary@adary.org>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/wayclip/wayclipd/internal/clipboard"
	"github.com/wayclip/wayclipd/internal/config"
	"github.com/wayclip/wayclipd/internal/ipc"
	"github.com/wayclip/wayclipd/internal/logging"
	"github.com/wayclip/wayclipd/internal/paths"
	"github.com/wayclip/wayclipd/internal/store"
)

// Daemon exit codes, per the process contract.
const (
	exitClean         = 0
	exitGenericFatal  = 1
	exitNoDataControl = 2
	exitSocketBind    = 3
	exitDatabaseOpen  = 4
)

const version = "0.1.0"

func main() {
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("wayclipd version %s\n", version)
		os.Exit(exitClean)
	}

	os.Exit(run())
}

func run() int {
	p, err := paths.Resolve()
	if err != nil {
		log.Printf("wayclipd: resolve paths: %v", err)
		return exitGenericFatal
	}

	cfg, err := config.LoadFrom(p.Config)
	if err != nil {
		log.Printf("wayclipd: load config: %v", err)
		return exitGenericFatal
	}

	logFile, err := config.ExpandLogFile(cfg.Logging.LogFile)
	if err != nil {
		log.Printf("wayclipd: expand log file path: %v", err)
		return exitGenericFatal
	}
	if err := logging.InitLogger(logFile, cfg.Logging.Level, cfg.Logging.MaxAge, cfg.Logging.MaxSize, cfg.Logging.MaxBackups); err != nil {
		log.Printf("wayclipd: init logging: %v", err)
		return exitGenericFatal
	}

	logging.Info("starting wayclipd %s", version)

	if err := p.EnsureDataDir(); err != nil {
		logging.Error("ensure data directory: %v", err)
		return exitGenericFatal
	}

	st, err := store.New(p.Data, store.Config{
		MaxEntries:        cfg.Store.MaxEntries,
		MaxEntrySizeBytes: cfg.Store.MaxEntrySizeBytes,
		MinEntrySizeBytes: cfg.Store.MinEntrySizeBytes,
		MaxAgeDays:        cfg.Store.MaxAgeDays,
	})
	if err != nil {
		logging.Error("open store at %s: %v", p.Data, err)
		return exitDatabaseOpen
	}
	defer st.Close()

	if n, err := st.Prune(); err != nil {
		logging.Warn("startup prune failed: %v", err)
	} else if n > 0 {
		logging.Info("startup prune removed %d entries", n)
	}

	replayer := clipboard.NewReplayer(cfg.Replay.CopyCommand, time.Duration(cfg.Replay.CommandTimeoutSeconds)*time.Second)
	if err := replayer.CheckAvailable(); err != nil {
		logging.Warn("replay command unavailable at startup: %v", err)
	}

	if err := p.EnsureSocketDir(); err != nil {
		logging.Error("ensure socket directory: %v", err)
		return exitSocketBind
	}

	server, err := ipc.NewServer(p.Socket, st, replayer, cfg.Store.MaxEntrySizeBytes)
	if err != nil {
		logging.Error("start ipc server: %v", err)
		return exitSocketBind
	}

	observerErrCh := make(chan error, 1)
	go runObserver(cfg.Store.MaxEntrySizeBytes, st, observerErrCh)

	maintenanceDone := make(chan struct{})
	go runMaintenance(st, maintenanceDone)

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- server.Serve()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	exitCode := exitClean
	select {
	case <-sigCh:
		logging.Info("received shutdown signal")
	case err := <-observerErrCh:
		if errors.Is(err, clipboard.ErrNoDataControl) {
			logging.Error("compositor lacks wlr-data-control: %v", err)
			exitCode = exitNoDataControl
		} else {
			logging.Error("observer exited: %v", err)
			exitCode = exitGenericFatal
		}
	case err := <-serveErrCh:
		logging.Error("ipc server exited: %v", err)
		exitCode = exitGenericFatal
	}

	close(maintenanceDone)
	if err := server.Shutdown(); err != nil {
		logging.Warn("ipc server shutdown: %v", err)
	}

	logging.Info("wayclipd shutting down with code %d", exitCode)
	return exitCode
}

// runObserver pins itself to its own OS thread, per the Observer's
// requirement to own the Wayland connection exclusively.
func runObserver(maxEntrySize uint64, st *store.Store, errCh chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	obs := clipboard.NewObserver(maxEntrySize, func(snap store.ClipboardSnapshot) {
		if _, _, err := st.Put(snap); err != nil {
			logging.Error("store put failed: %v", err)
		}
	}, func(format string, args ...interface{}) {
		logging.Debug(format, args...)
	})

	errCh <- obs.Run()
}

func runMaintenance(st *store.Store, done <-chan struct{}) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if n, err := st.Prune(); err != nil {
				logging.Error("periodic prune failed: %v", err)
			} else if n > 0 {
				logging.Info("periodic prune removed %d entries", n)
			}
		}
	}
}
