// Copyright (C) 2019-2021 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package logging

import (
	"fmt"
	"os"

	"github.com/algorand/go-deadlock"
)

// CyclicFileWriter is an io.Writer over a log file that never grows past limit
// bytes. When a write would cross the limit the live file is renamed to the
// archive path, replacing any previous archive, and a fresh live file is started.
type CyclicFileWriter struct {
	mu      deadlock.Mutex
	file    *os.File
	live    string
	archive string
	size    uint64
	limit   uint64
}

// MakeCyclicFileWriter opens (or appends to) livePath.
func MakeCyclicFileWriter(livePath, archivePath string, limit uint64) (*CyclicFileWriter, error) {
	w := &CyclicFileWriter{live: livePath, archive: archivePath, limit: limit}
	if fi, err := os.Stat(livePath); err == nil {
		w.size = uint64(fi.Size())
	}
	f, err := os.OpenFile(livePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("CyclicFileWriter: cannot open log file: %w", err)
	}
	w.file = f
	return w, nil
}

func (w *CyclicFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if uint64(len(p)) > w.limit {
		return 0, fmt.Errorf("CyclicFileWriter: entry of %d bytes exceeds limit %d", len(p), w.limit)
	}
	if w.size+uint64(len(p)) > w.limit {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += uint64(n)
	return n, err
}

func (w *CyclicFileWriter) rotate() error {
	w.file.Close()
	if err := os.Rename(w.live, w.archive); err != nil {
		return fmt.Errorf("CyclicFileWriter: cannot archive full log: %w", err)
	}
	f, err := os.OpenFile(w.live, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return fmt.Errorf("CyclicFileWriter: cannot reopen log file: %w", err)
	}
	w.file = f
	w.size = 0
	return nil
}

// Close the underlying file.
func (w *CyclicFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
