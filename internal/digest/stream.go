// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package digest

import (
	"io"

	"github.com/forensiq/ddup/internal/model"
)

// Stream drives a fresh Engine across r in chunkSize-sized reads until
// EOF, never materializing more than one chunk at a time, and returns the
// finalized digest triple. chunkSize <= 0 falls back to 65536, mirroring
// the reference default for Options.HashChunkSize.
func Stream(r io.Reader, sel model.DigestSelection, chunkSize int) (Triple, error) {
	if chunkSize <= 0 {
		chunkSize = 65536
	}

	e := New(sel)
	buf := make([]byte, chunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			e.Update(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Triple{}, err
		}
	}

	return e.Finalize(), nil
}
